// Package status serves a read-only JSON view of the engine over HTTP.
package status

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/hailam/auntysue/internal/board"
	"github.com/hailam/auntysue/internal/engine"
	"github.com/hailam/auntysue/internal/storage"
)

// Snapshotter reports the engine state.
type Snapshotter interface {
	Status() engine.Status
}

// Archive reads stored games, statistics and analysis.
type Archive interface {
	LoadStats() (*storage.GameStats, error)
	Games() ([]*storage.GameRecord, error)
	LoadGame(id string) (*storage.GameRecord, error)
	LoadAnalysis(hash uint64) (storage.Analysis, bool, error)
}

type engineStatus struct {
	engine.Status
	NodesHuman string `json:"nodes_human"`
}

type statsResponse struct {
	*storage.GameStats
	WinRate float64 `json:"win_rate"`
}

type gameSummary struct {
	ID          string    `json:"id"`
	Started     time.Time `json:"started"`
	Finished    time.Time `json:"finished"`
	EngineColor string    `json:"engine_color"`
	Moves       int       `json:"moves"`
	Result      string    `json:"result"`
}

// plyAnalysis is the stored analysis of a position the engine replied from.
type plyAnalysis struct {
	Ply  int    `json:"ply"`
	Hash string `json:"hash"`
	Move string `json:"move"`
	storage.Analysis
}

type gameResponse struct {
	*storage.GameRecord
	Analysis []plyAnalysis `json:"analysis"`
}

// Router builds the HTTP handler. archive may be nil when persistence is off;
// the archive routes then answer 404.
func Router(eng Snapshotter, archive Archive, log zerolog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(log))
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
		})

		r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
			st := eng.Status()
			writeJSON(w, http.StatusOK, engineStatus{
				Status:     st,
				NodesHuman: humanize.Comma(int64(st.Nodes)),
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(requireArchive(archive))

			r.Get("/stats", func(w http.ResponseWriter, r *http.Request) {
				stats, err := archive.LoadStats()
				if err != nil {
					serverError(w, log, "load stats", err)
					return
				}
				writeJSON(w, http.StatusOK, statsResponse{GameStats: stats, WinRate: stats.GetWinRate()})
			})

			r.Get("/games", func(w http.ResponseWriter, r *http.Request) {
				games, err := archive.Games()
				if err != nil {
					serverError(w, log, "list games", err)
					return
				}
				out := make([]gameSummary, len(games))
				for i, g := range games {
					out[i] = gameSummary{
						ID:          g.ID,
						Started:     g.Started,
						Finished:    g.Finished,
						EngineColor: g.EngineColor,
						Moves:       len(g.Moves),
						Result:      g.Result,
					}
				}
				writeJSON(w, http.StatusOK, out)
			})

			r.Get("/games/{id}", func(w http.ResponseWriter, r *http.Request) {
				g, err := archive.LoadGame(chi.URLParam(r, "id"))
				if errors.Is(err, storage.ErrNotFound) {
					writeJSON(w, http.StatusNotFound, map[string]string{"error": "game not found"})
					return
				}
				if err != nil {
					serverError(w, log, "load game", err)
					return
				}
				analysis, err := replay(archive, g)
				if err != nil {
					serverError(w, log, "load analysis", err)
					return
				}
				writeJSON(w, http.StatusOK, gameResponse{GameRecord: g, Analysis: analysis})
			})

			r.Get("/analysis/{hash}", func(w http.ResponseWriter, r *http.Request) {
				hash, err := strconv.ParseUint(chi.URLParam(r, "hash"), 16, 64)
				if err != nil {
					writeJSON(w, http.StatusBadRequest, map[string]string{"error": "hash must be hexadecimal"})
					return
				}
				a, ok, err := archive.LoadAnalysis(hash)
				if err != nil {
					serverError(w, log, "load analysis", err)
					return
				}
				if !ok {
					writeJSON(w, http.StatusNotFound, map[string]string{"error": "position not analysed"})
					return
				}
				writeJSON(w, http.StatusOK, a)
			})
		})
	})

	return r
}

// replay walks a recorded game from the start position and collects the
// stored analysis of every position where the engine was to move. Games with
// unreadable move text stop at the first bad move.
func replay(archive Archive, g *storage.GameRecord) ([]plyAnalysis, error) {
	out := []plyAnalysis{}
	pos := board.Default()
	side := board.White

	for ply, text := range g.Moves {
		m, err := board.ParseMove(text)
		if err != nil {
			break
		}
		if side.String() == g.EngineColor {
			hash := pos.Hash(side)
			a, ok, err := archive.LoadAnalysis(hash)
			if err != nil {
				return nil, err
			}
			if ok {
				out = append(out, plyAnalysis{
					Ply:      ply,
					Hash:     strconv.FormatUint(hash, 16),
					Move:     text,
					Analysis: a,
				})
			}
		}
		pos = pos.Apply(m)
		side = side.Other()
	}
	return out, nil
}

// requireArchive answers 404 for archive routes when persistence is off.
func requireArchive(archive Archive) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if archive == nil {
				writeJSON(w, http.StatusNotFound, map[string]string{"error": "persistence disabled"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func serverError(w http.ResponseWriter, log zerolog.Logger, what string, err error) {
	log.Error().Err(err).Msg(what)
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
}

// Serve runs the server on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, h http.Handler, log zerolog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", addr).Msg("status server listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// requestLogger logs each request through zerolog. Standard output carries
// the protocol, so chi's default logger cannot be used.
func requestLogger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Debug().
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("elapsed", time.Since(start)).
				Msg("http request")
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
