package status

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/hailam/auntysue/internal/board"
	"github.com/hailam/auntysue/internal/engine"
	"github.com/hailam/auntysue/internal/storage"
)

type fakeEngine struct{ st engine.Status }

func (f fakeEngine) Status() engine.Status { return f.st }

// failingArchive fails every read.
type failingArchive struct{ err error }

func (f failingArchive) LoadStats() (*storage.GameStats, error) { return nil, f.err }
func (f failingArchive) Games() ([]*storage.GameRecord, error) { return nil, f.err }
func (f failingArchive) LoadGame(string) (*storage.GameRecord, error) { return nil, f.err }
func (f failingArchive) LoadAnalysis(uint64) (storage.Analysis, bool, error) {
	return storage.Analysis{}, false, f.err
}

func get(t *testing.T, h http.Handler, path string, body any) int {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	if err := json.Unmarshal(rec.Body.Bytes(), body); err != nil {
		t.Fatalf("%s: invalid JSON %q: %v", path, rec.Body.String(), err)
	}
	return rec.Code
}

func openStore(t *testing.T) *storage.Storage {
	t.Helper()
	s, err := storage.Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestEngineRoutes(t *testing.T) {
	eng := fakeEngine{st: engine.Status{
		Thinking:   true,
		DeepestPly: 6,
		Nodes:      1234567,
		RootPly:    2,
		SideToMove: "Black",
	}}
	h := Router(eng, nil, zerolog.Nop())

	t.Run("Ping", func(t *testing.T) {
		var body map[string]any
		if code := get(t, h, "/api/ping", &body); code != http.StatusOK || body["ok"] != true {
			t.Errorf("Unexpected response %d %v", code, body)
		}
	})

	t.Run("Status", func(t *testing.T) {
		var body map[string]any
		if code := get(t, h, "/api/status", &body); code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", code)
		}
		if body["thinking"] != true || body["deepest_ply"] != float64(6) || body["side_to_move"] != "Black" {
			t.Errorf("Unexpected status: %v", body)
		}
		if body["nodes_human"] != "1,234,567" {
			t.Errorf("Unexpected nodes_human: %v", body["nodes_human"])
		}
	})

	t.Run("ArchiveDisabled", func(t *testing.T) {
		for _, path := range []string{"/api/stats", "/api/games", "/api/games/1", "/api/analysis/ff"} {
			var body map[string]any
			if code := get(t, h, path, &body); code != http.StatusNotFound {
				t.Errorf("%s: expected 404 without storage, got %d", path, code)
			}
		}
	})
}

func TestArchiveRoutes(t *testing.T) {
	store := openStore(t)
	h := Router(fakeEngine{}, store, zerolog.Nop())

	moves := []string{"e2e4", "d7d5", "e4d5", "d8d5"}
	rec := &storage.GameRecord{
		Started:     time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC),
		EngineColor: "Black",
		Moves:       moves,
		Result:      storage.ResultAborted,
	}
	if err := store.RecordGame(rec); err != nil {
		t.Fatalf("RecordGame failed: %v", err)
	}
	if err := store.RecordGame(&storage.GameRecord{Started: rec.Started.Add(time.Hour), EngineColor: "Black", Result: storage.ResultBlackWins}); err != nil {
		t.Fatalf("RecordGame failed: %v", err)
	}

	// Analysis as the protocol driver stores it: the position after the
	// opponent's move, keyed with the engine to move.
	start := board.Default()
	afterE4 := start.Apply(board.MustParseMove("e2e4"))
	hash := afterE4.Hash(board.Black)
	if err := store.SaveAnalysis(hash, storage.Analysis{Score: -100, Depth: 4, Nodes: 900}); err != nil {
		t.Fatalf("SaveAnalysis failed: %v", err)
	}

	t.Run("Stats", func(t *testing.T) {
		var body map[string]any
		if code := get(t, h, "/api/stats", &body); code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", code)
		}
		if body["games_played"] != float64(1) || body["aborted"] != float64(1) || body["win_rate"] != float64(100) {
			t.Errorf("Unexpected stats: %v", body)
		}
	})

	t.Run("Games", func(t *testing.T) {
		var games []gameSummary
		if code := get(t, h, "/api/games", &games); code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", code)
		}
		if len(games) != 2 {
			t.Fatalf("Expected 2 games, got %d", len(games))
		}
		if games[0].ID != rec.ID || games[0].Moves != len(moves) {
			t.Errorf("Unexpected summary: %+v", games[0])
		}
	})

	t.Run("Game", func(t *testing.T) {
		var game struct {
			Moves    []string      `json:"moves"`
			Analysis []plyAnalysis `json:"analysis"`
		}
		if code := get(t, h, "/api/games/"+rec.ID, &game); code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", code)
		}
		if len(game.Moves) != len(moves) {
			t.Errorf("Expected %d moves, got %v", len(moves), game.Moves)
		}
		if len(game.Analysis) != 1 {
			t.Fatalf("Expected analysis for one position, got %+v", game.Analysis)
		}
		a := game.Analysis[0]
		if a.Ply != 1 || a.Move != "d7d5" || a.Score != -100 || a.Depth != 4 {
			t.Errorf("Unexpected analysis: %+v", a)
		}
		if a.Hash != strconv.FormatUint(hash, 16) {
			t.Errorf("Unexpected hash %s", a.Hash)
		}
	})

	t.Run("MissingGame", func(t *testing.T) {
		var body map[string]any
		if code := get(t, h, "/api/games/nope", &body); code != http.StatusNotFound {
			t.Errorf("Expected 404, got %d", code)
		}
	})

	t.Run("Analysis", func(t *testing.T) {
		var a storage.Analysis
		if code := get(t, h, "/api/analysis/"+strconv.FormatUint(hash, 16), &a); code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", code)
		}
		if a.Score != -100 || a.Nodes != 900 {
			t.Errorf("Unexpected analysis: %+v", a)
		}

		var body map[string]any
		if code := get(t, h, "/api/analysis/abc", &body); code != http.StatusNotFound {
			t.Errorf("Expected 404 for an unknown position, got %d", code)
		}
		if code := get(t, h, "/api/analysis/xyz", &body); code != http.StatusBadRequest {
			t.Errorf("Expected 400 for a bad hash, got %d", code)
		}
	})
}

func TestArchiveErrors(t *testing.T) {
	h := Router(fakeEngine{}, failingArchive{err: errors.New("disk on fire")}, zerolog.Nop())
	for _, path := range []string{"/api/stats", "/api/games", "/api/games/1", "/api/analysis/ff"} {
		var body map[string]any
		code := get(t, h, path, &body)
		if code != http.StatusInternalServerError || body["error"] != "disk on fire" {
			t.Errorf("%s: unexpected response %d %v", path, code, body)
		}
	}
}
