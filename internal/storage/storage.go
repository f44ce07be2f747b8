package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/klauspost/compress/zstd"
)

// Storage keys
const (
	keyStats       = "stats"
	prefixGame     = "game/"
	prefixAnalysis = "analysis/"
)

// Game results in PGN notation.
const (
	ResultWhiteWins = "1-0"
	ResultBlackWins = "0-1"
	ResultDraw      = "1/2-1/2"
	ResultAborted   = "*"
)

// ErrNotFound is returned when a game record does not exist.
var ErrNotFound = errors.New("storage: not found")

// GameRecord is one game as played over the protocol.
type GameRecord struct {
	ID          string    `json:"id"`
	Started     time.Time `json:"started"`
	Finished    time.Time `json:"finished"`
	EngineColor string    `json:"engine_color"`
	Moves       []string  `json:"moves"`
	Result      string    `json:"result"`
}

// outcome returns +1 for an engine win, -1 for a loss, 0 for a draw or an
// unfinished game.
func (r *GameRecord) outcome() int {
	switch r.Result {
	case ResultWhiteWins:
		if r.EngineColor == "White" {
			return 1
		}
		return -1
	case ResultBlackWins:
		if r.EngineColor == "Black" {
			return 1
		}
		return -1
	default:
		return 0
	}
}

// GameStats stores aggregate results from the engine's point of view.
type GameStats struct {
	GamesPlayed  int `json:"games_played"`
	Wins         int `json:"wins"`
	Losses       int `json:"losses"`
	Draws        int `json:"draws"`
	Aborted      int `json:"aborted"`
	IllegalMoves int `json:"illegal_moves"`
}

// GetWinRate returns the win rate as a percentage (0-100)
func (s *GameStats) GetWinRate() float64 {
	if s.GamesPlayed == 0 {
		return 0
	}
	return float64(s.Wins) / float64(s.GamesPlayed) * 100
}

// Analysis is what the engine knew about a position when it committed a reply.
type Analysis struct {
	Score int    `json:"score"` // centipawns, engine's point of view
	Depth int    `json:"depth"`
	Nodes uint64 `json:"nodes"`
}

// Storage wraps BadgerDB for persistent storage
type Storage struct {
	db  *badger.DB
	enc *zstd.Encoder
	dec *zstd.Decoder
}

// Open opens (or creates) the database in dir.
func Open(dir string) (*Storage, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil // badger logs to stderr otherwise

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", dir, err)
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		db.Close()
		return nil, err
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		db.Close()
		return nil, err
	}

	return &Storage{db: db, enc: enc, dec: dec}, nil
}

// OpenDefault opens the database under dataDir, or under the platform data
// directory when dataDir is empty.
func OpenDefault(dataDir string) (*Storage, error) {
	l, err := ResolveLayout(dataDir)
	if err != nil {
		return nil, err
	}
	return Open(l.Archive)
}

// Close closes the database
func (s *Storage) Close() error {
	s.dec.Close()
	s.enc.Close()
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// LoadStats loads game statistics, returns empty stats if not found
func (s *Storage) LoadStats() (*GameStats, error) {
	stats := &GameStats{}
	err := s.db.View(func(txn *badger.Txn) error {
		return loadStats(txn, stats)
	})
	return stats, err
}

func loadStats(txn *badger.Txn, stats *GameStats) error {
	item, err := txn.Get([]byte(keyStats))
	if err == badger.ErrKeyNotFound {
		return nil // Use empty stats
	}
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, stats)
	})
}

// updateStats applies fn to the stored statistics in one transaction.
func (s *Storage) updateStats(txn *badger.Txn, fn func(*GameStats)) error {
	stats := &GameStats{}
	if err := loadStats(txn, stats); err != nil {
		return err
	}
	fn(stats)
	data, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	return txn.Set([]byte(keyStats), data)
}

// RecordGame archives a game and updates statistics. A record without an ID
// gets one from its start time.
func (s *Storage) RecordGame(rec *GameRecord) error {
	if rec.ID == "" {
		rec.ID = strconv.FormatInt(rec.Started.UnixNano(), 10)
	}
	if rec.Finished.IsZero() {
		rec.Finished = time.Now()
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	packed := s.enc.EncodeAll(data, nil)

	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(prefixGame+rec.ID), packed); err != nil {
			return err
		}
		return s.updateStats(txn, func(stats *GameStats) {
			if rec.Result == ResultAborted || rec.Result == "" {
				stats.Aborted++
				return
			}
			stats.GamesPlayed++
			switch rec.outcome() {
			case 1:
				stats.Wins++
			case -1:
				stats.Losses++
			default:
				stats.Draws++
			}
		})
	})
}

// RecordIllegalMove counts an opponent move the engine rejected.
func (s *Storage) RecordIllegalMove() error {
	return s.db.Update(func(txn *badger.Txn) error {
		return s.updateStats(txn, func(stats *GameStats) {
			stats.IllegalMoves++
		})
	})
}

// LoadGame returns the archived game with the given ID.
func (s *Storage) LoadGame(id string) (*GameRecord, error) {
	var rec GameRecord
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(prefixGame + id))
		if err == badger.ErrKeyNotFound {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return s.decodeGame(val, &rec)
		})
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Games returns every archived game in key order.
func (s *Storage) Games() ([]*GameRecord, error) {
	var games []*GameRecord
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefixGame)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			rec := &GameRecord{}
			if err := it.Item().Value(func(val []byte) error {
				return s.decodeGame(val, rec)
			}); err != nil {
				return err
			}
			games = append(games, rec)
		}
		return nil
	})
	return games, err
}

func (s *Storage) decodeGame(val []byte, rec *GameRecord) error {
	data, err := s.dec.DecodeAll(val, nil)
	if err != nil {
		return fmt.Errorf("decompress game: %w", err)
	}
	return json.Unmarshal(data, rec)
}

func analysisKey(hash uint64) []byte {
	return []byte(fmt.Sprintf("%s%016x", prefixAnalysis, hash))
}

// SaveAnalysis stores what is known about the position with the given hash.
// A shallower result never replaces a deeper one.
func (s *Storage) SaveAnalysis(hash uint64, a Analysis) error {
	key := analysisKey(hash)
	return s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		switch {
		case err == badger.ErrKeyNotFound:
		case err != nil:
			return err
		default:
			var old Analysis
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &old)
			}); err != nil {
				return err
			}
			if old.Depth > a.Depth {
				return nil
			}
		}

		data, err := json.Marshal(a)
		if err != nil {
			return err
		}
		return txn.Set(key, data)
	})
}

// LoadAnalysis returns the stored analysis for a position hash. ok is false
// when the position was never analysed.
func (s *Storage) LoadAnalysis(hash uint64) (a Analysis, ok bool, err error) {
	err = s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(analysisKey(hash))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		ok = true
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &a)
		})
	})
	return a, ok, err
}
