package storage

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"
)

func openTest(t *testing.T) *Storage {
	t.Helper()
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStorage(t *testing.T) {
	s := openTest(t)

	t.Run("EmptyStats", func(t *testing.T) {
		stats, err := s.LoadStats()
		if err != nil {
			t.Fatalf("LoadStats failed: %v", err)
		}
		if stats.GamesPlayed != 0 || stats.GetWinRate() != 0 {
			t.Errorf("Expected empty stats, got %+v", stats)
		}
	})

	t.Run("RecordGame", func(t *testing.T) {
		start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
		games := []*GameRecord{
			{Started: start, EngineColor: "Black", Moves: []string{"e2e4", "d7d5"}, Result: ResultBlackWins},
			{Started: start.Add(time.Minute), EngineColor: "Black", Result: ResultWhiteWins},
			{Started: start.Add(2 * time.Minute), EngineColor: "White", Result: ResultWhiteWins},
			{Started: start.Add(3 * time.Minute), EngineColor: "White", Result: ResultDraw},
			{Started: start.Add(4 * time.Minute), EngineColor: "White", Result: ResultAborted},
		}
		for _, g := range games {
			if err := s.RecordGame(g); err != nil {
				t.Fatalf("RecordGame failed: %v", err)
			}
		}
		if err := s.RecordIllegalMove(); err != nil {
			t.Fatalf("RecordIllegalMove failed: %v", err)
		}

		stats, err := s.LoadStats()
		if err != nil {
			t.Fatalf("LoadStats failed: %v", err)
		}
		want := GameStats{GamesPlayed: 4, Wins: 2, Losses: 1, Draws: 1, Aborted: 1, IllegalMoves: 1}
		if *stats != want {
			t.Errorf("Expected %+v, got %+v", want, *stats)
		}
		if rate := stats.GetWinRate(); rate != 50 {
			t.Errorf("Expected 50%% win rate, got %.2f%%", rate)
		}

		rec, err := s.LoadGame(games[0].ID)
		if err != nil {
			t.Fatalf("LoadGame failed: %v", err)
		}
		if len(rec.Moves) != 2 || rec.Moves[1] != "d7d5" || rec.Result != ResultBlackWins {
			t.Errorf("Unexpected record: %+v", rec)
		}
		if !rec.Started.Equal(games[0].Started) {
			t.Errorf("Start time changed: %v", rec.Started)
		}

		all, err := s.Games()
		if err != nil {
			t.Fatalf("Games failed: %v", err)
		}
		if len(all) != len(games) {
			t.Errorf("Expected %d games, got %d", len(games), len(all))
		}
	})

	t.Run("MissingGame", func(t *testing.T) {
		if _, err := s.LoadGame("nope"); !errors.Is(err, ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Analysis", func(t *testing.T) {
		const hash = 0xdeadbeef

		if _, ok, err := s.LoadAnalysis(hash); ok || err != nil {
			t.Fatalf("Expected no analysis, got ok=%v err=%v", ok, err)
		}

		if err := s.SaveAnalysis(hash, Analysis{Score: 150, Depth: 4, Nodes: 1000}); err != nil {
			t.Fatalf("SaveAnalysis failed: %v", err)
		}
		// Shallower results are ignored.
		if err := s.SaveAnalysis(hash, Analysis{Score: -20, Depth: 2}); err != nil {
			t.Fatalf("SaveAnalysis failed: %v", err)
		}

		a, ok, err := s.LoadAnalysis(hash)
		if err != nil || !ok {
			t.Fatalf("LoadAnalysis: ok=%v err=%v", ok, err)
		}
		if a.Score != 150 || a.Depth != 4 || a.Nodes != 1000 {
			t.Errorf("Unexpected analysis: %+v", a)
		}
	})
}

func TestStorageReopen(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(dir)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := s.RecordGame(&GameRecord{Started: time.Now(), EngineColor: "White", Result: ResultWhiteWins}); err != nil {
		t.Fatalf("RecordGame failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	s, err = Open(dir)
	if err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	defer s.Close()

	stats, err := s.LoadStats()
	if err != nil {
		t.Fatalf("LoadStats failed: %v", err)
	}
	if stats.Wins != 1 {
		t.Errorf("Expected 1 win after reopen, got %+v", stats)
	}
}

func TestResolveLayout(t *testing.T) {
	if runtime.GOOS == "linux" {
		xdg := t.TempDir()
		t.Setenv("XDG_DATA_HOME", xdg)

		l, err := ResolveLayout("")
		if err != nil {
			t.Fatalf("ResolveLayout failed: %v", err)
		}
		if l.Root != filepath.Join(xdg, "auntysue") {
			t.Errorf("Unexpected root: %s", l.Root)
		}
	}

	custom := t.TempDir()
	l, err := ResolveLayout(custom)
	if err != nil {
		t.Fatalf("ResolveLayout failed: %v", err)
	}
	if l.Root != custom || l.Archive != filepath.Join(custom, "archive-v1") {
		t.Errorf("Unexpected layout: %+v", l)
	}
	if fi, err := os.Stat(l.Archive); err != nil || !fi.IsDir() {
		t.Errorf("Archive directory was not created: %v", err)
	}

	s, err := OpenDefault(custom)
	if err != nil {
		t.Fatalf("OpenDefault failed: %v", err)
	}
	defer s.Close()
	if _, err := os.Stat(filepath.Join(l.Archive, "MANIFEST")); err != nil {
		t.Errorf("Database not opened in the archive directory: %v", err)
	}
}
