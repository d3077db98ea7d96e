package watch

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/petersawicki/seo-log-analyzer/internal/analyzer"
	"github.com/petersawicki/seo-log-analyzer/internal/parser"
)

type nopLogger struct{}

func (nopLogger) Infof(string, ...any)  {}
func (nopLogger) Errorf(string, ...any) {}

func TestStore(t *testing.T) {
	first := analyzer.New(nil)
	s := NewStore(first)

	if s.Current() != first {
		t.Fatal("Current did not return the initial engine")
	}
	gen := s.Generation()

	second := analyzer.New([]parser.Record{{Path: "/a", IsBot: true, BotType: "googlebot"}})
	s.Update(second)

	if s.Current() != second {
		t.Fatal("Current did not return the updated engine")
	}
	if s.Generation() == gen {
		t.Error("Generation did not advance on Update")
	}
}

func TestWatchFileRebuildsOnChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "access.log")
	if err := os.WriteFile(path, []byte(""), 0o600); err != nil {
		t.Fatalf("write log: %v", err)
	}

	store := NewStore(analyzer.New(nil))
	gen := store.Generation()

	rebuilt := analyzer.New([]parser.Record{{Path: "/a", IsBot: true, BotType: "googlebot"}})
	rebuild := func() (*analyzer.Engine, error) {
		return rebuilt, nil
	}

	stop, err := WatchFile(path, store, rebuild, nopLogger{})
	if err != nil {
		t.Fatalf("WatchFile: %v", err)
	}
	defer stop()

	if err := os.WriteFile(path, []byte("new line\n"), 0o600); err != nil {
		t.Fatalf("append: %v", err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for store.Generation() == gen {
		if time.Now().After(deadline) {
			t.Fatal("engine was not rebuilt after file change")
		}
		time.Sleep(20 * time.Millisecond)
	}
	if store.Current() != rebuilt {
		t.Error("store does not hold the rebuilt engine")
	}
}

func TestWatchFileMissing(t *testing.T) {
	store := NewStore(analyzer.New(nil))
	_, err := WatchFile(filepath.Join(t.TempDir(), "absent.log"), store, nil, nopLogger{})
	if err == nil {
		t.Error("expected error watching a missing file")
	}
}
