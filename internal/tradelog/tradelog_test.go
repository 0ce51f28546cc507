package tradelog

import (
	"compress/gzip"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func readLines(t *testing.T, path string) []string {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return strings.Split(strings.TrimSpace(string(b)), "\n")
}

func findJournal(t *testing.T, dir string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, "*.txt"))
	if err != nil || len(matches) != 1 {
		t.Fatalf("expected one journal file in %s, got %v (%v)", dir, matches, err)
	}
	return matches[0]
}

func TestAppendWritesOneLinePerEntry(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TRADER_LOG_DIR", dir)

	entries := []Entry{
		{Symbol: "AAPL", Side: "buy", Qty: 3, OrderID: "o-1", Confidence: 0.9, Origin: "automation"},
		{Symbol: "MSFT", Side: "sell", Qty: 1, OrderID: "o-2", Confidence: 0.7, Origin: "manual"},
	}
	for _, e := range entries {
		if err := Append(e); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	lines := readLines(t, findJournal(t, dir))
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}

	var got Entry
	if err := json.Unmarshal([]byte(lines[0]), &got); err != nil {
		t.Fatalf("line is not valid JSON: %v", err)
	}
	if got.Symbol != "AAPL" || got.Qty != 3 || got.Origin != "automation" {
		t.Errorf("unexpected entry: %+v", got)
	}
	if got.Time == "" {
		t.Error("expected timestamp to be stamped on append")
	}
}

func TestAppendSignalWritesToSignalsSubdir(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TRADER_LOG_DIR", dir)

	err := AppendSignal(SignalEntry{
		Symbol:     "AAPL",
		Action:     "BUY",
		Confidence: 0.85,
		Indicators: map[string]float64{"RSI": 25},
		Executed:   true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := readLines(t, findJournal(t, filepath.Join(dir, "signals")))
	var got SignalEntry
	if err := json.Unmarshal([]byte(lines[0]), &got); err != nil {
		t.Fatalf("line is not valid JSON: %v", err)
	}
	if got.Action != "BUY" || !got.Executed || got.Indicators["RSI"] != 25 {
		t.Errorf("unexpected entry: %+v", got)
	}
}

func TestSetDirUsedWhenEnvUnset(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TRADER_LOG_DIR", "")
	SetDir(dir)
	defer SetDir("")

	if err := Append(Entry{Symbol: "AAPL", Side: "buy", Qty: 1}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	findJournal(t, dir)
}

func TestCompressOlderDisabledByZeroRetention(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TRADER_LOG_DIR", dir)

	path := filepath.Join(dir, "2020-01-01.txt")
	if err := os.WriteFile(path, []byte("{}\n"), 0o644); err != nil {
		t.Fatalf("failed to seed journal: %v", err)
	}

	if err := CompressOlder(0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Error("zero retention must leave files untouched")
	}
}

func TestCompressOlderGzipsStaleJournals(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TRADER_LOG_DIR", dir)

	stale := filepath.Join(dir, "2020-01-01.txt")
	if err := os.WriteFile(stale, []byte("{\"Symbol\":\"AAPL\"}\n"), 0o644); err != nil {
		t.Fatalf("failed to seed journal: %v", err)
	}
	old := time.Now().AddDate(0, 0, -30)
	if err := os.Chtimes(stale, old, old); err != nil {
		t.Fatalf("failed to age journal: %v", err)
	}

	fresh := filepath.Join(dir, "2099-01-01.txt")
	if err := os.WriteFile(fresh, []byte("{}\n"), 0o644); err != nil {
		t.Fatalf("failed to seed journal: %v", err)
	}

	if err := CompressOlder(14); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Error("stale journal should be removed after compression")
	}
	gzPath := stale + ".gz"
	f, err := os.Open(gzPath)
	if err != nil {
		t.Fatalf("expected compressed journal: %v", err)
	}
	defer f.Close()
	zr, err := gzip.NewReader(f)
	if err != nil {
		t.Fatalf("not a gzip file: %v", err)
	}
	b, err := io.ReadAll(zr)
	if err != nil {
		t.Fatalf("failed to decompress: %v", err)
	}
	if !strings.Contains(string(b), "AAPL") {
		t.Error("compressed content does not match original")
	}

	if _, err := os.Stat(fresh); err != nil {
		t.Error("fresh journal must not be compressed")
	}
}
