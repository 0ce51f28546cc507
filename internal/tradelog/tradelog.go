package tradelog

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

var (
	mu          sync.Mutex
	dirOverride string

	nyOnce sync.Once
	nyLoc  *time.Location
)

// SetDir overrides the journal directory. The TRADER_LOG_DIR environment
// variable still wins when set.
func SetDir(dir string) {
	mu.Lock()
	dirOverride = dir
	mu.Unlock()
}

// Entry records one executed order.
type Entry struct {
	Time, Symbol, Side, OrderID, Reason string
	Qty                                 int
	Confidence                          float64
	Origin                              string         `json:",omitempty"`
	Extra                               map[string]any `json:"extra,omitempty"`
}

// SignalEntry records one generated signal, executed or not.
type SignalEntry struct {
	Time, Symbol, Action, Reason string
	Confidence                   float64
	Indicators                   map[string]float64
	Executed                     bool
}

func marketTZ() *time.Location {
	nyOnce.Do(func() {
		loc, err := time.LoadLocation("America/New_York")
		if err != nil {
			loc = time.UTC
		}
		nyLoc = loc
	})
	return nyLoc
}

func logDir() string {
	if v := os.Getenv("TRADER_LOG_DIR"); v != "" {
		return v
	}
	if dirOverride != "" {
		return dirOverride
	}
	return "logs"
}

func dailyFilepath(t time.Time) string {
	d := t.In(marketTZ()).Format("2006-01-02")
	return filepath.Join(logDir(), d+".txt")
}

func signalsFilepath(t time.Time) string {
	d := t.In(marketTZ()).Format("2006-01-02")
	return filepath.Join(logDir(), "signals", d+".txt")
}

func appendJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	b, _ := json.Marshal(v)
	_, err = fmt.Fprintln(f, string(b))
	return err
}

func Append(e Entry) error {
	mu.Lock()
	defer mu.Unlock()
	now := time.Now().In(marketTZ())
	e.Time = now.Format("2006-01-02 15:04:05")
	return appendJSON(dailyFilepath(now), e)
}

func AppendSignal(e SignalEntry) error {
	mu.Lock()
	defer mu.Unlock()
	now := time.Now().In(marketTZ())
	e.Time = now.Format("2006-01-02 15:04:05")
	return appendJSON(signalsFilepath(now), e)
}

// CompressOlder gzips journal files older than retentionDays. Zero or
// negative retention disables compression.
func CompressOlder(retentionDays int) error {
	if retentionDays <= 0 {
		return nil
	}
	root := logDir()
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	return filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() || filepath.Ext(p) != ".txt" {
			return nil
		}
		info, er := os.Stat(p)
		if er != nil || !info.ModTime().Before(cutoff) {
			return nil
		}

		gz := p + ".gz"
		if _, e2 := os.Stat(gz); e2 == nil {
			// Compressed copy already exists.
			_ = os.Remove(p)
			return nil
		}

		in, e3 := os.Open(p)
		if e3 != nil {
			return nil
		}
		defer in.Close()

		out, e4 := os.OpenFile(gz, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
		if e4 != nil {
			return nil
		}
		gw := gzip.NewWriter(out)
		if _, e5 := io.Copy(gw, in); e5 == nil {
			_ = gw.Close()
			_ = out.Close()
			_ = os.Remove(p)
		} else {
			_ = gw.Close()
			_ = out.Close()
		}
		return nil
	})
}
