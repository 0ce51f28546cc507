package market

import (
	"context"
	"errors"
	"hash/fnv"
	"time"

	"signal-trader/internal/interfaces"
	"signal-trader/internal/types"
)

// SyntheticSource is a deterministic stand-in for a real market-data feed.
// Values are derived from a hash of the symbol mixed with a wall-clock time
// bucket, so repeated calls within the same bucket return identical
// indicators for a given symbol.
type SyntheticSource struct {
	bucket time.Duration
}

var _ interfaces.IndicatorSource = (*SyntheticSource)(nil)

// NewSyntheticSource creates a synthetic source. bucket controls how long a
// symbol's indicators stay constant; zero or negative selects 10 minutes.
func NewSyntheticSource(bucket time.Duration) *SyntheticSource {
	if bucket <= 0 {
		bucket = 10 * time.Minute
	}
	return &SyntheticSource{bucket: bucket}
}

func (s *SyntheticSource) Synthetic() bool { return true }

// Bucket returns the bucket duration the source was created with.
func (s *SyntheticSource) Bucket() time.Duration { return s.bucket }

func (s *SyntheticSource) Indicators(ctx context.Context, symbol string, at time.Time) (types.Indicators, error) {
	if err := ctx.Err(); err != nil {
		return types.Indicators{}, err
	}
	if symbol == "" {
		return types.Indicators{}, errors.New("empty symbol")
	}

	bucketIdx := at.Unix() / int64(s.bucket.Seconds())
	rng := newSeq(SymbolSeed(symbol) ^ (uint64(bucketIdx) * 0x9E3779B97F4A7C15))

	rsi := rng.float() * 100
	price := 20 + rng.float()*480
	// Moving averages stay within a plausible band around the price so
	// trend confirmation fires in both directions across symbols.
	sma20 := price * (0.94 + rng.float()*0.12)
	sma50 := sma20 * (0.94 + rng.float()*0.12)

	return types.Indicators{
		RSI:   rsi,
		SMA20: sma20,
		SMA50: sma50,
		Price: price,
	}, nil
}

// SymbolSeed hashes a symbol to a stable 64-bit seed.
func SymbolSeed(symbol string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(symbol))
	return h.Sum64()
}

// seq is a splitmix64 sequence. Fast, stateless to seed, and stable across
// runs, unlike math/rand's default source.
type seq struct {
	state uint64
}

func newSeq(seed uint64) *seq { return &seq{state: seed} }

func (r *seq) next() uint64 {
	r.state += 0x9E3779B97F4A7C15
	z := r.state
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}

// float returns a value in [0,1).
func (r *seq) float() float64 {
	return float64(r.next()>>11) / (1 << 53)
}
