package market

import (
	"context"
	"testing"
	"time"
)

func TestIndicatorsDeterministicWithinBucket(t *testing.T) {
	src := NewSyntheticSource(10 * time.Minute)
	ctx := context.Background()

	base := time.Date(2025, 6, 2, 14, 30, 0, 0, time.UTC)

	first, err := src.Indicators(ctx, "AAPL", base)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Still inside the same 10-minute bucket.
	second, err := src.Indicators(ctx, "AAPL", base.Add(4*time.Minute))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if first != second {
		t.Errorf("expected identical indicators within one bucket, got %+v vs %+v", first, second)
	}
}

func TestIndicatorsChangeAcrossBuckets(t *testing.T) {
	src := NewSyntheticSource(10 * time.Minute)
	ctx := context.Background()

	base := time.Date(2025, 6, 2, 14, 30, 0, 0, time.UTC)

	first, _ := src.Indicators(ctx, "AAPL", base)
	next, _ := src.Indicators(ctx, "AAPL", base.Add(10*time.Minute))

	if first == next {
		t.Error("expected indicators to change when the bucket rolls over")
	}
}

func TestIndicatorsDifferPerSymbol(t *testing.T) {
	src := NewSyntheticSource(10 * time.Minute)
	ctx := context.Background()
	at := time.Date(2025, 6, 2, 14, 30, 0, 0, time.UTC)

	a, _ := src.Indicators(ctx, "AAPL", at)
	b, _ := src.Indicators(ctx, "MSFT", at)

	if a == b {
		t.Error("expected different symbols to produce different indicators")
	}
}

func TestIndicatorsStayInRange(t *testing.T) {
	src := NewSyntheticSource(10 * time.Minute)
	ctx := context.Background()

	symbols := []string{"AAPL", "MSFT", "GOOGL", "TSLA", "AMZN", "NVDA", "META", "NFLX"}
	at := time.Date(2025, 6, 2, 9, 30, 0, 0, time.UTC)

	for i := 0; i < 50; i++ {
		for _, sym := range symbols {
			inds, err := src.Indicators(ctx, sym, at.Add(time.Duration(i)*10*time.Minute))
			if err != nil {
				t.Fatalf("unexpected error for %s: %v", sym, err)
			}
			if inds.RSI < 0 || inds.RSI > 100 {
				t.Errorf("RSI out of range for %s: %f", sym, inds.RSI)
			}
			if inds.Price <= 0 {
				t.Errorf("non-positive price for %s: %f", sym, inds.Price)
			}
			if inds.SMA20 <= 0 || inds.SMA50 <= 0 {
				t.Errorf("non-positive moving average for %s: %+v", sym, inds)
			}
		}
	}
}

func TestEmptySymbolRejected(t *testing.T) {
	src := NewSyntheticSource(0)
	if _, err := src.Indicators(context.Background(), "", time.Now()); err == nil {
		t.Error("expected error for empty symbol")
	}
}

func TestDefaultBucket(t *testing.T) {
	src := NewSyntheticSource(0)
	if src.Bucket() != 10*time.Minute {
		t.Errorf("expected 10m default bucket, got %v", src.Bucket())
	}
	if !src.Synthetic() {
		t.Error("expected source to report synthetic")
	}
}
