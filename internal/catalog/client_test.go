package catalog

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/swapkart/tradein-backend/internal/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	return log
}

type feedServer struct {
	mu       sync.Mutex
	fetches  int32
	failNext bool
}

func (f *feedServer) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		fail := f.failNext
		f.mu.Unlock()
		if fail {
			http.Error(w, "catalog down", http.StatusBadGateway)
			return
		}
		atomic.AddInt32(&f.fetches, 1)

		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/catalog/smartphones/questions":
			fmt.Fprint(w, `{"version":"v7","questions":[{"id":"q-power","text":"Does it switch on?","kind":"single","required":true,"options":[{"id":"opt-no","label":"No","delta":{"type":"percent","sign":"-","value":"10"}}]}]}`)
		case r.URL.Path == "/catalog/smartphones/defects":
			fmt.Fprint(w, `{"defects":[{"id":"dent","label":"Body dent","delta":{"type":"absolute","sign":"-","value":"500"}}]}`)
		case r.URL.Path == "/catalog/smartphones/accessories":
			fmt.Fprint(w, `{"accessories":[]}`)
		case r.URL.Path == "/catalog/smartphones/products":
			fmt.Fprint(w, `{"products":[{"id":"p1","name":"Phone X","variants":[{"id":"v1","label":"128GB","base_price":"10000"}]}]}`)
		default:
			http.NotFound(w, r)
		}
	}
}

func (f *feedServer) setFail(fail bool) {
	f.mu.Lock()
	f.failNext = fail
	f.mu.Unlock()
}

func TestHTTPServiceAssemblesSnapshot(t *testing.T) {
	feeds := &feedServer{}
	srv := httptest.NewServer(feeds.handler())
	defer srv.Close()

	svc, err := NewHTTPService(testLogger(t), srv.URL)
	if err != nil {
		t.Fatalf("NewHTTPService: %v", err)
	}

	snap, err := svc.Snapshot(context.Background(), "smartphones")
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if snap.Version != "v7" {
		t.Fatalf("Version = %q, want v7", snap.Version)
	}
	if _, ok := snap.Question("q-power"); !ok {
		t.Fatal("q-power missing from assembled snapshot")
	}
	if _, ok := snap.Defect("dent"); !ok {
		t.Fatal("dent missing from assembled snapshot")
	}
	price, ok := snap.BasePrice("p1", "v1")
	if !ok || !price.Equal(decimal.NewFromInt(10000)) {
		t.Fatalf("BasePrice = %s (%v), want 10000", price, ok)
	}
}

func TestHTTPServiceCachesWithinTTL(t *testing.T) {
	feeds := &feedServer{}
	srv := httptest.NewServer(feeds.handler())
	defer srv.Close()

	svc, err := NewHTTPService(testLogger(t), srv.URL)
	if err != nil {
		t.Fatalf("NewHTTPService: %v", err)
	}

	ctx := context.Background()
	if _, err := svc.Snapshot(ctx, "smartphones"); err != nil {
		t.Fatalf("first Snapshot: %v", err)
	}
	if _, err := svc.Snapshot(ctx, "smartphones"); err != nil {
		t.Fatalf("second Snapshot: %v", err)
	}
	if got := atomic.LoadInt32(&feeds.fetches); got != 4 {
		t.Fatalf("feed fetches = %d, want 4 (one snapshot, second call cached)", got)
	}
}

func TestHTTPServiceServesStaleOnFailure(t *testing.T) {
	feeds := &feedServer{}
	srv := httptest.NewServer(feeds.handler())
	defer srv.Close()

	svc, err := NewHTTPService(testLogger(t), srv.URL)
	if err != nil {
		t.Fatalf("NewHTTPService: %v", err)
	}
	ctx := context.Background()

	first, err := svc.Snapshot(ctx, "smartphones")
	if err != nil {
		t.Fatalf("warm-up Snapshot: %v", err)
	}

	// Expire the cache entry, then break the upstream.
	impl := svc.(*httpService)
	impl.mu.Lock()
	impl.cache["smartphones"].FetchedAt = time.Now().Add(-time.Hour)
	impl.mu.Unlock()
	feeds.setFail(true)

	stale, err := svc.Snapshot(ctx, "smartphones")
	if err != nil {
		t.Fatalf("Snapshot with upstream down: %v", err)
	}
	if stale.Version != first.Version {
		t.Fatalf("stale Version = %q, want the cached %q", stale.Version, first.Version)
	}

	// A category that was never cached has nothing to fall back on.
	if _, err := svc.Snapshot(ctx, "laptops"); err == nil {
		t.Fatal("Snapshot for an uncached category should fail while upstream is down")
	}
}
