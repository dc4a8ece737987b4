package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/swapkart/tradein-backend/internal/logger"
)

// Service supplies read-only catalog snapshots scoped by category.
type Service interface {
	Snapshot(ctx context.Context, category string) (*Snapshot, error)
}

const defaultSnapshotTTL = 5 * time.Minute

type httpService struct {
	log     *logger.Logger
	baseURL string
	client  *http.Client
	ttl     time.Duration

	mu    sync.RWMutex
	cache map[string]*Snapshot
}

// NewHTTPService talks to the external catalog service. Snapshots are cached
// per category for a fixed TTL; slightly stale catalogs are tolerated
// downstream, where unknown refs are dropped rather than rejected.
func NewHTTPService(log *logger.Logger, baseURL string) (Service, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("missing catalog base url")
	}
	return &httpService{
		log:     log.With("service", "CatalogService"),
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
		ttl:     defaultSnapshotTTL,
		cache:   map[string]*Snapshot{},
	}, nil
}

func (s *httpService) Snapshot(ctx context.Context, category string) (*Snapshot, error) {
	s.mu.RLock()
	cached, ok := s.cache[category]
	s.mu.RUnlock()
	if ok && time.Since(cached.FetchedAt) < s.ttl {
		return cached, nil
	}

	snap, err := s.fetch(ctx, category)
	if err != nil {
		// Serve the stale snapshot over a hard failure if we have one.
		if ok {
			s.log.Warn("Catalog refresh failed, serving stale snapshot", "category", category, "version", cached.Version, "error", err)
			return cached, nil
		}
		return nil, err
	}

	s.mu.Lock()
	s.cache[category] = snap
	s.mu.Unlock()
	s.log.Debug("Catalog snapshot refreshed", "category", category, "version", snap.Version)
	return snap, nil
}

// fetch pulls the four catalog feeds for a category concurrently.
func (s *httpService) fetch(ctx context.Context, category string) (*Snapshot, error) {
	snap := &Snapshot{Category: category, FetchedAt: time.Now().UTC()}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var payload struct {
			Version   string     `json:"version"`
			Questions []Question `json:"questions"`
		}
		if err := s.getJSON(gctx, category, "questions", &payload); err != nil {
			return err
		}
		snap.Version = payload.Version
		snap.Questions = payload.Questions
		return nil
	})
	g.Go(func() error {
		var payload struct {
			Defects []Defect `json:"defects"`
		}
		if err := s.getJSON(gctx, category, "defects", &payload); err != nil {
			return err
		}
		snap.Defects = payload.Defects
		return nil
	})
	g.Go(func() error {
		var payload struct {
			Accessories []Accessory `json:"accessories"`
		}
		if err := s.getJSON(gctx, category, "accessories", &payload); err != nil {
			return err
		}
		snap.Accessories = payload.Accessories
		return nil
	})
	g.Go(func() error {
		var payload struct {
			Products []Product `json:"products"`
		}
		if err := s.getJSON(gctx, category, "products", &payload); err != nil {
			return err
		}
		snap.Products = payload.Products
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	snap.Index()
	return snap, nil
}

func (s *httpService) getJSON(ctx context.Context, category, feed string, out any) error {
	url := fmt.Sprintf("%s/catalog/%s/%s", s.baseURL, category, feed)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("catalog %s fetch: %w", feed, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("catalog %s fetch: unexpected status %d", feed, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("catalog %s decode: %w", feed, err)
	}
	return nil
}
