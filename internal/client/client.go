package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/swapkart/tradein-backend/internal/apierr"
	"github.com/swapkart/tradein-backend/internal/assessment"
	"github.com/swapkart/tradein-backend/internal/catalog"
	"github.com/swapkart/tradein-backend/internal/logger"
	"github.com/swapkart/tradein-backend/internal/pricing"
)

// ErrSuperseded reports that a submission's response arrived after a newer
// submission was issued. The caller drops it silently; CurrentQuote already
// reflects newer state.
var ErrSuperseded = errors.New("submission superseded by a newer one")

// SessionClient drives one trade-in flow against the session API. It keeps a
// catalog snapshot for instant local estimates and guards quote application
// with a monotonic submission counter: a response is applied only if no newer
// submission was issued meanwhile, so a stale server quote can never
// overwrite newer local state.
type SessionClient struct {
	log        *logger.Logger
	httpClient *http.Client
	baseURL    string
	token      string
	aggregator *assessment.Aggregator

	mu            sync.Mutex
	snap          *catalog.Snapshot
	sessionID     uuid.UUID
	seq           uint64
	localEstimate pricing.Quote
	serverQuote   *pricing.Quote
}

func New(log *logger.Logger, baseURL, token string) *SessionClient {
	return &SessionClient{
		log:        log.With("client", "SessionClient"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		aggregator: assessment.NewAggregator(log),
	}
}

type wireSession struct {
	ID        uuid.UUID       `json:"id"`
	Status    string          `json:"status"`
	Quote     json.RawMessage `json:"quote"`
	ExpiresAt time.Time       `json:"expires_at"`
}

// LoadCatalog fetches and caches the snapshot local estimates price against.
func (c *SessionClient) LoadCatalog(ctx context.Context, category string) error {
	var envelope struct {
		Catalog *catalog.Snapshot `json:"catalog"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/tradein/catalog/"+category, nil, &envelope); err != nil {
		return err
	}
	if envelope.Catalog == nil {
		return fmt.Errorf("empty catalog response")
	}
	envelope.Catalog.Index()

	c.mu.Lock()
	c.snap = envelope.Catalog
	c.mu.Unlock()
	return nil
}

// Start creates the server session and primes the reconciled quote with the
// server's base-only quote.
func (c *SessionClient) Start(ctx context.Context, category, productID, variantID string) error {
	body := map[string]string{
		"category":   category,
		"product_id": productID,
		"variant_id": variantID,
	}
	var envelope struct {
		Session wireSession `json:"session"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/tradein/sessions", body, &envelope); err != nil {
		return err
	}
	quote, err := decodeWireQuote(envelope.Session.Quote)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.sessionID = envelope.Session.ID
	c.serverQuote = quote
	c.localEstimate = *quote
	c.mu.Unlock()
	return nil
}

func (c *SessionClient) SessionID() uuid.UUID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// Estimate prices an assessment against the cached snapshot. Pure local
// computation: safe to call on every selection for live preview.
func (c *SessionClient) Estimate(a *assessment.Assessment) (pricing.Quote, error) {
	c.mu.Lock()
	snap := c.snap
	c.mu.Unlock()
	if snap == nil {
		return pricing.Quote{}, fmt.Errorf("no catalog snapshot loaded")
	}
	basePrice, ok := snap.BasePrice(a.ProductID, a.VariantID)
	if !ok {
		return pricing.Quote{}, fmt.Errorf("unknown product/variant %s:%s in cached catalog", a.ProductID, a.VariantID)
	}
	quote := pricing.Compute(basePrice, c.aggregator.Signals(a, snap))
	quote.CatalogVersion = snap.Version
	return quote, nil
}

// Submit sends an assessment for authoritative pricing. The local estimate
// replaces the displayed quote immediately; the server response is applied
// only if this submission is still the newest.
func (c *SessionClient) Submit(ctx context.Context, a *assessment.Assessment) (pricing.Quote, error) {
	estimate, err := c.Estimate(a)
	if err != nil {
		return pricing.Quote{}, err
	}

	c.mu.Lock()
	c.seq++
	mySeq := c.seq
	c.localEstimate = estimate
	// A newer local state invalidates whatever the server said before.
	c.serverQuote = nil
	sessionID := c.sessionID
	c.mu.Unlock()

	var envelope struct {
		Session wireSession `json:"session"`
	}
	if err := c.do(ctx, http.MethodPut, "/api/tradein/sessions/"+sessionID.String()+"/assessment", a, &envelope); err != nil {
		return pricing.Quote{}, err
	}
	quote, err := decodeWireQuote(envelope.Session.Quote)
	if err != nil {
		return pricing.Quote{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if mySeq < c.seq {
		c.log.Debug("Dropping stale pricing response", "seq", mySeq, "latest", c.seq)
		return Reconcile(c.localEstimate, c.serverQuote), ErrSuperseded
	}
	c.serverQuote = quote
	return Reconcile(c.localEstimate, c.serverQuote), nil
}

// CurrentQuote is what the UI renders: the server quote when available, the
// local estimate while a submission is in flight.
func (c *SessionClient) CurrentQuote() pricing.Quote {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Reconcile(c.localEstimate, c.serverQuote)
}

func (c *SessionClient) Extend(ctx context.Context) error {
	var envelope struct {
		Session wireSession `json:"session"`
	}
	return c.do(ctx, http.MethodPost, "/api/tradein/sessions/"+c.SessionID().String()+"/extend", struct{}{}, &envelope)
}

type wireOrder struct {
	ID         uuid.UUID       `json:"id"`
	SessionID  uuid.UUID       `json:"session_id"`
	FinalPrice decimal.Decimal `json:"final_price"`
	Pickup     json.RawMessage `json:"pickup_details"`
}

func (c *SessionClient) Finalize(ctx context.Context, pickupDetails json.RawMessage) (*wireOrder, error) {
	body := map[string]json.RawMessage{"pickup_details": pickupDetails}
	var envelope struct {
		Order *wireOrder `json:"order"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/tradein/sessions/"+c.SessionID().String()+"/finalize", body, &envelope); err != nil {
		return nil, err
	}
	return envelope.Order, nil
}

func (c *SessionClient) Cancel(ctx context.Context) error {
	var envelope struct {
		Session wireSession `json:"session"`
	}
	return c.do(ctx, http.MethodPost, "/api/tradein/sessions/"+c.SessionID().String()+"/cancel", struct{}{}, &envelope)
}

func (c *SessionClient) SaveResume(ctx context.Context, a *assessment.Assessment) error {
	var out map[string]any
	return c.do(ctx, http.MethodPut, "/api/tradein/resume/"+a.ProductID+"/"+a.VariantID, a, &out)
}

func (c *SessionClient) LoadResume(ctx context.Context, productID, variantID string) (*assessment.Assessment, error) {
	var envelope struct {
		Assessment *assessment.Assessment `json:"assessment"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/tradein/resume/"+productID+"/"+variantID, nil, &envelope); err != nil {
		return nil, err
	}
	return envelope.Assessment, nil
}

func (c *SessionClient) ClearResume(ctx context.Context, productID, variantID string) error {
	var out map[string]any
	return c.do(ctx, http.MethodDelete, "/api/tradein/resume/"+productID+"/"+variantID, nil, &out)
}

func (c *SessionClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		var envelope struct {
			Error struct {
				Message string `json:"message"`
				Code    string `json:"code"`
			} `json:"error"`
		}
		if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Error.Code != "" {
			return apierr.New(resp.StatusCode, envelope.Error.Code, errors.New(envelope.Error.Message))
		}
		return fmt.Errorf("%s %s: unexpected status %d", method, path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(raw, out)
}

func decodeWireQuote(raw json.RawMessage) (*pricing.Quote, error) {
	var quote pricing.Quote
	if err := json.Unmarshal(raw, &quote); err != nil {
		return nil, fmt.Errorf("decode session quote: %w", err)
	}
	return &quote, nil
}
