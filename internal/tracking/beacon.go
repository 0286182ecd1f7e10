// Package tracking implements the page-view analytics clients.
package tracking

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/nikolayk812/storefront/internal/domain"
	"github.com/nikolayk812/storefront/internal/port"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	ErrBeaconClosed     = errors.New("beacon is closed")
	ErrBeaconOverloaded = errors.New("beacon queue is full")
)

const (
	defaultWorkers = 4
	defaultTimeout = 5 * time.Second

	// queued views per worker before Track starts dropping
	queuePerWorker = 64
)

// Payload is the wire form of a page view.
type Payload struct {
	PageType   domain.PageType `json:"page_type"`
	ProductIDs string          `json:"product_ids,omitempty"`
	CategoryID string          `json:"category_id,omitempty"`
	SentAt     time.Time       `json:"sent_at"`
}

func NewPayload(view domain.PageView, now time.Time) Payload {
	pt := view.PageType
	if pt == "" {
		pt = domain.PageStart
	}

	return Payload{
		PageType:   pt,
		ProductIDs: view.JoinedProductIDs(),
		CategoryID: view.CategoryID,
		SentAt:     now.UTC(),
	}
}

// Beacon posts page views to an analytics endpoint from a bounded worker
// pool. Track only queues the view; a dispatcher feeds the queue to the pool.
type Beacon struct {
	endpoint   string
	httpClient *http.Client
	log        *zap.Logger
	pool       *ants.Pool
	wg         sync.WaitGroup
	now        func() time.Time

	mu         sync.RWMutex
	closed     bool
	queue      chan []byte
	dispatched chan struct{}
}

var _ port.Tracker = (*Beacon)(nil)

func NewBeacon(endpoint string, workers int, log *zap.Logger) (*Beacon, error) {
	if endpoint == "" {
		return nil, errors.New("endpoint is empty")
	}
	if workers <= 0 {
		workers = defaultWorkers
	}
	if log == nil {
		log = zap.NewNop()
	}

	pool, err := ants.NewPool(workers, ants.WithPanicHandler(func(p any) {
		log.Error("tracking beacon panicked", zap.Any("panic", p))
	}))
	if err != nil {
		return nil, fmt.Errorf("ants.NewPool: %w", err)
	}

	b := &Beacon{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: defaultTimeout},
		log:        log,
		pool:       pool,
		now:        time.Now,
		queue:      make(chan []byte, workers*queuePerWorker),
		dispatched: make(chan struct{}),
	}
	go b.dispatch()

	return b, nil
}

// Track queues the page view. It fails when the beacon is closed or its queue
// is full; the view is dropped in both cases.
func (b *Beacon) Track(_ context.Context, view domain.PageView) error {
	body, err := json.Marshal(NewPayload(view, b.now()))
	if err != nil {
		return fmt.Errorf("json.Marshal: %w", err)
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return ErrBeaconClosed
	}

	select {
	case b.queue <- body:
		return nil
	default:
		return ErrBeaconOverloaded
	}
}

// dispatch hands queued views to the pool, waiting for a free worker.
func (b *Beacon) dispatch() {
	defer close(b.dispatched)

	for body := range b.queue {
		b.wg.Add(1)
		err := b.pool.Submit(func() {
			defer b.wg.Done()
			b.send(body)
		})
		if err != nil {
			b.wg.Done()
			b.log.Warn("tracking beacon dropped", zap.Error(err))
		}
	}
}

func (b *Beacon) send(body []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), b.httpClient.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.endpoint, bytes.NewReader(body))
	if err != nil {
		b.log.Warn("tracking request build failed", zap.Error(err))
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.httpClient.Do(req)
	if err != nil {
		b.log.Warn("tracking beacon failed", zap.String("endpoint", b.endpoint), zap.Error(err))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		b.log.Warn("tracking endpoint rejected beacon",
			zap.String("endpoint", b.endpoint), zap.Int("status", resp.StatusCode))
	}
}

// Close stops accepting views, waits for queued and in-flight beacons and
// stops the pool.
func (b *Beacon) Close(timeout time.Duration) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	close(b.queue)
	b.mu.Unlock()

	done := make(chan struct{})
	go func() {
		<-b.dispatched
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(timeout):
		b.pool.Release()
		return fmt.Errorf("wait beacons: %w", ants.ErrTimeout)
	}

	if err := b.pool.ReleaseTimeout(timeout); err != nil {
		return fmt.Errorf("pool.ReleaseTimeout: %w", err)
	}
	return nil
}
