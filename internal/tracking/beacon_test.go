package tracking_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/nikolayk812/storefront/internal/domain"
	"github.com/nikolayk812/storefront/internal/tracking"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"
)

func TestMain(m *testing.M) {
	// ants starts a package-level default pool on import.
	goleak.VerifyTestMain(m,
		goleak.IgnoreAnyFunction("github.com/panjf2000/ants/v2.(*Pool).purgeStaleWorkers"),
		goleak.IgnoreAnyFunction("github.com/panjf2000/ants/v2.(*Pool).ticktock"),
	)
}

type collector struct {
	mu       sync.Mutex
	payloads []tracking.Payload
}

func (c *collector) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)

		var p tracking.Payload
		assert.NoError(t, jsoniter.Unmarshal(body, &p))

		c.mu.Lock()
		c.payloads = append(c.payloads, p)
		c.mu.Unlock()

		w.WriteHeader(http.StatusNoContent)
	}
}

func (c *collector) all() []tracking.Payload {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]tracking.Payload(nil), c.payloads...)
}

func TestBeacon_Track(t *testing.T) {
	c := &collector{}
	srv := httptest.NewServer(c.handler(t))
	defer srv.Close()

	b, err := tracking.NewBeacon(srv.URL, 2, zaptest.NewLogger(t))
	require.NoError(t, err)

	views := []domain.PageView{
		{PageType: domain.PageCategory, ProductIDs: []domain.ProductID{"1", "2"}, CategoryID: "jewelery"},
		{PageType: domain.PageProductDetail, ProductIDs: []domain.ProductID{"3"}},
		{},
	}
	for _, v := range views {
		require.NoError(t, b.Track(t.Context(), v))
	}

	require.NoError(t, b.Close(5*time.Second))

	got := c.all()
	require.Len(t, got, 3)

	byType := make(map[domain.PageType]tracking.Payload)
	for _, p := range got {
		byType[p.PageType] = p
	}
	assert.Equal(t, "1,2", byType[domain.PageCategory].ProductIDs)
	assert.Equal(t, "jewelery", byType[domain.PageCategory].CategoryID)
	assert.Equal(t, "3", byType[domain.PageProductDetail].ProductIDs)
	assert.Contains(t, byType, domain.PageStart)

	err = b.Track(t.Context(), views[0])
	assert.ErrorIs(t, err, tracking.ErrBeaconClosed)
}

func TestBeacon_BurstAboveWorkerCount(t *testing.T) {
	c := &collector{}
	slow := c.handler(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(5 * time.Millisecond)
		slow(w, r)
	}))
	defer srv.Close()

	b, err := tracking.NewBeacon(srv.URL, 2, zaptest.NewLogger(t))
	require.NoError(t, err)

	const burst = 50
	for i := 0; i < burst; i++ {
		view := domain.PageView{PageType: domain.PageProductDetail, ProductIDs: []domain.ProductID{domain.ProductID(strconv.Itoa(i))}}
		require.NoError(t, b.Track(t.Context(), view))
	}

	require.NoError(t, b.Close(10*time.Second))
	assert.Len(t, c.all(), burst)
}

func TestBeacon_FullQueueDropsViews(t *testing.T) {
	c := &collector{}
	release := make(chan struct{})
	handler := c.handler(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		handler(w, r)
	}))
	defer srv.Close()

	b, err := tracking.NewBeacon(srv.URL, 1, zaptest.NewLogger(t))
	require.NoError(t, err)

	const views = 200
	var dropped int
	for i := 0; i < views; i++ {
		err := b.Track(t.Context(), domain.PageView{PageType: domain.PageCart})
		if err != nil {
			require.ErrorIs(t, err, tracking.ErrBeaconOverloaded)
			dropped++
		}
	}
	close(release)

	require.NoError(t, b.Close(10*time.Second))
	assert.Positive(t, dropped)
	assert.Len(t, c.all(), views-dropped)
}

func TestBeacon_EndpointFailureIsSwallowed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	b, err := tracking.NewBeacon(srv.URL, 1, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.NoError(t, b.Track(t.Context(), domain.PageView{PageType: domain.PageCart}))
	assert.NoError(t, b.Close(5*time.Second))
}

func TestNewBeacon_EmptyEndpoint(t *testing.T) {
	_, err := tracking.NewBeacon("", 1, nil)
	assert.Error(t, err)
}

func TestNewPayload(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.FixedZone("CEST", 2*3600))

	p := tracking.NewPayload(domain.PageView{ProductIDs: []domain.ProductID{"4", "9"}}, now)

	assert.Equal(t, domain.PageStart, p.PageType)
	assert.Equal(t, "4,9", p.ProductIDs)
	assert.Empty(t, p.CategoryID)
	assert.Equal(t, time.UTC, p.SentAt.Location())
}

func TestLogAndNop(t *testing.T) {
	view := domain.PageView{PageType: domain.PageCart}

	assert.NoError(t, tracking.NewLog(zaptest.NewLogger(t)).Track(t.Context(), view))
	assert.NoError(t, tracking.NewLog(nil).Track(t.Context(), view))
	assert.NoError(t, tracking.Nop{}.Track(t.Context(), view))
}
