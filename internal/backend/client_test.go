package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contract-bot/internal/cache"
	apperrors "contract-bot/internal/common/errors"
	"contract-bot/internal/common/logger"
	"contract-bot/pkg/registry"
)

// ==========================
// Test Helpers
// ==========================

type gatewayCall struct {
	Action string
	Params Params
}

// scriptedGateway replays results in order; the last one repeats.
type scriptedGateway struct {
	mu      sync.Mutex
	results []Result
	calls   []gatewayCall
}

func (g *scriptedGateway) Call(_ context.Context, action string, params Params) Result {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, gatewayCall{Action: action, Params: params})
	idx := len(g.calls) - 1
	if idx >= len(g.results) {
		idx = len(g.results) - 1
	}
	return g.results[idx]
}

func (g *scriptedGateway) CallCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

type recordedWaits struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (r *recordedWaits) wait(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	r.waits = append(r.waits, d)
	r.mu.Unlock()
	return ctx.Err()
}

func okPayload(body string) Result { return Ok(json.RawMessage(body)) }

func appErr(msg string) Result { return Fail(apperrors.NewApplicationError("x", msg)) }

func createTestConfig() *Config {
	cfg := DefaultConfig()
	cfg.URL = "http://backend.invalid/exec"
	cfg.APIKey = "k"
	return cfg
}

func newTestClient(t *testing.T, gw Gateway, waits *recordedWaits) *Client {
	t.Helper()
	cfg := createTestConfig()
	return NewClient(cfg, gw, cache.New(cfg.CacheTTL, cfg.CacheCapacity), registry.Default(),
		logger.NewTestLogger(t), WithWait(waits.wait))
}

const contractsBody = `{"ok":true,"items":[
	{"number":"W-25-001","client":"ТОВ Ромашка","amount":"50000","date":"2025-11-01","status":"активний"},
	{"number":"W-25-002","client":"ФОП Іваненко","amount":12000.5,"date":"2025-10-10","status":"завершений"}
]}`

// ==========================
// Retry Tests
// ==========================

func TestRetry_AlwaysFailing(t *testing.T) {
	gw := &scriptedGateway{results: []Result{appErr("boom")}}
	waits := &recordedWaits{}
	c := newTestClient(t, gw, waits)

	_, err := c.GenerateInvoice(context.Background(), "W-25-001")
	require.Error(t, err)

	assert.Equal(t, 3, gw.CallCount())
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, waits.waits, "no wait after the last attempt")

	var remote *apperrors.RemoteError
	require.True(t, apperrors.AsRemote(err, &remote))
	assert.Equal(t, 3, remote.Attempts)
	assert.Equal(t, "boom", remote.Last.Message)
}

func TestRetry_SucceedsOnThirdAttempt(t *testing.T) {
	gw := &scriptedGateway{results: []Result{
		appErr("first"),
		Fail(apperrors.NewTimeoutError("generateAct", context.DeadlineExceeded)),
		okPayload(`{"ok":true,"url":"https://docs.example.com/act"}`),
	}}
	waits := &recordedWaits{}
	c := newTestClient(t, gw, waits)

	doc, err := c.GenerateAct(context.Background(), "W-25-001")
	require.NoError(t, err)
	assert.Equal(t, "https://docs.example.com/act", doc.URL)
	assert.Equal(t, 3, gw.CallCount())
	assert.Len(t, waits.waits, 2)
}

func TestRetry_StopsOnCancelledContext(t *testing.T) {
	gw := &scriptedGateway{results: []Result{appErr("down")}}
	waits := &recordedWaits{}
	c := newTestClient(t, gw, waits)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.RegenerateContract(ctx, "W-25-001")
	require.Error(t, err)
	assert.Equal(t, 1, gw.CallCount())
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeRemoteTimeout))
}

func TestRetryPolicy_RealWaitHonoursContext(t *testing.T) {
	p := NewRetryPolicy(3, time.Hour, logger.NewNoOpLogger())
	gw := &scriptedGateway{results: []Result{appErr("down")}}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	out := p.Do(ctx, ActionStats, Params{}, gw)
	assert.Less(t, time.Since(start), time.Second)
	assert.False(t, out.Result.IsOk())
	assert.Equal(t, 1, out.Attempts)
}

// ==========================
// Cache And Classification Tests
// ==========================

func TestClassifier(t *testing.T) {
	c := NewClassifier(registry.Default())
	for _, a := range []string{ActionRegenerate, ActionGenerateInvoice, ActionGenerateAct, ActionUpdate} {
		assert.True(t, c.IsWrite(a), a)
	}
	for _, a := range []string{ActionContracts, ActionStats, ActionHealth} {
		assert.False(t, c.IsWrite(a), a)
	}
	assert.True(t, c.IsWrite("somethingNew"))
}

func TestListContracts_CachesReads(t *testing.T) {
	gw := &scriptedGateway{results: []Result{okPayload(contractsBody)}}
	c := newTestClient(t, gw, &recordedWaits{})

	first, err := c.ListContracts(context.Background(), 0)
	require.NoError(t, err)
	second, err := c.ListContracts(context.Background(), 50)
	require.NoError(t, err)

	assert.Equal(t, 1, gw.CallCount(), "second read within TTL is served from cache")
	assert.Equal(t, first, second)
	require.Len(t, first, 2)
	assert.Equal(t, Amount(50000), first[0].Amount)
	assert.Equal(t, Amount(12000.5), first[1].Amount)
	assert.Equal(t, Params{"limit": "50"}, gw.calls[0].Params)

	_, err = c.ListContracts(context.Background(), 20)
	require.NoError(t, err)
	assert.Equal(t, 2, gw.CallCount(), "different params is a different key")

	assert.Equal(t, 2, c.CacheStats().Size)
	c.ClearCache()
	assert.Equal(t, 0, c.CacheStats().Size)
}

func TestWrites_BypassCache(t *testing.T) {
	gw := &scriptedGateway{results: []Result{okPayload(`{"ok":true,"contractUrl":"c","invoiceUrl":"i","actUrl":"a"}`)}}
	c := newTestClient(t, gw, &recordedWaits{})

	for i := 0; i < 2; i++ {
		urls, err := c.RegenerateContract(context.Background(), "W-25-001")
		require.NoError(t, err)
		assert.Equal(t, "c", urls.ContractURL)
	}
	assert.Equal(t, 2, gw.CallCount())
	assert.Equal(t, 0, c.CacheStats().Size)
}

func TestFailedReads_NotCached(t *testing.T) {
	gw := &scriptedGateway{results: []Result{appErr("a"), appErr("b"), appErr("c"), okPayload(`{"ok":true,"stats":{"total":3}}`)}}
	c := newTestClient(t, gw, &recordedWaits{})

	_, err := c.GetStats(context.Background())
	require.Error(t, err)
	assert.Equal(t, 0, c.CacheStats().Size)

	stats, err := c.GetStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Amount(3), stats.Total)
	assert.Equal(t, 1, c.CacheStats().Size)
}

// ==========================
// Typed Operation Tests
// ==========================

func TestUpdateContract(t *testing.T) {
	gw := &scriptedGateway{results: []Result{okPayload(`{"ok":true,"contractUrl":"https://c"}`)}}
	c := newTestClient(t, gw, &recordedWaits{})

	urls, err := c.UpdateContract(context.Background(), "W-25-001", map[string]string{
		"amount":      "50000",
		"description": "Test",
		"number":      "W-99-999",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://c", urls.ContractURL)
	assert.Equal(t, Params{"number": "W-25-001", "amount": "50000", "description": "Test"}, gw.calls[0].Params)
}

func TestUpdateContract_NoFields(t *testing.T) {
	gw := &scriptedGateway{results: []Result{okPayload(`{"ok":true}`)}}
	c := newTestClient(t, gw, &recordedWaits{})

	_, err := c.UpdateContract(context.Background(), "W-25-001", nil)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeNoEditFields))
	assert.Equal(t, 0, gw.CallCount())
}

func TestMissingRequiredParam_NeverSent(t *testing.T) {
	gw := &scriptedGateway{results: []Result{okPayload(`{"ok":true}`)}}
	c := newTestClient(t, gw, &recordedWaits{})

	_, err := c.GenerateInvoice(context.Background(), "")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeValidationFailed))
	assert.Equal(t, 0, gw.CallCount())
}

func TestGetStats_Absent(t *testing.T) {
	gw := &scriptedGateway{results: []Result{okPayload(`{"ok":true}`)}}
	c := newTestClient(t, gw, &recordedWaits{})

	stats, err := c.GetStats(context.Background())
	require.NoError(t, err)
	assert.Nil(t, stats)
}

func TestHealthCheck(t *testing.T) {
	t.Run("healthy and never cached", func(t *testing.T) {
		gw := &scriptedGateway{results: []Result{okPayload(`{"ok":true}`)}}
		c := newTestClient(t, gw, &recordedWaits{})

		for i := 0; i < 2; i++ {
			h := c.HealthCheck(context.Background())
			assert.True(t, h.Healthy)
			assert.Empty(t, h.Error)
		}
		assert.Equal(t, 2, gw.CallCount())
		assert.Equal(t, 0, c.CacheStats().Size)
	})

	t.Run("unhealthy carries message", func(t *testing.T) {
		gw := &scriptedGateway{results: []Result{appErr("maintenance")}}
		c := newTestClient(t, gw, &recordedWaits{})

		h := c.HealthCheck(context.Background())
		assert.False(t, h.Healthy)
		assert.Equal(t, "maintenance", h.Error)
		assert.Equal(t, 3, gw.CallCount())
	})
}

// ==========================
// End-to-end over HTTP
// ==========================

func TestClient_OverHTTP(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		assert.Equal(t, "k", r.URL.Query().Get("key"))
		switch r.URL.Query().Get("action") {
		case ActionContracts:
			w.Write([]byte(contractsBody))
		case ActionHealth:
			w.Write([]byte(`{"ok":true}`))
		default:
			w.Write([]byte(`{"ok":false,"error":"unsupported"}`))
		}
	}))
	defer server.Close()

	cfg := createTestConfig()
	cfg.URL = server.URL
	cfg.Timeout = time.Second
	waits := &recordedWaits{}
	c, err := New(cfg, logger.NewTestLogger(t), WithWait(waits.wait))
	require.NoError(t, err)

	items, err := c.ListContracts(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, items, 2)
	_, err = c.ListContracts(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))

	_, err = c.GenerateAct(context.Background(), "W-25-001")
	var remote *apperrors.RemoteError
	require.True(t, errors.As(err, &remote))
	assert.Equal(t, "unsupported", remote.Last.Message)
	assert.Equal(t, int32(4), atomic.LoadInt32(&hits))

	assert.True(t, c.HealthCheck(context.Background()).Healthy)
}

func TestNew_InvalidConfig(t *testing.T) {
	_, err := New(DefaultConfig(), logger.NewNoOpLogger())
	assert.Error(t, err)
}
