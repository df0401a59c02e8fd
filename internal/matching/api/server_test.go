package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/orbitcex/matchcore/internal/matching/engine"
	"github.com/orbitcex/matchcore/internal/matching/journal"
	"github.com/orbitcex/matchcore/internal/matching/metrics"
	"github.com/orbitcex/matchcore/internal/matching/risk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type noopDrops struct{}

func (noopDrops) RecordJournalDrop() {}

func newTestServer(t *testing.T) (*httptest.Server, *engine.Engine, func()) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	dir := t.TempDir()
	jrnl, err := journal.Open(journal.Config{Path: dir + "/j.log", Capacity: 1024, BatchSize: 16, FlushEvery: time.Millisecond}, noopDrops{}, zap.NewNop())
	require.NoError(t, err)

	rec := metrics.New()
	eng := engine.New(engine.Config{
		CommandQueueCapacity: 64,
		OrderPoolInitialSize: 16,
		Risk:                 risk.Config{MaxQuantity: 1_000_000, MinPrice: 0, MaxPrice: 1_000_000},
		Backpressure:         engine.FailFast,
	}, jrnl, rec, zap.NewNop(), nil)
	go eng.Run()

	s := NewServer(eng, zap.NewNop())
	srv := httptest.NewServer(s.Router())
	return srv, eng, func() {
		srv.Close()
		eng.Stop()
		jrnl.Close()
	}
}

func TestPostOrderAcceptsValidOrder(t *testing.T) {
	srv, _, cleanup := newTestServer(t)
	defer cleanup()

	body, _ := json.Marshal(AddOrderRequest{ID: 1, Side: "buy", Kind: "gtc", Price: 100, Quantity: 10})
	resp, err := http.Post(srv.URL+"/orders", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	var out AddOrderResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.NotZero(t, out.OrderID)
}

func TestPostOrderRejectsInvalidBody(t *testing.T) {
	srv, _, cleanup := newTestServer(t)
	defer cleanup()

	resp, err := http.Post(srv.URL+"/orders", "application/json", bytes.NewReader([]byte(`{"side":"sideways"}`)))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetBookReturnsRestingLevelsAfterAdd(t *testing.T) {
	srv, eng, cleanup := newTestServer(t)
	defer cleanup()

	err := eng.AddOrder(1, 0, 0, 100, 10)
	require.NoError(t, err)
	time.Sleep(50 * time.Millisecond)

	resp, err := http.Get(srv.URL + "/book?levels=5")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var out BookSnapshotResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Len(t, out.Bids, 1)
	assert.Equal(t, "100", out.Bids[0].Price.String())
}

func TestDeleteOrderCancelsResting(t *testing.T) {
	srv, eng, cleanup := newTestServer(t)
	defer cleanup()

	err := eng.AddOrder(2, 0, 0, 100, 10)
	require.NoError(t, err)
	time.Sleep(20 * time.Millisecond)

	req, _ := http.NewRequest(http.MethodDelete, srv.URL+"/orders/"+itoa(2), nil)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func itoa(n uint64) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}
