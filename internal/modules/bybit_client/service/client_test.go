package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pump_bot/internal/exchange"
	"pump_bot/internal/helper"
)

type fakeBybit struct {
	t *testing.T

	mu        sync.Mutex
	orders    []orderRequest
	positions string
	retCode   int
}

func (f *fakeBybit) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/v5/market/instruments-info", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"retCode":0,"retMsg":"OK","result":{"list":[
			{"symbol":"SOLUSDT","status":"Trading","priceScale":"3",
			 "lotSizeFilter":{"minOrderQty":"0.1","qtyStep":"0.1"}}]}}`)
	})
	mux.HandleFunc("/v5/market/tickers", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"retCode":0,"retMsg":"OK","result":{"list":[
			{"symbol":"SOLUSDT","ask1Price":"150","lastPrice":"149.9"}]}}`)
	})
	mux.HandleFunc("/v5/position/list", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		body := f.positions
		f.mu.Unlock()
		_, _ = io.WriteString(w, `{"retCode":0,"retMsg":"OK","result":{"list":[`+body+`]}}`)
	})
	mux.HandleFunc("/v5/order/create", func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(r.Body)
		require.NoError(f.t, err)

		var req orderRequest
		require.NoError(f.t, sonic.Unmarshal(raw, &req))

		f.mu.Lock()
		f.orders = append(f.orders, req)
		code := f.retCode
		f.mu.Unlock()

		if code != 0 {
			_, _ = io.WriteString(w, `{"retCode":110007,"retMsg":"ab not enough for new order","result":{}}`)
			return
		}
		_, _ = io.WriteString(w, `{"retCode":0,"retMsg":"OK","result":{"orderId":"42","orderLinkId":"x"}}`)
	})
	return mux
}

func newTestClient(t *testing.T, f *fakeBybit) *Client {
	t.Helper()
	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)

	c := NewClient(Config{BaseURL: srv.URL, APIKey: "key", APISecret: "secret"})
	c.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return c
}

func TestClient_SignsRequests(t *testing.T) {
	var gotSign, gotTs, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSign = r.Header.Get("X-BAPI-SIGN")
		gotTs = r.Header.Get("X-BAPI-TIMESTAMP")
		gotQuery = r.URL.RawQuery
		assert.Equal(t, "key", r.Header.Get("X-BAPI-API-KEY"))
		assert.Equal(t, "5000", r.Header.Get("X-BAPI-RECV-WINDOW"))
		_, _ = io.WriteString(w, `{"retCode":0,"retMsg":"OK","result":{"list":[]}}`)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, APIKey: "key", APISecret: "secret"})
	c.now = func() time.Time { return time.UnixMilli(1700000000000) }

	_, ok, err := c.Position(context.Background(), "solusdt")
	require.NoError(t, err)
	assert.False(t, ok)

	mac := hmac.New(sha256.New, []byte("secret"))
	mac.Write([]byte("1700000000000" + "key" + "5000" + gotQuery))
	assert.Equal(t, "1700000000000", gotTs)
	assert.Equal(t, hex.EncodeToString(mac.Sum(nil)), gotSign)
}

func TestClient_OpenOrIncreaseByQuote(t *testing.T) {
	f := &fakeBybit{t: t}
	c := newTestClient(t, f)

	require.NoError(t, c.OpenOrIncrease(context.Background(), "solusdt", "Buy", 500))

	require.Len(t, f.orders, 1)
	o := f.orders[0]
	assert.Equal(t, "linear", o.Category)
	assert.Equal(t, "SOLUSDT", o.Symbol)
	assert.Equal(t, "Buy", o.Side)
	assert.Equal(t, "Market", o.OrderType)
	assert.Equal(t, "3.3", o.Qty)
	assert.False(t, o.ReduceOnly)
}

func TestClient_PlaceLimitByPercent(t *testing.T) {
	f := &fakeBybit{t: t}
	c := newTestClient(t, f)
	ctx := context.Background()

	id, err := c.PlaceLimitByPercent(ctx, "solusdt", "Sell", decimal.RequireFromString("1.25"), decimal.RequireFromString("1.5"))
	require.NoError(t, err)
	assert.Equal(t, "42", id)

	_, err = c.PlaceLimitByPercent(ctx, "solusdt", "Buy", decimal.NewFromInt(2), decimal.RequireFromString("1.5"))
	require.NoError(t, err)

	require.Len(t, f.orders, 2)
	sell, buy := f.orders[0], f.orders[1]
	assert.Equal(t, "Limit", sell.OrderType)
	assert.Equal(t, "SOLUSDT", sell.Symbol)
	assert.Equal(t, "1.2", sell.Qty)
	// ask 150: +1.5% для Sell, -1.5% для Buy
	assert.True(t, decimal.RequireFromString(sell.Price).Equal(decimal.RequireFromString("152.25")), sell.Price)
	assert.True(t, decimal.RequireFromString(buy.Price).Equal(decimal.RequireFromString("147.75")), buy.Price)
	assert.Equal(t, "Buy", buy.Side)
}

func TestClient_QuoteBelowMinQty(t *testing.T) {
	f := &fakeBybit{t: t}
	c := newTestClient(t, f)

	err := c.OpenOrIncrease(context.Background(), "solusdt", "Buy", 5)
	assert.ErrorIs(t, err, helper.ErrQtyTooSmall)
	assert.Empty(t, f.orders)
}

func TestClient_ClosePositionReversesSide(t *testing.T) {
	f := &fakeBybit{t: t, positions: `{"symbol":"SOLUSDT","side":"Buy","size":"3.3","avgPrice":"150","positionValue":"495","unrealisedPnl":"-1.5"}`}
	c := newTestClient(t, f)

	pos, ok, err := c.Position(context.Background(), "solusdt")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "solusdt", pos.Symbol)
	assert.True(t, pos.Notional().Equal(decimal.NewFromInt(495)))

	require.NoError(t, c.Close(context.Background(), "solusdt"))
	require.Len(t, f.orders, 1)
	o := f.orders[0]
	assert.Equal(t, "Sell", o.Side)
	assert.Equal(t, "0", o.Qty)
	assert.True(t, o.ReduceOnly)
	assert.True(t, o.CloseOnTrigger)
}

func TestClient_CloseWithoutPosition(t *testing.T) {
	f := &fakeBybit{t: t, positions: `{"symbol":"SOLUSDT","side":"","size":"0","avgPrice":"0","unrealisedPnl":""}`}
	c := newTestClient(t, f)

	err := c.Close(context.Background(), "solusdt")
	assert.ErrorIs(t, err, exchange.ErrNoPosition)
}

func TestClient_CountsOnlyOpenPositions(t *testing.T) {
	f := &fakeBybit{t: t, positions: `{"symbol":"SOLUSDT","side":"Buy","size":"1","avgPrice":"150","unrealisedPnl":"0"},
		{"symbol":"ETHUSDT","side":"","size":"0","avgPrice":"0","unrealisedPnl":"0"}`}
	c := newTestClient(t, f)

	n, err := c.OpenPositionsCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestClient_APIError(t *testing.T) {
	f := &fakeBybit{t: t, retCode: 1}
	c := newTestClient(t, f)

	err := c.OpenOrIncrease(context.Background(), "solusdt", "Buy", 500)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 110007, apiErr.Code)
}
