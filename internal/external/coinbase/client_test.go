package coinbase

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/pitviper/backend/internal/contracts"
	"github.com/wonny/pitviper/backend/pkg/httputil"
	"github.com/wonny/pitviper/backend/pkg/logger"
)

func TestFetch_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/products/BTC-USD/ticker":
			w.Write([]byte(`{"price":"61000.50","volume":"1234.5","time":"2024-05-10T12:00:00.123Z"}`))
		case "/products/ETH-USD/ticker":
			w.Write([]byte(`{"price":"3000","open":"2950","high":"3050","low":"2900","volume":"99","currency":"USD"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := NewClient("key", server.URL, 5*time.Second, logger.Nop())
	defer client.Close()

	rows, err := client.Fetch(context.Background(), []string{"BTC-USD", "ETH-USD"})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	btc := rows[0]
	assert.Equal(t, "BTC-USD", btc.AssetID)
	assert.Equal(t, contracts.AssetCrypto, btc.AssetType)
	assert.Equal(t, "USD", btc.Currency)
	assert.Equal(t, "61000.50", btc.Close)
	assert.Equal(t, "61000.50", btc.High)
	assert.Equal(t, "1234.5", btc.Volume)
	assert.Equal(t, time.Date(2024, 5, 10, 12, 0, 0, 123_000_000, time.UTC), btc.AsOf)

	eth := rows[1]
	assert.Equal(t, "2950", eth.Open)
	assert.Equal(t, "2900", eth.Low)
	assert.Nil(t, eth.AsOf)
}

func TestFetch_MissingKey(t *testing.T) {
	client := NewClient("", "http://127.0.0.1:1", time.Second, logger.Nop())

	_, err := client.Fetch(context.Background(), []string{"BTC-USD"})
	assert.True(t, errors.Is(err, httputil.ErrMissingAPIKey))
}

func TestFetch_ClientError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient("key", server.URL, 5*time.Second, logger.Nop())
	_, err := client.Fetch(context.Background(), []string{"NOPE-USD"})
	require.Error(t, err)
	assert.Equal(t, httputil.KindClient, httputil.KindOf(err))
}

func TestFetch_EmptyPrice(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := NewClient("key", server.URL, 5*time.Second, logger.Nop())
	_, err := client.Fetch(context.Background(), []string{"BTC-USD"})
	assert.Equal(t, httputil.KindValidation, httputil.KindOf(err))
}
