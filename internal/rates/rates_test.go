package rates

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func providerServer(t *testing.T, body string, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

const okBody = `{"result":"success","base_code":"USD","rates":{"USD":1,"MYR":4.7123,"EUR":0.92,"AUD":1.51,"SGD":1.34,"JPY":151.2}}`

func TestFetchDecodesRates(t *testing.T) {
	var hits atomic.Int32
	srv := providerServer(t, okBody, &hits)

	got, err := NewFetcher(srv.URL).Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 6)
	assert.InDelta(t, 4.7123, got["MYR"], 1e-9)
}

func TestFetchRejectsUnsuccessfulResult(t *testing.T) {
	var hits atomic.Int32
	srv := providerServer(t, `{"result":"error","error-type":"unsupported-code"}`, &hits)

	_, err := NewFetcher(srv.URL).Fetch(context.Background())
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestFetchReportsHTTPStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down for maintenance", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewFetcher(srv.URL).Fetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestServiceCachesInRedis(t *testing.T) {
	var hits atomic.Int32
	srv := providerServer(t, okBody, &hits)
	mr, client := newRedis(t)
	svc := NewService(NewFetcher(srv.URL), client, time.Hour, nil)

	first, err := svc.Rates(context.Background())
	require.NoError(t, err)
	second, err := svc.Rates(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), hits.Load())
	assert.True(t, mr.Exists(cacheKey))

	mr.FastForward(time.Hour + time.Second)
	_, err = svc.Rates(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), hits.Load())
}

func TestServiceWithoutRedisFetchesEachTime(t *testing.T) {
	var hits atomic.Int32
	srv := providerServer(t, okBody, &hits)
	svc := NewService(NewFetcher(srv.URL), nil, 0, nil)

	for i := 0; i < 2; i++ {
		_, err := svc.Rates(context.Background())
		require.NoError(t, err)
	}
	assert.Equal(t, int32(2), hits.Load())
}

type failingSource struct{ err error }

func (f failingSource) Fetch(context.Context) (Rates, error) { return nil, f.err }

func TestServiceFailureYieldsEmptyRates(t *testing.T) {
	mr, client := newRedis(t)
	svc := NewService(failingSource{err: errors.New("dial tcp: i/o timeout")}, client, time.Hour, nil)

	got, err := svc.Rates(context.Background())
	require.Error(t, err)
	assert.Empty(t, got)
	assert.False(t, mr.Exists(cacheKey))

	svc.Prefetch(context.Background())
}

func TestOrderPutsPreferredFirst(t *testing.T) {
	got := Order(Rates{"USD": 1, "JPY": 151.2, "MYR": 4.7, "AUD": 1.5, "EUR": 0.9})
	var codes []string
	for _, q := range got {
		codes = append(codes, q.Currency)
	}
	assert.Equal(t, []string{"MYR", "USD", "EUR", "AUD", "JPY"}, codes)
}

func TestViewSearchAndFormatting(t *testing.T) {
	v := NewView(Rates{"USD": 1, "MYR": 4.71234, "SGD": 1.34, "AUD": 1.51})
	assert.Equal(t, [][2]string{
		{"MYR", "4.7123"},
		{"SGD", "1.3400"},
		{"USD", "1.0000"},
		{"AUD", "1.5100"},
	}, v.Visible())

	v.Search("us")
	assert.Equal(t, [][2]string{{"USD", "1.0000"}}, v.Visible())

	v.Search("")
	assert.Len(t, v.Visible(), 4)
}
