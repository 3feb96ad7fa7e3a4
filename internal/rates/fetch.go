// Package rates backs the currency-rate window: it fetches USD exchange
// rates from an open API, caches them in Redis and lays them out in a
// searchable table.
package rates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	// DefaultURL serves the latest rates against USD.
	DefaultURL = "https://open.er-api.com/v6/latest/USD"

	fetchTimeout = 10 * time.Second
)

// ErrUnavailable is returned when the provider answers without rates.
var ErrUnavailable = errors.New("rates: provider returned no rates")

// Rates maps a currency code to its rate against the base currency.
type Rates map[string]float64

type payload struct {
	Result string             `json:"result"`
	Base   string             `json:"base_code"`
	Rates  map[string]float64 `json:"rates"`
}

// Fetcher reads rates from the provider.
type Fetcher struct {
	URL    string
	Client *http.Client
}

// NewFetcher returns a Fetcher for url with the provider timeout applied.
func NewFetcher(url string) *Fetcher {
	if url == "" {
		url = DefaultURL
	}
	return &Fetcher{URL: url, Client: &http.Client{Timeout: fetchTimeout}}
}

// Fetch downloads the current rates.
func (f *Fetcher) Fetch(ctx context.Context) (Rates, error) {
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("rates: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rates: fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("rates: provider response %d: %s", resp.StatusCode, string(data))
	}

	var body payload
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("rates: decode: %w", err)
	}
	if body.Result != "success" || len(body.Rates) == 0 {
		return nil, ErrUnavailable
	}
	return Rates(body.Rates), nil
}
