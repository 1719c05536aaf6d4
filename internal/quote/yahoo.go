package quote

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Melkor-1/Fin-Vista/internal/models"
)

const defaultBaseURL = "https://query1.finance.yahoo.com/v7/finance/download"

// YahooProvider fetches quotes from Yahoo Finance's historical download
// endpoint and uses the most recent day's adjusted close as the price.
type YahooProvider struct {
	BaseURL string
	Client  *http.Client
}

// NewYahooProvider creates a provider with a bounded request timeout.
func NewYahooProvider() *YahooProvider {
	return &YahooProvider{
		BaseURL: defaultBaseURL,
		Client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Lookup implements Provider. Every failure mode collapses to
// ErrUnavailable; the caller cannot act on the difference.
func (p *YahooProvider) Lookup(ctx context.Context, symbol string) (*models.Quote, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, ErrUnavailable
	}

	end := time.Now()
	start := end.AddDate(0, 0, -7)

	reqURL := fmt.Sprintf(
		"%s/%s?period1=%d&period2=%d&interval=1d&events=history&includeAdjustedClose=true",
		p.BaseURL, url.PathEscape(symbol), start.Unix(), end.Unix(),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, ErrUnavailable
	}
	req.Header.Set("User-Agent", "fin-vista")
	req.Header.Set("Accept", "*/*")

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, ErrUnavailable
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, ErrUnavailable
	}

	price, err := parseAdjClose(resp.Body)
	if err != nil {
		return nil, ErrUnavailable
	}

	return &models.Quote{
		Symbol: symbol,
		Name:   symbol,
		Price:  price,
	}, nil
}

// parseAdjClose reads the CSV payload and returns the latest row's
// "Adj Close" value rounded to cents.
// CSV header: Date,Open,High,Low,Close,Adj Close,Volume
func parseAdjClose(r io.Reader) (decimal.Decimal, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return decimal.Zero, err
	}
	if len(records) < 2 {
		return decimal.Zero, fmt.Errorf("empty quote history")
	}

	adjCloseCol := -1
	for i, name := range records[0] {
		if name == "Adj Close" {
			adjCloseCol = i
			break
		}
	}
	if adjCloseCol == -1 {
		return decimal.Zero, fmt.Errorf("no Adj Close column")
	}

	latest := records[len(records)-1]
	if adjCloseCol >= len(latest) {
		return decimal.Zero, fmt.Errorf("short row")
	}

	price, err := decimal.NewFromString(latest[adjCloseCol])
	if err != nil {
		return decimal.Zero, err
	}

	return price.Round(2), nil
}
