package quote

import (
	"context"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/Melkor-1/Fin-Vista/internal/models"
)

// StaticProvider serves prices from a fixed table. Used in tests and for
// offline runs where the real provider is unreachable.
type StaticProvider struct {
	mu     sync.RWMutex
	prices map[string]decimal.Decimal
}

// NewStaticProvider creates an empty provider.
func NewStaticProvider() *StaticProvider {
	return &StaticProvider{
		prices: make(map[string]decimal.Decimal),
	}
}

// Set registers a price for a symbol.
func (p *StaticProvider) Set(symbol string, price decimal.Decimal) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prices[strings.ToUpper(symbol)] = price
}

// Lookup implements Provider. Unknown symbols are ErrUnavailable.
func (p *StaticProvider) Lookup(ctx context.Context, symbol string) (*models.Quote, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	p.mu.RLock()
	price, ok := p.prices[symbol]
	p.mu.RUnlock()

	if !ok {
		return nil, ErrUnavailable
	}

	return &models.Quote{
		Symbol: symbol,
		Name:   symbol,
		Price:  price,
	}, nil
}
