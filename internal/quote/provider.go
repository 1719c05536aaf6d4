// Package quote abstracts looking up a symbol's current market price.
package quote

import (
	"context"
	"errors"

	"github.com/Melkor-1/Fin-Vista/internal/models"
)

// ErrUnavailable is returned whenever a price cannot be produced: unknown
// symbol, network failure, malformed response, empty result. Callers must
// treat all of those the same, so providers never distinguish them.
var ErrUnavailable = errors.New("quote unavailable")

// Provider is the port for price lookups. Implementations uppercase the
// symbol before querying.
type Provider interface {
	Lookup(ctx context.Context, symbol string) (*models.Quote, error)
}
