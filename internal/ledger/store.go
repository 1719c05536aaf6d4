// Package ledger is the durable record of user balances and the
// append-only transaction log.
package ledger

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/Melkor-1/Fin-Vista/internal/models"
)

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrUsernameTaken        = errors.New("username already exists")
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrInsufficientHoldings = errors.New("insufficient holdings")
)

// Store persists users and trades. ExecuteTrade is the single atomic
// unit: the balance read, the affordability or ownership check, the
// balance write, and the log insert commit together or not at all.
type Store interface {
	CreateUser(ctx context.Context, username, passwordHash string, cash decimal.Decimal) (*models.User, error)
	UserByUsername(ctx context.Context, username string) (*models.User, error)
	UserByID(ctx context.Context, id int64) (*models.User, error)

	// CashBalance returns the user's current cash.
	CashBalance(ctx context.Context, userID int64) (decimal.Decimal, error)

	// NetShares sums share_delta across all of the user's transactions
	// for one symbol. Zero if the user never traded it.
	NetShares(ctx context.Context, userID int64, symbol string) (int64, error)

	// Positions groups the full transaction log by symbol and keeps the
	// symbols with a positive net position, ordered by symbol.
	Positions(ctx context.Context, userID int64) ([]models.Holding, error)

	// Transactions returns the user's raw log, newest first.
	Transactions(ctx context.Context, userID int64) ([]models.Transaction, error)

	// ExecuteTrade applies one trade atomically and returns the new cash
	// balance. shareDelta is positive for buys and negative for sells.
	// Buys failing the affordability check return ErrInsufficientFunds;
	// sells failing the ownership check return ErrInsufficientHoldings.
	ExecuteTrade(ctx context.Context, userID int64, symbol string, shareDelta int64, price decimal.Decimal, tradeType string) (decimal.Decimal, error)
}
