package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Trade type values stored in the transaction log.
const (
	TradeTypeBuy  = "buy"
	TradeTypeSell = "sold"
)

// User represents a registered account in the ledger.
type User struct {
	ID           int64           `json:"id"`
	Username     string          `json:"username"`
	PasswordHash string          `json:"-"`
	CashBalance  decimal.Decimal `json:"cash_balance"`
	CreatedAt    time.Time       `json:"created_at"`
}

// Transaction is one row of the append-only trade log. ShareDelta is
// positive for buys and negative for sells. Rows are never updated or
// deleted once written.
type Transaction struct {
	ID         int64           `json:"id"`
	UserID     int64           `json:"user_id"`
	Symbol     string          `json:"symbol"`
	ShareDelta int64           `json:"shares"`
	Price      decimal.Decimal `json:"price"`
	Type       string          `json:"type"` // "buy" or "sold"
	CreatedAt  time.Time       `json:"created_at"`
}

// Holding is a user's current net position in one symbol, derived from
// the transaction log on demand. It is never stored.
type Holding struct {
	Symbol string `json:"symbol"`
	Shares int64  `json:"shares"`
}

// Quote is a point-in-time price lookup result for a symbol.
type Quote struct {
	Symbol string          `json:"symbol"`
	Name   string          `json:"name"`
	Price  decimal.Decimal `json:"price"`
}

// PortfolioEntry is one position in the portfolio view. Priced is false
// when the quote provider had no price for the symbol; the shares are
// still listed but Price and TotalValue stay zero.
type PortfolioEntry struct {
	Symbol     string          `json:"symbol"`
	Shares     int64           `json:"shares"`
	Price      decimal.Decimal `json:"price"`
	TotalValue decimal.Decimal `json:"total_value"`
	Priced     bool            `json:"priced"`
}

// PortfolioView is what the index page renders: owned positions with
// current valuations, cash, and the grand total.
type PortfolioView struct {
	Holdings   []PortfolioEntry `json:"holdings"`
	Cash       decimal.Decimal  `json:"cash"`
	GrandTotal decimal.Decimal  `json:"grand_total"`
}

// TradeRequest - what the client sends to buy or sell. Shares stays a raw
// string so the engine can reject fractional or non-numeric input instead
// of silently truncating it.
type TradeRequest struct {
	Symbol string `json:"symbol" binding:"required"`
	Shares string `json:"shares" binding:"required"`
}

// TradeEvent is broadcast over the websocket feed after a trade commits.
type TradeEvent struct {
	UserID    int64           `json:"user_id"`
	Symbol    string          `json:"symbol"`
	Type      string          `json:"type"`
	Shares    int64           `json:"shares"`
	Price     decimal.Decimal `json:"price"`
	Total     decimal.Decimal `json:"total"`
	Timestamp time.Time       `json:"timestamp"`
}
