// Package engine validates and executes trades against the ledger.
package engine

import (
	"context"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Melkor-1/Fin-Vista/internal/ledger"
	"github.com/Melkor-1/Fin-Vista/internal/models"
	"github.com/Melkor-1/Fin-Vista/internal/quote"
)

// Engine is the trade core. It owns validation, price lookup, and the
// call into the store's atomic trade path. It holds no per-request state;
// the caller threads the user id into every call.
type Engine struct {
	store  ledger.Store
	quotes quote.Provider
}

// New creates an engine over a store and a quote provider.
func New(store ledger.Store, quotes quote.Provider) *Engine {
	return &Engine{store: store, quotes: quotes}
}

// Receipt summarizes a committed trade.
type Receipt struct {
	Symbol     string          `json:"symbol"`
	Type       string          `json:"type"`
	Shares     int64           `json:"shares"`
	Price      decimal.Decimal `json:"price"`
	Total      decimal.Decimal `json:"total"`
	NewBalance decimal.Decimal `json:"new_balance"`
}

// parseShares accepts only whole numbers of at least one share. "1.5",
// "abc", "" and "0" are all validation failures; nothing is truncated.
func parseShares(input string) (int64, *Error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return 0, newError(KindValidation, "please fill in all the fields")
	}

	shares, err := strconv.ParseInt(input, 10, 64)
	if err != nil {
		return 0, newError(KindValidation, "shares must be a whole number")
	}
	if shares < 1 {
		return 0, newError(KindValidation, "the number of shares can not be less than 1")
	}
	return shares, nil
}

// normalizeSymbol trims and uppercases, rejecting empty input.
func normalizeSymbol(symbol string) (string, *Error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return "", newError(KindValidation, "please fill in all the fields")
	}
	return symbol, nil
}

// Buy purchases shares of symbol at the current quoted price.
func (e *Engine) Buy(ctx context.Context, userID int64, symbol, sharesInput string) (*Receipt, error) {
	return e.trade(ctx, userID, symbol, sharesInput, models.TradeTypeBuy)
}

// Sell sells shares the user owns at the current quoted price. Sells of
// zero or negative shares are rejected up front, same as buys.
func (e *Engine) Sell(ctx context.Context, userID int64, symbol, sharesInput string) (*Receipt, error) {
	return e.trade(ctx, userID, symbol, sharesInput, models.TradeTypeSell)
}

func (e *Engine) trade(ctx context.Context, userID int64, symbol, sharesInput, tradeType string) (*Receipt, error) {
	symbol, verr := normalizeSymbol(symbol)
	if verr != nil {
		return nil, verr
	}
	shares, verr := parseShares(sharesInput)
	if verr != nil {
		return nil, verr
	}

	q, err := e.quotes.Lookup(ctx, symbol)
	if err != nil {
		return nil, newError(KindNotFound, "the symbol does not exist")
	}

	delta := shares
	if tradeType == models.TradeTypeSell {
		delta = -shares
	}

	newBalance, err := e.store.ExecuteTrade(ctx, userID, q.Symbol, delta, q.Price, tradeType)
	if err != nil {
		return nil, mapStoreErr(err)
	}

	return &Receipt{
		Symbol:     q.Symbol,
		Type:       tradeType,
		Shares:     shares,
		Price:      q.Price,
		Total:      q.Price.Mul(decimal.NewFromInt(shares)),
		NewBalance: newBalance,
	}, nil
}

// Quote looks up the current price for a symbol.
func (e *Engine) Quote(ctx context.Context, symbol string) (*models.Quote, error) {
	symbol, verr := normalizeSymbol(symbol)
	if verr != nil {
		return nil, verr
	}

	q, err := e.quotes.Lookup(ctx, symbol)
	if err != nil {
		return nil, newError(KindNotFound, "the symbol does not exist")
	}
	return q, nil
}

// Portfolio builds the index view: every positive position with its
// current valuation, plus cash and the grand total. Symbols the provider
// cannot price stay listed with Priced=false and contribute nothing to
// the total, so one flaky quote never fails the whole view.
func (e *Engine) Portfolio(ctx context.Context, userID int64) (*models.PortfolioView, error) {
	cash, err := e.store.CashBalance(ctx, userID)
	if err != nil {
		return nil, mapStoreErr(err)
	}

	positions, err := e.store.Positions(ctx, userID)
	if err != nil {
		return nil, mapStoreErr(err)
	}

	view := &models.PortfolioView{
		Holdings:   make([]models.PortfolioEntry, 0, len(positions)),
		Cash:       cash,
		GrandTotal: cash,
	}

	for _, h := range positions {
		entry := models.PortfolioEntry{Symbol: h.Symbol, Shares: h.Shares}
		if q, qerr := e.quotes.Lookup(ctx, h.Symbol); qerr == nil {
			entry.Price = q.Price
			entry.TotalValue = q.Price.Mul(decimal.NewFromInt(h.Shares))
			entry.Priced = true
			view.GrandTotal = view.GrandTotal.Add(entry.TotalValue)
		}
		view.Holdings = append(view.Holdings, entry)
	}

	return view, nil
}

// History returns the user's raw transaction log, newest first.
func (e *Engine) History(ctx context.Context, userID int64) ([]models.Transaction, error) {
	transactions, err := e.store.Transactions(ctx, userID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return transactions, nil
}
