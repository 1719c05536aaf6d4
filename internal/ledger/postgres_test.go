package ledger

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Melkor-1/Fin-Vista/internal/db"
	"github.com/Melkor-1/Fin-Vista/internal/models"
)

func TestPostgresExecuteTrade_Buy(t *testing.T) {
	database := db.SetupTestDB(t)
	defer database.Close()
	defer db.CleanupTestDB(t, database)

	store := NewPostgresStore(database)
	ctx := context.Background()

	userID := db.CreateTestUser(t, database, "testuser", "10000.00")

	balance, err := store.ExecuteTrade(ctx, userID, "AAPL", 10, decimal.RequireFromString("150.00"), models.TradeTypeBuy)
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.RequireFromString("8500")),
		"expected 8500, got %s", balance)

	// Verify balance was persisted
	persisted, err := store.CashBalance(ctx, userID)
	require.NoError(t, err)
	assert.True(t, persisted.Equal(balance))

	// Verify the log has exactly one row with the right delta
	transactions, err := store.Transactions(ctx, userID)
	require.NoError(t, err)
	require.Len(t, transactions, 1)
	assert.Equal(t, int64(10), transactions[0].ShareDelta)
	assert.Equal(t, models.TradeTypeBuy, transactions[0].Type)
}

func TestPostgresExecuteTrade_InsufficientFunds(t *testing.T) {
	database := db.SetupTestDB(t)
	defer database.Close()
	defer db.CleanupTestDB(t, database)

	store := NewPostgresStore(database)
	ctx := context.Background()

	userID := db.CreateTestUser(t, database, "pooruser", "100.00")

	_, err := store.ExecuteTrade(ctx, userID, "AAPL", 10, decimal.RequireFromString("150.00"), models.TradeTypeBuy)
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	// Verify balance unchanged and nothing logged
	balance, err := store.CashBalance(ctx, userID)
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.RequireFromString("100")))

	transactions, err := store.Transactions(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, transactions)
}

func TestPostgresExecuteTrade_InvalidUser(t *testing.T) {
	database := db.SetupTestDB(t)
	defer database.Close()
	defer db.CleanupTestDB(t, database)

	store := NewPostgresStore(database)

	_, err := store.ExecuteTrade(context.Background(), 99999, "AAPL", 10, decimal.RequireFromString("150.00"), models.TradeTypeBuy)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestPostgresExecuteTrade_SellRace(t *testing.T) {
	database := db.SetupTestDB(t)
	defer database.Close()
	defer db.CleanupTestDB(t, database)

	store := NewPostgresStore(database)
	ctx := context.Background()

	userID := db.CreateTestUser(t, database, "seller", "10000.00")

	price := decimal.RequireFromString("100.00")
	_, err := store.ExecuteTrade(ctx, userID, "AAPL", 10, price, models.TradeTypeBuy)
	require.NoError(t, err)

	// 20 concurrent sells of 1 share against 10 owned: exactly 10 can win
	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.ExecuteTrade(ctx, userID, "AAPL", -1, price, models.TradeTypeSell)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, ErrInsufficientHoldings)
		}
	}
	assert.Equal(t, 10, succeeded)

	net, err := store.NetShares(ctx, userID, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, int64(0), net)
}

func TestPostgresConcurrentBuys_SameUser(t *testing.T) {
	database := db.SetupTestDB(t)
	defer database.Close()
	defer db.CleanupTestDB(t, database)

	store := NewPostgresStore(database)
	ctx := context.Background()

	userID := db.CreateTestUser(t, database, "concurrent_user", "10000.00")

	// 10 concurrent buys of 1 share at $100 against $10,000
	numTrades := 10
	price := decimal.RequireFromString("100.00")

	var wg sync.WaitGroup
	for i := 0; i < numTrades; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.ExecuteTrade(ctx, userID, "AAPL", 1, price, models.TradeTypeBuy)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	// Verify final balance
	balance, err := store.CashBalance(ctx, userID)
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.RequireFromString("9000")),
		"race condition detected: expected 9000, got %s", balance)

	net, err := store.NetShares(ctx, userID, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, int64(numTrades), net)
}
