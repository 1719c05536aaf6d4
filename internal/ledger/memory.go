package ledger

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Melkor-1/Fin-Vista/internal/models"
)

// MemStore implements Store in memory with the same semantics as the
// Postgres store. Trades for one user are serialized with a per-user
// lock held across the whole check-then-write section.
type MemStore struct {
	mu       sync.RWMutex
	locks    *models.UserLocks
	users    map[int64]*models.User
	byName   map[string]int64
	log      []models.Transaction
	nextUser int64
	nextTx   int64
}

// NewMemStore creates an empty store.
func NewMemStore() *MemStore {
	return &MemStore{
		locks:  models.NewUserLocks(),
		users:  make(map[int64]*models.User),
		byName: make(map[string]int64),
	}
}

func (s *MemStore) CreateUser(ctx context.Context, username, passwordHash string, cash decimal.Decimal) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byName[username]; taken {
		return nil, ErrUsernameTaken
	}

	s.nextUser++
	user := &models.User{
		ID:           s.nextUser,
		Username:     username,
		PasswordHash: passwordHash,
		CashBalance:  cash,
		CreatedAt:    time.Now().UTC(),
	}
	s.users[user.ID] = user
	s.byName[username] = user.ID

	copied := *user
	return &copied, nil
}

func (s *MemStore) UserByUsername(ctx context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byName[username]
	if !ok {
		return nil, ErrUserNotFound
	}
	copied := *s.users[id]
	return &copied, nil
}

func (s *MemStore) UserByID(ctx context.Context, id int64) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (s *MemStore) CashBalance(ctx context.Context, userID int64) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[userID]
	if !ok {
		return decimal.Zero, ErrUserNotFound
	}
	return user.CashBalance, nil
}

func (s *MemStore) NetShares(ctx context.Context, userID int64, symbol string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.netSharesLocked(userID, symbol), nil
}

// netSharesLocked sums the log for one user+symbol. Callers hold s.mu.
func (s *MemStore) netSharesLocked(userID int64, symbol string) int64 {
	var net int64
	for _, t := range s.log {
		if t.UserID == userID && t.Symbol == symbol {
			net += t.ShareDelta
		}
	}
	return net
}

func (s *MemStore) Positions(ctx context.Context, userID int64) ([]models.Holding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	totals := make(map[string]int64)
	order := make([]string, 0)
	for _, t := range s.log {
		if t.UserID != userID {
			continue
		}
		if _, seen := totals[t.Symbol]; !seen {
			order = append(order, t.Symbol)
		}
		totals[t.Symbol] += t.ShareDelta
	}

	// Same ordering as the SQL store
	sort.Strings(order)

	holdings := make([]models.Holding, 0, len(order))
	for _, symbol := range order {
		if totals[symbol] > 0 {
			holdings = append(holdings, models.Holding{Symbol: symbol, Shares: totals[symbol]})
		}
	}
	return holdings, nil
}

func (s *MemStore) Transactions(ctx context.Context, userID int64) ([]models.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	transactions := make([]models.Transaction, 0)
	// Newest first, matching the SQL store's ordering
	for i := len(s.log) - 1; i >= 0; i-- {
		if s.log[i].UserID == userID {
			transactions = append(transactions, s.log[i])
		}
	}
	return transactions, nil
}

func (s *MemStore) ExecuteTrade(ctx context.Context, userID int64, symbol string, shareDelta int64, price decimal.Decimal, tradeType string) (decimal.Decimal, error) {
	// Serialize trades for this user across the whole critical section
	s.locks.Lock(userID)
	defer s.locks.Unlock(userID)

	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return decimal.Zero, ErrUserNotFound
	}

	amount := price.Mul(decimal.NewFromInt(shareDelta))
	newBalance := user.CashBalance.Sub(amount)

	if shareDelta > 0 && newBalance.IsNegative() {
		return decimal.Zero, ErrInsufficientFunds
	}
	if shareDelta < 0 && s.netSharesLocked(userID, symbol) < -shareDelta {
		return decimal.Zero, ErrInsufficientHoldings
	}

	user.CashBalance = newBalance
	s.nextTx++
	s.log = append(s.log, models.Transaction{
		ID:         s.nextTx,
		UserID:     userID,
		Symbol:     symbol,
		ShareDelta: shareDelta,
		Price:      price,
		Type:       tradeType,
		CreatedAt:  time.Now().UTC(),
	})

	return newBalance, nil
}
