package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/Melkor-1/Fin-Vista/internal/models"
)

// uniqueViolation is the Postgres error code for a unique constraint hit.
const uniqueViolation = "23505"

// PostgresStore implements Store on database/sql. Trades run inside a
// transaction holding a FOR UPDATE lock on the user's row, so two
// concurrent trades for the same user can never both read a stale
// balance.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore wraps an open connection pool.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) CreateUser(ctx context.Context, username, passwordHash string, cash decimal.Decimal) (*models.User, error) {
	user := &models.User{
		Username:     username,
		PasswordHash: passwordHash,
		CashBalance:  cash,
	}

	err := s.db.QueryRowContext(ctx, `
        INSERT INTO users (username, password_hash, cash_balance)
        VALUES ($1, $2, $3)
        RETURNING id, created_at
    `, username, passwordHash, cash).Scan(&user.ID, &user.CreatedAt)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return nil, ErrUsernameTaken
	}
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	return user, nil
}

func (s *PostgresStore) UserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx, `
        SELECT id, username, password_hash, cash_balance, created_at
        FROM users
        WHERE username = $1
    `, username))
}

func (s *PostgresStore) UserByID(ctx context.Context, id int64) (*models.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx, `
        SELECT id, username, password_hash, cash_balance, created_at
        FROM users
        WHERE id = $1
    `, id))
}

func (s *PostgresStore) scanUser(row *sql.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(&user.ID, &user.Username, &user.PasswordHash, &user.CashBalance, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &user, nil
}

func (s *PostgresStore) CashBalance(ctx context.Context, userID int64) (decimal.Decimal, error) {
	var cash decimal.Decimal
	err := s.db.QueryRowContext(ctx,
		"SELECT cash_balance FROM users WHERE id = $1",
		userID,
	).Scan(&cash)

	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, ErrUserNotFound
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("read balance: %w", err)
	}
	return cash, nil
}

func (s *PostgresStore) NetShares(ctx context.Context, userID int64, symbol string) (int64, error) {
	var net int64
	err := s.db.QueryRowContext(ctx, `
        SELECT COALESCE(SUM(share_delta), 0)
        FROM transactions
        WHERE user_id = $1 AND symbol = $2
    `, userID, symbol).Scan(&net)

	if err != nil {
		return 0, fmt.Errorf("sum shares: %w", err)
	}
	return net, nil
}

func (s *PostgresStore) Positions(ctx context.Context, userID int64) ([]models.Holding, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT symbol, SUM(share_delta) AS shares
        FROM transactions
        WHERE user_id = $1
        GROUP BY symbol
        HAVING SUM(share_delta) > 0
        ORDER BY symbol
    `, userID)

	if err != nil {
		return nil, fmt.Errorf("read positions: %w", err)
	}
	defer rows.Close()

	holdings := make([]models.Holding, 0)
	for rows.Next() {
		var h models.Holding
		if err := rows.Scan(&h.Symbol, &h.Shares); err != nil {
			return nil, fmt.Errorf("scan position: %w", err)
		}
		holdings = append(holdings, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read positions: %w", err)
	}

	return holdings, nil
}

func (s *PostgresStore) Transactions(ctx context.Context, userID int64) ([]models.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, user_id, symbol, share_delta, price, type, created_at
        FROM transactions
        WHERE user_id = $1
        ORDER BY created_at DESC, id DESC
    `, userID)

	if err != nil {
		return nil, fmt.Errorf("read transactions: %w", err)
	}
	defer rows.Close()

	transactions := make([]models.Transaction, 0)
	for rows.Next() {
		var t models.Transaction
		if err := rows.Scan(&t.ID, &t.UserID, &t.Symbol, &t.ShareDelta, &t.Price, &t.Type, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		transactions = append(transactions, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read transactions: %w", err)
	}

	return transactions, nil
}

func (s *PostgresStore) ExecuteTrade(ctx context.Context, userID int64, symbol string, shareDelta int64, price decimal.Decimal, tradeType string) (decimal.Decimal, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("begin trade: %w", err)
	}
	defer tx.Rollback() // Rollback if we don't commit

	// 1. Lock the user's balance row for the rest of the trade
	var cash decimal.Decimal
	err = tx.QueryRowContext(ctx,
		"SELECT cash_balance FROM users WHERE id = $1 FOR UPDATE",
		userID,
	).Scan(&cash)

	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, ErrUserNotFound
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("lock balance: %w", err)
	}

	// Signed: positive deltas cost money, negative deltas return it
	amount := price.Mul(decimal.NewFromInt(shareDelta))
	newBalance := cash.Sub(amount)

	// 2. Affordability check for buys
	if shareDelta > 0 && newBalance.IsNegative() {
		return decimal.Zero, ErrInsufficientFunds
	}

	// 3. Ownership check for sells, summed inside the same transaction
	// so a concurrent sell cannot slip between check and insert
	if shareDelta < 0 {
		var owned int64
		err = tx.QueryRowContext(ctx, `
            SELECT COALESCE(SUM(share_delta), 0)
            FROM transactions
            WHERE user_id = $1 AND symbol = $2
        `, userID, symbol).Scan(&owned)

		if err != nil {
			return decimal.Zero, fmt.Errorf("sum holdings: %w", err)
		}
		if owned < -shareDelta {
			return decimal.Zero, ErrInsufficientHoldings
		}
	}

	// 4. Write the new balance
	if _, err = tx.ExecContext(ctx,
		"UPDATE users SET cash_balance = $1 WHERE id = $2",
		newBalance, userID,
	); err != nil {
		return decimal.Zero, fmt.Errorf("update balance: %w", err)
	}

	// 5. Append to the transaction log
	if _, err = tx.ExecContext(ctx, `
        INSERT INTO transactions (user_id, symbol, share_delta, price, type, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `, userID, symbol, shareDelta, price, tradeType, time.Now().UTC()); err != nil {
		return decimal.Zero, fmt.Errorf("record trade: %w", err)
	}

	// Commit (all or nothing!)
	if err = tx.Commit(); err != nil {
		return decimal.Zero, fmt.Errorf("commit trade: %w", err)
	}

	return newBalance, nil
}
