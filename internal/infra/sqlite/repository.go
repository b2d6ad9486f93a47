package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dvloznov/budget-insights/internal/domain"
	"github.com/dvloznov/budget-insights/internal/store"

	_ "modernc.org/sqlite"
)

// Repository is a SQLite-backed store.Store.
type Repository struct {
	db *sql.DB
}

// NewRepository opens (creating if needed) the database at dbPath and
// applies migrations.
func NewRepository(dbPath string) (*Repository, error) {
	if dir := filepath.Dir(dbPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("NewRepository: create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("NewRepository: open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("NewRepository: ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("NewRepository: %w", err)
	}

	return &Repository{db: db}, nil
}

// Close closes the database.
func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func toUnix(t time.Time) int64 {
	return t.UTC().UnixNano()
}

func fromUnix(n int64) time.Time {
	return time.Unix(0, n).UTC()
}

// ListUserIDs implements store.UserRepository.
func (r *Repository) ListUserIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("ListUserIDs: query: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("ListUserIDs: scan: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// GetUser implements store.UserRepository.
func (r *Repository) GetUser(ctx context.Context, userID string) (*domain.UserProfile, error) {
	var u domain.UserProfile
	var createdAt int64
	err := r.db.QueryRowContext(ctx, `
		SELECT id, email, display_name, monthly_income, currency, fcm_token, created_at
		FROM users WHERE id = ?`, userID).
		Scan(&u.ID, &u.Email, &u.DisplayName, &u.MonthlyIncome, &u.Currency, &u.FCMToken, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("GetUser %s: %w", userID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("GetUser: query: %w", err)
	}
	u.CreatedAt = fromUnix(createdAt)
	return &u, nil
}

// SaveUser implements store.UserRepository.
func (r *Repository) SaveUser(ctx context.Context, u *domain.UserProfile) error {
	if u.ID == "" {
		return fmt.Errorf("SaveUser: user ID is required")
	}
	currency := u.Currency
	if currency == "" {
		currency = domain.DefaultCurrency
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, email, display_name, monthly_income, currency, fcm_token, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			email = excluded.email,
			display_name = excluded.display_name,
			monthly_income = excluded.monthly_income,
			currency = excluded.currency,
			fcm_token = excluded.fcm_token`,
		u.ID, u.Email, u.DisplayName, u.MonthlyIncome, currency, u.FCMToken, toUnix(u.CreatedAt))
	if err != nil {
		return fmt.Errorf("SaveUser: exec: %w", err)
	}
	return nil
}

// GetBudget implements store.BudgetRepository.
func (r *Repository) GetBudget(ctx context.Context, userID string) (*domain.Budget, error) {
	var raw string
	var createdAt, updatedAt int64
	err := r.db.QueryRowContext(ctx, `
		SELECT categories, created_at, updated_at FROM budgets WHERE user_id = ?`, userID).
		Scan(&raw, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("GetBudget %s: %w", userID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("GetBudget: query: %w", err)
	}

	b := &domain.Budget{
		UserID:    userID,
		CreatedAt: fromUnix(createdAt),
		UpdatedAt: fromUnix(updatedAt),
	}
	if err := json.Unmarshal([]byte(raw), &b.Categories); err != nil {
		return nil, fmt.Errorf("GetBudget: decode categories: %w", err)
	}
	return b, nil
}

// SaveBudget implements store.BudgetRepository.
func (r *Repository) SaveBudget(ctx context.Context, b *domain.Budget) error {
	if b.UserID == "" {
		return fmt.Errorf("SaveBudget: user ID is required")
	}
	cats := b.Categories
	if cats == nil {
		cats = map[domain.Category]float64{}
	}
	raw, err := json.Marshal(cats)
	if err != nil {
		return fmt.Errorf("SaveBudget: encode categories: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO budgets (user_id, categories, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			categories = excluded.categories,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at`,
		b.UserID, string(raw), toUnix(b.CreatedAt), toUnix(b.UpdatedAt))
	if err != nil {
		return fmt.Errorf("SaveBudget: exec: %w", err)
	}
	return nil
}

const transactionColumns = `id, user_id, description, amount, category, type, date, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(s rowScanner) (domain.Transaction, error) {
	var tx domain.Transaction
	var category, typ string
	var date, createdAt int64
	var updatedAt sql.NullInt64
	if err := s.Scan(&tx.ID, &tx.UserID, &tx.Description, &tx.Amount, &category, &typ, &date, &createdAt, &updatedAt); err != nil {
		return tx, err
	}
	tx.Category = domain.Category(category)
	tx.Type = domain.TransactionType(typ)
	tx.Date = fromUnix(date)
	tx.CreatedAt = fromUnix(createdAt)
	if updatedAt.Valid {
		t := fromUnix(updatedAt.Int64)
		tx.UpdatedAt = &t
	}
	return tx, nil
}

func nullableUnix(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: toUnix(*t), Valid: true}
}

// AddTransaction implements store.TransactionRepository.
func (r *Repository) AddTransaction(ctx context.Context, tx *domain.Transaction) error {
	if tx.ID == "" || tx.UserID == "" {
		return fmt.Errorf("AddTransaction: transaction and user IDs are required")
	}
	_, err := r.db.ExecContext(ctx, `INSERT INTO transactions (`+transactionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.ID, tx.UserID, tx.Description, tx.Amount, string(tx.Category), string(tx.Type),
		toUnix(tx.Date), toUnix(tx.CreatedAt), nullableUnix(tx.UpdatedAt))
	if err != nil {
		return fmt.Errorf("AddTransaction: exec: %w", err)
	}
	return nil
}

// GetTransaction implements store.TransactionRepository.
func (r *Repository) GetTransaction(ctx context.Context, userID, transactionID string) (*domain.Transaction, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE user_id = ? AND id = ?`,
		userID, transactionID)
	tx, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("GetTransaction %s: %w", transactionID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("GetTransaction: scan: %w", err)
	}
	return &tx, nil
}

// UpdateTransaction implements store.TransactionRepository.
func (r *Repository) UpdateTransaction(ctx context.Context, tx *domain.Transaction) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE transactions
		SET description = ?, amount = ?, category = ?, type = ?, date = ?, updated_at = ?
		WHERE user_id = ? AND id = ?`,
		tx.Description, tx.Amount, string(tx.Category), string(tx.Type), toUnix(tx.Date),
		nullableUnix(tx.UpdatedAt), tx.UserID, tx.ID)
	if err != nil {
		return fmt.Errorf("UpdateTransaction: exec: %w", err)
	}
	return expectOneRow(res, "UpdateTransaction", tx.ID)
}

// DeleteTransaction implements store.TransactionRepository.
func (r *Repository) DeleteTransaction(ctx context.Context, userID, transactionID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE user_id = ? AND id = ?`, userID, transactionID)
	if err != nil {
		return fmt.Errorf("DeleteTransaction: exec: %w", err)
	}
	return expectOneRow(res, "DeleteTransaction", transactionID)
}

func expectOneRow(res sql.Result, op, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", op, id, domain.ErrNotFound)
	}
	return nil
}

// QueryTransactions implements store.TransactionRepository.
func (r *Repository) QueryTransactions(ctx context.Context, userID string, filter domain.TransactionFilter) ([]domain.Transaction, error) {
	var where []string
	args := []any{userID}
	where = append(where, "user_id = ?")

	if !filter.Start.IsZero() {
		where = append(where, "date >= ?")
		args = append(args, toUnix(filter.Start))
	}
	if !filter.End.IsZero() {
		where = append(where, "date < ?")
		args = append(args, toUnix(filter.End))
	}
	if filter.Type != "" {
		where = append(where, "type = ?")
		args = append(args, string(filter.Type))
	}

	q := `SELECT ` + transactionColumns + ` FROM transactions WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY date DESC, id ASC`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("QueryTransactions: query: %w", err)
	}
	defer rows.Close()

	var result []domain.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("QueryTransactions: scan: %w", err)
		}
		// Category matching goes through normalization so blank and unknown
		// labels match Other.
		if filter.Category != "" && domain.NormalizeCategory(string(tx.Category)) != filter.Category {
			continue
		}
		result = append(result, tx)
		if filter.Limit > 0 && len(result) == filter.Limit {
			break
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("QueryTransactions: rows: %w", err)
	}
	return result, nil
}

// AddInsight implements store.InsightRepository.
func (r *Repository) AddInsight(ctx context.Context, in *domain.Insight) error {
	if in.ID == "" || in.UserID == "" {
		return fmt.Errorf("AddInsight: insight and user IDs are required")
	}
	top, err := json.Marshal(nonNilCategories(in.TopCategories))
	if err != nil {
		return fmt.Errorf("AddInsight: encode top categories: %w", err)
	}
	concerns, err := json.Marshal(nonNilStrings(in.Concerns))
	if err != nil {
		return fmt.Errorf("AddInsight: encode concerns: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO insights (id, user_id, type, summary, total_spent, transaction_count,
			top_categories, concerns, recommendation, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		in.ID, in.UserID, string(in.Type), in.Summary, in.TotalSpent, in.TransactionCount,
		string(top), string(concerns), in.Recommendation, toUnix(in.CreatedAt))
	if err != nil {
		return fmt.Errorf("AddInsight: exec: %w", err)
	}
	return nil
}

// ListInsights implements store.InsightRepository.
func (r *Repository) ListInsights(ctx context.Context, userID string, limit int) ([]domain.Insight, error) {
	q := `SELECT id, user_id, type, summary, total_spent, transaction_count, top_categories,
			concerns, recommendation, created_at
		FROM insights WHERE user_id = ? ORDER BY created_at DESC, rowid DESC`
	args := []any{userID}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("ListInsights: query: %w", err)
	}
	defer rows.Close()

	result := []domain.Insight{}
	for rows.Next() {
		var in domain.Insight
		var typ, top, concerns string
		var createdAt int64
		if err := rows.Scan(&in.ID, &in.UserID, &typ, &in.Summary, &in.TotalSpent, &in.TransactionCount,
			&top, &concerns, &in.Recommendation, &createdAt); err != nil {
			return nil, fmt.Errorf("ListInsights: scan: %w", err)
		}
		in.Type = domain.InsightType(typ)
		in.CreatedAt = fromUnix(createdAt)
		if err := json.Unmarshal([]byte(top), &in.TopCategories); err != nil {
			return nil, fmt.Errorf("ListInsights: decode top categories: %w", err)
		}
		if err := json.Unmarshal([]byte(concerns), &in.Concerns); err != nil {
			return nil, fmt.Errorf("ListInsights: decode concerns: %w", err)
		}
		result = append(result, in)
	}
	return result, rows.Err()
}

func nonNilCategories(c []domain.Category) []domain.Category {
	if c == nil {
		return []domain.Category{}
	}
	return c
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

var _ store.Store = (*Repository)(nil)
