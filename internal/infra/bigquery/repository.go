package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"github.com/google/uuid"

	"github.com/dvloznov/budget-insights/internal/domain"
	"github.com/dvloznov/budget-insights/internal/insights"
	"github.com/dvloznov/budget-insights/internal/store"
)

// Repository is the BigQuery implementation of store.Store. It holds a
// shared client so each operation does not open a new connection.
type Repository struct {
	client *bigquery.Client
	ds     Dataset
}

// NewRepository creates a Repository with its own BigQuery client.
func NewRepository(ctx context.Context, projectID, datasetID string) (*Repository, error) {
	if projectID == "" || datasetID == "" {
		return nil, fmt.Errorf("NewRepository: project and dataset are required")
	}
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewRepository: creating client: %w", err)
	}
	return &Repository{
		client: client,
		ds:     Dataset{ProjectID: projectID, DatasetID: datasetID},
	}, nil
}

// Close closes the BigQuery client connection.
func (r *Repository) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// ListUserIDs delegates to ListUserIDsWithClient.
func (r *Repository) ListUserIDs(ctx context.Context) ([]string, error) {
	return ListUserIDsWithClient(ctx, r.client, r.ds)
}

// GetUser delegates to GetUserWithClient.
func (r *Repository) GetUser(ctx context.Context, userID string) (*domain.UserProfile, error) {
	row, err := GetUserWithClient(ctx, r.client, r.ds, userID)
	if err != nil {
		return nil, err
	}
	return rowToUser(row), nil
}

// SaveUser delegates to SaveUserWithClient.
func (r *Repository) SaveUser(ctx context.Context, u *domain.UserProfile) error {
	if u.ID == "" {
		return fmt.Errorf("SaveUser: user ID is required")
	}
	return SaveUserWithClient(ctx, r.client, r.ds, userToRow(u))
}

// GetBudget delegates to GetBudgetWithClient.
func (r *Repository) GetBudget(ctx context.Context, userID string) (*domain.Budget, error) {
	row, err := GetBudgetWithClient(ctx, r.client, r.ds, userID)
	if err != nil {
		return nil, err
	}
	return rowToBudget(row)
}

// SaveBudget delegates to SaveBudgetWithClient.
func (r *Repository) SaveBudget(ctx context.Context, b *domain.Budget) error {
	if b.UserID == "" {
		return fmt.Errorf("SaveBudget: user ID is required")
	}
	row, err := budgetToRow(b)
	if err != nil {
		return err
	}
	return SaveBudgetWithClient(ctx, r.client, r.ds, row)
}

// AddTransaction delegates to InsertTransactionWithClient.
func (r *Repository) AddTransaction(ctx context.Context, tx *domain.Transaction) error {
	if tx.ID == "" || tx.UserID == "" {
		return fmt.Errorf("AddTransaction: transaction and user IDs are required")
	}
	return InsertTransactionWithClient(ctx, r.client, r.ds, transactionToRow(tx))
}

// GetTransaction delegates to GetTransactionWithClient.
func (r *Repository) GetTransaction(ctx context.Context, userID, transactionID string) (*domain.Transaction, error) {
	row, err := GetTransactionWithClient(ctx, r.client, r.ds, userID, transactionID)
	if err != nil {
		return nil, err
	}
	tx := rowToTransaction(row)
	return &tx, nil
}

// UpdateTransaction delegates to UpdateTransactionWithClient.
func (r *Repository) UpdateTransaction(ctx context.Context, tx *domain.Transaction) error {
	return UpdateTransactionWithClient(ctx, r.client, r.ds, transactionToRow(tx))
}

// DeleteTransaction delegates to DeleteTransactionWithClient.
func (r *Repository) DeleteTransaction(ctx context.Context, userID, transactionID string) error {
	return DeleteTransactionWithClient(ctx, r.client, r.ds, userID, transactionID)
}

// QueryTransactions delegates to QueryTransactionsWithClient.
func (r *Repository) QueryTransactions(ctx context.Context, userID string, filter domain.TransactionFilter) ([]domain.Transaction, error) {
	rows, err := QueryTransactionsWithClient(ctx, r.client, r.ds, userID, filter)
	if err != nil {
		return nil, err
	}
	txs := make([]domain.Transaction, 0, len(rows))
	for _, row := range rows {
		txs = append(txs, rowToTransaction(row))
	}
	return txs, nil
}

// AddInsight delegates to InsertInsightWithClient.
func (r *Repository) AddInsight(ctx context.Context, in *domain.Insight) error {
	if in.ID == "" || in.UserID == "" {
		return fmt.Errorf("AddInsight: insight and user IDs are required")
	}
	return InsertInsightWithClient(ctx, r.client, r.ds, insightToRow(in))
}

// ListInsights delegates to ListInsightsWithClient.
func (r *Repository) ListInsights(ctx context.Context, userID string, limit int) ([]domain.Insight, error) {
	rows, err := ListInsightsWithClient(ctx, r.client, r.ds, userID, limit)
	if err != nil {
		return nil, err
	}
	result := make([]domain.Insight, 0, len(rows))
	for _, row := range rows {
		result = append(result, rowToInsight(row))
	}
	return result, nil
}

// ArchiveReply stores a raw model reply in the model_outputs table.
func (r *Repository) ArchiveReply(ctx context.Context, rec insights.ReplyRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	return InsertModelOutputWithClient(ctx, r.client, r.ds, replyToRow(rec))
}

var (
	_ store.Store           = (*Repository)(nil)
	_ insights.ReplyArchive = (*Repository)(nil)
)
