package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/magabrotheeeer/mentorship-booking/internal/models"
)

// appendTransaction добавляет запись в журнал кредитов внутри открытой транзакции.
// Журнал только дополняется, записи никогда не изменяются.
func appendTransaction(ctx context.Context, tx *sql.Tx, subscriberUID, kind string,
	amount int, reason string, sessionID *string) error {
	query := `INSERT INTO credit_transactions (subscriber_uid, kind, amount, reason, session_id)
			  VALUES ($1, $2, $3, $4, $5)`
	_, err := tx.ExecContext(ctx, query, subscriberUID, kind, amount, reason, sessionID)
	return err
}

// ListTransactions возвращает последние записи журнала кредитов подписчика.
func (s *Storage) ListTransactions(ctx context.Context, subscriberUID string, limit int) ([]*models.CreditTransaction, error) {
	const op = "storage.ListTransactions"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, subscriber_uid, kind, amount, reason, session_id, created_at
			  FROM credit_transactions
			  WHERE subscriber_uid = $1
			  ORDER BY created_at DESC, id DESC
			  LIMIT $2`
	rows, err := s.DB.QueryContext(ctx, query, subscriberUID, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var result []*models.CreditTransaction
	for rows.Next() {
		var item models.CreditTransaction
		if err := rows.Scan(&item.ID, &item.SubscriberUID, &item.Kind, &item.Amount,
			&item.Reason, &item.SessionID, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	err = rows.Close()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// CountTransactionsForSession считает записи журнала заданного вида для сессии.
func (s *Storage) CountTransactionsForSession(ctx context.Context, sessionID, kind string) (int, error) {
	const op = "storage.CountTransactionsForSession"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var count int
	query := `SELECT COUNT(*) FROM credit_transactions WHERE session_id = $1 AND kind = $2`
	if err := s.DB.QueryRowContext(ctx, query, sessionID, kind).Scan(&count); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}
