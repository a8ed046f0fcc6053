package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/magabrotheeeer/mentorship-booking/internal/lib/month"
	"github.com/magabrotheeeer/mentorship-booking/internal/models"
)

const accountColumns = `subscriber_uid, email, monthly_quota, credits_used, credits_remaining,
			      payment_status, subscription_start, last_renewal, next_renewal`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*models.CreditAccount, error) {
	var acc models.CreditAccount
	err := row.Scan(&acc.SubscriberUID, &acc.Email, &acc.MonthlyQuota, &acc.CreditsUsed,
		&acc.CreditsRemaining, &acc.PaymentStatus, &acc.SubscriptionStart,
		&acc.LastRenewal, &acc.NextRenewal)
	if err != nil {
		return nil, err
	}
	return &acc, nil
}

// CreateAccount создаёт кредитный аккаунт с полной квотой и статусом pending,
// вместе со стартовой earned-записью журнала. Возвращает ErrAccountExists,
// если аккаунт для подписчика уже инициализирован.
func (s *Storage) CreateAccount(ctx context.Context, acc models.CreditAccount) error {
	const op = "storage.CreateAccount"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `INSERT INTO credit_accounts (subscriber_uid, email, monthly_quota, credits_used,
			      credits_remaining, payment_status, subscription_start, last_renewal, next_renewal)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			  ON CONFLICT (subscriber_uid) DO NOTHING`
	result, err := tx.ExecContext(ctx, query,
		acc.SubscriberUID, acc.Email, acc.MonthlyQuota, acc.CreditsUsed, acc.CreditsRemaining,
		acc.PaymentStatus, acc.SubscriptionStart, acc.LastRenewal, acc.NextRenewal)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, ErrAccountExists)
	}

	if err := appendTransaction(ctx, tx, acc.SubscriberUID, models.TransactionKindEarned,
		acc.MonthlyQuota, "initial quota", nil); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ReadAccount возвращает кредитный аккаунт подписчика.
func (s *Storage) ReadAccount(ctx context.Context, subscriberUID string) (*models.CreditAccount, error) {
	const op = "storage.ReadAccount"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + accountColumns + ` FROM credit_accounts WHERE subscriber_uid = $1`
	acc, err := scanAccount(s.DB.QueryRowContext(ctx, query, subscriberUID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrAccountNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return acc, nil
}

// ReserveCredit атомарно списывает один кредит и добавляет used-запись журнала.
// Блокировка строки аккаунта сериализует конкурентные вызовы для одного подписчика:
// второй вызов перечитает нулевой остаток и получит ErrInsufficientCredits.
// Аккаунты разных подписчиков не конкурируют между собой.
func (s *Storage) ReserveCredit(ctx context.Context, subscriberUID, sessionID, reason string) (*models.CreditAccount, error) {
	const op = "storage.ReserveCredit"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `SELECT ` + accountColumns + ` FROM credit_accounts WHERE subscriber_uid = $1 FOR UPDATE`
	acc, err := scanAccount(tx.QueryRowContext(ctx, query, subscriberUID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrAccountNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if acc.PaymentStatus != models.PaymentStatusActive {
		return nil, fmt.Errorf("%s: %w", op, ErrPaymentInactive)
	}
	if acc.CreditsRemaining <= 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrInsufficientCredits)
	}

	update := `UPDATE credit_accounts
			   SET credits_used = credits_used + 1, credits_remaining = credits_remaining - 1
			   WHERE subscriber_uid = $1`
	if _, err := tx.ExecContext(ctx, update, subscriberUID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := appendTransaction(ctx, tx, subscriberUID, models.TransactionKindUsed,
		1, reason, &sessionID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	acc.CreditsUsed++
	acc.CreditsRemaining--
	return acc, nil
}

// RefundCredit возвращает кредит за отменённую сессию. Идемпотентен по sessionID:
// повторная отмена той же сессии не меняет баланс и возвращает refunded=false.
// Остаток ограничен квотой сверху, использованные кредиты нулём снизу.
func (s *Storage) RefundCredit(ctx context.Context, subscriberUID, sessionID, reason string) (*models.CreditAccount, bool, error) {
	const op = "storage.RefundCredit"
	select {
	case <-ctx.Done():
		return nil, false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `SELECT ` + accountColumns + ` FROM credit_accounts WHERE subscriber_uid = $1 FOR UPDATE`
	acc, err := scanAccount(tx.QueryRowContext(ctx, query, subscriberUID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, fmt.Errorf("%s: %w", op, ErrAccountNotFound)
	}
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}

	var alreadyRefunded bool
	check := `SELECT EXISTS(SELECT 1 FROM credit_transactions
			  WHERE session_id = $1 AND kind = $2)`
	if err := tx.QueryRowContext(ctx, check, sessionID, models.TransactionKindRefunded).
		Scan(&alreadyRefunded); err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}
	if alreadyRefunded {
		return acc, false, nil
	}

	newRemaining := acc.CreditsRemaining + 1
	if newRemaining > acc.MonthlyQuota {
		newRemaining = acc.MonthlyQuota
	}
	newUsed := acc.CreditsUsed - 1
	if newUsed < 0 {
		newUsed = 0
	}

	update := `UPDATE credit_accounts
			   SET credits_used = $1, credits_remaining = $2
			   WHERE subscriber_uid = $3`
	if _, err := tx.ExecContext(ctx, update, newUsed, newRemaining, subscriberUID); err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}

	if err := appendTransaction(ctx, tx, subscriberUID, models.TransactionKindRefunded,
		1, reason, &sessionID); err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}

	acc.CreditsUsed = newUsed
	acc.CreditsRemaining = newRemaining
	return acc, true, nil
}

// RenewAccount сбрасывает баланс на полную квоту и сдвигает даты продления
// на месяц вперёд, добавляя earned-запись журнала. Без force продление
// выполняется только если срок наступил (now >= next_renewal) — повторный
// вызов в том же расчётном периоде ничего не делает. Неактивные аккаунты
// не продлеваются никогда. Второе возвращаемое значение сообщает,
// выполнилось ли продление.
func (s *Storage) RenewAccount(ctx context.Context, subscriberUID string, now time.Time, force bool) (*models.CreditAccount, bool, error) {
	const op = "storage.RenewAccount"
	select {
	case <-ctx.Done():
		return nil, false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `SELECT ` + accountColumns + ` FROM credit_accounts WHERE subscriber_uid = $1 FOR UPDATE`
	acc, err := scanAccount(tx.QueryRowContext(ctx, query, subscriberUID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, fmt.Errorf("%s: %w", op, ErrAccountNotFound)
	}
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}

	if acc.PaymentStatus != models.PaymentStatusActive {
		return acc, false, nil
	}
	if !force && now.Before(acc.NextRenewal) {
		return acc, false, nil
	}

	nextRenewal := month.AddRenewalMonth(now)
	update := `UPDATE credit_accounts
			   SET credits_used = 0, credits_remaining = monthly_quota,
			       last_renewal = $1, next_renewal = $2
			   WHERE subscriber_uid = $3`
	if _, err := tx.ExecContext(ctx, update, now, nextRenewal, subscriberUID); err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}

	reason := "monthly renewal"
	if force {
		reason = "reactivation grant"
	}
	if err := appendTransaction(ctx, tx, subscriberUID, models.TransactionKindEarned,
		acc.MonthlyQuota, reason, nil); err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}

	acc.CreditsUsed = 0
	acc.CreditsRemaining = acc.MonthlyQuota
	acc.LastRenewal = now
	acc.NextRenewal = nextRenewal
	return acc, true, nil
}

// SetPaymentStatus переводит статус оплаты аккаунта и возвращает обновлённый аккаунт.
func (s *Storage) SetPaymentStatus(ctx context.Context, subscriberUID, status string) (*models.CreditAccount, error) {
	const op = "storage.SetPaymentStatus"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE credit_accounts SET payment_status = $1
			  WHERE subscriber_uid = $2
			  RETURNING ` + accountColumns
	acc, err := scanAccount(s.DB.QueryRowContext(ctx, query, status, subscriberUID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrAccountNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return acc, nil
}

// ListDueForRenewal возвращает активные аккаунты, у которых наступил срок продления.
func (s *Storage) ListDueForRenewal(ctx context.Context, now time.Time) ([]*models.CreditAccount, error) {
	const op = "storage.ListDueForRenewal"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + accountColumns + `
			  FROM credit_accounts
			  WHERE payment_status = $1 AND next_renewal <= $2
			  ORDER BY next_renewal`
	rows, err := s.DB.QueryContext(ctx, query, models.PaymentStatusActive, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var result []*models.CreditAccount
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, acc)
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
