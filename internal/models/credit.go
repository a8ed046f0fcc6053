// Package models содержит доменные структуры кредитного движка менторства,
// а также вспомогательные типы для приёма данных из внешних источников (JSON-запросы).
package models

import "time"

// DefaultMonthlyQuota количество кредитов, выдаваемых подписчику на один расчётный месяц.
const DefaultMonthlyQuota = 4

// Статусы оплаты аккаунта.
const (
	PaymentStatusPending   = "pending"
	PaymentStatusActive    = "active"
	PaymentStatusInactive  = "inactive"
	PaymentStatusCancelled = "cancelled"
)

// Виды записей в журнале кредитов.
const (
	TransactionKindEarned   = "earned"
	TransactionKindUsed     = "used"
	TransactionKindRefunded = "refunded"
	TransactionKindExpired  = "expired"
)

// CreditAccount представляет месячный баланс кредитов подписчика.
// Инвариант: CreditsUsed + CreditsRemaining == MonthlyQuota вне транзакции.
type CreditAccount struct {
	SubscriberUID     string    `json:"subscriber_uid"`
	Email             string    `json:"email"`
	MonthlyQuota      int       `json:"monthly_quota"`
	CreditsUsed       int       `json:"credits_used"`
	CreditsRemaining  int       `json:"credits_remaining"`
	PaymentStatus     string    `json:"payment_status"`
	SubscriptionStart time.Time `json:"subscription_start"`
	LastRenewal       time.Time `json:"last_renewal"`
	NextRenewal       time.Time `json:"next_renewal"`
}

// CreditTransaction запись журнала кредитов. Журнал только дополняется:
// записи никогда не изменяются и не удаляются, баланс аккаунта должен
// сворачиваться из журнала с момента SubscriptionStart.
type CreditTransaction struct {
	ID            int64     `json:"id"`
	SubscriberUID string    `json:"subscriber_uid"`
	Kind          string    `json:"kind"`
	Amount        int       `json:"amount"`
	Reason        string    `json:"reason"`
	SessionID     *string   `json:"session_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// Eligibility результат проверки права подписчика на бронирование.
type Eligibility struct {
	Eligible         bool           `json:"eligible"`
	Reason           string         `json:"reason,omitempty"`
	Account          *CreditAccount `json:"account,omitempty"`
	DaysUntilRenewal int            `json:"days_until_renewal,omitempty"`
}

// DummyStatusUpdate используется для приёма события платёжного провайдера
// из JSON-запроса webhook, прежде чем применять его к аккаунту.
type DummyStatusUpdate struct {
	Event         string `json:"event" validate:"required"`
	SubscriberUID string `json:"subscriber_uid" validate:"required,uuid"`
	Email         string `json:"email" validate:"required,email"`
}
