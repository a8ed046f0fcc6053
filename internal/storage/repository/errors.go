package repository

import "errors"

// Доменные ошибки хранилища. Сервисы оборачивают их через %w,
// обработчики сопоставляют через errors.Is и выбирают HTTP-статус.
var (
	// ErrAccountNotFound у подписчика нет кредитного аккаунта.
	ErrAccountNotFound = errors.New("credit account not found")
	// ErrAccountExists повторная инициализация аккаунта для того же подписчика.
	ErrAccountExists = errors.New("credit account already exists")
	// ErrPaymentInactive аккаунт существует, но статус оплаты не active.
	ErrPaymentInactive = errors.New("payment status is not active")
	// ErrInsufficientCredits кредиты на текущий месяц исчерпаны.
	ErrInsufficientCredits = errors.New("insufficient credits")
	// ErrMentorNotFound ментор не найден или неактивен.
	ErrMentorNotFound = errors.New("mentor not found")
	// ErrSessionNotFound сессия не найдена или принадлежит другому подписчику.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionNotCancellable сессия уже в терминальном статусе.
	ErrSessionNotCancellable = errors.New("session cannot be cancelled")
)
