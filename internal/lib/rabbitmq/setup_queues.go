package rabbitmq

// NotificationsExchange имя direct exchange для писем о бронированиях.
const NotificationsExchange = "notifications"

// Routing keys уведомлений о сессиях.
const (
	RoutingKeyBookingConfirmed = "booking_confirmed"
	RoutingKeyBookingCancelled = "booking_cancelled"
)

// QueueConfig описывает очередь и её привязку к exchange.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// GetNotificationQueues возвращает очереди воркера отправки писем.
func GetNotificationQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: "booking_confirmed_queue", RoutingKey: RoutingKeyBookingConfirmed},
		{QueueName: "booking_cancelled_queue", RoutingKey: RoutingKeyBookingCancelled},
	}
}
