package rabbitmq

// ExchangeNotifications — exchange напоминаний.
const ExchangeNotifications = "notifications"

// Ключи маршрутизации напоминаний.
const (
	RoutingExpiring = "expiring"
	RoutingExpired  = "expired"
)

// QueueConfig — очередь и её ключ маршрутизации.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// GetNotificationQueues возвращает очереди напоминаний об окончании абонемента.
func GetNotificationQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: "notifications.expiring", RoutingKey: RoutingExpiring},
		{QueueName: "notifications.expired", RoutingKey: RoutingExpired},
	}
}
