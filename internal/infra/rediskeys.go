package infra

const (
	// RedisNamespace Базовый префикс для изоляции данных проекта в Redis
	RedisNamespace = "flashnodes"
)

// Ключи для Sets (состояние)
const (
	// RedisKeyMaintenanceScopes — набор панелей, переведенных в режим обслуживания
	RedisKeyMaintenanceScopes = RedisNamespace + ":panels:maintenance_set"
)

// Каналы Pub/Sub (события)
const (
	// RedisChanMaintenance — сигналы "panel_key:on|off" от ops-консоли
	RedisChanMaintenance = RedisNamespace + ":panels:maintenance-signal"
)
