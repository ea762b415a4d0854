package engine

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/StriderCraft315/Pterodactyl-Server-Deploy-Bot/internal/infra"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// MaintenanceManager держит in-memory кэш панелей, переведенных в режим
// обслуживания через ops-консоль. Источник правды — Redis Set; изменения
// прилетают по Pub/Sub, так что несколько инстансов бота видят сигнал сразу.
// Проверка в hot path действия — только память, без сети.
type MaintenanceManager struct {
	mu     sync.RWMutex
	scopes map[string]struct{}
	rdb    *redis.Client
	logger *zap.Logger
}

func NewMaintenanceManager(rdb *redis.Client, logger *zap.Logger) *MaintenanceManager {
	return &MaintenanceManager{
		scopes: make(map[string]struct{}),
		rdb:    rdb,
		logger: logger.Named("maintenance"),
	}
}

// Init загружает текущее состояние при старте сервиса
func (m *MaintenanceManager) Init(ctx context.Context) error {
	scopes, err := m.rdb.SMembers(ctx, infra.RedisKeyMaintenanceScopes).Result()
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.scopes = make(map[string]struct{}, len(scopes))
	for _, s := range scopes {
		m.scopes[s] = struct{}{}
	}
	m.mu.Unlock()
	return nil
}

func (m *MaintenanceManager) IsMaintenance(scope string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.scopes[scope]
	return ok
}

func (m *MaintenanceManager) set(scope string, on bool) {
	m.mu.Lock()
	if on {
		m.scopes[scope] = struct{}{}
	} else {
		delete(m.scopes, scope)
	}
	m.mu.Unlock()
}

// Set переключает режим обслуживания: обновляет Redis Set и публикует сигнал.
// Вызывается из ops-консоли.
func (m *MaintenanceManager) Set(ctx context.Context, scope string, on bool) error {
	if on {
		if err := m.rdb.SAdd(ctx, infra.RedisKeyMaintenanceScopes, scope).Err(); err != nil {
			return err
		}
	} else {
		if err := m.rdb.SRem(ctx, infra.RedisKeyMaintenanceScopes, scope).Err(); err != nil {
			return err
		}
	}

	payload := scope + ":off"
	if on {
		payload = scope + ":on"
	}
	return m.rdb.Publish(ctx, infra.RedisChanMaintenance, payload).Err()
}

// StartListener — "живучая" подписка на сигналы: переподключение с ресинком
// состояния из Set при каждом успешном коннекте.
func (m *MaintenanceManager) StartListener(ctx context.Context) {
	for {
		pubsub := m.rdb.Subscribe(ctx, infra.RedisChanMaintenance)

		if _, err := pubsub.Receive(ctx); err != nil {
			m.logger.Error("failed to subscribe", zap.Error(err))
			pubsub.Close()
			select {
			case <-ctx.Done():
				return
			case <-time.After(5 * time.Second):
			}
			continue
		}

		// Ресинк при каждом успешном коннекте: могли пропустить сигналы
		if err := m.Init(ctx); err != nil {
			m.logger.Error("sync failed on reconnect", zap.Error(err))
		}

		ch := pubsub.Channel()

	loop:
		for {
			select {
			case <-ctx.Done():
				pubsub.Close()
				return
			case msg, ok := <-ch:
				if !ok {
					break loop // Канал закрыт, идем на переподключение
				}

				// Формат сигнала "panel_key:on|off"
				parts := strings.Split(msg.Payload, ":")
				if len(parts) != 2 {
					m.logger.Error("invalid signal format", zap.String("payload", msg.Payload))
					continue
				}

				scope := parts[0]
				on := parts[1] == "on" || parts[1] == "true"
				m.set(scope, on)
				m.logger.Info("maintenance mode changed",
					zap.String("scope", scope),
					zap.Bool("on", on),
				)
			}
		}

		pubsub.Close()
		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Second):
		}
	}
}
