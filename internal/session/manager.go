package session

import (
	"context"
	"sync"
	"time"

	"github.com/StriderCraft315/Pterodactyl-Server-Deploy-Bot/internal/domain"
	"go.uber.org/zap"
)

// key — матч-ключ сессии: пара "тот же автор в том же канале".
type key struct {
	actorID   string
	channelID string
}

// Manager сопоставляет сработавший UI-контрол с единственным ограниченным
// по времени ответом того же актора в том же канале.
//
// Машина состояний сессии: Open -> {Resolved, TimedOut}. Разрешается ровно
// один раз — гонка "пришел подходящий ввод" против "истек дедлайн"; проигравшая
// ветка, если позже станет истинной, игнорируется (сессия уже не Open).
// Сессии для разных пар (актор, канал) живут параллельно; повторная регистрация
// той же пары при открытой сессии — последняя выигрывает.
type Manager struct {
	mu     sync.Mutex
	open   map[key]chan string
	logger *zap.Logger
}

func NewManager(logger *zap.Logger) *Manager {
	return &Manager{
		open:   make(map[key]chan string),
		logger: logger.Named("session"),
	}
}

// Await открывает сессию и блокируется до подходящего ввода, дедлайна или
// отмены контекста. На таймаут возвращает ErrSessionTimedOut.
func (m *Manager) Await(ctx context.Context, actorID, channelID string, timeout time.Duration) (string, error) {
	k := key{actorID: actorID, channelID: channelID}
	ch := make(chan string, 1)

	m.mu.Lock()
	m.open[k] = ch // Перекрываем возможную старую сессию той же пары
	m.mu.Unlock()

	defer m.closeSession(k, ch)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case text := <-ch:
		return text, nil
	case <-timer.C:
		m.logger.Debug("session timed out",
			zap.String("actor_id", actorID),
			zap.String("channel_id", channelID),
		)
		return "", domain.ErrSessionTimedOut
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// closeSession снимает регистрацию, только если она все еще наша:
// сессию той же пары мог успеть перекрыть новый Await.
func (m *Manager) closeSession(k key, ch chan string) {
	m.mu.Lock()
	if cur, ok := m.open[k]; ok && cur == ch {
		delete(m.open, k)
	}
	m.mu.Unlock()
}

// Deliver передает входящее сообщение открытой сессии с совпадающим ключом.
// Возвращает true, если сообщение поглощено сессией. Сессия снимается с
// регистрации под локом до отправки, поэтому разрешение строго однократное.
func (m *Manager) Deliver(actorID, channelID, text string) bool {
	k := key{actorID: actorID, channelID: channelID}

	m.mu.Lock()
	ch, ok := m.open[k]
	if ok {
		delete(m.open, k)
	}
	m.mu.Unlock()

	if !ok {
		return false
	}

	// Канал буферизован на 1 — не блокируемся, даже если Await уже уходит по таймеру
	select {
	case ch <- text:
		return true
	default:
		return false
	}
}
