package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/StriderCraft315/Pterodactyl-Server-Deploy-Bot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// TestAwaitResolvedByInput: подходящий ввод разрешает сессию с текстом.
func TestAwaitResolvedByInput(t *testing.T) {
	m := NewManager(zap.NewNop())

	done := make(chan struct{})
	var got string
	var err error
	go func() {
		got, err = m.Await(context.Background(), "actor-1", "chan-1", time.Second)
		close(done)
	}()

	// Ждем регистрацию сессии
	require.Eventually(t, func() bool {
		m.mu.Lock()
		defer m.mu.Unlock()
		return len(m.open) == 1
	}, time.Second, time.Millisecond)

	assert.True(t, m.Deliver("actor-1", "chan-1", "b@x.com"))
	<-done

	require.NoError(t, err)
	assert.Equal(t, "b@x.com", got)
}

// TestAwaitTimeout: без ввода сессия завершается ErrSessionTimedOut.
func TestAwaitTimeout(t *testing.T) {
	m := NewManager(zap.NewNop())

	_, err := m.Await(context.Background(), "actor-1", "chan-1", 20*time.Millisecond)
	assert.True(t, errors.Is(err, domain.ErrSessionTimedOut))

	// Поздний ввод после таймаута игнорируется: сессия уже не Open
	assert.False(t, m.Deliver("actor-1", "chan-1", "late"))
}

// TestDeliverWrongKey: ввод другого актора или канала сессию не трогает.
func TestDeliverWrongKey(t *testing.T) {
	m := NewManager(zap.NewNop())

	errCh := make(chan error, 1)
	go func() {
		_, err := m.Await(context.Background(), "actor-1", "chan-1", 50*time.Millisecond)
		errCh <- err
	}()

	require.Eventually(t, func() bool {
		m.mu.Lock()
		defer m.mu.Unlock()
		return len(m.open) == 1
	}, time.Second, time.Millisecond)

	assert.False(t, m.Deliver("actor-2", "chan-1", "x"))
	assert.False(t, m.Deliver("actor-1", "chan-2", "x"))

	assert.True(t, errors.Is(<-errCh, domain.ErrSessionTimedOut))
}

// TestConcurrentSessions: сессии разных пар (актор, канал) живут независимо.
func TestConcurrentSessions(t *testing.T) {
	m := NewManager(zap.NewNop())

	type result struct {
		text string
		err  error
	}
	res1 := make(chan result, 1)
	res2 := make(chan result, 1)

	go func() {
		text, err := m.Await(context.Background(), "actor-1", "chan-1", time.Second)
		res1 <- result{text, err}
	}()
	go func() {
		text, err := m.Await(context.Background(), "actor-2", "chan-1", time.Second)
		res2 <- result{text, err}
	}()

	require.Eventually(t, func() bool {
		m.mu.Lock()
		defer m.mu.Unlock()
		return len(m.open) == 2
	}, time.Second, time.Millisecond)

	assert.True(t, m.Deliver("actor-2", "chan-1", "two"))
	assert.True(t, m.Deliver("actor-1", "chan-1", "one"))

	r1 := <-res1
	r2 := <-res2
	require.NoError(t, r1.err)
	require.NoError(t, r2.err)
	assert.Equal(t, "one", r1.text)
	assert.Equal(t, "two", r2.text)
}

// TestSameKeyLastWins: повторная регистрация той же пары перекрывает старую сессию.
func TestSameKeyLastWins(t *testing.T) {
	m := NewManager(zap.NewNop())

	first := make(chan error, 1)
	go func() {
		_, err := m.Await(context.Background(), "actor-1", "chan-1", 60*time.Millisecond)
		first <- err
	}()

	require.Eventually(t, func() bool {
		m.mu.Lock()
		defer m.mu.Unlock()
		return len(m.open) == 1
	}, time.Second, time.Millisecond)

	second := make(chan string, 1)
	go func() {
		text, _ := m.Await(context.Background(), "actor-1", "chan-1", time.Second)
		second <- text
	}()

	// Даем второй сессии время перекрыть первую
	time.Sleep(10 * time.Millisecond)

	assert.True(t, m.Deliver("actor-1", "chan-1", "payload"))
	assert.Equal(t, "payload", <-second)

	// Первая сессия доживает до своего таймаута — ввод ей не достался
	assert.True(t, errors.Is(<-first, domain.ErrSessionTimedOut))
}

// TestAwaitContextCancel: отмена контекста снимает сессию без таймаута.
func TestAwaitContextCancel(t *testing.T) {
	m := NewManager(zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := m.Await(ctx, "actor-1", "chan-1", time.Hour)
		errCh <- err
	}()

	require.Eventually(t, func() bool {
		m.mu.Lock()
		defer m.mu.Unlock()
		return len(m.open) == 1
	}, time.Second, time.Millisecond)

	cancel()
	assert.True(t, errors.Is(<-errCh, context.Canceled))
}
