package panel

import (
	"context"
	"fmt"
	"time"

	"github.com/StriderCraft315/Pterodactyl-Server-Deploy-Bot/internal/infra"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// Caller — контракт адаптера для оркестратора. Его реализует и голый Client,
// и ReliabilityWrapper, так что защитный слой подключается без изменения ядра.
type Caller interface {
	Call(ctx context.Context, scope string, surface Surface, path, method string, body interface{}) (*Response, error)
}

// ReliabilityWrapper защищает панельное API лимитером и предохранителем.
// Ретраев здесь нет намеренно: каждый вызов остается одной попыткой,
// лимитер только задерживает, предохранитель только отсекает.
type ReliabilityWrapper struct {
	next    Caller
	cb      *gobreaker.CircuitBreaker
	limiter *rate.Limiter
}

func NewReliabilityWrapper(next Caller, cfg infra.EngineConfig) *ReliabilityWrapper {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "pterodactyl-panel",
		MaxRequests: cfg.CBMaxRequests,
		Interval:    cfg.CBInterval,
		Timeout:     cfg.CBTimeout, // Время, через которое CB попробует "закрыться"
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > cfg.CBMaxConsecFail
		},
	})

	limiter := rate.NewLimiter(rate.Limit(cfg.PanelRateLimit), cfg.PanelRateBurst)

	return &ReliabilityWrapper{
		next:    next,
		cb:      cb,
		limiter: limiter,
	}
}

func (w *ReliabilityWrapper) Call(ctx context.Context, scope string, surface Surface, path, method string, body interface{}) (*Response, error) {
	// 1. Rate Limiter
	if err := w.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit exceeded: %w", err)
	}

	// 2. Circuit Breaker (одна попытка внутри, без повторов)
	result, err := w.cb.Execute(func() (interface{}, error) {
		tCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		defer cancel()
		return w.next.Call(tCtx, scope, surface, path, method, body)
	})
	if err != nil {
		return nil, err
	}

	return result.(*Response), nil
}
