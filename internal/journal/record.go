package journal

import "time"

// Record — одна строка журнала действий: кто, что, над чем и с каким исходом.
type Record struct {
	ID         string    `json:"id"`       // UUID записи
	TraceID    string    `json:"trace_id"` // Сквозной ID действия
	ActorID    string    `json:"actor_id"` // Discord ID инициатора
	Action     string    `json:"action"`   // Тег действия (account.create, power.start, ...)
	PanelKey   string    `json:"panel_key"`
	InstanceID string    `json:"instance_id"`
	Status     string    `json:"status"` // "SUCCESS", "FAILED", "DENIED", "TIMED_OUT"
	Detail     string    `json:"detail"` // Краткая сводка ответа панели
	Error      string    `json:"error"`
	DurationMs int64     `json:"duration_ms"`
	Timestamp  time.Time `json:"timestamp"`
}

const (
	StatusSuccess  = "SUCCESS"
	StatusFailed   = "FAILED"
	StatusDenied   = "DENIED"
	StatusTimedOut = "TIMED_OUT"
)
