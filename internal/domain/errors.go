package domain

import (
	"errors"
	"fmt"
)

// Таксономия ошибок ядра. Каждая точка вызова внешней системы различает
// свой вид отказа вместо одного широкого catch-all.
var (
	// ErrScopeNotFound — действие ссылается на не сконфигурированную панель.
	// Никогда не подменяем дефолтом: сразу отказ.
	ErrScopeNotFound = errors.New("panel scope is not configured")

	// ErrMissingCredential — для выбранной поверхности API нет ключа.
	// Сетевой вызов при этом не выполняется вовсе.
	ErrMissingCredential = errors.New("missing API credential for surface")

	// ErrUnauthorized — вызывающий не входит в статический набор админов.
	ErrUnauthorized = errors.New("not authorized")

	// ErrOwnerUnresolved — не удалось определить email владельца ни напрямую,
	// ни по привязанному Discord ID. Проверяется до любого внешнего вызова.
	ErrOwnerUnresolved = errors.New("owner email could not be resolved")

	// ErrSubuserNotFound — email не найден среди текущих subuser'ов инстанса.
	ErrSubuserNotFound = errors.New("subuser not found")

	// ErrSessionTimedOut — интерактивная сессия истекла без ответа.
	ErrSessionTimedOut = errors.New("interactive session timed out")

	// ErrScopeMaintenance — панель переведена в режим обслуживания через ops-консоль.
	ErrScopeMaintenance = errors.New("panel scope is under maintenance")
)

// MalformedResponseError — панель ответила телом, которое не разобрать как JSON.
// Восстановимая, репортуемая ситуация: несем статус-код до пользователя и аудита.
type MalformedResponseError struct {
	Status int
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed panel response (status %d)", e.Status)
}

// DeliveryError — не удалось доставить уведомление одному адресату.
// Всегда нефатальна: логируется и глотается в точке конкретной доставки.
type DeliveryError struct {
	Audience string // "invoker", "third_party", "audit"
	Cause    error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivery to %s failed: %v", e.Audience, e.Cause)
}

func (e *DeliveryError) Unwrap() error { return e.Cause }
