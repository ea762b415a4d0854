package domain

import "time"

// AccountRecord — один созданный аккаунт панели.
// Естественный ключ — email: он уникален во всем хранилище, независимо от scope.
// Запись создается только как синхронный результат успешного создания аккаунта
// и никогда не обновляется, кроме одного случая — привязки Discord ID задним числом.
type AccountRecord struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Secret    string    `json:"-"` // Пароль панели. Не отдаем наружу через ops API
	PanelKey  string    `json:"panel_key"`
	DiscordID string    `json:"discord_id,omitempty"`
	Nickname  string    `json:"nickname,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ServerRecord — один созданный сервер. Append-only: удаление инстанса на панели
// не стирает историческую запись (журнал провижининга).
type ServerRecord struct {
	ID           int64     `json:"id"`
	PanelKey     string    `json:"panel_key"`
	InstanceID   string    `json:"instance_id"` // UUID на панели, либо "unknown"
	Name         string    `json:"name"`
	OwnerEmail   string    `json:"owner_email"`
	OwnerDiscord string    `json:"owner_discord,omitempty"`
	Description  string    `json:"description,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// UnknownInstanceID записывается, когда панель не вернула идентификатор инстанса.
const UnknownInstanceID = "unknown"

// NotificationSink — привязка (scope, instance) -> канал для лог-сообщений.
// Запись с пустым InstanceID — дефолт на весь scope; запись с конкретным
// идентификатором перекрывает дефолт только для этого инстанса.
type NotificationSink struct {
	PanelKey   string `json:"panel_key"`
	InstanceID string `json:"instance_id,omitempty"` // "" = дефолт scope
	ChannelID  string `json:"channel_id"`
}
