package chat

import "context"

// Цвета embed-сообщений бренда Flash Nodes.
const (
	ColorInfo    = 0x1E90FF
	ColorSuccess = 0x2ECC71
	ColorDanger  = 0xE74C3C
)

const embedFooter = "⚡ Flash Nodes Deploy"

// Embed — транспортно-независимое представление карточки уведомления.
type Embed struct {
	Title  string
	Body   string
	Color  int
	Footer string
}

// NewEmbed собирает карточку с брендовым футером и дефолтным цветом.
func NewEmbed(title, body string) Embed {
	return Embed{Title: title, Body: body, Color: ColorInfo, Footer: embedFooter}
}

// Messenger — узкий контракт доставки, который ядру нужен от чат-платформы.
// Реализуется поверх Discord-гейтвея; в тестах — фейком.
type Messenger interface {
	// SendToChannel отправляет карточку в канал по идентификатору
	SendToChannel(ctx context.Context, channelID string, e Embed) error
	// SendDirect отправляет карточку в личный канал пользователя
	SendDirect(ctx context.Context, userID string, e Embed) error
}
