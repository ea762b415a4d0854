package notify

import (
	"context"
	"fmt"

	"github.com/StriderCraft315/Pterodactyl-Server-Deploy-Bot/internal/chat"
	"github.com/StriderCraft315/Pterodactyl-Server-Deploy-Bot/internal/domain"
	"go.uber.org/zap"
)

// SinkResolver отдает канал аудита для пары (scope, instance) с фолбэком
// на дефолт scope. Реализуется Identity Store.
type SinkResolver interface {
	FindSink(ctx context.Context, panelKey, instanceID string) (string, bool, error)
}

// Notice — один исход, который нужно развезти по адресатам.
type Notice struct {
	Scope      string
	InstanceID string
	Title      string
	Body       string
	Color      int // 0 — дефолтный ColorInfo

	Invoker    string // Discord ID инициатора для DM; "" — не слать
	ThirdParty string // Discord ID затронутой третьей стороны; "" — не слать
	Audit      bool   // Слать ли в канал аудита scope/instance
}

// Result — исход доставки по каждому адресату.
type Result struct {
	InvokerOK    bool
	ThirdPartyOK bool
	AuditOK      bool

	// AuditConfigured — нашелся ли sink для пары (scope, instance).
	// Несконфигурированный sink — это no-op, а не отказ доставки.
	AuditConfigured bool
}

// Fanout — best-effort разветвление исхода по адресатам. Каждая доставка
// независима: отказ одной (закрытые DM, удаленный канал) не мешает остальным
// и никогда не роняет само действие — ошибка логируется и глотается здесь же.
// Ни очереди, ни ретраев, ни персистентных подтверждений доставки.
type Fanout struct {
	messenger chat.Messenger
	sinks     SinkResolver
	logger    *zap.Logger
}

func NewFanout(messenger chat.Messenger, sinks SinkResolver, logger *zap.Logger) *Fanout {
	return &Fanout{
		messenger: messenger,
		sinks:     sinks,
		logger:    logger.Named("fanout"),
	}
}

func (f *Fanout) Notify(ctx context.Context, n Notice) Result {
	var res Result

	embed := chat.NewEmbed(n.Title, n.Body)
	if n.Color != 0 {
		embed.Color = n.Color
	}

	if n.Invoker != "" {
		res.InvokerOK = f.deliverDirect(ctx, "invoker", n.Invoker, embed)
	}
	if n.ThirdParty != "" {
		res.ThirdPartyOK = f.deliverDirect(ctx, "third_party", n.ThirdParty, embed)
	}
	if n.Audit {
		res.AuditOK, res.AuditConfigured = f.deliverAudit(ctx, n, embed)
	}

	return res
}

func (f *Fanout) deliverDirect(ctx context.Context, audience, userID string, e chat.Embed) bool {
	if err := f.messenger.SendDirect(ctx, userID, e); err != nil {
		derr := &domain.DeliveryError{Audience: audience, Cause: err}
		f.logger.Warn("direct delivery failed",
			zap.String("audience", audience),
			zap.String("user_id", userID),
			zap.Error(derr),
		)
		return false
	}
	return true
}

// deliverAudit возвращает (доставлено, сконфигурировано): отсутствие sink'а —
// no-op, а не отказ, и вызывающая сторона различает эти исходы.
func (f *Fanout) deliverAudit(ctx context.Context, n Notice, e chat.Embed) (bool, bool) {
	channelID, ok, err := f.sinks.FindSink(ctx, n.Scope, n.InstanceID)
	if err != nil {
		f.logger.Warn("audit sink lookup failed",
			zap.String("scope", n.Scope),
			zap.Error(err),
		)
		return false, true
	}
	if !ok {
		// Sink не сконфигурирован — для этого адресата деградируем в no-op
		return false, false
	}

	instance := n.InstanceID
	if instance == "" {
		instance = "N/A"
	}
	e.Footer = fmt.Sprintf("Panel: %s | Server: %s", n.Scope, instance)

	if err := f.messenger.SendToChannel(ctx, channelID, e); err != nil {
		derr := &domain.DeliveryError{Audience: "audit", Cause: err}
		f.logger.Warn("audit delivery failed",
			zap.String("channel_id", channelID),
			zap.Error(derr),
		)
		return false, true
	}
	return true, true
}
