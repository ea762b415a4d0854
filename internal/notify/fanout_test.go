package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/StriderCraft315/Pterodactyl-Server-Deploy-Bot/internal/chat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeMessenger struct {
	directs     []string // user id адресатов
	channels    []string // channel id адресатов
	failDirect  map[string]bool
	failChannel map[string]bool
	lastEmbed   chat.Embed
}

func (f *fakeMessenger) SendDirect(_ context.Context, userID string, e chat.Embed) error {
	if f.failDirect[userID] {
		return errors.New("cannot send messages to this user")
	}
	f.directs = append(f.directs, userID)
	f.lastEmbed = e
	return nil
}

func (f *fakeMessenger) SendToChannel(_ context.Context, channelID string, e chat.Embed) error {
	if f.failChannel[channelID] {
		return errors.New("unknown channel")
	}
	f.channels = append(f.channels, channelID)
	f.lastEmbed = e
	return nil
}

type fakeSinks struct {
	byKey map[string]string // "scope|instance" -> channel
	err   error
}

func (f *fakeSinks) FindSink(_ context.Context, panelKey, instanceID string) (string, bool, error) {
	if f.err != nil {
		return "", false, f.err
	}
	if ch, ok := f.byKey[panelKey+"|"+instanceID]; ok {
		return ch, true, nil
	}
	if ch, ok := f.byKey[panelKey+"|"]; ok {
		return ch, true, nil
	}
	return "", false, nil
}

// TestNotifyAllAudiences: все три адресата получают карточку независимо.
func TestNotifyAllAudiences(t *testing.T) {
	msgr := &fakeMessenger{}
	sinks := &fakeSinks{byKey: map[string]string{"alpha|": "log-chan"}}
	f := NewFanout(msgr, sinks, zap.NewNop())

	res := f.Notify(context.Background(), Notice{
		Scope:      "alpha",
		Title:      "Server Created",
		Body:       "ok",
		Invoker:    "admin-1",
		ThirdParty: "owner-1",
		Audit:      true,
	})

	assert.True(t, res.InvokerOK)
	assert.True(t, res.ThirdPartyOK)
	assert.True(t, res.AuditOK)
	assert.True(t, res.AuditConfigured)
	assert.Equal(t, []string{"admin-1", "owner-1"}, msgr.directs)
	assert.Equal(t, []string{"log-chan"}, msgr.channels)
}

// TestNotifyBrandFooter: личные карточки уходят с брендовым футером.
func TestNotifyBrandFooter(t *testing.T) {
	msgr := &fakeMessenger{}
	f := NewFanout(msgr, &fakeSinks{byKey: map[string]string{}}, zap.NewNop())

	f.Notify(context.Background(), Notice{Title: "Your Servers", Body: "lobby", Invoker: "member-1"})

	assert.Equal(t, "⚡ Flash Nodes Deploy", msgr.lastEmbed.Footer)
	assert.Equal(t, chat.ColorInfo, msgr.lastEmbed.Color)
}

// TestNotifyPartialFailure: отказ одной доставки не трогает остальные.
func TestNotifyPartialFailure(t *testing.T) {
	msgr := &fakeMessenger{failDirect: map[string]bool{"owner-1": true}}
	sinks := &fakeSinks{byKey: map[string]string{"alpha|": "log-chan"}}
	f := NewFanout(msgr, sinks, zap.NewNop())

	res := f.Notify(context.Background(), Notice{
		Scope:      "alpha",
		Title:      "User Created",
		Invoker:    "admin-1",
		ThirdParty: "owner-1", // DM закрыты
		Audit:      true,
	})

	assert.True(t, res.InvokerOK)
	assert.False(t, res.ThirdPartyOK)
	assert.True(t, res.AuditOK)
	assert.Equal(t, []string{"admin-1"}, msgr.directs)
	assert.Equal(t, []string{"log-chan"}, msgr.channels)
}

// TestNotifyNoSinkConfigured: без настроенного sink'а аудит деградирует в no-op.
func TestNotifyNoSinkConfigured(t *testing.T) {
	msgr := &fakeMessenger{}
	f := NewFanout(msgr, &fakeSinks{byKey: map[string]string{}}, zap.NewNop())

	res := f.Notify(context.Background(), Notice{Scope: "alpha", Title: "Power: start", Audit: true})

	assert.False(t, res.AuditOK)
	assert.False(t, res.AuditConfigured) // no-op, а не отказ доставки
	assert.Empty(t, msgr.channels)
}

// TestNotifyInstanceSinkPreferred: точная привязка инстанса важнее дефолта scope.
func TestNotifyInstanceSinkPreferred(t *testing.T) {
	msgr := &fakeMessenger{}
	sinks := &fakeSinks{byKey: map[string]string{
		"alpha|":      "default-chan",
		"alpha|srv-1": "instance-chan",
	}}
	f := NewFanout(msgr, sinks, zap.NewNop())

	f.Notify(context.Background(), Notice{Scope: "alpha", InstanceID: "srv-1", Title: "Power: start", Audit: true})
	require.Equal(t, []string{"instance-chan"}, msgr.channels)

	// Для другого инстанса — фолбэк на дефолт scope
	f.Notify(context.Background(), Notice{Scope: "alpha", InstanceID: "srv-2", Title: "Power: stop", Audit: true})
	assert.Equal(t, []string{"instance-chan", "default-chan"}, msgr.channels)
}

// TestNotifyAuditFooter: футер аудиторской карточки несет scope и инстанс.
func TestNotifyAuditFooter(t *testing.T) {
	msgr := &fakeMessenger{}
	sinks := &fakeSinks{byKey: map[string]string{"alpha|": "log-chan"}}
	f := NewFanout(msgr, sinks, zap.NewNop())

	f.Notify(context.Background(), Notice{Scope: "alpha", Title: "Support Request", Audit: true})
	assert.Equal(t, "Panel: alpha | Server: N/A", msgr.lastEmbed.Footer)
}

// TestNotifySinkLookupError: ошибка резолва sink'а нефатальна для действия.
func TestNotifySinkLookupError(t *testing.T) {
	msgr := &fakeMessenger{}
	f := NewFanout(msgr, &fakeSinks{err: errors.New("db down")}, zap.NewNop())

	res := f.Notify(context.Background(), Notice{Scope: "alpha", Invoker: "admin-1", Audit: true})

	assert.True(t, res.InvokerOK)
	assert.False(t, res.AuditOK)
	assert.True(t, res.AuditConfigured) // Ошибка резолва — это отказ, не no-op
}
