package engine

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/StriderCraft315/Pterodactyl-Server-Deploy-Bot/internal/chat"
	"github.com/StriderCraft315/Pterodactyl-Server-Deploy-Bot/internal/domain"
	"github.com/StriderCraft315/Pterodactyl-Server-Deploy-Bot/internal/gate"
	"github.com/StriderCraft315/Pterodactyl-Server-Deploy-Bot/internal/journal"
	"github.com/StriderCraft315/Pterodactyl-Server-Deploy-Bot/internal/notify"
	"github.com/StriderCraft315/Pterodactyl-Server-Deploy-Bot/internal/panel"
	"github.com/StriderCraft315/Pterodactyl-Server-Deploy-Bot/internal/session"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// IdentityStore — контракт хранилища, который нужен оркестратору.
type IdentityStore interface {
	UpsertAccount(ctx context.Context, panelKey, email, secret, discordID, nickname string) error
	InsertServer(ctx context.Context, rec domain.ServerRecord) error
	LinkChatIdentity(ctx context.Context, email, discordID string) error
	SetNotificationSink(ctx context.Context, panelKey, channelID, instanceID string) error
	FindAccountByChatIdentity(ctx context.Context, discordID string) (*domain.AccountRecord, error)
	FindServersByOwnerChatIdentity(ctx context.Context, discordID string) ([]domain.ServerRecord, error)
	ListServers(ctx context.Context, limit int) ([]domain.ServerRecord, error)
}

// Notifier — best-effort разветвление исходов (реализуется notify.Fanout).
type Notifier interface {
	Notify(ctx context.Context, n notify.Notice) notify.Result
}

// MaintenanceChecker отвечает, не переведена ли панель в режим обслуживания.
type MaintenanceChecker interface {
	IsMaintenance(scope string) bool
}

// JournalSink — неблокирующий приемник записей журнала действий.
type JournalSink interface {
	Log(rec journal.Record)
}

// Prompter публикует инициатору приглашение к интерактивному вводу
// (ephemeral-ответ на нажатую кнопку). Передается транспортом на каждый dispatch.
type Prompter interface {
	Prompt(ctx context.Context, text string) error
}

// Outcome — единственное подтверждение инициатору. Каждое действие завершается
// ровно одним Outcome: успех, отказ в доступе или детали сбоя — независимо от
// судьбы downstream-уведомлений.
type Outcome struct {
	Title string
	Body  string
	Color int
}

// Orchestrator связывает компоненты воедино для каждого действия:
// validate -> authorize -> (опционально) интерактивный ввод -> вызов адаптера ->
// персист -> fanout -> ответ инициатору. Внутри одного действия шаги строго
// последовательны; между действиями сериализации нет.
type Orchestrator struct {
	panels   panel.Caller
	store    IdentityStore
	gate     *gate.Gate
	sessions *session.Manager
	fanout   Notifier
	maint    MaintenanceChecker
	journal  JournalSink
	metrics  *Metrics
	logger   *zap.Logger

	scopes         []string // Имена всех сконфигурированных панелей (для broadcast)
	sessionTimeout time.Duration
}

func NewOrchestrator(
	panels panel.Caller,
	store IdentityStore,
	g *gate.Gate,
	sessions *session.Manager,
	fanout Notifier,
	maint MaintenanceChecker,
	jrnl JournalSink,
	metrics *Metrics,
	logger *zap.Logger,
	scopes []string,
	sessionTimeout time.Duration,
) *Orchestrator {
	if sessionTimeout <= 0 {
		sessionTimeout = 60 * time.Second
	}
	return &Orchestrator{
		panels:         panels,
		store:          store,
		gate:           g,
		sessions:       sessions,
		fanout:         fanout,
		maint:          maint,
		journal:        jrnl,
		metrics:        metrics,
		logger:         logger.Named("engine"),
		scopes:         scopes,
		sessionTimeout: sessionTimeout,
	}
}

// Sessions отдает менеджер интерактивных сессий транспорту:
// входящие сообщения гейтвея сперва предлагаются открытым сессиям.
func (o *Orchestrator) Sessions() *session.Manager {
	return o.sessions
}

// Dispatch — единая точка входа: каждое действие проходит через один switch.
func (o *Orchestrator) Dispatch(ctx context.Context, act domain.Action, prompt Prompter) Outcome {
	start := time.Now()
	o.metrics.TotalActions.WithLabelValues(string(act.Kind)).Inc()

	rec := journal.Record{
		ID:         uuid.New().String(),
		TraceID:    uuid.New().String(),
		ActorID:    act.ActorID,
		Action:     string(act.Kind),
		PanelKey:   act.Scope,
		InstanceID: act.InstanceID,
		Timestamp:  start,
	}

	out := o.process(ctx, act, prompt, &rec)

	rec.DurationMs = time.Since(start).Milliseconds()
	if rec.Status == "" {
		rec.Status = journal.StatusSuccess
	}
	o.journal.Log(rec)
	o.metrics.ActionDuration.WithLabelValues(string(act.Kind), rec.Status).Observe(time.Since(start).Seconds())

	return out
}

func (o *Orchestrator) process(ctx context.Context, act domain.Action, prompt Prompter, rec *journal.Record) Outcome {
	// 1. Гейт: до любого внешнего вызова и любой мутации хранилища.
	// Отказ — отдельный видимый исход и ноль побочных эффектов.
	if act.Kind.AdminOnly() && !o.gate.IsAdmin(act.ActorID) {
		rec.Status = journal.StatusDenied
		rec.Error = domain.ErrUnauthorized.Error()
		return Outcome{Title: "Not authorized", Body: "❌ Not authorized.", Color: chat.ColorDanger}
	}

	// 2. Режим обслуживания панели: отказ до вызова адаптера
	if act.Scope != "" && o.maint != nil && o.maint.IsMaintenance(act.Scope) {
		rec.Status = journal.StatusFailed
		rec.Error = domain.ErrScopeMaintenance.Error()
		return Outcome{
			Title: "Panel Maintenance",
			Body:  fmt.Sprintf("🔧 Panel `%s` is under maintenance. Try again later.", act.Scope),
			Color: chat.ColorDanger,
		}
	}

	// 3. Диспетчеризация: что контрол делает, решается здесь, а не в контроле
	switch act.Kind {
	case domain.ActionCreateAccount:
		return o.createAccount(ctx, act, rec)
	case domain.ActionCreateServer:
		return o.createServer(ctx, act, rec)
	case domain.ActionDeleteServer:
		return o.deleteServer(ctx, act, rec)
	case domain.ActionListServers:
		return o.listServers(ctx, act, rec)
	case domain.ActionSetScopeLogChannel:
		return o.setSink(ctx, act, rec, "")
	case domain.ActionSetInstanceLogChannel:
		return o.setSink(ctx, act, rec, act.InstanceID)
	case domain.ActionPowerStart, domain.ActionPowerStop, domain.ActionPowerRestart:
		return o.power(ctx, act, rec)
	case domain.ActionReinstall:
		return o.reinstall(ctx, act, rec)
	case domain.ActionStatus:
		return o.readout(ctx, act, rec, "/resources", "Status")
	case domain.ActionNetwork:
		return o.readout(ctx, act, rec, "/network", "Network")
	case domain.ActionOpenShareManager:
		return o.openShareManager(ctx, act, rec)
	case domain.ActionShareAdd:
		return o.shareAdd(ctx, act, prompt, rec)
	case domain.ActionShareRevoke:
		return o.shareRevoke(ctx, act, prompt, rec)
	case domain.ActionMyServers:
		return o.myServers(ctx, act, rec)
	case domain.ActionMyAccount:
		return o.myAccount(ctx, act, rec)
	case domain.ActionSupport:
		return o.support(ctx, act, rec)
	default:
		rec.Status = journal.StatusFailed
		rec.Error = "unknown action kind"
		return Outcome{Title: "Error", Body: "❌ Unknown action.", Color: chat.ColorDanger}
	}
}

// notify оборачивает fanout подсчетом отказов доставки. Отказы нефатальны.
func (o *Orchestrator) notify(ctx context.Context, n notify.Notice) notify.Result {
	res := o.fanout.Notify(ctx, n)
	if n.Invoker != "" && !res.InvokerOK {
		o.metrics.FanoutFailures.WithLabelValues("invoker").Inc()
	}
	if n.ThirdParty != "" && !res.ThirdPartyOK {
		o.metrics.FanoutFailures.WithLabelValues("third_party").Inc()
	}
	// Несконфигурированный sink — штатный no-op, отказом не считается
	if n.Audit && res.AuditConfigured && !res.AuditOK {
		o.metrics.FanoutFailures.WithLabelValues("audit").Inc()
	}
	return res
}

// fail фиксирует сбой действия: журнал, аудит с текстом ошибки (verbatim,
// никогда не глотаем молча) и исход инициатору.
func (o *Orchestrator) fail(ctx context.Context, act domain.Action, rec *journal.Record, title string, err error) Outcome {
	rec.Status = journal.StatusFailed
	rec.Error = err.Error()

	o.logger.Warn("action failed",
		zap.String("trace_id", rec.TraceID),
		zap.String("action", string(act.Kind)),
		zap.Error(err),
	)

	if act.Scope != "" {
		o.notify(ctx, notify.Notice{
			Scope:      act.Scope,
			InstanceID: act.InstanceID,
			Title:      title + " Failed",
			Body:       err.Error(),
			Color:      chat.ColorDanger,
			Audit:      true,
		})
	}

	return Outcome{Title: title + " Failed", Body: "❌ " + err.Error(), Color: chat.ColorDanger}
}

// generateSecret выдает короткий URL-safe секрет.
func generateSecret() string {
	buf := make([]byte, 10)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand не отказывает на поддерживаемых платформах
		panic(err)
	}
	return base64.RawURLEncoding.EncodeToString(buf)
}

// ------------------------------------------------------------------
// Админские действия
// ------------------------------------------------------------------

func (o *Orchestrator) createAccount(ctx context.Context, act domain.Action, rec *journal.Record) Outcome {
	pwd := act.Password
	if pwd == "" {
		pwd = generateSecret()
	}
	username := strings.SplitN(act.Email, "@", 2)[0]

	payload := map[string]interface{}{
		"email":      act.Email,
		"username":   username,
		"first_name": act.FirstName,
		"last_name":  act.LastName,
		"password":   pwd,
		"root_admin": act.IsAdmin,
	}

	res, err := o.panels.Call(ctx, act.Scope, panel.SurfaceApplication, "/users", http.MethodPost, payload)
	if err != nil {
		return o.fail(ctx, act, rec, "User Creation", err)
	}
	rec.Detail = res.Summary()

	// Первый записавший выигрывает: повторная вставка того же email молча
	// игнорируется хранилищем, действие при этом остается успешным.
	if err := o.store.UpsertAccount(ctx, act.Scope, act.Email, pwd, act.MemberID, act.Nickname); err != nil {
		return o.fail(ctx, act, rec, "User Creation", err)
	}

	// Секрет уходит и инициатору, и третьей стороне, и в аудит: каналы аудита
	// считаются доверенными наравне с личными сообщениями.
	desc := fmt.Sprintf("User `%s` created on `%s`.\nPassword: ||%s||\nResponse: `%s`",
		act.Email, act.Scope, pwd, res.Summary())

	fr := o.notify(ctx, notify.Notice{
		Scope:   act.Scope,
		Title:   "User Created",
		Body:    desc,
		Invoker: act.ActorID,
		Audit:   true,
	})

	if act.MemberID != "" {
		o.notify(ctx, notify.Notice{
			Scope: act.Scope,
			Title: "Your Panel Account",
			Body: fmt.Sprintf("Email: `%s`\nPassword: ||%s||\nPanel: `%s`",
				act.Email, pwd, act.Scope),
			ThirdParty: act.MemberID,
		})
	}

	if fr.InvokerOK {
		return Outcome{Title: "User Created", Body: "✅ User created. Check your DM.", Color: chat.ColorSuccess}
	}
	return Outcome{
		Title: "User Created",
		Body:  fmt.Sprintf("✅ User created. DM blocked — response: %s", res.Summary()),
		Color: chat.ColorSuccess,
	}
}

func (o *Orchestrator) createServer(ctx context.Context, act domain.Action, rec *journal.Record) Outcome {
	// Владелец: либо email напрямую, либо ранее привязанный Discord ID.
	// Не разрешился — отказ строго до любого внешнего вызова.
	ownerEmail := act.OwnerEmail
	ownerDiscord := ""
	if ownerEmail == "" && act.MemberID != "" {
		acc, err := o.store.FindAccountByChatIdentity(ctx, act.MemberID)
		if err != nil {
			return o.fail(ctx, act, rec, "Server Creation", err)
		}
		if acc != nil {
			ownerEmail = acc.Email
			ownerDiscord = act.MemberID
		}
	}
	if ownerEmail == "" {
		rec.Status = journal.StatusFailed
		rec.Error = domain.ErrOwnerUnresolved.Error()
		return Outcome{
			Title: "Server Creation",
			Body:  "❌ Provide owner_email or mention an owner with a linked panel account.",
			Color: chat.ColorDanger,
		}
	}

	payload := map[string]interface{}{
		"name":         act.Name,
		"user":         ownerEmail,
		"egg":          act.Egg,
		"docker_image": act.DockerImage,
		"startup":      act.Startup,
		"environment":  map[string]interface{}{},
		"limits": map[string]interface{}{
			"memory": act.Memory,
			"swap":   0,
			"disk":   act.Disk,
			"io":     500,
			"cpu":    act.CPU,
		},
		"allocation":     map[string]interface{}{"default": 0},
		"feature_limits": map[string]interface{}{},
	}

	res, err := o.panels.Call(ctx, act.Scope, panel.SurfaceApplication, "/servers", http.MethodPost, payload)
	if err != nil {
		return o.fail(ctx, act, rec, "Server Creation", err)
	}
	rec.Detail = res.Summary()

	instanceID := res.AttributeString("uuid")
	if instanceID == "" {
		instanceID = domain.UnknownInstanceID
	}
	rec.InstanceID = instanceID

	if err := o.store.InsertServer(ctx, domain.ServerRecord{
		PanelKey:     act.Scope,
		InstanceID:   instanceID,
		Name:         act.Name,
		OwnerEmail:   ownerEmail,
		OwnerDiscord: ownerDiscord,
		Description:  act.Description,
	}); err != nil {
		return o.fail(ctx, act, rec, "Server Creation", err)
	}

	desc := fmt.Sprintf("Server `%s` created for `%s`\nUUID: `%s`\nResponse: `%s`",
		act.Name, ownerEmail, instanceID, res.Summary())

	o.notify(ctx, notify.Notice{
		Scope:      act.Scope,
		InstanceID: instanceID,
		Title:      "Server Created",
		Body:       desc,
		Invoker:    act.ActorID,
		ThirdParty: ownerDiscord,
		Audit:      true,
	})

	return Outcome{
		Title: "Server Created",
		Body:  "✅ Server creation requested. Details sent to DM.",
		Color: chat.ColorSuccess,
	}
}

func (o *Orchestrator) deleteServer(ctx context.Context, act domain.Action, rec *journal.Record) Outcome {
	res, err := o.panels.Call(ctx, act.Scope, panel.SurfaceApplication,
		"/servers/"+act.InstanceID, http.MethodDelete, nil)
	if err != nil {
		return o.fail(ctx, act, rec, "Server Delete", err)
	}
	rec.Detail = res.Summary()

	// Историческую запись в servers не трогаем: таблица append-only
	desc := fmt.Sprintf("Delete requested for `%s` — response: %s", act.InstanceID, res.Summary())
	o.notify(ctx, notify.Notice{
		Scope:      act.Scope,
		InstanceID: act.InstanceID,
		Title:      "Server Delete",
		Body:       desc,
		Color:      chat.ColorDanger,
		Invoker:    act.ActorID,
		Audit:      true,
	})

	return Outcome{Title: "Server Delete", Body: "✅ Delete requested. Check your DM.", Color: chat.ColorSuccess}
}

func (o *Orchestrator) listServers(ctx context.Context, act domain.Action, rec *journal.Record) Outcome {
	rows, err := o.store.ListServers(ctx, 200)
	if err != nil {
		return o.fail(ctx, act, rec, "Server List", err)
	}
	if len(rows) == 0 {
		return Outcome{Title: "Server List", Body: "No stored servers.", Color: chat.ColorInfo}
	}

	lines := make([]string, 0, len(rows))
	for _, r := range rows {
		lines = append(lines, fmt.Sprintf("#%d | panel:%s | uuid:%s | name:%s | owner:%s",
			r.ID, r.PanelKey, r.InstanceID, r.Name, r.OwnerEmail))
	}
	text := strings.Join(lines, "\n")

	// Лимит длины сообщения платформы — шлем кусками в DM
	for _, chunk := range splitChunks(text, 1900) {
		o.notify(ctx, notify.Notice{Title: "Servers", Body: chunk, Invoker: act.ActorID})
	}

	return Outcome{Title: "Server List", Body: "✅ Sent server list to your DMs.", Color: chat.ColorSuccess}
}

func (o *Orchestrator) setSink(ctx context.Context, act domain.Action, rec *journal.Record, instanceID string) Outcome {
	if err := o.store.SetNotificationSink(ctx, act.Scope, act.SinkChannelID, instanceID); err != nil {
		return o.fail(ctx, act, rec, "Log Channel", err)
	}

	if instanceID == "" {
		return Outcome{
			Title: "Log Channel",
			Body:  fmt.Sprintf("✅ Panel `%s` logs set to <#%s>", act.Scope, act.SinkChannelID),
			Color: chat.ColorSuccess,
		}
	}
	return Outcome{
		Title: "Log Channel",
		Body:  fmt.Sprintf("✅ Server `%s` logs set to <#%s>", instanceID, act.SinkChannelID),
		Color: chat.ColorSuccess,
	}
}

// ------------------------------------------------------------------
// Power/lifecycle класс: гейт не требуется, мутаций хранилища нет
// ------------------------------------------------------------------

func (o *Orchestrator) power(ctx context.Context, act domain.Action, rec *journal.Record) Outcome {
	signal := strings.TrimPrefix(string(act.Kind), "power.")

	res, err := o.panels.Call(ctx, act.Scope, panel.SurfaceClient,
		"/servers/"+act.InstanceID+"/power", http.MethodPost,
		map[string]string{"signal": signal})
	if err != nil {
		return o.fail(ctx, act, rec, "Power "+signal, err)
	}
	rec.Detail = res.Summary()

	title := "Power: " + signal
	desc := fmt.Sprintf("Sent `%s` — result: %s", signal, res.Summary())
	o.notify(ctx, notify.Notice{
		Scope:      act.Scope,
		InstanceID: act.InstanceID,
		Title:      title,
		Body:       desc,
		Invoker:    act.ActorID,
		Audit:      true,
	})

	return Outcome{Title: title, Body: fmt.Sprintf("Sent `%s` — result: `%s`", signal, res.Summary())}
}

func (o *Orchestrator) reinstall(ctx context.Context, act domain.Action, rec *journal.Record) Outcome {
	res, err := o.panels.Call(ctx, act.Scope, panel.SurfaceClient,
		"/servers/"+act.InstanceID+"/reinstall", http.MethodPost, nil)
	if err != nil {
		return o.fail(ctx, act, rec, "Reinstall", err)
	}
	rec.Detail = res.Summary()

	o.notify(ctx, notify.Notice{
		Scope:      act.Scope,
		InstanceID: act.InstanceID,
		Title:      "Reinstall requested",
		Body:       res.Summary(),
		Invoker:    act.ActorID,
		Audit:      true,
	})

	return Outcome{Title: "Reinstall", Body: fmt.Sprintf("Reinstall requested — %s", res.Summary())}
}

// readout — read-only вызовы операторской поверхности (status, network).
func (o *Orchestrator) readout(ctx context.Context, act domain.Action, rec *journal.Record, suffix, title string) Outcome {
	res, err := o.panels.Call(ctx, act.Scope, panel.SurfaceClient,
		"/servers/"+act.InstanceID+suffix, http.MethodGet, nil)
	if err != nil {
		return o.fail(ctx, act, rec, title, err)
	}
	rec.Detail = res.Summary()

	o.notify(ctx, notify.Notice{
		Scope:      act.Scope,
		InstanceID: act.InstanceID,
		Title:      title,
		Body:       res.Summary(),
		Audit:      true,
	})

	return Outcome{Title: title, Body: fmt.Sprintf("%s: %s", title, res.Summary())}
}

// ------------------------------------------------------------------
// Share-флоу (интерактив)
// ------------------------------------------------------------------

func (o *Orchestrator) openShareManager(ctx context.Context, act domain.Action, rec *journal.Record) Outcome {
	res, err := o.panels.Call(ctx, act.Scope, panel.SurfaceClient,
		"/servers/"+act.InstanceID+"/users", http.MethodGet, nil)
	if err != nil {
		return o.fail(ctx, act, rec, "Share Manager", err)
	}
	rec.Detail = res.Summary()

	subs := res.Subusers()
	var body string
	if len(subs) == 0 {
		body = "No shared users"
	} else {
		emails := make([]string, 0, len(subs))
		for _, s := range subs {
			emails = append(emails, s.Email)
		}
		body = strings.Join(emails, "\n")
	}

	return Outcome{
		Title: "Manage Shared Users",
		Body:  body,
	}
}

// subuserPermissions — фиксированный набор прав приглашенного subuser'а.
var subuserPermissions = []string{
	"control.start", "control.stop", "control.restart", "control.console", "websocket.connect",
}

// resolveEmail берет email из действия либо открывает интерактивную сессию
// и ждет ответ инициатора в том же канале.
func (o *Orchestrator) resolveEmail(ctx context.Context, act domain.Action, prompt Prompter, promptText string) (string, error) {
	if act.Email != "" {
		return act.Email, nil
	}
	if prompt == nil {
		return "", errors.New("no prompt surface for interactive input")
	}
	if err := prompt.Prompt(ctx, promptText); err != nil {
		return "", err
	}

	text, err := o.sessions.Await(ctx, act.ActorID, act.ChannelID, o.sessionTimeout)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

func (o *Orchestrator) shareAdd(ctx context.Context, act domain.Action, prompt Prompter, rec *journal.Record) Outcome {
	email, err := o.resolveEmail(ctx, act, prompt,
		fmt.Sprintf("Reply with the email to invite (%ds).", int(o.sessionTimeout.Seconds())))
	if err != nil {
		if errors.Is(err, domain.ErrSessionTimedOut) {
			// Дедлайн выиграл гонку: никакого вызова адаптера, continuation отброшен
			o.metrics.SessionTimeouts.Inc()
			rec.Status = journal.StatusTimedOut
			return Outcome{Title: "Share", Body: "Timed out. Try again.", Color: chat.ColorDanger}
		}
		return o.fail(ctx, act, rec, "Share", err)
	}

	payload := map[string]interface{}{
		"email":       email,
		"permissions": subuserPermissions,
	}
	res, err := o.panels.Call(ctx, act.Scope, panel.SurfaceClient,
		"/servers/"+act.InstanceID+"/users", http.MethodPost, payload)
	if err != nil {
		return o.fail(ctx, act, rec, "Share", err)
	}
	rec.Detail = res.Summary()

	// Привязка email -> Discord, если третья сторона названа явно
	if act.MemberID != "" {
		if err := o.store.LinkChatIdentity(ctx, email, act.MemberID); err != nil {
			return o.fail(ctx, act, rec, "Share", err)
		}
	}

	o.notify(ctx, notify.Notice{
		Scope:      act.Scope,
		InstanceID: act.InstanceID,
		Title:      "Subuser Invited",
		Body:       fmt.Sprintf("%s — %s", email, res.Summary()),
		Audit:      true,
	})

	return Outcome{
		Title: "Share",
		Body:  fmt.Sprintf("Invited `%s` — result: %s", email, res.Summary()),
		Color: chat.ColorSuccess,
	}
}

func (o *Orchestrator) shareRevoke(ctx context.Context, act domain.Action, prompt Prompter, rec *journal.Record) Outcome {
	// Сначала текущий список: email резолвится во внешний идентификатор subuser'а
	listRes, err := o.panels.Call(ctx, act.Scope, panel.SurfaceClient,
		"/servers/"+act.InstanceID+"/users", http.MethodGet, nil)
	if err != nil {
		return o.fail(ctx, act, rec, "Revoke", err)
	}
	subs := listRes.Subusers()

	email, err := o.resolveEmail(ctx, act, prompt,
		fmt.Sprintf("Reply with email to revoke (%ds).", int(o.sessionTimeout.Seconds())))
	if err != nil {
		if errors.Is(err, domain.ErrSessionTimedOut) {
			o.metrics.SessionTimeouts.Inc()
			rec.Status = journal.StatusTimedOut
			return Outcome{Title: "Revoke", Body: "Timed out. Try again.", Color: chat.ColorDanger}
		}
		return o.fail(ctx, act, rec, "Revoke", err)
	}

	var target *panel.Subuser
	for i := range subs {
		if subs[i].Email == email {
			target = &subs[i]
			break
		}
	}
	if target == nil {
		rec.Status = journal.StatusFailed
		rec.Error = domain.ErrSubuserNotFound.Error()
		return Outcome{Title: "Revoke", Body: "User not found among subusers.", Color: chat.ColorDanger}
	}

	res, err := o.panels.Call(ctx, act.Scope, panel.SurfaceClient,
		"/servers/"+act.InstanceID+"/users/"+target.UUID, http.MethodDelete, nil)
	if err != nil {
		return o.fail(ctx, act, rec, "Revoke", err)
	}
	rec.Detail = res.Summary()

	o.notify(ctx, notify.Notice{
		Scope:      act.Scope,
		InstanceID: act.InstanceID,
		Title:      "Subuser Revoked",
		Body:       fmt.Sprintf("%s — %s", email, res.Summary()),
		Audit:      true,
	})

	return Outcome{
		Title: "Revoke",
		Body:  fmt.Sprintf("Revoked `%s` — result: %s", email, res.Summary()),
		Color: chat.ColorSuccess,
	}
}

// ------------------------------------------------------------------
// Self-service: только чтение хранилища, без внешних вызовов
// ------------------------------------------------------------------

func (o *Orchestrator) myServers(ctx context.Context, act domain.Action, rec *journal.Record) Outcome {
	rows, err := o.store.FindServersByOwnerChatIdentity(ctx, act.ActorID)
	if err != nil {
		return o.fail(ctx, act, rec, "Your Servers", err)
	}

	if len(rows) == 0 {
		o.notify(ctx, notify.Notice{
			Title:   "Your Servers",
			Body:    "No servers recorded for your Discord account.",
			Invoker: act.ActorID,
		})
		return Outcome{Title: "Your Servers", Body: "You have no servers recorded. Details sent to DM."}
	}

	lines := make([]string, 0, len(rows))
	for _, r := range rows {
		lines = append(lines, fmt.Sprintf("%s (UUID: %s) — Panel: %s", r.Name, r.InstanceID, r.PanelKey))
	}
	text := strings.Join(lines, "\n")

	fr := o.notify(ctx, notify.Notice{Title: "Your Servers", Body: text, Invoker: act.ActorID})
	if fr.InvokerOK {
		return Outcome{Title: "Your Servers", Body: "✅ Sent your servers to DM.", Color: chat.ColorSuccess}
	}
	// DM закрыты — отдаем список прямо в ephemeral-ответ
	return Outcome{Title: "Your Servers", Body: "✅ Here are your servers:\n" + text, Color: chat.ColorSuccess}
}

func (o *Orchestrator) myAccount(ctx context.Context, act domain.Action, rec *journal.Record) Outcome {
	acc, err := o.store.FindAccountByChatIdentity(ctx, act.ActorID)
	if err != nil {
		return o.fail(ctx, act, rec, "Your Panel Account", err)
	}
	if acc == nil {
		return Outcome{
			Title: "Your Panel Account",
			Body:  "No account linked. An admin must create and link a panel user to your Discord.",
		}
	}

	nickname := acc.Nickname
	if nickname == "" {
		nickname = "—"
	}
	text := fmt.Sprintf("Email: %s\nPanel: %s\nNickname: %s", acc.Email, acc.PanelKey, nickname)

	fr := o.notify(ctx, notify.Notice{Title: "Your Panel Account", Body: text, Invoker: act.ActorID})
	if fr.InvokerOK {
		return Outcome{Title: "Your Panel Account", Body: "✅ Sent account info to DM.", Color: chat.ColorSuccess}
	}
	return Outcome{Title: "Your Panel Account", Body: "Account info:\n" + text}
}

func (o *Orchestrator) support(ctx context.Context, act domain.Action, rec *journal.Record) Outcome {
	fr := o.notify(ctx, notify.Notice{
		Title:   "Support Request Received",
		Body:    fmt.Sprintf("Message: %s\nOur staff will contact you soon.", act.Message),
		Invoker: act.ActorID,
	})

	// Бродкаст в дефолтные каналы аудита всех панелей
	for _, scope := range o.scopes {
		o.notify(ctx, notify.Notice{
			Scope: scope,
			Title: "Support Request",
			Body:  fmt.Sprintf("User: %s\nMessage: %s", act.ActorID, act.Message),
			Audit: true,
		})
	}

	if fr.InvokerOK {
		return Outcome{Title: "Support", Body: "✅ Support request received. Check your DM.", Color: chat.ColorSuccess}
	}
	return Outcome{Title: "Support", Body: "✅ Support request received. DM blocked — noted.", Color: chat.ColorSuccess}
}

// ForwardInboundDM — подтверждение и пересылка входящего личного сообщения
// в дефолтные каналы аудита всех панелей.
func (o *Orchestrator) ForwardInboundDM(ctx context.Context, actorID, actorTag, content string) {
	for _, scope := range o.scopes {
		o.notify(ctx, notify.Notice{
			Scope: scope,
			Title: "User DM Received",
			Body:  fmt.Sprintf("From: %s (%s)\nContent: %s", actorTag, actorID, content),
			Audit: true,
		})
	}
}

// splitChunks режет текст на куски не длиннее limit (по байтам строк,
// разрыв по границе строки, где возможно).
func splitChunks(text string, limit int) []string {
	if len(text) <= limit {
		return []string{text}
	}

	var chunks []string
	lines := strings.Split(text, "\n")
	var cur strings.Builder
	for _, line := range lines {
		if cur.Len() > 0 && cur.Len()+len(line)+1 > limit {
			chunks = append(chunks, cur.String())
			cur.Reset()
		}
		if cur.Len() > 0 {
			cur.WriteByte('\n')
		}
		// Строка длиннее лимита — режем жестко
		for len(line) > limit {
			chunks = append(chunks, line[:limit])
			line = line[limit:]
		}
		cur.WriteString(line)
	}
	if cur.Len() > 0 {
		chunks = append(chunks, cur.String())
	}
	return chunks
}
