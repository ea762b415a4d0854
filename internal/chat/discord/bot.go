package discord

import (
	"context"
	"fmt"
	"strings"

	"github.com/StriderCraft315/Pterodactyl-Server-Deploy-Bot/internal/chat"
	"github.com/StriderCraft315/Pterodactyl-Server-Deploy-Bot/internal/domain"
	"github.com/StriderCraft315/Pterodactyl-Server-Deploy-Bot/internal/engine"
	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

const watchingStatus = "⚡ Flash Nodes | Best Uptime Hosting | Free Hosting"

// Bot — Discord-гейтвей: slash-команды, префиксные команды, кнопки и DM
// нормализуются в domain.Action и уходят в оркестратор. Никакой домен-логики
// здесь нет: гейтвей только переводит контролы платформы в действия и обратно.
type Bot struct {
	session *discordgo.Session
	orch    *engine.Orchestrator
	prefix  string
	logger  *zap.Logger
}

// NewSession собирает Discord-сессию с нужными интентами, не открывая гейтвей.
// Отдельный шаг: Messenger и оркестратор собираются поверх сессии до запуска бота.
func NewSession(token string) (*discordgo.Session, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentMessageContent
	return session, nil
}

func NewBot(session *discordgo.Session, orch *engine.Orchestrator, prefix string, logger *zap.Logger) *Bot {
	if prefix == "" {
		prefix = "."
	}
	b := &Bot{
		session: session,
		orch:    orch,
		prefix:  prefix,
		logger:  logger.Named("discord"),
	}
	session.AddHandler(b.onReady)
	session.AddHandler(b.onInteractionCreate)
	session.AddHandler(b.onMessageCreate)
	return b
}

// Start открывает гейтвей и регистрирует slash-команды.
func (b *Bot) Start() error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("open gateway: %w", err)
	}
	// Bulk overwrite: глобальный набор команд должен совпадать с декларациями
	if _, err := b.session.ApplicationCommandBulkOverwrite(
		b.session.State.User.ID, "", commandDefinitions()); err != nil {
		return fmt.Errorf("register commands: %w", err)
	}
	b.logger.Info("gateway opened",
		zap.String("bot_user", b.session.State.User.Username),
		zap.Int("commands", len(commandDefinitions())),
	)
	return nil
}

func (b *Bot) Stop() error {
	return b.session.Close()
}

func (b *Bot) onReady(s *discordgo.Session, _ *discordgo.Ready) {
	if err := s.UpdateWatchStatus(0, watchingStatus); err != nil {
		b.logger.Warn("presence update failed", zap.Error(err))
	}
}

// ------------------------------------------------------------------
// Интеракции: slash-команды и кнопки
// ------------------------------------------------------------------

func interactionActor(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

func (b *Bot) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		b.handleSlash(s, i)
	case discordgo.InteractionMessageComponent:
		b.handleComponent(s, i)
	}
}

func (b *Bot) handleSlash(s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.ApplicationCommandData()
	act, err := actionFromSlash(data.Name, namedOptions(data.Options), interactionActor(i), i.ChannelID)
	if err != nil {
		b.logger.Warn("slash parse failed", zap.String("command", data.Name), zap.Error(err))
		return
	}
	b.dispatchInteraction(s, i, act)
}

func (b *Bot) handleComponent(s *discordgo.Session, i *discordgo.InteractionCreate) {
	kind, scope, instanceID, ok := decodeCustomID(i.MessageComponentData().CustomID)
	if !ok {
		return
	}
	act := domain.Action{
		Kind:       kind,
		ActorID:    interactionActor(i),
		ChannelID:  i.ChannelID,
		Scope:      scope,
		InstanceID: instanceID,
	}
	b.dispatchInteraction(s, i, act)
}

// dispatchInteraction: немедленный deferred-ack (интерактивные флоу держат
// диспатч до минуты), затем followup с исходом. Все ответы ephemeral.
func (b *Bot) dispatchInteraction(s *discordgo.Session, i *discordgo.InteractionCreate, act domain.Action) {
	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
	}); err != nil {
		b.logger.Warn("interaction ack failed", zap.Error(err))
		return
	}

	go func() {
		ctx := context.Background()
		prompter := &followupPrompter{session: s, interaction: i.Interaction}
		out := b.orch.Dispatch(ctx, act, prompter)

		params := &discordgo.WebhookParams{
			Embeds: []*discordgo.MessageEmbed{outcomeEmbed(out)},
			Flags:  discordgo.MessageFlagsEphemeral,
		}
		// Открытие share-менеджера дополняется кнопками Add/Remove
		if act.Kind == domain.ActionOpenShareManager {
			params.Components = shareComponents(act.Scope, act.InstanceID)
		}
		if _, err := s.FollowupMessageCreate(i.Interaction, true, params); err != nil {
			b.logger.Warn("followup failed", zap.Error(err))
		}
	}()
}

// followupPrompter публикует приглашение к вводу как followup интеракции.
type followupPrompter struct {
	session     *discordgo.Session
	interaction *discordgo.Interaction
}

func (p *followupPrompter) Prompt(ctx context.Context, text string) error {
	_, err := p.session.FollowupMessageCreate(p.interaction, true, &discordgo.WebhookParams{
		Content: text,
	})
	return err
}

// ------------------------------------------------------------------
// Сообщения: сессии, префиксные команды, DM
// ------------------------------------------------------------------

func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}

	// DM без префикса — автоответ и пересылка персоналу; DM с префиксом
	// идёт по обычному командному маршруту, .help работает и в личке
	if isDirectAutoReply(m.GuildID, m.Content, b.prefix) {
		b.handleDirectMessage(s, m)
		return
	}

	// Сначала предлагаем сообщение открытым интерактивным сессиям:
	// ожидающий share-флоу потребляет его целиком
	if b.orch.Sessions().Deliver(m.Author.ID, m.ChannelID, m.Content) {
		return
	}

	if !strings.HasPrefix(m.Content, b.prefix) {
		return
	}
	fields := strings.Fields(m.Content)
	if len(fields) == 0 {
		return
	}

	switch strings.TrimPrefix(fields[0], b.prefix) {
	case "help":
		b.sendHelp(s, m.ChannelID)
	case "manage":
		if len(fields) < 3 {
			b.sendUsage(s, m.ChannelID, b.prefix+"manage <panel> <server_uuid>")
			return
		}
		b.sendManagePanel(s, m.ChannelID, fields[1], fields[2])
	case "manageshare":
		if len(fields) < 3 {
			b.sendUsage(s, m.ChannelID, b.prefix+"manageshare <panel> <server_uuid>")
			return
		}
		b.dispatchMessage(s, m, domain.Action{
			Kind:       domain.ActionOpenShareManager,
			Scope:      fields[1],
			InstanceID: fields[2],
		}, shareComponents(fields[1], fields[2]))
	case "shareuser":
		if len(fields) < 3 {
			b.sendUsage(s, m.ChannelID, b.prefix+"shareuser <panel> <server_uuid> [email] [@member]")
			return
		}
		act := domain.Action{
			Kind:       domain.ActionShareAdd,
			Scope:      fields[1],
			InstanceID: fields[2],
		}
		if len(fields) > 3 && !strings.HasPrefix(fields[3], "<@") {
			act.Email = fields[3]
		}
		if len(m.Mentions) > 0 {
			act.MemberID = m.Mentions[0].ID
		}
		b.dispatchMessage(s, m, act, nil)
	case "revoke":
		if len(fields) < 3 {
			b.sendUsage(s, m.ChannelID, b.prefix+"revoke <panel> <server_uuid> [email]")
			return
		}
		act := domain.Action{
			Kind:       domain.ActionShareRevoke,
			Scope:      fields[1],
			InstanceID: fields[2],
		}
		if len(fields) > 3 {
			act.Email = fields[3]
		}
		b.dispatchMessage(s, m, act, nil)
	}
}

// isDirectAutoReply: личное сообщение без командного префикса получает
// автоответ и пересылку, всё остальное уходит в командный маршрут.
func isDirectAutoReply(guildID, content, prefix string) bool {
	return guildID == "" && !strings.HasPrefix(content, prefix)
}

// dispatchMessage запускает действие из префиксной команды; исход публикуется
// обычным сообщением в том же канале.
func (b *Bot) dispatchMessage(s *discordgo.Session, m *discordgo.MessageCreate, act domain.Action, components []discordgo.MessageComponent) {
	act.ActorID = m.Author.ID
	act.ChannelID = m.ChannelID

	go func() {
		ctx := context.Background()
		prompter := &channelPrompter{session: s, channelID: m.ChannelID}
		out := b.orch.Dispatch(ctx, act, prompter)

		msg := &discordgo.MessageSend{Embeds: []*discordgo.MessageEmbed{outcomeEmbed(out)}}
		if components != nil {
			msg.Components = components
		}
		if _, err := s.ChannelMessageSendComplex(m.ChannelID, msg); err != nil {
			b.logger.Warn("outcome send failed", zap.Error(err))
		}
	}()
}

type channelPrompter struct {
	session   *discordgo.Session
	channelID string
}

func (p *channelPrompter) Prompt(ctx context.Context, text string) error {
	_, err := p.session.ChannelMessageSend(p.channelID, text, discordgo.WithContext(ctx))
	return err
}

func (b *Bot) sendManagePanel(s *discordgo.Session, channelID, scope, instanceID string) {
	embed := &discordgo.MessageEmbed{
		Title:       "Server Control",
		Description: fmt.Sprintf("Panel: `%s`\nServer: `%s`", scope, instanceID),
		Color:       chat.ColorInfo,
		Footer:      &discordgo.MessageEmbedFooter{Text: "⚡ Flash Nodes Deploy"},
	}
	_, err := s.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{embed},
		Components: manageComponents(scope, instanceID),
	})
	if err != nil {
		b.logger.Warn("manage panel send failed", zap.Error(err))
	}
}

func (b *Bot) sendHelp(s *discordgo.Session, channelID string) {
	embed := &discordgo.MessageEmbed{
		Title: "Flash Nodes Deploy — Commands",
		Description: strings.Join([]string{
			"**Slash**",
			"/createuser — create a panel user (admin)",
			"/createserver — provision a server (admin)",
			"/deleteserver — delete a server (admin)",
			"/viewservers — DM the stored server list (admin)",
			"/setlogchannel, /setserverlog — route log embeds (admin)",
			"/myservers, /myaccount — your linked records",
			"/support — message the staff",
			"",
			"**Prefix**",
			".manage <panel> <uuid> — control buttons",
			".manageshare <panel> <uuid> — shared users",
			".shareuser <panel> <uuid> [email] [@member] — invite a subuser",
			".revoke <panel> <uuid> [email] — revoke a subuser",
		}, "\n"),
		Color:  chat.ColorInfo,
		Footer: &discordgo.MessageEmbedFooter{Text: "⚡ Flash Nodes Deploy"},
	}
	if _, err := s.ChannelMessageSendEmbed(channelID, embed); err != nil {
		b.logger.Warn("help send failed", zap.Error(err))
	}
}

func (b *Bot) sendUsage(s *discordgo.Session, channelID, usage string) {
	if _, err := s.ChannelMessageSend(channelID, "Usage: `"+usage+"`"); err != nil {
		b.logger.Warn("usage send failed", zap.Error(err))
	}
}

// handleDirectMessage: автоответ и пересылка входящих DM в каналы аудита.
func (b *Bot) handleDirectMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	embed := &discordgo.MessageEmbed{
		Title:       "Message Received",
		Description: "Thanks for reaching out! Use `/support <message>` in the server for a tracked request.",
		Color:       chat.ColorInfo,
		Footer:      &discordgo.MessageEmbedFooter{Text: "⚡ Flash Nodes Deploy"},
	}
	if _, err := s.ChannelMessageSendEmbed(m.ChannelID, embed); err != nil {
		b.logger.Warn("dm auto-reply failed", zap.Error(err))
	}

	tag := m.Author.Username
	b.orch.ForwardInboundDM(context.Background(), m.Author.ID, tag, m.Content)
}

func outcomeEmbed(out engine.Outcome) *discordgo.MessageEmbed {
	color := out.Color
	if color == 0 {
		color = chat.ColorInfo
	}
	return &discordgo.MessageEmbed{
		Title:       out.Title,
		Description: out.Body,
		Color:       color,
		Footer:      &discordgo.MessageEmbedFooter{Text: "⚡ Flash Nodes Deploy"},
	}
}
