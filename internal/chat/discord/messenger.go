package discord

import (
	"context"

	"github.com/StriderCraft315/Pterodactyl-Server-Deploy-Bot/internal/chat"
	"github.com/bwmarrin/discordgo"
)

// Messenger — доставка embed-сообщений через Discord-сессию.
// Реализует chat.Messenger для notify.Fanout.
type Messenger struct {
	session *discordgo.Session
}

func NewMessenger(session *discordgo.Session) *Messenger {
	return &Messenger{session: session}
}

func (m *Messenger) SendToChannel(ctx context.Context, channelID string, e chat.Embed) error {
	_, err := m.session.ChannelMessageSendEmbed(channelID, toMessageEmbed(e), discordgo.WithContext(ctx))
	return err
}

func (m *Messenger) SendDirect(ctx context.Context, userID string, e chat.Embed) error {
	// Личный канал создается лениво; закрытые DM всплывут ошибкой здесь
	ch, err := m.session.UserChannelCreate(userID, discordgo.WithContext(ctx))
	if err != nil {
		return err
	}
	_, err = m.session.ChannelMessageSendEmbed(ch.ID, toMessageEmbed(e), discordgo.WithContext(ctx))
	return err
}

func toMessageEmbed(e chat.Embed) *discordgo.MessageEmbed {
	out := &discordgo.MessageEmbed{
		Title:       e.Title,
		Description: e.Body,
		Color:       e.Color,
	}
	if e.Footer != "" {
		out.Footer = &discordgo.MessageEmbedFooter{Text: e.Footer}
	}
	return out
}
