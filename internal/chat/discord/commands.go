package discord

import (
	"fmt"
	"strings"

	"github.com/StriderCraft315/Pterodactyl-Server-Deploy-Bot/internal/domain"
	"github.com/bwmarrin/discordgo"
)

// commandDefinitions — декларации slash-команд, регистрируемые bulk-overwrite'ом
// при старте. panel везде — ключ из конфигурации, а не URL.
func commandDefinitions() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "createuser",
			Description: "Create a panel user (admin only)",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionString, Name: "panel", Description: "Panel key", Required: true},
				{Type: discordgo.ApplicationCommandOptionString, Name: "email", Description: "User email", Required: true},
				{Type: discordgo.ApplicationCommandOptionString, Name: "first_name", Description: "First name", Required: true},
				{Type: discordgo.ApplicationCommandOptionString, Name: "last_name", Description: "Last name", Required: true},
				{Type: discordgo.ApplicationCommandOptionBoolean, Name: "is_admin", Description: "Grant panel admin", Required: false},
				{Type: discordgo.ApplicationCommandOptionUser, Name: "member", Description: "Discord member to link and DM", Required: false},
				{Type: discordgo.ApplicationCommandOptionString, Name: "nickname", Description: "Display nickname", Required: false},
				{Type: discordgo.ApplicationCommandOptionString, Name: "password", Description: "Password (generated if omitted)", Required: false},
			},
		},
		{
			Name:        "createserver",
			Description: "Provision a game server (admin only)",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionString, Name: "panel", Description: "Panel key", Required: true},
				{Type: discordgo.ApplicationCommandOptionString, Name: "name", Description: "Server name", Required: true},
				{Type: discordgo.ApplicationCommandOptionInteger, Name: "egg", Description: "Egg ID", Required: true},
				{Type: discordgo.ApplicationCommandOptionString, Name: "docker_image", Description: "Docker image", Required: true},
				{Type: discordgo.ApplicationCommandOptionInteger, Name: "memory", Description: "Memory (MB)", Required: true},
				{Type: discordgo.ApplicationCommandOptionInteger, Name: "disk", Description: "Disk (MB)", Required: true},
				{Type: discordgo.ApplicationCommandOptionInteger, Name: "cpu", Description: "CPU (%)", Required: true},
				{Type: discordgo.ApplicationCommandOptionString, Name: "startup", Description: "Startup command", Required: true},
				{Type: discordgo.ApplicationCommandOptionString, Name: "owner_email", Description: "Owner email (or pass member)", Required: false},
				{Type: discordgo.ApplicationCommandOptionUser, Name: "member", Description: "Owner Discord member (must be linked)", Required: false},
				{Type: discordgo.ApplicationCommandOptionString, Name: "description", Description: "Description", Required: false},
			},
		},
		{
			Name:        "deleteserver",
			Description: "Delete a server on the panel (admin only)",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionString, Name: "panel", Description: "Panel key", Required: true},
				{Type: discordgo.ApplicationCommandOptionString, Name: "server_id", Description: "Server ID or UUID", Required: true},
			},
		},
		{
			Name:        "viewservers",
			Description: "DM the stored server list (admin only)",
		},
		{
			Name:        "setlogchannel",
			Description: "Route a panel's log embeds to a channel (admin only)",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionString, Name: "panel", Description: "Panel key", Required: true},
				{Type: discordgo.ApplicationCommandOptionChannel, Name: "channel", Description: "Target channel", Required: true},
			},
		},
		{
			Name:        "setserverlog",
			Description: "Route one server's log embeds to a channel (admin only)",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionString, Name: "panel", Description: "Panel key", Required: true},
				{Type: discordgo.ApplicationCommandOptionString, Name: "server_id", Description: "Server UUID", Required: true},
				{Type: discordgo.ApplicationCommandOptionChannel, Name: "channel", Description: "Target channel", Required: true},
			},
		},
		{
			Name:        "myservers",
			Description: "DM the servers linked to your Discord account",
		},
		{
			Name:        "myaccount",
			Description: "DM your linked panel account info",
		},
		{
			Name:        "support",
			Description: "Send a support request to the staff",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionString, Name: "message", Description: "What do you need?", Required: true},
			},
		},
	}
}

type optionMap map[string]*discordgo.ApplicationCommandInteractionDataOption

func namedOptions(opts []*discordgo.ApplicationCommandInteractionDataOption) optionMap {
	m := make(optionMap, len(opts))
	for _, o := range opts {
		m[o.Name] = o
	}
	return m
}

func (m optionMap) str(name string) string {
	if o, ok := m[name]; ok {
		return o.StringValue()
	}
	return ""
}

func (m optionMap) num(name string) int {
	if o, ok := m[name]; ok {
		return int(o.IntValue())
	}
	return 0
}

func (m optionMap) boolean(name string) bool {
	if o, ok := m[name]; ok {
		return o.BoolValue()
	}
	return false
}

// userID возвращает ID пользователя из опции типа User без резолва через
// state/API: значение опции и есть snowflake.
func (m optionMap) userID(name string) string {
	if o, ok := m[name]; ok {
		if u := o.UserValue(nil); u != nil {
			return u.ID
		}
	}
	return ""
}

func (m optionMap) channelID(name string) string {
	if o, ok := m[name]; ok {
		if ch := o.ChannelValue(nil); ch != nil {
			return ch.ID
		}
	}
	return ""
}

// actionFromSlash нормализует slash-команду в Action. Неизвестная команда — ошибка.
func actionFromSlash(name string, opts optionMap, actorID, channelID string) (domain.Action, error) {
	act := domain.Action{ActorID: actorID, ChannelID: channelID}

	switch name {
	case "createuser":
		act.Kind = domain.ActionCreateAccount
		act.Scope = opts.str("panel")
		act.Email = opts.str("email")
		act.FirstName = opts.str("first_name")
		act.LastName = opts.str("last_name")
		act.IsAdmin = opts.boolean("is_admin")
		act.MemberID = opts.userID("member")
		act.Nickname = opts.str("nickname")
		act.Password = opts.str("password")
	case "createserver":
		act.Kind = domain.ActionCreateServer
		act.Scope = opts.str("panel")
		act.Name = opts.str("name")
		act.Egg = opts.num("egg")
		act.DockerImage = opts.str("docker_image")
		act.Memory = opts.num("memory")
		act.Disk = opts.num("disk")
		act.CPU = opts.num("cpu")
		act.Startup = opts.str("startup")
		act.OwnerEmail = opts.str("owner_email")
		act.MemberID = opts.userID("member")
		act.Description = opts.str("description")
	case "deleteserver":
		act.Kind = domain.ActionDeleteServer
		act.Scope = opts.str("panel")
		act.InstanceID = opts.str("server_id")
	case "viewservers":
		act.Kind = domain.ActionListServers
	case "setlogchannel":
		act.Kind = domain.ActionSetScopeLogChannel
		act.Scope = opts.str("panel")
		act.SinkChannelID = opts.channelID("channel")
	case "setserverlog":
		act.Kind = domain.ActionSetInstanceLogChannel
		act.Scope = opts.str("panel")
		act.InstanceID = opts.str("server_id")
		act.SinkChannelID = opts.channelID("channel")
	case "myservers":
		act.Kind = domain.ActionMyServers
	case "myaccount":
		act.Kind = domain.ActionMyAccount
	case "support":
		act.Kind = domain.ActionSupport
		act.Message = opts.str("message")
	default:
		return act, fmt.Errorf("unknown slash command: %s", name)
	}
	return act, nil
}

// ------------------------------------------------------------------
// Компонентные custom ID: "act|<kind>|<scope>|<instance>"
// ------------------------------------------------------------------

const customIDPrefix = "act"

func encodeCustomID(kind domain.ActionKind, scope, instanceID string) string {
	return strings.Join([]string{customIDPrefix, string(kind), scope, instanceID}, "|")
}

func decodeCustomID(id string) (domain.ActionKind, string, string, bool) {
	parts := strings.Split(id, "|")
	if len(parts) != 4 || parts[0] != customIDPrefix {
		return "", "", "", false
	}
	return domain.ActionKind(parts[1]), parts[2], parts[3], true
}

// manageComponents — панель управления инстансом (ответ на .manage).
func manageComponents(scope, instanceID string) []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.Button{Label: "Start", Style: discordgo.SuccessButton, CustomID: encodeCustomID(domain.ActionPowerStart, scope, instanceID)},
			discordgo.Button{Label: "Stop", Style: discordgo.DangerButton, CustomID: encodeCustomID(domain.ActionPowerStop, scope, instanceID)},
			discordgo.Button{Label: "Restart", Style: discordgo.PrimaryButton, CustomID: encodeCustomID(domain.ActionPowerRestart, scope, instanceID)},
			discordgo.Button{Label: "Reinstall", Style: discordgo.SecondaryButton, CustomID: encodeCustomID(domain.ActionReinstall, scope, instanceID)},
		}},
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.Button{Label: "Status", Style: discordgo.SecondaryButton, CustomID: encodeCustomID(domain.ActionStatus, scope, instanceID)},
			discordgo.Button{Label: "Network", Style: discordgo.SecondaryButton, CustomID: encodeCustomID(domain.ActionNetwork, scope, instanceID)},
			discordgo.Button{Label: "Share", Style: discordgo.PrimaryButton, CustomID: encodeCustomID(domain.ActionOpenShareManager, scope, instanceID)},
		}},
	}
}

// shareComponents — кнопки менеджера subuser'ов.
func shareComponents(scope, instanceID string) []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.Button{Label: "Add User", Style: discordgo.SuccessButton, CustomID: encodeCustomID(domain.ActionShareAdd, scope, instanceID)},
			discordgo.Button{Label: "Remove User", Style: discordgo.DangerButton, CustomID: encodeCustomID(domain.ActionShareRevoke, scope, instanceID)},
		}},
	}
}
