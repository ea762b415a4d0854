package discord

import (
	"testing"

	"github.com/StriderCraft315/Pterodactyl-Server-Deploy-Bot/internal/domain"
	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCustomIDRoundTrip(t *testing.T) {
	id := encodeCustomID(domain.ActionPowerRestart, "mc-eu", "aaaa-bbbb")
	kind, scope, instance, ok := decodeCustomID(id)
	require.True(t, ok)
	assert.Equal(t, domain.ActionPowerRestart, kind)
	assert.Equal(t, "mc-eu", scope)
	assert.Equal(t, "aaaa-bbbb", instance)
}

func TestDecodeCustomIDRejectsForeign(t *testing.T) {
	// Чужие компоненты и мусор не должны превращаться в действия
	for _, id := range []string{"", "other|x|y|z", "act|power.start|mc-eu", "plain"} {
		_, _, _, ok := decodeCustomID(id)
		assert.False(t, ok, id)
	}
}

func strOption(name, value string) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{
		Name: name, Type: discordgo.ApplicationCommandOptionString, Value: value,
	}
}

func intOption(name string, value float64) *discordgo.ApplicationCommandInteractionDataOption {
	// discordgo хранит значения интеракций как float64 после JSON-декода
	return &discordgo.ApplicationCommandInteractionDataOption{
		Name: name, Type: discordgo.ApplicationCommandOptionInteger, Value: value,
	}
}

func TestActionFromSlashCreateServer(t *testing.T) {
	opts := namedOptions([]*discordgo.ApplicationCommandInteractionDataOption{
		strOption("panel", "mc-eu"),
		strOption("name", "lobby"),
		intOption("egg", 5),
		strOption("docker_image", "ghcr.io/pterodactyl/yolks:java_17"),
		intOption("memory", 2048),
		intOption("disk", 10240),
		intOption("cpu", 200),
		strOption("startup", "java -jar server.jar"),
		strOption("owner_email", "alice@example.com"),
	})

	act, err := actionFromSlash("createserver", opts, "actor-1", "chan-1")
	require.NoError(t, err)
	assert.Equal(t, domain.ActionCreateServer, act.Kind)
	assert.Equal(t, "mc-eu", act.Scope)
	assert.Equal(t, 5, act.Egg)
	assert.Equal(t, 2048, act.Memory)
	assert.Equal(t, "alice@example.com", act.OwnerEmail)
	assert.Equal(t, "actor-1", act.ActorID)
	assert.Equal(t, "chan-1", act.ChannelID)
}

func TestActionFromSlashUnknown(t *testing.T) {
	_, err := actionFromSlash("nosuch", optionMap{}, "actor-1", "chan-1")
	assert.Error(t, err)
}

func TestActionFromSlashSupport(t *testing.T) {
	opts := namedOptions([]*discordgo.ApplicationCommandInteractionDataOption{
		strOption("message", "help me"),
	})
	act, err := actionFromSlash("support", opts, "actor-1", "chan-1")
	require.NoError(t, err)
	assert.Equal(t, domain.ActionSupport, act.Kind)
	assert.Equal(t, "help me", act.Message)
}
