package discord

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDirectMessageCommandRouting(t *testing.T) {
	// Обычный DM — автоответ и пересылка
	assert.True(t, isDirectAutoReply("", "hi, my server is down", "."))
	// DM с командным префиксом уходит в командный маршрут, не в автоответ
	assert.False(t, isDirectAutoReply("", ".help", "."))
	assert.False(t, isDirectAutoReply("", ".manage mc-eu aaaa-bbbb", "."))
	// Сообщения в гильдии автоответа не получают никогда
	assert.False(t, isDirectAutoReply("guild-1", "hi", "."))
	assert.False(t, isDirectAutoReply("guild-1", ".help", "."))
}
