package domain

// ActionKind — закрытый набор вариантов действий. Каждая кнопка и каждая команда
// чата сводится к одному из этих тегов и диспетчеризуется единым switch в
// оркестраторе: «какой контрол сработал» отделено от «что контрол делает».
type ActionKind string

const (
	ActionCreateAccount         ActionKind = "account.create"
	ActionCreateServer          ActionKind = "server.create"
	ActionDeleteServer          ActionKind = "server.delete"
	ActionListServers           ActionKind = "server.list"
	ActionSetScopeLogChannel    ActionKind = "sink.scope.set"
	ActionSetInstanceLogChannel ActionKind = "sink.instance.set"
	ActionPowerStart            ActionKind = "power.start"
	ActionPowerStop             ActionKind = "power.stop"
	ActionPowerRestart          ActionKind = "power.restart"
	ActionReinstall             ActionKind = "power.reinstall"
	ActionStatus                ActionKind = "server.status"
	ActionNetwork               ActionKind = "server.network"
	ActionOpenShareManager      ActionKind = "share.open"
	ActionShareAdd              ActionKind = "share.add"
	ActionShareRevoke           ActionKind = "share.revoke"
	ActionMyServers             ActionKind = "self.servers"
	ActionMyAccount             ActionKind = "self.account"
	ActionSupport               ActionKind = "self.support"
)

// AdminOnly сообщает, требует ли действие членства в статическом наборе админов.
// Power/status/share класс открыт любому вызывающему.
func (k ActionKind) AdminOnly() bool {
	switch k {
	case ActionCreateAccount, ActionCreateServer, ActionDeleteServer,
		ActionListServers, ActionSetScopeLogChannel, ActionSetInstanceLogChannel:
		return true
	}
	return false
}

// Action — нормализованный запрос на действие. Заполняются только поля,
// релевантные конкретному Kind; остальные остаются нулевыми.
type Action struct {
	Kind ActionKind

	// Кто и откуда инициировал
	ActorID   string // Discord ID вызывающего
	ChannelID string // Канал, в котором сработала команда/кнопка

	Scope      string // Ключ панели
	InstanceID string // Идентификатор инстанса на панели

	// account.create
	Email     string
	Password  string // Пустой — сгенерируем
	FirstName string
	LastName  string
	IsAdmin   bool
	Nickname  string
	MemberID  string // Третья сторона: Discord ID для DM и привязки

	// server.create
	Name        string
	OwnerEmail  string
	Egg         int
	DockerImage string
	Memory      int
	Disk        int
	CPU         int
	Startup     string
	Description string

	// sink.*
	SinkChannelID string

	// self.support
	Message string
}
