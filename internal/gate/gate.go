package gate

// Gate — бинарный допуск к привилегированным действиям. Набор админских
// Discord ID статичен на все время жизни процесса: ни ролей, ни scope'ов,
// ни делегирования. Каждое привилегированное действие обязано спросить
// гейт до любого внешнего вызова и до любой мутации хранилища.
type Gate struct {
	admins map[string]struct{}
}

func New(adminIDs []string) *Gate {
	admins := make(map[string]struct{}, len(adminIDs))
	for _, id := range adminIDs {
		admins[id] = struct{}{}
	}
	return &Gate{admins: admins}
}

func (g *Gate) IsAdmin(actorID string) bool {
	_, ok := g.admins[actorID]
	return ok
}
