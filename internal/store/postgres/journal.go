package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/StriderCraft315/Pterodactyl-Server-Deploy-Bot/internal/journal"
)

// WriteBatch — пакетная вставка записей журнала действий одним запросом.
func (s *Store) WriteBatch(ctx context.Context, records []journal.Record) error {
	if len(records) == 0 {
		return nil
	}

	// Количество колонок в таблице action_log
	numFields := 11
	placeholderStr := ""
	vals := make([]interface{}, 0, len(records)*numFields)

	// Динамически строим запрос для пакетной вставки
	for i, r := range records {
		p := i * numFields
		placeholderStr += fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d),",
			p+1, p+2, p+3, p+4, p+5, p+6, p+7, p+8, p+9, p+10, p+11)

		vals = append(vals,
			r.ID, r.TraceID, r.ActorID, r.Action, r.PanelKey, r.InstanceID,
			r.Status, r.Detail, r.Error, r.DurationMs, r.Timestamp,
		)
	}

	query := fmt.Sprintf(
		"INSERT INTO action_log (id, trace_id, actor_id, action, panel_key, instance_id, status, detail, error, duration_ms, created_at) VALUES %s",
		strings.TrimSuffix(placeholderStr, ","),
	)

	_, err := s.pool.Exec(ctx, query, vals...)
	return err
}

// ListJournal возвращает последние записи журнала для ops-консоли.
func (s *Store) ListJournal(ctx context.Context, limit int) ([]journal.Record, error) {
	query := `
		SELECT id, trace_id, actor_id, action, panel_key, instance_id, status, detail, error, duration_ms, created_at
		FROM action_log ORDER BY created_at DESC LIMIT $1`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []journal.Record
	for rows.Next() {
		var r journal.Record
		if err := rows.Scan(&r.ID, &r.TraceID, &r.ActorID, &r.Action, &r.PanelKey, &r.InstanceID,
			&r.Status, &r.Detail, &r.Error, &r.DurationMs, &r.Timestamp); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}
