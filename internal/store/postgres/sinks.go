package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// SetNotificationSink — upsert по ключу (panel_key, instance_id).
// instanceID == "" задает дефолтный канал на весь scope; установка sink'а
// для существующей пары заменяет канал, чужие записи не трогаются.
func (s *Store) SetNotificationSink(ctx context.Context, panelKey, channelID, instanceID string) error {
	query := `
		INSERT INTO log_channels (panel_key, instance_id, channel_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (panel_key, instance_id) DO UPDATE SET channel_id = EXCLUDED.channel_id`

	_, err := s.pool.Exec(ctx, query, panelKey, instanceID, channelID)
	if err != nil {
		return fmt.Errorf("postgres: failed to set notification sink: %w", err)
	}
	return nil
}

// FindSink ищет канал для пары (scope, instance): сначала точную привязку
// инстанса, затем дефолт scope. Если нет ни того ни другого — false.
func (s *Store) FindSink(ctx context.Context, panelKey, instanceID string) (string, bool, error) {
	var channelID string

	if instanceID != "" {
		err := s.pool.QueryRow(ctx,
			`SELECT channel_id FROM log_channels WHERE panel_key = $1 AND instance_id = $2`,
			panelKey, instanceID).Scan(&channelID)
		if err == nil {
			return channelID, true, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return "", false, err
		}
	}

	err := s.pool.QueryRow(ctx,
		`SELECT channel_id FROM log_channels WHERE panel_key = $1 AND instance_id = ''`,
		panelKey).Scan(&channelID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return channelID, true, nil
}
