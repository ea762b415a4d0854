package postgres

import (
	"context"
	"fmt"

	"github.com/StriderCraft315/Pterodactyl-Server-Deploy-Bot/internal/domain"
)

// InsertServer всегда вставляет новую строку, никакой дедупликации:
// таблица servers — append-only журнал провижининга.
func (s *Store) InsertServer(ctx context.Context, rec domain.ServerRecord) error {
	query := `
		INSERT INTO servers (panel_key, instance_id, name, owner_email, owner_discord, description)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := s.pool.Exec(ctx, query,
		rec.PanelKey, rec.InstanceID, rec.Name, rec.OwnerEmail, rec.OwnerDiscord, rec.Description)
	if err != nil {
		return fmt.Errorf("postgres: failed to insert server: %w", err)
	}
	return nil
}

// FindServersByOwnerChatIdentity — self-service проекция по Discord ID владельца.
func (s *Store) FindServersByOwnerChatIdentity(ctx context.Context, discordID string) ([]domain.ServerRecord, error) {
	query := `
		SELECT id, panel_key, instance_id, name, owner_email, owner_discord, description, created_at
		FROM servers WHERE owner_discord = $1 ORDER BY created_at DESC`

	rows, err := s.pool.Query(ctx, query, discordID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.ServerRecord
	for rows.Next() {
		var r domain.ServerRecord
		if err := rows.Scan(&r.ID, &r.PanelKey, &r.InstanceID, &r.Name,
			&r.OwnerEmail, &r.OwnerDiscord, &r.Description, &r.CreatedAt); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// ListServers возвращает последние записи, новые первыми.
func (s *Store) ListServers(ctx context.Context, limit int) ([]domain.ServerRecord, error) {
	query := `
		SELECT id, panel_key, instance_id, name, owner_email, owner_discord, description, created_at
		FROM servers ORDER BY created_at DESC LIMIT $1`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.ServerRecord
	for rows.Next() {
		var r domain.ServerRecord
		if err := rows.Scan(&r.ID, &r.PanelKey, &r.InstanceID, &r.Name,
			&r.OwnerEmail, &r.OwnerDiscord, &r.Description, &r.CreatedAt); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}
