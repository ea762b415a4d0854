package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/StriderCraft315/Pterodactyl-Server-Deploy-Bot/internal/domain"
	"github.com/jackc/pgx/v5"
)

// UpsertAccount вставляет запись об аккаунте. Если email уже существует,
// вставка молча игнорируется: первый записавший выигрывает. Это осознанная
// гарантия at-most-once создания, а не ошибка.
func (s *Store) UpsertAccount(ctx context.Context, panelKey, email, secret, discordID, nickname string) error {
	query := `
		INSERT INTO accounts (email, secret, panel_key, discord_id, nickname)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (email) DO NOTHING`

	_, err := s.pool.Exec(ctx, query, email, secret, panelKey, discordID, nickname)
	if err != nil {
		return fmt.Errorf("postgres: failed to upsert account: %w", err)
	}
	return nil
}

// LinkChatIdentity — единственная разрешенная мутация AccountRecord:
// привязка Discord ID задним числом.
func (s *Store) LinkChatIdentity(ctx context.Context, email, discordID string) error {
	query := `UPDATE accounts SET discord_id = $1 WHERE email = $2`

	_, err := s.pool.Exec(ctx, query, discordID, email)
	if err != nil {
		return fmt.Errorf("postgres: failed to link chat identity: %w", err)
	}
	return nil
}

// FindAccountByChatIdentity возвращает nil, nil если привязки нет.
func (s *Store) FindAccountByChatIdentity(ctx context.Context, discordID string) (*domain.AccountRecord, error) {
	query := `
		SELECT id, email, secret, panel_key, discord_id, nickname, created_at
		FROM accounts WHERE discord_id = $1`

	a := &domain.AccountRecord{}
	err := s.pool.QueryRow(ctx, query, discordID).Scan(
		&a.ID, &a.Email, &a.Secret, &a.PanelKey, &a.DiscordID, &a.Nickname, &a.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return a, nil
}
