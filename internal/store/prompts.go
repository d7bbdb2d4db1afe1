package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"reelcraft/internal/model"
)

func (s *Store) CreatePrompt(ctx context.Context, prompt *model.Prompt) error {
	if prompt.ID == "" {
		prompt.ID = uuid.New().String()
	}
	if prompt.CreatedAt.IsZero() {
		prompt.CreatedAt = time.Now().UTC()
	}
	if prompt.NumScripts <= 0 {
		prompt.NumScripts = 10
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO prompts (id, owner, name, system_prompt, topics, num_scripts, times_used, created_at)
		VALUES (?, ?, ?, ?, ?, ?, 0, ?)`,
		prompt.ID, prompt.Owner, prompt.Name, prompt.SystemPrompt,
		prompt.Topics, prompt.NumScripts, prompt.CreatedAt)
	return err
}

func (s *Store) GetPrompt(ctx context.Context, id string) (*model.Prompt, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, owner, name, system_prompt, topics, num_scripts, times_used, last_used, created_at
		FROM prompts WHERE id = ?`, id)
	return scanPrompt(row)
}

// LatestPrompt returns the owner's most recently created prompt. Script jobs
// without an explicit prompt reference fall back to it.
func (s *Store) LatestPrompt(ctx context.Context, owner string) (*model.Prompt, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, owner, name, system_prompt, topics, num_scripts, times_used, last_used, created_at
		FROM prompts WHERE owner = ?
		ORDER BY created_at DESC LIMIT 1`, owner)
	return scanPrompt(row)
}

func (s *Store) TouchPrompt(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE prompts SET times_used = times_used + 1, last_used = ? WHERE id = ?`,
		time.Now().UTC(), id)
	return err
}

func scanPrompt(row rowScanner) (*model.Prompt, error) {
	var prompt model.Prompt
	var lastUsed sql.NullTime
	err := row.Scan(&prompt.ID, &prompt.Owner, &prompt.Name, &prompt.SystemPrompt,
		&prompt.Topics, &prompt.NumScripts, &prompt.TimesUsed, &lastUsed, &prompt.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if lastUsed.Valid {
		prompt.LastUsed = &lastUsed.Time
	}
	return &prompt, nil
}
