package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"reelcraft/internal/model"
)

func (s *Store) CreateScript(ctx context.Context, script *model.Script) error {
	if script.ID == "" {
		script.ID = uuid.New().String()
	}
	if script.CreatedAt.IsZero() {
		script.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO scripts (id, owner, topic, hook, fact1, fact2, fact3, fact4, payoff, viral_score, selected, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		script.ID, script.Owner, script.Topic, script.Hook,
		script.Fact1, script.Fact2, script.Fact3, script.Fact4,
		script.Payoff, script.ViralScore, script.Selected, script.CreatedAt)
	return err
}

func (s *Store) GetScript(ctx context.Context, id string) (*model.Script, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, owner, topic, hook, fact1, fact2, fact3, fact4, payoff, viral_score, selected, created_at
		FROM scripts WHERE id = ?`, id)
	return scanScript(row)
}

func (s *Store) ListScripts(ctx context.Context, owner string) ([]model.Script, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner, topic, hook, fact1, fact2, fact3, fact4, payoff, viral_score, selected, created_at
		FROM scripts WHERE owner = ?
		ORDER BY viral_score DESC, created_at DESC`, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scripts []model.Script
	for rows.Next() {
		script, err := scanScript(rows)
		if err != nil {
			return nil, err
		}
		scripts = append(scripts, *script)
	}
	return scripts, rows.Err()
}

// ListSelectedScripts returns scripts marked for rendering, best-scored first.
func (s *Store) ListSelectedScripts(ctx context.Context, owner string) ([]model.Script, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner, topic, hook, fact1, fact2, fact3, fact4, payoff, viral_score, selected, created_at
		FROM scripts WHERE owner = ? AND selected = 1
		ORDER BY viral_score DESC`, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scripts []model.Script
	for rows.Next() {
		script, err := scanScript(rows)
		if err != nil {
			return nil, err
		}
		scripts = append(scripts, *script)
	}
	return scripts, rows.Err()
}

func (s *Store) SetScriptSelected(ctx context.Context, id string, selected bool) error {
	_, err := s.db.ExecContext(ctx, `UPDATE scripts SET selected = ? WHERE id = ?`, selected, id)
	return err
}

func (s *Store) DeleteScript(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM scripts WHERE id = ?`, id)
	return err
}

// ListRecentContent returns topic/hook pairs from the owner's most recently
// completed videos. Generation prompts feed these back as exclusions.
func (s *Store) ListRecentContent(ctx context.Context, owner string, limit int) ([]model.RecentContent, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT sc.topic, sc.hook
		FROM videos v
		JOIN scripts sc ON v.script_id = sc.id
		WHERE v.owner = ? AND v.status = ?
		GROUP BY sc.topic, sc.hook
		ORDER BY MAX(v.created_at) DESC
		LIMIT ?`, owner, model.VideoStatusCompleted, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recent []model.RecentContent
	for rows.Next() {
		var rc model.RecentContent
		if err := rows.Scan(&rc.Topic, &rc.Hook); err != nil {
			return nil, err
		}
		recent = append(recent, rc)
	}
	return recent, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanScript(row rowScanner) (*model.Script, error) {
	var script model.Script
	err := row.Scan(&script.ID, &script.Owner, &script.Topic, &script.Hook,
		&script.Fact1, &script.Fact2, &script.Fact3, &script.Fact4,
		&script.Payoff, &script.ViralScore, &script.Selected, &script.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &script, nil
}
