package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"reelcraft/internal/model"
)

// Error messages longer than this are truncated before storage so a noisy
// ffmpeg dump cannot bloat the job tables.
const maxErrorLen = 1000

func truncateError(msg string) string {
	if len(msg) > maxErrorLen {
		return msg[:maxErrorLen]
	}
	return msg
}

func (s *Store) CreateScriptJob(ctx context.Context, job *model.ScriptGenerationJob) error {
	if job.ID == "" {
		job.ID = uuid.New().String()
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	if job.Status == "" {
		job.Status = model.JobStatusPending
	}
	if job.RequestedCount <= 0 {
		job.RequestedCount = 10
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO script_generation_jobs (id, owner, status, requested_count, prompt_ref, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		job.ID, job.Owner, job.Status, job.RequestedCount, nullString(job.PromptRef), job.CreatedAt)
	return err
}

// ClaimScriptJobs atomically moves up to limit pending script jobs to
// processing and returns them. The guarded UPDATE means two dispatchers
// polling the same database never pick up the same job.
func (s *Store) ClaimScriptJobs(ctx context.Context, limit int) ([]model.ScriptGenerationJob, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id FROM script_generation_jobs
		WHERE status = ? ORDER BY created_at ASC LIMIT ?`,
		model.JobStatusPending, limit)
	if err != nil {
		return nil, err
	}
	ids, err := collectIDs(rows)
	if err != nil {
		return nil, err
	}

	var claimed []model.ScriptGenerationJob
	for _, id := range ids {
		res, err := s.db.ExecContext(ctx, `
			UPDATE script_generation_jobs SET status = ?, started_at = ?
			WHERE id = ? AND status = ?`,
			model.JobStatusProcessing, time.Now().UTC(), id, model.JobStatusPending)
		if err != nil {
			return nil, err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return nil, err
		}
		if n == 0 {
			continue // somebody else got it first
		}
		job, err := s.GetScriptJob(ctx, id)
		if err != nil {
			return nil, err
		}
		if job != nil {
			claimed = append(claimed, *job)
		}
	}
	return claimed, nil
}

func (s *Store) GetScriptJob(ctx context.Context, id string) (*model.ScriptGenerationJob, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, owner, status, requested_count, prompt_ref, error_message, created_at, started_at, completed_at
		FROM script_generation_jobs WHERE id = ?`, id)

	var job model.ScriptGenerationJob
	var promptRef, errMsg sql.NullString
	var startedAt, completedAt sql.NullTime
	err := row.Scan(&job.ID, &job.Owner, &job.Status, &job.RequestedCount,
		&promptRef, &errMsg, &job.CreatedAt, &startedAt, &completedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	job.PromptRef = promptRef.String
	job.ErrorMessage = errMsg.String
	if startedAt.Valid {
		job.StartedAt = &startedAt.Time
	}
	if completedAt.Valid {
		job.CompletedAt = &completedAt.Time
	}
	return &job, nil
}

func (s *Store) CompleteScriptJob(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE script_generation_jobs SET status = ?, completed_at = ? WHERE id = ?`,
		model.JobStatusCompleted, time.Now().UTC(), id)
	return err
}

func (s *Store) FailScriptJob(ctx context.Context, id, msg string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE script_generation_jobs SET status = ?, error_message = ?, completed_at = ? WHERE id = ?`,
		model.JobStatusFailed, truncateError(msg), time.Now().UTC(), id)
	return err
}

func (s *Store) CreateVideoJob(ctx context.Context, job *model.VideoGenerationJob) error {
	if job.ID == "" {
		job.ID = uuid.New().String()
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	if job.Status == "" {
		job.Status = model.JobStatusPending
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO video_generation_jobs (id, owner, script_id, status, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		job.ID, job.Owner, job.ScriptID, job.Status, job.CreatedAt)
	return err
}

// ClaimVideoJobs mirrors ClaimScriptJobs for the render queue.
func (s *Store) ClaimVideoJobs(ctx context.Context, limit int) ([]model.VideoGenerationJob, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id FROM video_generation_jobs
		WHERE status = ? ORDER BY created_at ASC LIMIT ?`,
		model.JobStatusPending, limit)
	if err != nil {
		return nil, err
	}
	ids, err := collectIDs(rows)
	if err != nil {
		return nil, err
	}

	var claimed []model.VideoGenerationJob
	for _, id := range ids {
		res, err := s.db.ExecContext(ctx, `
			UPDATE video_generation_jobs SET status = ?, started_at = ?
			WHERE id = ? AND status = ?`,
			model.JobStatusProcessing, time.Now().UTC(), id, model.JobStatusPending)
		if err != nil {
			return nil, err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return nil, err
		}
		if n == 0 {
			continue
		}
		job, err := s.GetVideoJob(ctx, id)
		if err != nil {
			return nil, err
		}
		if job != nil {
			claimed = append(claimed, *job)
		}
	}
	return claimed, nil
}

func (s *Store) GetVideoJob(ctx context.Context, id string) (*model.VideoGenerationJob, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, owner, script_id, status, video_path, platform_media_id, error_message, created_at, started_at, completed_at
		FROM video_generation_jobs WHERE id = ?`, id)

	var job model.VideoGenerationJob
	var videoPath, mediaID, errMsg sql.NullString
	var startedAt, completedAt sql.NullTime
	err := row.Scan(&job.ID, &job.Owner, &job.ScriptID, &job.Status,
		&videoPath, &mediaID, &errMsg, &job.CreatedAt, &startedAt, &completedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	job.VideoPath = videoPath.String
	job.PlatformMediaID = mediaID.String
	job.ErrorMessage = errMsg.String
	if startedAt.Valid {
		job.StartedAt = &startedAt.Time
	}
	if completedAt.Valid {
		job.CompletedAt = &completedAt.Time
	}
	return &job, nil
}

func (s *Store) CompleteVideoJob(ctx context.Context, id, videoPath, mediaID string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE video_generation_jobs SET status = ?, video_path = ?, platform_media_id = ?, completed_at = ?
		WHERE id = ?`,
		model.JobStatusCompleted, nullString(videoPath), nullString(mediaID), time.Now().UTC(), id)
	return err
}

func (s *Store) FailVideoJob(ctx context.Context, id, msg string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE video_generation_jobs SET status = ?, error_message = ?, completed_at = ? WHERE id = ?`,
		model.JobStatusFailed, truncateError(msg), time.Now().UTC(), id)
	return err
}

// RetryVideoJob puts a failed job back in the pending queue. Retries are
// operator-initiated only; the dispatcher never re-runs failed jobs itself.
func (s *Store) RetryVideoJob(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE video_generation_jobs
		SET status = ?, error_message = NULL, started_at = NULL, completed_at = NULL
		WHERE id = ? AND status = ?`,
		model.JobStatusPending, id, model.JobStatusFailed)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

func collectIDs(rows *sql.Rows) ([]string, error) {
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
