package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"reelcraft/internal/model"
)

func (s *Store) CreateVideo(ctx context.Context, video *model.Video) error {
	if video.ID == "" {
		video.ID = uuid.New().String()
	}
	if video.CreatedAt.IsZero() {
		video.CreatedAt = time.Now().UTC()
	}
	if video.Status == "" {
		video.Status = model.VideoStatusPending
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO videos (id, owner, script_id, file_path, platform_media_id, status, created_at, posted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		video.ID, video.Owner, video.ScriptID, video.FilePath,
		nullString(video.PlatformMediaID), video.Status, video.CreatedAt, video.PostedAt)
	return err
}

func (s *Store) GetVideo(ctx context.Context, id string) (*model.Video, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, owner, script_id, file_path, platform_media_id, status, created_at, posted_at
		FROM videos WHERE id = ?`, id)
	return scanVideo(row)
}

func (s *Store) ListVideos(ctx context.Context, owner string) ([]model.Video, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner, script_id, file_path, platform_media_id, status, created_at, posted_at
		FROM videos WHERE owner = ?
		ORDER BY created_at DESC`, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var videos []model.Video
	for rows.Next() {
		video, err := scanVideo(rows)
		if err != nil {
			return nil, err
		}
		videos = append(videos, *video)
	}
	return videos, rows.Err()
}

// MarkVideoPosted records a successful publish on the video row itself.
// Post rows carry their own copy; this keeps the video listing honest.
func (s *Store) MarkVideoPosted(ctx context.Context, id, mediaID string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE videos SET status = ?, platform_media_id = ?, posted_at = ? WHERE id = ?`,
		model.VideoStatusPosted, nullString(mediaID), time.Now().UTC(), id)
	return err
}

func (s *Store) SetVideoStatus(ctx context.Context, id, status string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE videos SET status = ? WHERE id = ?`, status, id)
	return err
}

func scanVideo(row rowScanner) (*model.Video, error) {
	var video model.Video
	var mediaID sql.NullString
	var postedAt sql.NullTime
	err := row.Scan(&video.ID, &video.Owner, &video.ScriptID, &video.FilePath,
		&mediaID, &video.Status, &video.CreatedAt, &postedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	video.PlatformMediaID = mediaID.String
	if postedAt.Valid {
		video.PostedAt = &postedAt.Time
	}
	return &video, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
