package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"reelcraft/internal/model"
)

func (s *Store) CreateScheduledPost(ctx context.Context, post *model.ScheduledPost) error {
	if post.ID == "" {
		post.ID = uuid.New().String()
	}
	if post.Status == "" {
		post.Status = model.PostStatusPending
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO scheduled_posts (id, owner, video_id, scheduled_time, status)
		VALUES (?, ?, ?, ?, ?)`,
		post.ID, post.Owner, post.VideoID, post.ScheduledTime.UTC(), post.Status)
	return err
}

// ScheduleBulk creates one post per video, spaced interval apart starting at
// start. Returns the created posts in schedule order.
func (s *Store) ScheduleBulk(ctx context.Context, owner string, videoIDs []string, start time.Time, interval time.Duration) ([]model.ScheduledPost, error) {
	posts := make([]model.ScheduledPost, 0, len(videoIDs))
	for i, videoID := range videoIDs {
		post := model.ScheduledPost{
			Owner:         owner,
			VideoID:       videoID,
			ScheduledTime: start.Add(time.Duration(i) * interval).UTC(),
		}
		if err := s.CreateScheduledPost(ctx, &post); err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, nil
}

// DuePosts returns pending posts whose scheduled time has passed, oldest
// first so a backlog drains in schedule order.
func (s *Store) DuePosts(ctx context.Context, now time.Time) ([]model.ScheduledPost, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner, video_id, scheduled_time, status, posted_at, platform_media_id, story_id, error_message, retry_count
		FROM scheduled_posts
		WHERE status = ? AND scheduled_time <= ?
		ORDER BY scheduled_time ASC`,
		model.PostStatusPending, now.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []model.ScheduledPost
	for rows.Next() {
		post, err := scanScheduledPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, *post)
	}
	return posts, rows.Err()
}

// ClaimDuePosts atomically moves pending posts whose time has come to
// posting and returns them, oldest first. The guarded UPDATE means two
// sweeps over the same database never publish the same post twice.
func (s *Store) ClaimDuePosts(ctx context.Context, now time.Time) ([]model.ScheduledPost, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id FROM scheduled_posts
		WHERE status = ? AND scheduled_time <= ?
		ORDER BY scheduled_time ASC`,
		model.PostStatusPending, now.UTC())
	if err != nil {
		return nil, err
	}
	ids, err := collectIDs(rows)
	if err != nil {
		return nil, err
	}

	var claimed []model.ScheduledPost
	for _, id := range ids {
		res, err := s.db.ExecContext(ctx, `
			UPDATE scheduled_posts SET status = ?
			WHERE id = ? AND status = ?`,
			model.PostStatusPosting, id, model.PostStatusPending)
		if err != nil {
			return nil, err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return nil, err
		}
		if n == 0 {
			continue // another sweep got it first
		}
		post, err := s.GetScheduledPost(ctx, id)
		if err != nil {
			return nil, err
		}
		if post != nil {
			claimed = append(claimed, *post)
		}
	}
	return claimed, nil
}

func (s *Store) GetScheduledPost(ctx context.Context, id string) (*model.ScheduledPost, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, owner, video_id, scheduled_time, status, posted_at, platform_media_id, story_id, error_message, retry_count
		FROM scheduled_posts WHERE id = ?`, id)
	return scanScheduledPost(row)
}

func (s *Store) MarkPostPosted(ctx context.Context, id, mediaID, storyID string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE scheduled_posts SET status = ?, posted_at = ?, platform_media_id = ?, story_id = ? WHERE id = ?`,
		model.PostStatusPosted, time.Now().UTC(), nullString(mediaID), nullString(storyID), id)
	return err
}

func (s *Store) MarkPostFailed(ctx context.Context, id, msg string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE scheduled_posts SET status = ?, error_message = ?, retry_count = retry_count + 1 WHERE id = ?`,
		model.PostStatusFailed, truncateError(msg), id)
	return err
}

// CancelScheduledPost deletes the post only while it is still pending.
// Posted and failed rows are history and stay put.
func (s *Store) CancelScheduledPost(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM scheduled_posts WHERE id = ? AND status = ?`,
		id, model.PostStatusPending)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

func (s *Store) ListScheduledPosts(ctx context.Context, owner string) ([]model.ScheduledPost, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner, video_id, scheduled_time, status, posted_at, platform_media_id, story_id, error_message, retry_count
		FROM scheduled_posts WHERE owner = ?
		ORDER BY scheduled_time ASC`, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []model.ScheduledPost
	for rows.Next() {
		post, err := scanScheduledPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, *post)
	}
	return posts, rows.Err()
}

func scanScheduledPost(row rowScanner) (*model.ScheduledPost, error) {
	var post model.ScheduledPost
	var postedAt sql.NullTime
	var mediaID, storyID, errMsg sql.NullString
	err := row.Scan(&post.ID, &post.Owner, &post.VideoID, &post.ScheduledTime,
		&post.Status, &postedAt, &mediaID, &storyID, &errMsg, &post.RetryCount)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if postedAt.Valid {
		post.PostedAt = &postedAt.Time
	}
	post.PlatformMediaID = mediaID.String
	post.StoryID = storyID.String
	post.ErrorMessage = errMsg.String
	return &post, nil
}

func (s *Store) Enqueue(ctx context.Context, owner, videoID string) (*model.QueueEntry, error) {
	entry := model.QueueEntry{
		ID:       uuid.New().String(),
		Owner:    owner,
		VideoID:  videoID,
		Status:   model.PostStatusQueued,
		QueuedAt: time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO queue_entries (id, owner, video_id, status, queued_at)
		VALUES (?, ?, ?, ?, ?)`,
		entry.ID, entry.Owner, entry.VideoID, entry.Status, entry.QueuedAt)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// OldestQueued returns the next queue entry in FIFO order, or nil when the
// queue is empty.
func (s *Store) OldestQueued(ctx context.Context) (*model.QueueEntry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, owner, video_id, status, queued_at, posted_at, platform_media_id, story_id, error_message, retry_count
		FROM queue_entries WHERE status = ?
		ORDER BY queued_at ASC LIMIT 1`,
		model.PostStatusQueued)
	return scanQueueEntry(row)
}

// ClaimOldestQueued claims the next queue entry in FIFO order with the same
// guarded UPDATE as scheduled posts, or returns nil when the queue is empty.
func (s *Store) ClaimOldestQueued(ctx context.Context) (*model.QueueEntry, error) {
	for {
		entry, err := s.OldestQueued(ctx)
		if err != nil || entry == nil {
			return entry, err
		}
		res, err := s.db.ExecContext(ctx, `
			UPDATE queue_entries SET status = ?
			WHERE id = ? AND status = ?`,
			model.PostStatusPosting, entry.ID, model.PostStatusQueued)
		if err != nil {
			return nil, err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return nil, err
		}
		if n == 1 {
			entry.Status = model.PostStatusPosting
			return entry, nil
		}
		// lost the race for this entry, try the next oldest
	}
}

func (s *Store) MarkQueueEntryPosted(ctx context.Context, id, mediaID, storyID string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE queue_entries SET status = ?, posted_at = ?, platform_media_id = ?, story_id = ? WHERE id = ?`,
		model.PostStatusPosted, time.Now().UTC(), nullString(mediaID), nullString(storyID), id)
	return err
}

func (s *Store) MarkQueueEntryFailed(ctx context.Context, id, msg string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE queue_entries SET status = ?, error_message = ?, retry_count = retry_count + 1 WHERE id = ?`,
		model.PostStatusFailed, truncateError(msg), id)
	return err
}

func (s *Store) ListQueue(ctx context.Context, owner string) ([]model.QueueEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner, video_id, status, queued_at, posted_at, platform_media_id, story_id, error_message, retry_count
		FROM queue_entries WHERE owner = ?
		ORDER BY queued_at ASC`, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []model.QueueEntry
	for rows.Next() {
		entry, err := scanQueueEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	return entries, rows.Err()
}

func scanQueueEntry(row rowScanner) (*model.QueueEntry, error) {
	var entry model.QueueEntry
	var postedAt sql.NullTime
	var mediaID, storyID, errMsg sql.NullString
	err := row.Scan(&entry.ID, &entry.Owner, &entry.VideoID, &entry.Status,
		&entry.QueuedAt, &postedAt, &mediaID, &storyID, &errMsg, &entry.RetryCount)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if postedAt.Valid {
		entry.PostedAt = &postedAt.Time
	}
	entry.PlatformMediaID = mediaID.String
	entry.StoryID = storyID.String
	entry.ErrorMessage = errMsg.String
	return &entry, nil
}
