package editor

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

type Repository interface {
	SaveDraft(ctx context.Context, draft *Draft) error
	GetDraft(ctx context.Context, id string) (*Draft, error)
	ListDrafts(ctx context.Context) ([]*Draft, error)
	DeleteDraft(ctx context.Context, id string) error

	CreateJob(ctx context.Context, job *Job) error
	GetJob(ctx context.Context, id string) (*Job, error)
	ListJobs(ctx context.Context, limit int) ([]*Job, error)
	ListPendingJobs(ctx context.Context) ([]*Job, error)
	UpdateJobStatus(ctx context.Context, id, status, errorMsg string) error
	UpdateJobProgress(ctx context.Context, id string, progress int) error

	GetConfig(ctx context.Context, key string) (string, error)
	SetConfig(ctx context.Context, key, value string) error
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// SaveDraft upserts the draft row and replaces its segment rows wholesale
// inside one transaction. Segment order is display order, not time order,
// so the position column records it explicitly.
func (r *SQLiteRepository) SaveDraft(ctx context.Context, d *Draft) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO drafts (id, recipe_id, title, video_path, video_url, duration, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			recipe_id = excluded.recipe_id,
			title = excluded.title,
			video_path = excluded.video_path,
			video_url = excluded.video_url,
			duration = excluded.duration,
			updated_at = excluded.updated_at
	`, d.ID, nullString(d.RecipeID), nullString(d.Title), nullString(d.VideoPath), nullString(d.VideoURL),
		d.Duration, d.CreatedAt.Format(time.RFC3339), d.UpdatedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("save draft: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM draft_segments WHERE draft_id = ?", d.ID); err != nil {
		return fmt.Errorf("clear draft segments: %w", err)
	}

	for i, seg := range d.Segments {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO draft_segments (draft_id, position, segment_id, description, start_time, end_time, start_percent, end_percent)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, d.ID, i, seg.ID, seg.Description, seg.StartTime, seg.EndTime, seg.StartPercent, seg.EndPercent)
		if err != nil {
			return fmt.Errorf("save draft segment %d: %w", i, err)
		}
	}

	return tx.Commit()
}

func (r *SQLiteRepository) GetDraft(ctx context.Context, id string) (*Draft, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, recipe_id, title, video_path, video_url, duration, created_at, updated_at
		FROM drafts WHERE id = ?
	`, id)

	d, err := scanDraft(row)
	if err != nil || d == nil {
		return d, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT segment_id, description, start_time, end_time, start_percent, end_percent
		FROM draft_segments WHERE draft_id = ? ORDER BY position
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var seg Segment
		if err := rows.Scan(&seg.ID, &seg.Description, &seg.StartTime, &seg.EndTime, &seg.StartPercent, &seg.EndPercent); err != nil {
			return nil, err
		}
		d.Segments = append(d.Segments, seg)
	}
	return d, rows.Err()
}

func (r *SQLiteRepository) ListDrafts(ctx context.Context) ([]*Draft, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, recipe_id, title, video_path, video_url, duration, created_at, updated_at
		FROM drafts ORDER BY updated_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var drafts []*Draft
	for rows.Next() {
		var d Draft
		var recipeID, title, videoPath, videoURL sql.NullString
		var createdAt, updatedAt string

		if err := rows.Scan(&d.ID, &recipeID, &title, &videoPath, &videoURL, &d.Duration, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		d.RecipeID = recipeID.String
		d.Title = title.String
		d.VideoPath = videoPath.String
		d.VideoURL = videoURL.String
		d.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		d.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		drafts = append(drafts, &d)
	}
	return drafts, rows.Err()
}

func (r *SQLiteRepository) DeleteDraft(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM draft_segments WHERE draft_id = ?", id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM drafts WHERE id = ?", id); err != nil {
		return err
	}
	return tx.Commit()
}

func scanDraft(row *sql.Row) (*Draft, error) {
	var d Draft
	var recipeID, title, videoPath, videoURL sql.NullString
	var createdAt, updatedAt string

	err := row.Scan(&d.ID, &recipeID, &title, &videoPath, &videoURL, &d.Duration, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	d.RecipeID = recipeID.String
	d.Title = title.String
	d.VideoPath = videoPath.String
	d.VideoURL = videoURL.String
	d.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	d.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &d, nil
}

func (r *SQLiteRepository) CreateJob(ctx context.Context, j *Job) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO jobs (id, type, status, draft_id, progress, error, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, j.ID, j.Type, j.Status, nullString(j.DraftID), j.Progress, nullString(j.Error),
		j.CreatedAt.Format(time.RFC3339), j.UpdatedAt.Format(time.RFC3339))
	return err
}

func (r *SQLiteRepository) GetJob(ctx context.Context, id string) (*Job, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, type, status, draft_id, progress, error, created_at, updated_at
		FROM jobs WHERE id = ?
	`, id)
	return scanJob(row)
}

func scanJob(row *sql.Row) (*Job, error) {
	var j Job
	var draftID, errMsg sql.NullString
	var createdAt, updatedAt string

	err := row.Scan(&j.ID, &j.Type, &j.Status, &draftID, &j.Progress, &errMsg, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	j.DraftID = draftID.String
	j.Error = errMsg.String
	j.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	j.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &j, nil
}

func (r *SQLiteRepository) ListJobs(ctx context.Context, limit int) ([]*Job, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, type, status, draft_id, progress, error, created_at, updated_at
		FROM jobs ORDER BY created_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanJobs(rows)
}

func (r *SQLiteRepository) ListPendingJobs(ctx context.Context) ([]*Job, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, type, status, draft_id, progress, error, created_at, updated_at
		FROM jobs WHERE status = 'pending' ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanJobs(rows)
}

func scanJobs(rows *sql.Rows) ([]*Job, error) {
	var jobs []*Job
	for rows.Next() {
		var j Job
		var draftID, errMsg sql.NullString
		var createdAt, updatedAt string

		if err := rows.Scan(&j.ID, &j.Type, &j.Status, &draftID, &j.Progress, &errMsg, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		j.DraftID = draftID.String
		j.Error = errMsg.String
		j.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		j.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		jobs = append(jobs, &j)
	}
	return jobs, rows.Err()
}

func (r *SQLiteRepository) UpdateJobStatus(ctx context.Context, id, status, errorMsg string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE jobs SET status = ?, error = ?, updated_at = datetime('now') WHERE id = ?
	`, status, nullString(errorMsg), id)
	return err
}

func (r *SQLiteRepository) UpdateJobProgress(ctx context.Context, id string, progress int) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE jobs SET progress = ?, updated_at = datetime('now') WHERE id = ?
	`, progress, id)
	return err
}

func (r *SQLiteRepository) GetConfig(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, "SELECT value FROM config WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

func (r *SQLiteRepository) SetConfig(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO config (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
