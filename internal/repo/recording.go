package repo

import (
	"context"

	"sona/internal/model"
)

type IRecording interface {
	Create(ctx context.Context, recording *model.Recording) error
	ListByInterview(ctx context.Context, interviewID string) ([]*model.Recording, error)
}

type PgRecording struct {
	db *pgdb
}

func (r *PgRecording) Create(ctx context.Context, recording *model.Recording) error {
	_, err := r.db.q(ctx).Exec(ctx, `
		INSERT INTO recordings (id, interview_id, storage_key, url, public_url,
			file_size, mime_type, uploaded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		recording.ID, recording.InterviewID, recording.StorageKey, recording.URL,
		recording.PublicURL, recording.FileSize, recording.MimeType,
		recording.UploadedAt)
	return err
}

func (r *PgRecording) ListByInterview(ctx context.Context, interviewID string) ([]*model.Recording, error) {
	rows, err := r.db.q(ctx).Query(ctx, `
		SELECT id, interview_id, storage_key, url, public_url, file_size, mime_type, uploaded_at
		FROM recordings WHERE interview_id = $1 ORDER BY uploaded_at ASC`, interviewID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recordings []*model.Recording
	for rows.Next() {
		var rec model.Recording
		if err := rows.Scan(
			&rec.ID, &rec.InterviewID, &rec.StorageKey, &rec.URL, &rec.PublicURL,
			&rec.FileSize, &rec.MimeType, &rec.UploadedAt,
		); err != nil {
			return nil, err
		}
		recordings = append(recordings, &rec)
	}
	return recordings, rows.Err()
}
