package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/fitclub-crm/fitclub-api/internal/models"
)

// TrainingRepository manages training sessions and attendance marks.
type TrainingRepository struct {
	db *sqlx.DB
}

// NewTrainingRepository constructs a TrainingRepository.
func NewTrainingRepository(db *sqlx.DB) *TrainingRepository {
	return &TrainingRepository{db: db}
}

const sessionColumns = `id, trainer_id, starts_at, duration_minutes, topic, description, max_participants, location, status, created_at, updated_at`

// ListSessions returns sessions matching the filter.
func (r *TrainingRepository) ListSessions(ctx context.Context, filter models.TrainingSessionFilter) ([]models.TrainingSession, int, error) {
	base := "FROM training_sessions"
	args := []interface{}{}
	conditions := []string{"1=1"}

	if filter.TrainerID > 0 {
		conditions = append(conditions, fmt.Sprintf("trainer_id = $%d", len(args)+1))
		args = append(args, filter.TrainerID)
	}
	if filter.From != nil {
		conditions = append(conditions, fmt.Sprintf("starts_at >= $%d", len(args)+1))
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		conditions = append(conditions, fmt.Sprintf("starts_at < $%d", len(args)+1))
		args = append(args, *filter.To)
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY starts_at DESC LIMIT %d OFFSET %d", sessionColumns, base, size, offset)

	var sessions []models.TrainingSession
	if err := r.db.SelectContext(ctx, &sessions, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list training sessions: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count training sessions: %w", err)
	}
	return sessions, total, nil
}

// ListSessionsByTrainer returns every session led by the trainer, newest first.
func (r *TrainingRepository) ListSessionsByTrainer(ctx context.Context, trainerID int64) ([]models.TrainingSession, error) {
	query := fmt.Sprintf("SELECT %s FROM training_sessions WHERE trainer_id = $1 ORDER BY starts_at DESC", sessionColumns)
	var sessions []models.TrainingSession
	if err := r.db.SelectContext(ctx, &sessions, query, trainerID); err != nil {
		return nil, fmt.Errorf("list trainer sessions: %w", err)
	}
	return sessions, nil
}

// ListSessionsAttendedByParticipant returns the distinct sessions a
// participant actually attended, newest first.
func (r *TrainingRepository) ListSessionsAttendedByParticipant(ctx context.Context, participantID int64) ([]models.TrainingSession, error) {
	const query = `SELECT DISTINCT ts.id, ts.trainer_id, ts.starts_at, ts.duration_minutes, ts.topic, ts.description,
        ts.max_participants, ts.location, ts.status, ts.created_at, ts.updated_at
        FROM training_sessions ts
        JOIN training_attendance a ON a.session_id = ts.id
        WHERE a.participant_id = $1 AND a.attended = true
        ORDER BY ts.starts_at DESC, ts.id DESC`
	var sessions []models.TrainingSession
	if err := r.db.SelectContext(ctx, &sessions, query, participantID); err != nil {
		return nil, fmt.Errorf("list attended sessions: %w", err)
	}
	return sessions, nil
}

// FindSessionByID fetches one training session.
func (r *TrainingRepository) FindSessionByID(ctx context.Context, id int64) (*models.TrainingSession, error) {
	query := fmt.Sprintf("SELECT %s FROM training_sessions WHERE id = $1", sessionColumns)
	var session models.TrainingSession
	if err := r.db.GetContext(ctx, &session, query, id); err != nil {
		return nil, err
	}
	return &session, nil
}

// CreateSession inserts a session and fills in the generated id.
func (r *TrainingRepository) CreateSession(ctx context.Context, session *models.TrainingSession) error {
	now := time.Now().UTC()
	session.CreatedAt = now
	session.UpdatedAt = now
	const query = `INSERT INTO training_sessions (trainer_id, starts_at, duration_minutes, topic, description, max_participants, location, status, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id`
	if err := r.db.GetContext(ctx, &session.ID, query,
		session.TrainerID, session.StartsAt, session.DurationMinutes, session.Topic, session.Description,
		session.MaxParticipants, session.Location, session.Status, session.CreatedAt, session.UpdatedAt); err != nil {
		return fmt.Errorf("create training session: %w", err)
	}
	return nil
}

// UpdateSession modifies an existing session.
func (r *TrainingRepository) UpdateSession(ctx context.Context, session *models.TrainingSession) error {
	session.UpdatedAt = time.Now().UTC()
	const query = `UPDATE training_sessions SET trainer_id = :trainer_id, starts_at = :starts_at, duration_minutes = :duration_minutes,
        topic = :topic, description = :description, max_participants = :max_participants, location = :location,
        status = :status, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, session); err != nil {
		return fmt.Errorf("update training session: %w", err)
	}
	return nil
}

// DeleteSession removes a session record.
func (r *TrainingRepository) DeleteSession(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM training_sessions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete training session: %w", err)
	}
	return nil
}

const attendanceColumns = `a.id, a.participant_id, a.session_id, a.attended, a.rating, a.notes, a.created_at`

// ListAttendanceByParticipant returns every attendance mark for one
// participant with the session context, newest session first.
func (r *TrainingRepository) ListAttendanceByParticipant(ctx context.Context, participantID int64) ([]models.TrainingAttendanceDetail, error) {
	query := fmt.Sprintf(`SELECT %s, ts.topic AS session_topic, ts.starts_at AS session_date
        FROM training_attendance a
        JOIN training_sessions ts ON ts.id = a.session_id
        WHERE a.participant_id = $1
        ORDER BY ts.starts_at DESC, a.id DESC`, attendanceColumns)

	var marks []models.TrainingAttendanceDetail
	if err := r.db.SelectContext(ctx, &marks, query, participantID); err != nil {
		return nil, fmt.Errorf("list participant attendance: %w", err)
	}
	return marks, nil
}

// ListAttendanceBySession returns the attendance list for one session.
func (r *TrainingRepository) ListAttendanceBySession(ctx context.Context, sessionID int64) ([]models.TrainingAttendance, error) {
	const query = `SELECT id, participant_id, session_id, attended, rating, notes, created_at
        FROM training_attendance WHERE session_id = $1 ORDER BY id`
	var marks []models.TrainingAttendance
	if err := r.db.SelectContext(ctx, &marks, query, sessionID); err != nil {
		return nil, fmt.Errorf("list session attendance: %w", err)
	}
	return marks, nil
}

// AttendanceExists reports whether a mark already exists for the pair.
func (r *TrainingRepository) AttendanceExists(ctx context.Context, participantID, sessionID int64) (bool, error) {
	const query = `SELECT 1 FROM training_attendance WHERE participant_id = $1 AND session_id = $2 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, participantID, sessionID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check attendance pair: %w", err)
	}
	return true, nil
}

// CreateAttendance inserts an attendance mark and fills in the generated id.
func (r *TrainingRepository) CreateAttendance(ctx context.Context, mark *models.TrainingAttendance) error {
	mark.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO training_attendance (participant_id, session_id, attended, rating, notes, created_at)
        VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	if err := r.db.GetContext(ctx, &mark.ID, query,
		mark.ParticipantID, mark.SessionID, mark.Attended, mark.Rating, mark.Notes, mark.CreatedAt); err != nil {
		return fmt.Errorf("create attendance: %w", err)
	}
	return nil
}

// FindAttendanceByID returns one attendance mark or sql.ErrNoRows.
func (r *TrainingRepository) FindAttendanceByID(ctx context.Context, id int64) (*models.TrainingAttendance, error) {
	query := fmt.Sprintf(`SELECT %s FROM training_attendance a WHERE a.id = $1`, attendanceColumns)
	var mark models.TrainingAttendance
	if err := r.db.GetContext(ctx, &mark, query, id); err != nil {
		return nil, err
	}
	return &mark, nil
}

// UpdateAttendance modifies an existing attendance mark.
func (r *TrainingRepository) UpdateAttendance(ctx context.Context, mark *models.TrainingAttendance) error {
	const query = `UPDATE training_attendance SET attended = :attended, rating = :rating, notes = :notes WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, mark); err != nil {
		return fmt.Errorf("update attendance: %w", err)
	}
	return nil
}

// DeleteAttendance removes an attendance mark.
func (r *TrainingRepository) DeleteAttendance(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM training_attendance WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete attendance: %w", err)
	}
	return nil
}
