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

// EventRepository manages events and registrations.
type EventRepository struct {
	db *sqlx.DB
}

// NewEventRepository constructs an EventRepository.
func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

const eventColumns = `id, name, description, starts_at, location, cost, max_participants, status, registration_deadline, created_at, updated_at`

// List returns events matching the filter.
func (r *EventRepository) List(ctx context.Context, filter models.EventFilter) ([]models.Event, int, error) {
	base := "FROM events"
	args := []interface{}{}
	conditions := []string{"1=1"}

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.From != nil {
		conditions = append(conditions, fmt.Sprintf("starts_at >= $%d", len(args)+1))
		args = append(args, *filter.From)
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY starts_at DESC LIMIT %d OFFSET %d", eventColumns, base, size, offset)

	var events []models.Event
	if err := r.db.SelectContext(ctx, &events, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list events: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count events: %w", err)
	}
	return events, total, nil
}

// FindByID fetches one event.
func (r *EventRepository) FindByID(ctx context.Context, id int64) (*models.Event, error) {
	query := fmt.Sprintf("SELECT %s FROM events WHERE id = $1", eventColumns)
	var event models.Event
	if err := r.db.GetContext(ctx, &event, query, id); err != nil {
		return nil, err
	}
	return &event, nil
}

// Create inserts an event and fills in the generated id.
func (r *EventRepository) Create(ctx context.Context, event *models.Event) error {
	now := time.Now().UTC()
	event.CreatedAt = now
	event.UpdatedAt = now
	const query = `INSERT INTO events (name, description, starts_at, location, cost, max_participants, status, registration_deadline, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id`
	if err := r.db.GetContext(ctx, &event.ID, query,
		event.Name, event.Description, event.StartsAt, event.Location, event.Cost, event.MaxParticipants,
		event.Status, event.RegistrationDeadline, event.CreatedAt, event.UpdatedAt); err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

// Update modifies an existing event.
func (r *EventRepository) Update(ctx context.Context, event *models.Event) error {
	event.UpdatedAt = time.Now().UTC()
	const query = `UPDATE events SET name = :name, description = :description, starts_at = :starts_at,
        location = :location, cost = :cost, max_participants = :max_participants, status = :status,
        registration_deadline = :registration_deadline, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, event); err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	return nil
}

// Delete removes an event record.
func (r *EventRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	return nil
}

// ListParticipationsByParticipant returns every event registration of one
// participant with the event context, newest registration first.
func (r *EventRepository) ListParticipationsByParticipant(ctx context.Context, participantID int64) ([]models.EventParticipationDetail, error) {
	const query = `SELECT ep.id, ep.event_id, ep.participant_id, ep.registration_date, ep.paid, ep.payment_id,
        ep.status, ep.notes, e.name AS event_name, e.starts_at AS event_date
        FROM event_participants ep
        JOIN events e ON e.id = ep.event_id
        WHERE ep.participant_id = $1
        ORDER BY ep.registration_date DESC, ep.id DESC`

	var participations []models.EventParticipationDetail
	if err := r.db.SelectContext(ctx, &participations, query, participantID); err != nil {
		return nil, fmt.Errorf("list event participations: %w", err)
	}
	return participations, nil
}

// ParticipationExists reports whether the pair is already registered.
func (r *EventRepository) ParticipationExists(ctx context.Context, eventID, participantID int64) (bool, error) {
	const query = `SELECT 1 FROM event_participants WHERE event_id = $1 AND participant_id = $2 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, eventID, participantID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check event registration: %w", err)
	}
	return true, nil
}

// CountParticipants returns the number of registrations for an event.
func (r *EventRepository) CountParticipants(ctx context.Context, eventID int64) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM event_participants WHERE event_id = $1`, eventID); err != nil {
		return 0, fmt.Errorf("count event participants: %w", err)
	}
	return count, nil
}

// CreateParticipation registers a participant and fills in the generated id.
func (r *EventRepository) CreateParticipation(ctx context.Context, participation *models.EventParticipant) error {
	const query = `INSERT INTO event_participants (event_id, participant_id, registration_date, paid, payment_id, status, notes)
        VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	if err := r.db.GetContext(ctx, &participation.ID, query,
		participation.EventID, participation.ParticipantID, participation.RegistrationDate,
		participation.Paid, participation.PaymentID, participation.Status, participation.Notes); err != nil {
		return fmt.Errorf("create event registration: %w", err)
	}
	return nil
}

// DeleteParticipation removes an event registration.
func (r *EventRepository) DeleteParticipation(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM event_participants WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete event registration: %w", err)
	}
	return nil
}
