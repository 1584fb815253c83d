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

// ParticipantRepository manages persistence for participant records.
type ParticipantRepository struct {
	db *sqlx.DB
}

// NewParticipantRepository constructs a ParticipantRepository.
func NewParticipantRepository(db *sqlx.DB) *ParticipantRepository {
	return &ParticipantRepository{db: db}
}

const participantColumns = `id, first_name, last_name, email, phone, birth_date, emergency_contact, emergency_phone,
        address, join_date, is_active, notes, participant_type, position_id, created_at, updated_at`

// List returns participants matching the provided filters.
func (r *ParticipantRepository) List(ctx context.Context, filter models.ParticipantFilter) ([]models.Participant, int, error) {
	base := "FROM participants"
	args := []interface{}{}
	conditions := []string{"1=1"}

	if filter.ParticipantType != "" {
		conditions = append(conditions, fmt.Sprintf("participant_type = $%d", len(args)+1))
		args = append(args, filter.ParticipantType)
	}
	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("is_active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(first_name) LIKE $%d OR LOWER(last_name) LIKE $%d OR LOWER(COALESCE(email, '')) LIKE $%d)",
			len(args)+1, len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	allowedSorts := map[string]string{
		"last_name":  "last_name",
		"join_date":  "join_date",
		"created_at": "created_at",
	}
	column, ok := allowedSorts[filter.SortBy]
	if !ok {
		column = "last_name"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s, first_name ASC LIMIT %d OFFSET %d",
		participantColumns, base, column, order, size, offset)

	var participants []models.Participant
	if err := r.db.SelectContext(ctx, &participants, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list participants: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count participants: %w", err)
	}
	return participants, total, nil
}

// FindByID fetches one participant.
func (r *ParticipantRepository) FindByID(ctx context.Context, id int64) (*models.Participant, error) {
	query := fmt.Sprintf("SELECT %s FROM participants WHERE id = $1", participantColumns)
	var participant models.Participant
	if err := r.db.GetContext(ctx, &participant, query, id); err != nil {
		return nil, err
	}
	return &participant, nil
}

// FindByIDs fetches the given participants keyed by id. Missing ids are
// simply absent from the result.
func (r *ParticipantRepository) FindByIDs(ctx context.Context, ids []int64) (map[int64]models.Participant, error) {
	result := make(map[int64]models.Participant, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	query, args, err := sqlx.In(fmt.Sprintf("SELECT %s FROM participants WHERE id IN (?)", participantColumns), ids)
	if err != nil {
		return nil, fmt.Errorf("build participant id query: %w", err)
	}
	query = r.db.Rebind(query)

	var participants []models.Participant
	if err := r.db.SelectContext(ctx, &participants, query, args...); err != nil {
		return nil, fmt.Errorf("select participants by ids: %w", err)
	}
	for _, p := range participants {
		result[p.ID] = p
	}
	return result, nil
}

// ExistsByEmail checks email uniqueness optionally excluding an id.
func (r *ParticipantRepository) ExistsByEmail(ctx context.Context, email string, excludeID int64) (bool, error) {
	query := "SELECT 1 FROM participants WHERE LOWER(email) = LOWER($1)"
	args := []interface{}{email}
	if excludeID > 0 {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check participant email: %w", err)
	}
	return true, nil
}

// Create inserts a new participant and fills in the generated id.
func (r *ParticipantRepository) Create(ctx context.Context, participant *models.Participant) error {
	now := time.Now().UTC()
	participant.CreatedAt = now
	participant.UpdatedAt = now
	const query = `INSERT INTO participants (first_name, last_name, email, phone, birth_date, emergency_contact, emergency_phone,
        address, join_date, is_active, notes, participant_type, position_id, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
        RETURNING id`
	if err := r.db.GetContext(ctx, &participant.ID, query,
		participant.FirstName, participant.LastName, participant.Email, participant.Phone, participant.BirthDate,
		participant.EmergencyContact, participant.EmergencyPhone, participant.Address, participant.JoinDate,
		participant.Active, participant.Notes, participant.ParticipantType, participant.PositionID,
		participant.CreatedAt, participant.UpdatedAt); err != nil {
		return fmt.Errorf("create participant: %w", err)
	}
	return nil
}

// Update modifies an existing participant.
func (r *ParticipantRepository) Update(ctx context.Context, participant *models.Participant) error {
	participant.UpdatedAt = time.Now().UTC()
	const query = `UPDATE participants SET first_name = :first_name, last_name = :last_name, email = :email, phone = :phone,
        birth_date = :birth_date, emergency_contact = :emergency_contact, emergency_phone = :emergency_phone,
        address = :address, join_date = :join_date, is_active = :is_active, notes = :notes,
        participant_type = :participant_type, position_id = :position_id, updated_at = :updated_at
        WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, participant); err != nil {
		return fmt.Errorf("update participant: %w", err)
	}
	return nil
}

// Deactivate marks a participant inactive. The core never hard-deletes.
func (r *ParticipantRepository) Deactivate(ctx context.Context, id int64) error {
	const query = `UPDATE participants SET is_active = false, updated_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("deactivate participant: %w", err)
	}
	return nil
}

// ListAvailableForLocker returns active participants without an occupying
// locker rental, used by the locker assignment flow.
func (r *ParticipantRepository) ListAvailableForLocker(ctx context.Context) ([]models.Participant, error) {
	query := fmt.Sprintf(`SELECT %s FROM participants p
        WHERE p.is_active = true
          AND NOT EXISTS (
            SELECT 1 FROM locker_rentals lr
            WHERE lr.participant_id = p.id AND lr.status IN ('active', 'occupied')
          )
        ORDER BY last_name, first_name`, participantColumns)

	var participants []models.Participant
	if err := r.db.SelectContext(ctx, &participants, query); err != nil {
		return nil, fmt.Errorf("list available participants: %w", err)
	}
	return participants, nil
}

// ListPositions returns staff positions for reference dropdowns.
func (r *ParticipantRepository) ListPositions(ctx context.Context) ([]models.Position, error) {
	const query = `SELECT id, name, description, salary_range, is_active, created_at FROM positions ORDER BY name`
	var positions []models.Position
	if err := r.db.SelectContext(ctx, &positions, query); err != nil {
		return nil, fmt.Errorf("list positions: %w", err)
	}
	return positions, nil
}
