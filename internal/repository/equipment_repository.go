package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/fitclub-crm/fitclub-api/internal/models"
)

// EquipmentRepository manages equipment inventory and rentals.
type EquipmentRepository struct {
	db *sqlx.DB
}

// NewEquipmentRepository constructs an EquipmentRepository.
func NewEquipmentRepository(db *sqlx.DB) *EquipmentRepository {
	return &EquipmentRepository{db: db}
}

const equipmentColumns = `id, name, type, size, condition, purchase_date, purchase_price,
        last_maintenance_date, next_maintenance_date, notes, created_at, updated_at`

// List returns equipment matching the filter.
func (r *EquipmentRepository) List(ctx context.Context, filter models.EquipmentFilter) ([]models.Equipment, int, error) {
	base := "FROM equipment"
	args := []interface{}{}
	conditions := []string{"1=1"}

	if filter.Type != "" {
		conditions = append(conditions, fmt.Sprintf("type = $%d", len(args)+1))
		args = append(args, filter.Type)
	}
	if filter.Condition != "" {
		conditions = append(conditions, fmt.Sprintf("condition = $%d", len(args)+1))
		args = append(args, filter.Condition)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(name) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY name LIMIT %d OFFSET %d", equipmentColumns, base, size, offset)

	var items []models.Equipment
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list equipment: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count equipment: %w", err)
	}
	return items, total, nil
}

// FindByID fetches one equipment item.
func (r *EquipmentRepository) FindByID(ctx context.Context, id int64) (*models.Equipment, error) {
	query := fmt.Sprintf("SELECT %s FROM equipment WHERE id = $1", equipmentColumns)
	var item models.Equipment
	if err := r.db.GetContext(ctx, &item, query, id); err != nil {
		return nil, err
	}
	return &item, nil
}

// Create inserts an equipment item and fills in the generated id.
func (r *EquipmentRepository) Create(ctx context.Context, item *models.Equipment) error {
	now := time.Now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now
	const query = `INSERT INTO equipment (name, type, size, condition, purchase_date, purchase_price,
        last_maintenance_date, next_maintenance_date, notes, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11) RETURNING id`
	if err := r.db.GetContext(ctx, &item.ID, query,
		item.Name, item.Type, item.Size, item.Condition, item.PurchaseDate, item.PurchasePrice,
		item.LastMaintenanceDate, item.NextMaintenanceDate, item.Notes, item.CreatedAt, item.UpdatedAt); err != nil {
		return fmt.Errorf("create equipment: %w", err)
	}
	return nil
}

// Update modifies an existing equipment item.
func (r *EquipmentRepository) Update(ctx context.Context, item *models.Equipment) error {
	item.UpdatedAt = time.Now().UTC()
	const query = `UPDATE equipment SET name = :name, type = :type, size = :size, condition = :condition,
        purchase_date = :purchase_date, purchase_price = :purchase_price,
        last_maintenance_date = :last_maintenance_date, next_maintenance_date = :next_maintenance_date,
        notes = :notes, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, item); err != nil {
		return fmt.Errorf("update equipment: %w", err)
	}
	return nil
}

// Delete removes an equipment record.
func (r *EquipmentRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM equipment WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete equipment: %w", err)
	}
	return nil
}

// ListRentalsByParticipant returns equipment rentals of one participant.
func (r *EquipmentRepository) ListRentalsByParticipant(ctx context.Context, participantID int64) ([]models.EquipmentRental, error) {
	const query = `SELECT id, participant_id, equipment_id, rental_date, return_date, actual_return_date, cost, status, notes, created_at
        FROM equipment_rentals WHERE participant_id = $1 ORDER BY rental_date DESC, id DESC`
	var rentals []models.EquipmentRental
	if err := r.db.SelectContext(ctx, &rentals, query, participantID); err != nil {
		return nil, fmt.Errorf("list equipment rentals: %w", err)
	}
	return rentals, nil
}

// FindRentalByID returns one equipment rental or sql.ErrNoRows.
func (r *EquipmentRepository) FindRentalByID(ctx context.Context, id int64) (*models.EquipmentRental, error) {
	const query = `SELECT id, participant_id, equipment_id, rental_date, return_date, actual_return_date, cost, status, notes, created_at
        FROM equipment_rentals WHERE id = $1`
	var rental models.EquipmentRental
	if err := r.db.GetContext(ctx, &rental, query, id); err != nil {
		return nil, err
	}
	return &rental, nil
}

// CreateRental inserts an equipment rental and fills in the generated id.
func (r *EquipmentRepository) CreateRental(ctx context.Context, rental *models.EquipmentRental) error {
	rental.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO equipment_rentals (participant_id, equipment_id, rental_date, return_date, actual_return_date, cost, status, notes, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`
	if err := r.db.GetContext(ctx, &rental.ID, query,
		rental.ParticipantID, rental.EquipmentID, rental.RentalDate, rental.ReturnDate,
		rental.ActualReturnDate, rental.Cost, rental.Status, rental.Notes, rental.CreatedAt); err != nil {
		return fmt.Errorf("create equipment rental: %w", err)
	}
	return nil
}

// UpdateRental modifies an existing equipment rental.
func (r *EquipmentRepository) UpdateRental(ctx context.Context, rental *models.EquipmentRental) error {
	const query = `UPDATE equipment_rentals SET return_date = :return_date, actual_return_date = :actual_return_date,
        cost = :cost, status = :status, notes = :notes WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, rental); err != nil {
		return fmt.Errorf("update equipment rental: %w", err)
	}
	return nil
}
