package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/fitclub-crm/fitclub-api/internal/models"
)

// LockerRepository manages lockers and their rental records.
type LockerRepository struct {
	db *sqlx.DB
}

// NewLockerRepository constructs a LockerRepository.
func NewLockerRepository(db *sqlx.DB) *LockerRepository {
	return &LockerRepository{db: db}
}

const lockerColumns = `id, number, zone, condition, monthly_rental_cost, notes`

// ListLockers returns lockers filtered by zone and condition. Status is a
// derived value and is never filtered here.
func (r *LockerRepository) ListLockers(ctx context.Context, filter models.LockerFilter) ([]models.Locker, error) {
	base := "FROM lockers"
	args := []interface{}{}
	conditions := []string{"1=1"}

	if filter.Zone != "" {
		conditions = append(conditions, fmt.Sprintf("zone = $%d", len(args)+1))
		args = append(args, filter.Zone)
	}
	if filter.Condition != "" {
		conditions = append(conditions, fmt.Sprintf("condition = $%d", len(args)+1))
		args = append(args, filter.Condition)
	}

	query := fmt.Sprintf("SELECT %s %s WHERE %s ORDER BY number",
		lockerColumns, base, strings.Join(conditions, " AND "))

	var lockers []models.Locker
	if err := r.db.SelectContext(ctx, &lockers, query, args...); err != nil {
		return nil, fmt.Errorf("list lockers: %w", err)
	}
	return lockers, nil
}

// FindLockerByID fetches one locker.
func (r *LockerRepository) FindLockerByID(ctx context.Context, id int64) (*models.Locker, error) {
	query := fmt.Sprintf("SELECT %s FROM lockers WHERE id = $1", lockerColumns)
	var locker models.Locker
	if err := r.db.GetContext(ctx, &locker, query, id); err != nil {
		return nil, err
	}
	return &locker, nil
}

// ExistsByNumber checks locker number uniqueness optionally excluding an id.
func (r *LockerRepository) ExistsByNumber(ctx context.Context, number string, excludeID int64) (bool, error) {
	query := "SELECT 1 FROM lockers WHERE number = $1"
	args := []interface{}{number}
	if excludeID > 0 {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check locker number: %w", err)
	}
	return true, nil
}

// CreateLocker inserts a locker and fills in the generated id.
func (r *LockerRepository) CreateLocker(ctx context.Context, locker *models.Locker) error {
	const query = `INSERT INTO lockers (number, zone, condition, monthly_rental_cost, notes)
        VALUES ($1, $2, $3, $4, $5) RETURNING id`
	if err := r.db.GetContext(ctx, &locker.ID, query,
		locker.Number, locker.Zone, locker.Condition, locker.MonthlyRentalCost, locker.Notes); err != nil {
		return fmt.Errorf("create locker: %w", err)
	}
	return nil
}

// UpdateLocker modifies an existing locker.
func (r *LockerRepository) UpdateLocker(ctx context.Context, locker *models.Locker) error {
	const query = `UPDATE lockers SET number = :number, zone = :zone, condition = :condition,
        monthly_rental_cost = :monthly_rental_cost, notes = :notes WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, locker); err != nil {
		return fmt.Errorf("update locker: %w", err)
	}
	return nil
}

// DeleteLocker removes a locker record.
func (r *LockerRepository) DeleteLocker(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM lockers WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete locker: %w", err)
	}
	return nil
}

const rentalColumns = `id, locker_id, participant_id, start_date, actual_end_date, status, rental_cost, payment_period,
        auto_renew, key_issued, key_issue_date, key_return_date, payment_id, notes`

// ListOccupyingRentals returns every rental currently claiming a locker.
// The occupancy resolver groups and disambiguates them per locker.
func (r *LockerRepository) ListOccupyingRentals(ctx context.Context) ([]models.LockerRental, error) {
	query := fmt.Sprintf(`SELECT %s FROM locker_rentals WHERE status IN ($1, $2) ORDER BY locker_id, id`,
		rentalColumns)
	var rentals []models.LockerRental
	if err := r.db.SelectContext(ctx, &rentals, query, models.RentalStatusActive, models.RentalStatusOccupied); err != nil {
		return nil, fmt.Errorf("list occupying rentals: %w", err)
	}
	return rentals, nil
}

// ListOccupyingRentalsByLocker returns the occupying rentals of one locker.
func (r *LockerRepository) ListOccupyingRentalsByLocker(ctx context.Context, lockerID int64) ([]models.LockerRental, error) {
	query := fmt.Sprintf(`SELECT %s FROM locker_rentals WHERE locker_id = $1 AND status IN ($2, $3) ORDER BY id`,
		rentalColumns)
	var rentals []models.LockerRental
	if err := r.db.SelectContext(ctx, &rentals, query, lockerID, models.RentalStatusActive, models.RentalStatusOccupied); err != nil {
		return nil, fmt.Errorf("list locker rentals: %w", err)
	}
	return rentals, nil
}

// ListRentalsByParticipant returns all rentals of one participant with the
// locker context shown on the participant card, newest start first.
func (r *LockerRepository) ListRentalsByParticipant(ctx context.Context, participantID int64) ([]models.LockerRentalDetail, error) {
	const query = `SELECT lr.id, lr.locker_id, lr.participant_id, lr.start_date, lr.actual_end_date, lr.status,
        lr.rental_cost, lr.payment_period, lr.auto_renew, lr.key_issued, lr.key_issue_date, lr.key_return_date,
        lr.payment_id, lr.notes, l.number AS locker_number, l.zone AS locker_zone
        FROM locker_rentals lr
        JOIN lockers l ON l.id = lr.locker_id
        WHERE lr.participant_id = $1
        ORDER BY lr.start_date DESC, lr.id DESC`

	var rentals []models.LockerRentalDetail
	if err := r.db.SelectContext(ctx, &rentals, query, participantID); err != nil {
		return nil, fmt.Errorf("list participant rentals: %w", err)
	}
	return rentals, nil
}

// FindRentalByID fetches one locker rental.
func (r *LockerRepository) FindRentalByID(ctx context.Context, id int64) (*models.LockerRental, error) {
	query := fmt.Sprintf("SELECT %s FROM locker_rentals WHERE id = $1", rentalColumns)
	var rental models.LockerRental
	if err := r.db.GetContext(ctx, &rental, query, id); err != nil {
		return nil, err
	}
	return &rental, nil
}

// CreateRental inserts a locker rental and fills in the generated id.
func (r *LockerRepository) CreateRental(ctx context.Context, rental *models.LockerRental) error {
	const query = `INSERT INTO locker_rentals (locker_id, participant_id, start_date, actual_end_date, status, rental_cost,
        payment_period, auto_renew, key_issued, key_issue_date, key_return_date, payment_id, notes)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13) RETURNING id`
	if err := r.db.GetContext(ctx, &rental.ID, query,
		rental.LockerID, rental.ParticipantID, rental.StartDate, rental.ActualEndDate, rental.Status,
		rental.RentalCost, rental.PaymentPeriod, rental.AutoRenew, rental.KeyIssued, rental.KeyIssueDate,
		rental.KeyReturnDate, rental.PaymentID, rental.Notes); err != nil {
		return fmt.Errorf("create locker rental: %w", err)
	}
	return nil
}

// UpdateRental modifies an existing locker rental.
func (r *LockerRepository) UpdateRental(ctx context.Context, rental *models.LockerRental) error {
	const query = `UPDATE locker_rentals SET locker_id = :locker_id, participant_id = :participant_id,
        start_date = :start_date, actual_end_date = :actual_end_date, status = :status, rental_cost = :rental_cost,
        payment_period = :payment_period, auto_renew = :auto_renew, key_issued = :key_issued,
        key_issue_date = :key_issue_date, key_return_date = :key_return_date, payment_id = :payment_id,
        notes = :notes WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, rental); err != nil {
		return fmt.Errorf("update locker rental: %w", err)
	}
	return nil
}
