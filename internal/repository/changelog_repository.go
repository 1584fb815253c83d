package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/fitclub-crm/fitclub-api/internal/models"
)

// ChangeLogRepository appends and reads audit records. Rows are never
// updated or deleted.
type ChangeLogRepository struct {
	db *sqlx.DB
}

// NewChangeLogRepository constructs a ChangeLogRepository.
func NewChangeLogRepository(db *sqlx.DB) *ChangeLogRepository {
	return &ChangeLogRepository{db: db}
}

// Insert appends one audit record.
func (r *ChangeLogRepository) Insert(ctx context.Context, entry *models.ChangeLog) error {
	if entry.ChangeTime.IsZero() {
		entry.ChangeTime = time.Now().UTC()
	}
	const query = `INSERT INTO change_logs (user_id, table_name, record_id, action_type, changed_data, change_time)
        VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	if err := r.db.GetContext(ctx, &entry.ID, query,
		entry.UserID, entry.TableName, entry.RecordID, entry.ActionType, entry.ChangedData, entry.ChangeTime); err != nil {
		return fmt.Errorf("insert change log: %w", err)
	}
	return nil
}

// List returns audit records matching the filter, newest first.
func (r *ChangeLogRepository) List(ctx context.Context, filter models.ChangeLogFilter) ([]models.ChangeLog, int, error) {
	base := "FROM change_logs"
	args := []interface{}{}
	conditions := []string{"1=1"}

	if filter.TableName != "" {
		conditions = append(conditions, fmt.Sprintf("table_name = $%d", len(args)+1))
		args = append(args, filter.TableName)
	}
	if filter.RecordID > 0 {
		conditions = append(conditions, fmt.Sprintf("record_id = $%d", len(args)+1))
		args = append(args, filter.RecordID)
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT id, user_id, table_name, record_id, action_type, changed_data, change_time
        %s ORDER BY change_time DESC, id DESC LIMIT %d OFFSET %d`, base, size, offset)

	var entries []models.ChangeLog
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list change logs: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count change logs: %w", err)
	}
	return entries, total, nil
}
