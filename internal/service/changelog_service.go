package service

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/fitclub-crm/fitclub-api/internal/models"
	appErrors "github.com/fitclub-crm/fitclub-api/pkg/errors"
)

type changeLogRepository interface {
	Insert(ctx context.Context, entry *models.ChangeLog) error
	List(ctx context.Context, filter models.ChangeLogFilter) ([]models.ChangeLog, int, error)
}

// ChangeLogService records audit entries for data mutations and serves
// the read-only audit endpoint. Recording failures are logged, never
// propagated, so a broken audit trail cannot fail a mutation.
type ChangeLogService struct {
	repo   changeLogRepository
	logger *zap.Logger
}

// NewChangeLogService constructs a ChangeLogService.
func NewChangeLogService(repo changeLogRepository, logger *zap.Logger) *ChangeLogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChangeLogService{repo: repo, logger: logger}
}

// Record appends one audit entry. The payload is stored as a JSON diff.
func (s *ChangeLogService) Record(ctx context.Context, userID *int64, table string, recordID int64, action string, payload interface{}) {
	if s == nil || s.repo == nil {
		return
	}
	var data []byte
	if payload != nil {
		var err error
		data, err = json.Marshal(payload)
		if err != nil {
			s.logger.Warn("failed to marshal change payload",
				zap.String("table", table), zap.Int64("record_id", recordID), zap.Error(err))
			data = nil
		}
	}
	entry := &models.ChangeLog{
		UserID:      userID,
		TableName:   table,
		RecordID:    recordID,
		ActionType:  action,
		ChangedData: data,
	}
	if err := s.repo.Insert(ctx, entry); err != nil {
		s.logger.Warn("failed to record change log",
			zap.String("table", table), zap.Int64("record_id", recordID), zap.Error(err))
	}
}

// List returns audit entries and pagination metadata.
func (s *ChangeLogService) List(ctx context.Context, filter models.ChangeLogFilter) ([]models.ChangeLog, *models.Pagination, error) {
	entries, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list change logs")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 50
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return entries, pagination, nil
}
