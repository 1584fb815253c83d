package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/fitclub-crm/fitclub-api/internal/models"
	appErrors "github.com/fitclub-crm/fitclub-api/pkg/errors"
	"github.com/fitclub-crm/fitclub-api/pkg/export"
)

// Report formats supported by the export endpoints.
const (
	ReportFormatCSV = "csv"
	ReportFormatPDF = "pdf"
)

type reportParticipantRepository interface {
	List(ctx context.Context, filter models.ParticipantFilter) ([]models.Participant, int, error)
	FindByID(ctx context.Context, id int64) (*models.Participant, error)
}

type reportPaymentRepository interface {
	ListByParticipant(ctx context.Context, participantID int64) ([]models.Payment, error)
}

// ReportFile is a rendered export ready to stream to the client.
type ReportFile struct {
	FileName    string
	ContentType string
	Content     []byte
}

// ReportService renders the member roster and payment history exports.
type ReportService struct {
	participants reportParticipantRepository
	payments     reportPaymentRepository
	csv          *export.CSVExporter
	pdf          *export.PDFExporter
	enabled      bool
	logger       *zap.Logger
}

// NewReportService constructs the report service.
func NewReportService(participants reportParticipantRepository, payments reportPaymentRepository, enabled bool, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		participants: participants,
		payments:     payments,
		csv:          export.NewCSVExporter(),
		pdf:          export.NewPDFExporter(),
		enabled:      enabled,
		logger:       logger,
	}
}

// Enabled reports whether export endpoints are active.
func (s *ReportService) Enabled() bool {
	return s != nil && s.enabled
}

// MemberRoster renders the participant roster in the requested format.
func (s *ReportService) MemberRoster(ctx context.Context, filter models.ParticipantFilter, format string) (*ReportFile, error) {
	if !s.Enabled() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "reports are disabled")
	}
	format = strings.ToLower(format)
	if format != ReportFormatCSV && format != ReportFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported report format")
	}

	filter.Page = 1
	filter.PageSize = 100
	var all []models.Participant
	for {
		batch, total, err := s.participants.List(ctx, filter)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load participants")
		}
		all = append(all, batch...)
		if len(all) >= total || len(batch) == 0 {
			break
		}
		filter.Page++
	}

	dataset := export.Dataset{
		Headers: []string{"ID", "Last Name", "First Name", "Email", "Phone", "Type", "Joined", "Active"},
	}
	for _, p := range all {
		row := map[string]string{
			"ID":         fmt.Sprintf("%d", p.ID),
			"Last Name":  p.LastName,
			"First Name": p.FirstName,
			"Type":       p.ParticipantType,
			"Joined":     p.JoinDate.Format("2006-01-02"),
			"Active":     fmt.Sprintf("%t", p.Active),
		}
		if p.Email != nil {
			row["Email"] = *p.Email
		}
		if p.Phone != nil {
			row["Phone"] = *p.Phone
		}
		dataset.Rows = append(dataset.Rows, row)
	}

	return s.render(dataset, "member roster", "member_roster", format)
}

// PaymentHistory renders one participant's payment history in the
// requested format.
func (s *ReportService) PaymentHistory(ctx context.Context, participantID int64, format string) (*ReportFile, error) {
	if !s.Enabled() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "reports are disabled")
	}
	format = strings.ToLower(format)
	if format != ReportFormatCSV && format != ReportFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported report format")
	}

	participant, err := s.participants.FindByID(ctx, participantID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "participant not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load participant")
	}

	payments, err := s.payments.ListByParticipant(ctx, participantID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payments")
	}

	dataset := export.Dataset{
		Headers: []string{"Date", "Amount", "Method", "Purpose", "Status"},
	}
	for _, payment := range payments {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Date":    payment.PaymentDate.Format("2006-01-02"),
			"Amount":  fmt.Sprintf("%.2f", payment.Amount),
			"Method":  payment.PaymentMethod,
			"Purpose": payment.Purpose,
			"Status":  payment.Status,
		})
	}

	title := fmt.Sprintf("payments: %s", participant.FullName())
	return s.render(dataset, title, fmt.Sprintf("payments_%d", participantID), format)
}

func (s *ReportService) render(dataset export.Dataset, title, baseName, format string) (*ReportFile, error) {
	switch format {
	case ReportFormatCSV:
		content, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return &ReportFile{FileName: baseName + ".csv", ContentType: "text/csv", Content: content}, nil
	case ReportFormatPDF:
		content, err := s.pdf.Render(dataset, title)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return &ReportFile{FileName: baseName + ".pdf", ContentType: "application/pdf", Content: content}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported report format")
	}
}
