package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/tutorhive/tutorhive-api/internal/models"
	appErrors "github.com/tutorhive/tutorhive-api/pkg/errors"
	"github.com/tutorhive/tutorhive-api/pkg/export"
)

var rotaHeaders = []string{"Date", "Start", "End", "Volunteer", "Status", "Attended", "Note"}

type exportShiftReader interface {
	ListForVenueBetween(ctx context.Context, venueID string, from, to time.Time) ([]models.ShiftDetail, error)
}

type exportVenueReader interface {
	FindByCoordinator(ctx context.Context, coordinatorID string) (*models.Venue, error)
}

// ExportService renders a venue's shift rota as CSV or PDF for its
// coordinator.
type ExportService struct {
	shifts exportShiftReader
	venues exportVenueReader
	csv    *export.CSVExporter
	pdf    *export.PDFExporter
	logger *zap.Logger
	now    func() time.Time
}

// NewExportService constructs the service.
func NewExportService(shifts exportShiftReader, venues exportVenueReader, logger *zap.Logger, now func() time.Time) *ExportService {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &ExportService{
		shifts: shifts,
		venues: venues,
		csv:    export.NewCSVExporter(),
		pdf:    export.NewPDFExporter(),
		logger: logger,
		now:    now,
	}
}

// Rota renders the coordinator's venue rota for the coming days in the
// requested format ("csv" or "pdf"). Returns the payload, a suggested file
// name, and the content type.
func (s *ExportService) Rota(ctx context.Context, actor models.Actor, format string, days int) ([]byte, string, string, error) {
	if days <= 0 || days > 90 {
		days = 14
	}

	venue, err := s.venues.FindByCoordinator(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", "", appErrors.Clone(appErrors.ErrNotFound, "no venue assigned")
		}
		return nil, "", "", fmt.Errorf("resolve coordinator venue: %w", err)
	}

	now := s.now().UTC()
	shifts, err := s.shifts.ListForVenueBetween(ctx, venue.ID, now, now.AddDate(0, 0, days))
	if err != nil {
		return nil, "", "", err
	}

	dataset := export.Dataset{Headers: rotaHeaders, Rows: make([]map[string]string, 0, len(shifts))}
	for _, shift := range shifts {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Date":      shift.StartsAt.Format(occurrenceDateLayout),
			"Start":     shift.StartsAt.Format("15:04"),
			"End":       shift.EndsAt.Format("15:04"),
			"Volunteer": shift.VolunteerName,
			"Status":    string(shift.Status),
			"Attended":  strconv.FormatBool(shift.Attended),
			"Note":      shift.Note,
		})
	}

	stamp := now.Format("20060102")
	switch format {
	case "csv":
		payload, err := s.csv.Render(dataset)
		if err != nil {
			return nil, "", "", fmt.Errorf("render rota csv: %w", err)
		}
		return payload, fmt.Sprintf("rota-%s.csv", stamp), "text/csv", nil
	case "pdf":
		title := fmt.Sprintf("%s rota from %s", venue.Name, now.Format(occurrenceDateLayout))
		payload, err := s.pdf.Render(dataset, title)
		if err != nil {
			return nil, "", "", fmt.Errorf("render rota pdf: %w", err)
		}
		return payload, fmt.Sprintf("rota-%s.pdf", stamp), "application/pdf", nil
	default:
		return nil, "", "", appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
}
