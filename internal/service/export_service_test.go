package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tutorhive/tutorhive-api/internal/models"
	appErrors "github.com/tutorhive/tutorhive-api/pkg/errors"
)

type mockExportShifts struct {
	shifts []models.ShiftDetail
}

func (m *mockExportShifts) ListForVenueBetween(ctx context.Context, venueID string, from, to time.Time) ([]models.ShiftDetail, error) {
	return m.shifts, nil
}

func TestExportRotaCSV(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	shifts := &mockExportShifts{shifts: []models.ShiftDetail{
		{
			VolunteerShift: models.VolunteerShift{
				Status:   models.ShiftStatusConfirmed,
				StartsAt: time.Date(2026, 3, 5, 10, 0, 0, 0, time.UTC),
				EndsAt:   time.Date(2026, 3, 5, 12, 0, 0, 0, time.UTC),
				Note:     "bring worksheets",
			},
			VolunteerName: "Alice",
		},
	}}
	svc := NewExportService(shifts, activeVenues(), zap.NewNop(), func() time.Time { return now })

	payload, name, contentType, err := svc.Rota(context.Background(), models.Actor{UserID: "coord-1", Role: models.RoleCoordinator}, "csv", 14)
	require.NoError(t, err)
	assert.Equal(t, "rota-20260302.csv", name)
	assert.Equal(t, "text/csv", contentType)

	body := string(payload)
	assert.True(t, strings.HasPrefix(body, "Date,Start,End,Volunteer,Status,Attended,Note"))
	assert.Contains(t, body, "2026-03-05,10:00,12:00,Alice,CONFIRMED,false,bring worksheets")
}

func TestExportRotaPDF(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	svc := NewExportService(&mockExportShifts{}, activeVenues(), zap.NewNop(), func() time.Time { return now })

	payload, name, contentType, err := svc.Rota(context.Background(), models.Actor{UserID: "coord-1", Role: models.RoleCoordinator}, "pdf", 7)
	require.NoError(t, err)
	assert.Equal(t, "rota-20260302.pdf", name)
	assert.Equal(t, "application/pdf", contentType)
	assert.True(t, strings.HasPrefix(string(payload), "%PDF"))
}

func TestExportRotaUnknownFormat(t *testing.T) {
	svc := NewExportService(&mockExportShifts{}, activeVenues(), zap.NewNop(), nil)

	_, _, _, err := svc.Rota(context.Background(), models.Actor{UserID: "coord-1", Role: models.RoleCoordinator}, "xlsx", 7)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestExportRotaNoVenue(t *testing.T) {
	svc := NewExportService(&mockExportShifts{}, &mockVenueReader{}, zap.NewNop(), nil)

	_, _, _, err := svc.Rota(context.Background(), models.Actor{UserID: "coord-9", Role: models.RoleCoordinator}, "csv", 7)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
