package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/tutorhive/tutorhive-api/internal/dto"
	"github.com/tutorhive/tutorhive-api/internal/models"
)

type dashboardVenueReader interface {
	FindByCoordinator(ctx context.Context, coordinatorID string) (*models.Venue, error)
}

type dashboardBookingReader interface {
	ListForVenueBetween(ctx context.Context, venueID string, from, to time.Time) ([]models.Booking, error)
}

type dashboardShiftReader interface {
	ListForVenueBetween(ctx context.Context, venueID string, from, to time.Time) ([]models.ShiftDetail, error)
}

type dashboardApplicationReader interface {
	CountApprovedForVenue(ctx context.Context, venueID string) (int, error)
	ListApprovedVolunteerSubjects(ctx context.Context, venueID string) ([]models.VolunteerSubjectRow, error)
}

type dashboardSlotReader interface {
	ListByVenue(ctx context.Context, venueID string) ([]models.TimeSlot, error)
}

type dashboardSubjectReader interface {
	ListNamesByTimeSlots(ctx context.Context, timeSlotIDs []string) ([]models.TimeSlotSubjectName, error)
}

// DashboardServiceConfig tunes dashboard caching.
type DashboardServiceConfig struct {
	CacheTTL time.Duration
}

// DashboardService aggregates one venue's week for its coordinator.
type DashboardService struct {
	venues   dashboardVenueReader
	bookings dashboardBookingReader
	shifts   dashboardShiftReader
	apps     dashboardApplicationReader
	slots    dashboardSlotReader
	subjects dashboardSubjectReader
	cache    *CacheService
	logger   *zap.Logger
	cacheTTL time.Duration
	now      func() time.Time
}

// NewDashboardService constructs the service.
func NewDashboardService(
	venues dashboardVenueReader,
	bookings dashboardBookingReader,
	shifts dashboardShiftReader,
	apps dashboardApplicationReader,
	slots dashboardSlotReader,
	subjects dashboardSubjectReader,
	cache *CacheService,
	logger *zap.Logger,
	cfg DashboardServiceConfig,
	now func() time.Time,
) *DashboardService {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &DashboardService{
		venues:   venues,
		bookings: bookings,
		shifts:   shifts,
		apps:     apps,
		slots:    slots,
		subjects: subjects,
		cache:    cache,
		logger:   logger,
		cacheTTL: cfg.CacheTTL,
		now:      now,
	}
}

func dashboardCacheKey(venueID string) string {
	return "dashboard:" + venueID
}

func dashboardCachePattern(venueID string) string {
	return "dashboard:" + venueID + "*"
}

// weekStart returns the Monday 00:00 UTC opening the week containing t.
func weekStart(t time.Time) time.Time {
	t = t.UTC()
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// ForCoordinator builds the weekly summary for the coordinator's single
// active venue. A coordinator without a venue receives a zeroed summary, not
// an error.
func (s *DashboardService) ForCoordinator(ctx context.Context, actor models.Actor) (*dto.CoordinatorDashboard, error) {
	venue, err := s.venues.FindByCoordinator(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &dto.CoordinatorDashboard{
				UpcomingOccurrences: []dto.ShiftOccurrence{},
				SubjectCoverage:     []dto.SubjectCoverage{},
				VolunteerHours:      []dto.VolunteerHours{},
			}, nil
		}
		return nil, fmt.Errorf("resolve coordinator venue: %w", err)
	}

	var cached dto.CoordinatorDashboard
	if hit, err := s.cache.Get(ctx, dashboardCacheKey(venue.ID), &cached); err == nil && hit {
		return &cached, nil
	}

	summary, err := s.build(ctx, venue)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, dashboardCacheKey(venue.ID), summary, s.cacheTTL); err != nil {
		s.logger.Warn("dashboard cache write failed", zap.String("venue_id", venue.ID), zap.Error(err))
	}
	return summary, nil
}

func (s *DashboardService) build(ctx context.Context, venue *models.Venue) (*dto.CoordinatorDashboard, error) {
	now := s.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	wkStart := weekStart(now)
	wkEnd := wkStart.AddDate(0, 0, 7)
	horizon := now.AddDate(0, 0, 7)

	summary := &dto.CoordinatorDashboard{
		VenueID:             venue.ID,
		VenueName:           venue.Name,
		UpcomingOccurrences: []dto.ShiftOccurrence{},
		SubjectCoverage:     []dto.SubjectCoverage{},
		VolunteerHours:      []dto.VolunteerHours{},
	}

	weekBookings, err := s.bookings.ListForVenueBetween(ctx, venue.ID, wkStart, wkEnd)
	if err != nil {
		return nil, err
	}
	for _, b := range weekBookings {
		if b.Status != models.BookingStatusCancelled {
			summary.BookingsThisWeek++
		}
	}

	summary.ApprovedVolunteers, err = s.apps.CountApprovedForVenue(ctx, venue.ID)
	if err != nil {
		return nil, err
	}

	upcomingShifts, err := s.shifts.ListForVenueBetween(ctx, venue.ID, now, horizon)
	if err != nil {
		return nil, err
	}
	upcomingBookings, err := s.bookings.ListForVenueBetween(ctx, venue.ID, today, today.AddDate(0, 0, 8))
	if err != nil {
		return nil, err
	}

	summary.UpcomingOccurrences, err = s.groupOccurrences(ctx, upcomingShifts, upcomingBookings)
	if err != nil {
		return nil, err
	}

	slots, err := s.slots.ListByVenue(ctx, venue.ID)
	if err != nil {
		return nil, err
	}
	covered := map[string]struct{}{}
	for _, shift := range upcomingShifts {
		covered[shift.TimeSlotID] = struct{}{}
	}
	for _, slot := range slots {
		if slot.Status != models.TimeSlotStatusOpen {
			continue
		}
		if _, ok := covered[slot.ID]; !ok {
			summary.UnfilledTimeSlots++
		}
	}

	summary.SubjectCoverage, err = s.subjectCoverage(ctx, venue.ID)
	if err != nil {
		return nil, err
	}

	weekShifts, err := s.shifts.ListForVenueBetween(ctx, venue.ID, wkStart, wkEnd)
	if err != nil {
		return nil, err
	}
	summary.VolunteerHours = volunteerHours(weekShifts)

	return summary, nil
}

// groupOccurrences folds individual shift rows into per-occurrence entries
// keyed by (time slot, start, end), attaching same-day booking counts and
// slot subjects.
func (s *DashboardService) groupOccurrences(ctx context.Context, shifts []models.ShiftDetail, bookings []models.Booking) ([]dto.ShiftOccurrence, error) {
	type key struct {
		slotID string
		start  time.Time
		end    time.Time
	}

	bookingCounts := map[string]int{}
	for _, b := range bookings {
		if b.Status == models.BookingStatusCancelled {
			continue
		}
		bookingCounts[b.TimeSlotID+"|"+b.OccurrenceDate.UTC().Format(occurrenceDateLayout)]++
	}

	grouped := map[key]*dto.ShiftOccurrence{}
	order := []key{}
	slotIDs := map[string]struct{}{}
	for _, shift := range shifts {
		k := key{slotID: shift.TimeSlotID, start: shift.StartsAt, end: shift.EndsAt}
		occ, ok := grouped[k]
		if !ok {
			occ = &dto.ShiftOccurrence{
				TimeSlotID:   shift.TimeSlotID,
				StartsAt:     shift.StartsAt,
				EndsAt:       shift.EndsAt,
				BookingCount: bookingCounts[shift.TimeSlotID+"|"+shift.StartsAt.UTC().Format(occurrenceDateLayout)],
			}
			grouped[k] = occ
			order = append(order, k)
			slotIDs[shift.TimeSlotID] = struct{}{}
		}
		occ.VolunteerCount++
		occ.VolunteerNames = append(occ.VolunteerNames, shift.VolunteerName)
	}

	subjectsBySlot := map[string][]string{}
	if len(slotIDs) > 0 {
		ids := make([]string, 0, len(slotIDs))
		for id := range slotIDs {
			ids = append(ids, id)
		}
		rows, err := s.subjects.ListNamesByTimeSlots(ctx, ids)
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			subjectsBySlot[row.TimeSlotID] = append(subjectsBySlot[row.TimeSlotID], row.Name)
		}
	}

	sort.Slice(order, func(i, j int) bool { return order[i].start.Before(order[j].start) })
	out := make([]dto.ShiftOccurrence, 0, len(order))
	for _, k := range order {
		occ := grouped[k]
		occ.Subjects = subjectsBySlot[k.slotID]
		out = append(out, *occ)
	}
	return out, nil
}

func (s *DashboardService) subjectCoverage(ctx context.Context, venueID string) ([]dto.SubjectCoverage, error) {
	rows, err := s.apps.ListApprovedVolunteerSubjects(ctx, venueID)
	if err != nil {
		return nil, err
	}
	perSubject := map[string]map[string]struct{}{}
	for _, row := range rows {
		if perSubject[row.SubjectName] == nil {
			perSubject[row.SubjectName] = map[string]struct{}{}
		}
		perSubject[row.SubjectName][row.VolunteerID] = struct{}{}
	}
	out := make([]dto.SubjectCoverage, 0, len(perSubject))
	for subject, volunteers := range perSubject {
		out = append(out, dto.SubjectCoverage{Subject: subject, Volunteers: len(volunteers)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Subject < out[j].Subject })
	return out, nil
}

func volunteerHours(shifts []models.ShiftDetail) []dto.VolunteerHours {
	type entry struct {
		name  string
		hours float64
	}
	perVolunteer := map[string]*entry{}
	order := []string{}
	for _, shift := range shifts {
		e, ok := perVolunteer[shift.VolunteerID]
		if !ok {
			e = &entry{name: shift.VolunteerName}
			perVolunteer[shift.VolunteerID] = e
			order = append(order, shift.VolunteerID)
		}
		e.hours += shift.EndsAt.Sub(shift.StartsAt).Hours()
	}
	sort.Strings(order)
	out := make([]dto.VolunteerHours, 0, len(order))
	for _, id := range order {
		e := perVolunteer[id]
		out = append(out, dto.VolunteerHours{VolunteerID: id, VolunteerName: e.name, Hours: e.hours})
	}
	return out
}
