package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tutorhive/tutorhive-api/pkg/config"
	"github.com/tutorhive/tutorhive-api/pkg/jobs"
	"github.com/tutorhive/tutorhive-api/pkg/mail"
)

const jobTypeEmail = "email"

// NotifyService sends best-effort notification mail through a background
// queue. A disabled service drops every message silently so callers never
// branch on configuration.
type NotifyService struct {
	queue   *jobs.Queue
	logger  *zap.Logger
	enabled bool
}

// NewNotifyService wires the sender behind a worker queue.
func NewNotifyService(sender mail.Sender, cfg config.EmailConfig, logger *zap.Logger) *NotifyService {
	s := &NotifyService{logger: logger, enabled: cfg.Enabled && sender != nil}
	if !s.enabled {
		return s
	}
	s.queue = jobs.NewQueue(jobTypeEmail, func(ctx context.Context, job jobs.Job) error {
		msg, ok := job.Payload.(mail.Message)
		if !ok {
			return fmt.Errorf("unexpected payload type %T", job.Payload)
		}
		return sender.Send(ctx, msg)
	}, jobs.QueueConfig{
		Workers:    cfg.Workers,
		MaxRetries: cfg.MaxRetries,
		Logger:     logger,
	})
	return s
}

// Start launches the mail workers.
func (s *NotifyService) Start() {
	if s != nil && s.enabled {
		s.queue.Start()
	}
}

// Stop drains the mail workers.
func (s *NotifyService) Stop() {
	if s != nil && s.enabled {
		s.queue.Stop()
	}
}

func (s *NotifyService) send(to, subject, body string) {
	if s == nil || !s.enabled || to == "" {
		return
	}
	err := s.queue.Enqueue(jobs.Job{
		ID:      uuid.NewString(),
		Type:    jobTypeEmail,
		Payload: mail.Message{To: to, Subject: subject, Body: body},
	})
	if err != nil && s.logger != nil {
		s.logger.Warn("notification dropped", zap.String("to", to), zap.Error(err))
	}
}

// BookingConfirmed notifies the booker that their seat is reserved.
func (s *NotifyService) BookingConfirmed(to, venueName, date, startTime string) {
	s.send(to, "Booking confirmed",
		fmt.Sprintf("Your tutoring session at %s on %s at %s is confirmed.", venueName, date, startTime))
}

// BookingCancelled notifies the booker of a successful cancellation.
func (s *NotifyService) BookingCancelled(to, venueName, date string) {
	s.send(to, "Booking cancelled",
		fmt.Sprintf("Your booking at %s on %s has been cancelled.", venueName, date))
}

// ApplicationDecided notifies a volunteer of the coordinator's decision.
func (s *NotifyService) ApplicationDecided(to, venueName string, approved bool) {
	outcome := "approved"
	if !approved {
		outcome = "declined"
	}
	s.send(to, "Volunteer application update",
		fmt.Sprintf("Your application to volunteer at %s has been %s.", venueName, outcome))
}

// ShiftConfirmed notifies a volunteer that their shift is booked.
func (s *NotifyService) ShiftConfirmed(to, venueName, startsAt string) {
	s.send(to, "Shift confirmed",
		fmt.Sprintf("You are signed up for a shift at %s starting %s.", venueName, startsAt))
}
