package appointment

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/citamed/citamed/internal/platform/auth"
)

// ErrInvalidTransition is returned for a transition the status graph does
// not allow. It is raised client-side, before any network call.
var ErrInvalidTransition = errors.New("invalid status transition")

// ErrRoleNotAllowed is returned when the caller's role may not perform the
// requested transition at all.
var ErrRoleNotAllowed = errors.New("role not allowed")

// Service tracks and mutates appointment status. Transitions are
// remote-authoritative: the snapshot's status changes only after the backend
// acknowledged the new state; on failure the prior status is kept.
//
// Both patients and doctors confirm and cancel their own appointments (the
// backend scopes by the bearer token); completing is doctor-only and the
// caller must ensure a prescription exists for the appointment first.
type Service struct {
	repo Repository
	role string
	log  zerolog.Logger
}

func NewService(repo Repository, role string, log zerolog.Logger) *Service {
	return &Service{
		repo: repo,
		role: role,
		log:  log.With().Str("component", "appointment").Logger(),
	}
}

func (s *Service) Get(ctx context.Context, id int64) (*Appointment, error) {
	return s.repo.Get(ctx, id)
}

// List returns a fresh snapshot of the caller's appointments. Each call
// replaces whatever the caller held before; snapshots are never merged.
func (s *Service) List(ctx context.Context) ([]*Appointment, error) {
	return s.repo.List(ctx)
}

// Confirm moves a PENDIENTE appointment to CONFIRMADA.
func (s *Service) Confirm(ctx context.Context, appt *Appointment) error {
	return s.transition(ctx, appt, StatusConfirmed)
}

// Cancel moves a PENDIENTE or CONFIRMADA appointment to CANCELADA. A repeat
// cancel on an already-CANCELADA snapshot fails with ErrInvalidTransition
// without touching the backend, so double submits cannot corrupt state.
func (s *Service) Cancel(ctx context.Context, appt *Appointment) error {
	return s.transition(ctx, appt, StatusCancelled)
}

// Complete moves a CONFIRMADA appointment to COMPLETADA. Doctor-only.
func (s *Service) Complete(ctx context.Context, appt *Appointment) error {
	if s.role != auth.RoleDoctor {
		return fmt.Errorf("complete appointment %d: %w", appt.ID, ErrRoleNotAllowed)
	}
	return s.transition(ctx, appt, StatusCompleted)
}

func (s *Service) transition(ctx context.Context, appt *Appointment, next Status) error {
	if appt.Status.Terminal() || !appt.Status.CanTransitionTo(next) {
		return fmt.Errorf("appointment %d: %s → %s: %w", appt.ID, appt.Status, next, ErrInvalidTransition)
	}
	if err := s.repo.UpdateStatus(ctx, appt.ID, next); err != nil {
		s.log.Warn().Int64("appointment_id", appt.ID).
			Str("from", string(appt.Status)).Str("to", string(next)).
			Err(err).Msg("transition rejected")
		return err
	}
	s.log.Info().Int64("appointment_id", appt.ID).
		Str("from", string(appt.Status)).Str("to", string(next)).
		Msg("status changed")
	appt.Status = next
	return nil
}

// Book creates a new appointment for the calling patient.
func (s *Service) Book(ctx context.Context, req BookingRequest) (*Appointment, error) {
	if s.role != auth.RolePatient {
		return nil, fmt.Errorf("book appointment: %w", ErrRoleNotAllowed)
	}
	if req.DoctorID == 0 {
		return nil, fmt.Errorf("book appointment: doctor id is required")
	}
	if req.ScheduledAt.IsZero() {
		return nil, fmt.Errorf("book appointment: date is required")
	}
	return s.repo.Create(ctx, req)
}
