// Package engine wires the prescription and dosing workflow together: the
// appointment state tracker, the prescription builder, and the dose
// scheduler, all over one authenticated gateway. Screens (CLI commands)
// obtain their collaborators here and own the snapshots they fetch; the
// engine holds no cross-screen cache.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/citamed/citamed/internal/config"
	"github.com/citamed/citamed/internal/domain/appointment"
	"github.com/citamed/citamed/internal/domain/dosing"
	"github.com/citamed/citamed/internal/domain/prescription"
	"github.com/citamed/citamed/internal/domain/schedule"
	"github.com/citamed/citamed/internal/domain/user"
	"github.com/citamed/citamed/internal/platform/auth"
	"github.com/citamed/citamed/internal/platform/rest"
)

// ErrNotLoggedIn is returned by operations that need a session when no token
// is stored.
var ErrNotLoggedIn = errors.New("not logged in")

// ErrPrescriptionRequired guards completing a consultation: an appointment
// may only go COMPLETADA once its prescription exists.
var ErrPrescriptionRequired = errors.New("appointment has no prescription yet")

type Engine struct {
	cfg    *config.Config
	log    zerolog.Logger
	tokens *auth.TokenStore
	client *rest.Client
	users  user.Repository

	session    auth.Session
	hasSession bool
}

// New builds the engine from configuration. A stored token, if any, is
// parsed into the session; an absent token leaves the engine logged out but
// usable for Login.
func New(cfg *config.Config, log zerolog.Logger) *Engine {
	tokens := auth.NewTokenStore(cfg.TokenFile)
	client := rest.NewClient(cfg.APIBaseURL, tokens, cfg.HTTPTimeout(), log)
	anon := rest.NewClient(cfg.APIBaseURL, nil, cfg.HTTPTimeout(), log)

	e := &Engine{
		cfg:    cfg,
		log:    log,
		tokens: tokens,
		client: client,
		users:  user.NewRestRepository(client, anon),
	}
	if token, err := tokens.Token(); err == nil {
		if sess, err := auth.ParseSession(token); err == nil {
			e.session = sess
			e.hasSession = true
		} else {
			log.Warn().Err(err).Msg("stored token is not parseable, ignoring")
		}
	}
	return e
}

// Session returns the current identity. The second result is false when no
// valid token is stored.
func (e *Engine) Session() (auth.Session, bool) {
	return e.session, e.hasSession
}

// Login exchanges credentials for a token, persists it, and switches the
// engine to the new session.
func (e *Engine) Login(ctx context.Context, email, password string) (auth.Session, error) {
	token, err := e.users.Login(ctx, user.Credentials{Email: email, Password: password})
	if err != nil {
		return auth.Session{}, err
	}
	sess, err := auth.ParseSession(token)
	if err != nil {
		return auth.Session{}, fmt.Errorf("backend token: %w", err)
	}
	if err := e.tokens.Save(token); err != nil {
		return auth.Session{}, err
	}
	e.session = sess
	e.hasSession = true
	e.log.Info().Str("role", sess.Role).Str("user", sess.Name).Msg("logged in")
	return sess, nil
}

// Logout drops the stored token.
func (e *Engine) Logout() error {
	e.hasSession = false
	e.session = auth.Session{}
	return e.tokens.Clear()
}

func (e *Engine) requireSession() error {
	if !e.hasSession {
		return ErrNotLoggedIn
	}
	if e.session.Expired(time.Now()) {
		return fmt.Errorf("session for %s expired: %w", e.session.Name, ErrNotLoggedIn)
	}
	return nil
}

// Appointments returns the state tracker bound to the session's role.
func (e *Engine) Appointments() (*appointment.Service, error) {
	if err := e.requireSession(); err != nil {
		return nil, err
	}
	repo := appointment.NewRestRepository(e.client)
	return appointment.NewService(repo, e.session.Role, e.log), nil
}

// NewPrescriptionBuilder returns a fresh builder for one appointment's
// prescription flow. Each call returns an independent instance owning its
// own snapshot.
func (e *Engine) NewPrescriptionBuilder() (*prescription.Builder, error) {
	if err := e.requireSession(); err != nil {
		return nil, err
	}
	repo := prescription.NewRestRepository(e.client)
	return prescription.NewBuilder(repo, e.cfg.DefaultAnnotation, e.log), nil
}

// NewDoseTracker returns a fresh dose tracker for one view's regimen set.
func (e *Engine) NewDoseTracker() (*dosing.Tracker, error) {
	if err := e.requireSession(); err != nil {
		return nil, err
	}
	return dosing.NewTracker(dosing.NewRestRepository(e.client), e.log), nil
}

// Schedules returns the schedule service.
func (e *Engine) Schedules() (*schedule.Service, error) {
	if err := e.requireSession(); err != nil {
		return nil, err
	}
	return schedule.NewService(schedule.NewRestRepository(e.client), e.log), nil
}

// Users returns the profile repository.
func (e *Engine) Users() (user.Repository, error) {
	if err := e.requireSession(); err != nil {
		return nil, err
	}
	return e.users, nil
}

// FinishConsultation is the doctor's save-prescription flow: it refuses to
// complete the appointment until its prescription exists, then transitions
// CONFIRMADA → COMPLETADA, which finalizes the prescription implicitly.
func (e *Engine) FinishConsultation(ctx context.Context, svc *appointment.Service, b *prescription.Builder, appt *appointment.Appointment) error {
	if b.Prescription() == nil {
		return fmt.Errorf("appointment %d: %w", appt.ID, ErrPrescriptionRequired)
	}
	return svc.Complete(ctx, appt)
}
