// Package dosing derives when each prescribed medication is due next and
// tracks dose-adherence progress. All projections are pure functions of
// wall-clock time and regimen parameters; the backend owns the real
// counters.
//
// The backend does not report when a dose was actually last taken, so the
// countdown reference is the client's last observed dose event (regimen
// attach, snapshot load, or a recorded dose). That is an approximation: a
// faithful countdown needs an authoritative last-dose timestamp from the
// backend. Reference times survive snapshot replacement for regimens
// already being tracked, so a refetch does not restart their countdowns.
package dosing

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/citamed/citamed/internal/domain/prescription"
)

// ErrAllDosesTaken rejects a dose record when the local counter already
// reached the expected total. No network call is made; the backend would
// refuse it anyway.
var ErrAllDosesTaken = errors.New("all doses already taken")

// Countdown is time remaining until the next dose, decomposed for display.
// Never negative: an overdue dose shows as zero.
type Countdown struct {
	Hours   int
	Minutes int
}

func (c Countdown) Zero() bool {
	return c.Hours == 0 && c.Minutes == 0
}

func (c Countdown) String() string {
	return fmt.Sprintf("%02dh %02dm", c.Hours, c.Minutes)
}

// NextDose projects the next due time from the last known dose event.
func NextDose(reference time.Time, interval time.Duration) time.Time {
	return reference.Add(interval)
}

// Remaining clamps next−now at zero and floors it to whole hours/minutes.
func Remaining(next, now time.Time) Countdown {
	left := next.Sub(now)
	if left < 0 {
		left = 0
	}
	hours := int(left / time.Hour)
	minutes := int(left%time.Hour) / int(time.Minute)
	return Countdown{Hours: hours, Minutes: minutes}
}

// Repository is the remote surface for recording doses.
type Repository interface {
	RecordDose(ctx context.Context, regimenID int64) error
}

// Status is one regimen's derived dosing state at a point in time.
type Status struct {
	Regimen  prescription.Regimen
	NextAt   time.Time
	Left     Countdown
	Finished bool
}

// Tracker owns one view's regimen set and its per-regimen reference times.
// Safe for use from the owning view and the watcher tick concurrently.
type Tracker struct {
	repo Repository
	log  zerolog.Logger

	mu        sync.Mutex
	regimens  []prescription.Regimen
	reference map[int64]time.Time
}

func NewTracker(repo Repository, log zerolog.Logger) *Tracker {
	return &Tracker{
		repo:      repo,
		log:       log.With().Str("component", "dosing").Logger(),
		reference: make(map[int64]time.Time),
	}
}

// SetRegimens replaces the tracked set wholesale with a fresh snapshot.
// Reference times of regimens already tracked are kept so a refetch does not
// restart their countdowns; new regimens start counting from now.
func (t *Tracker) SetRegimens(regs []prescription.Regimen, now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	seen := make(map[int64]bool, len(regs))
	for _, reg := range regs {
		seen[reg.ID] = true
		if _, ok := t.reference[reg.ID]; !ok {
			t.reference[reg.ID] = now
		}
	}
	for id := range t.reference {
		if !seen[id] {
			delete(t.reference, id)
		}
	}
	t.regimens = append([]prescription.Regimen(nil), regs...)
}

// Statuses derives the dosing state of every tracked regimen at now, in the
// regimen list's insertion order. Regimens with an unparseable frequency are
// reported as due now rather than dropped.
func (t *Tracker) Statuses(now time.Time) []Status {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Status, 0, len(t.regimens))
	for _, reg := range t.regimens {
		st := Status{Regimen: reg, Finished: reg.Finished()}
		interval, err := reg.Interval()
		if err != nil {
			t.log.Warn().Int64("regimen_id", reg.ID).Str("frequency", reg.Frequency).Msg("bad frequency, treating dose as due")
			st.NextAt = now
		} else {
			st.NextAt = NextDose(t.reference[reg.ID], interval)
		}
		st.Left = Remaining(st.NextAt, now)
		out = append(out, st)
	}
	return out
}

// RecordDose reports one taken dose. Finished regimens are rejected before
// any network call. On backend success the local counter is bumped by
// exactly one and the countdown restarts from now; on failure nothing
// changes locally and the next full fetch reconciles with the backend.
func (t *Tracker) RecordDose(ctx context.Context, regimenID int64, now time.Time) error {
	t.mu.Lock()
	idx := -1
	for i, reg := range t.regimens {
		if reg.ID == regimenID {
			idx = i
			break
		}
	}
	if idx < 0 {
		t.mu.Unlock()
		return fmt.Errorf("regimen %d is not tracked", regimenID)
	}
	if t.regimens[idx].Finished() {
		t.mu.Unlock()
		return fmt.Errorf("regimen %d: %w", regimenID, ErrAllDosesTaken)
	}
	t.mu.Unlock()

	if err := t.repo.RecordDose(ctx, regimenID); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	// The set may have been replaced while the request was in flight; apply
	// the optimistic bump only if the regimen is still tracked.
	for i, reg := range t.regimens {
		if reg.ID != regimenID {
			continue
		}
		t.regimens[i].DosesTaken++
		t.reference[regimenID] = now
		t.log.Info().Int64("regimen_id", regimenID).
			Int("doses_taken", t.regimens[i].DosesTaken).
			Int("total_doses", t.regimens[i].TotalDoses).
			Msg("dose recorded")
		break
	}
	return nil
}
