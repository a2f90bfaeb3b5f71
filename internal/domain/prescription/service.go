package prescription

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// ErrInvalidInput marks malformed regimen parameters caught before any
// network call is made.
var ErrInvalidInput = errors.New("invalid input")

// ErrNoPrescription is returned when a regimen operation runs before a
// prescription was created or loaded.
var ErrNoPrescription = errors.New("no prescription for this appointment yet")

// DefaultAnnotations is sent when the doctor saves a prescription without
// writing anything; the backend requires a non-empty value and the client
// tolerates the omission instead of rejecting it.
const DefaultAnnotations = "Receta médica"

// Builder creates one appointment's prescription and manages its regimen
// list. It owns its snapshot exclusively: fetches replace the list wholesale
// and mutations patch it only after the backend accepted the change.
type Builder struct {
	repo         Repository
	annotDefault string
	log          zerolog.Logger

	prescription *Prescription
}

func NewBuilder(repo Repository, annotDefault string, log zerolog.Logger) *Builder {
	if annotDefault == "" {
		annotDefault = DefaultAnnotations
	}
	return &Builder{
		repo:         repo,
		annotDefault: annotDefault,
		log:          log.With().Str("component", "prescription").Logger(),
	}
}

// Prescription returns the snapshot the builder currently holds, nil before
// Create or Load.
func (b *Builder) Prescription() *Prescription {
	return b.prescription
}

// Regimens returns the current regimen list in insertion order.
func (b *Builder) Regimens() []Regimen {
	if b.prescription == nil {
		return nil
	}
	return b.prescription.Regimens
}

// Create makes the appointment's prescription. Empty annotations get the
// default placeholder. The backend rejects a duplicate create with
// AlreadyExists; that error is surfaced untouched.
func (b *Builder) Create(ctx context.Context, appointmentID int64, annotations string) (*Prescription, error) {
	if appointmentID <= 0 {
		return nil, fmt.Errorf("create prescription: appointment id %d: %w", appointmentID, ErrInvalidInput)
	}
	annotations = strings.TrimSpace(annotations)
	if annotations == "" {
		annotations = b.annotDefault
	}
	p, err := b.repo.Create(ctx, appointmentID, annotations)
	if err != nil {
		return nil, err
	}
	if p.Regimens == nil {
		p.Regimens = []Regimen{}
	}
	b.prescription = p
	b.log.Info().Int64("prescription_id", p.ID).Int64("appointment_id", appointmentID).Msg("prescription created")
	return p, nil
}

// Load replaces the builder's snapshot with the appointment's existing
// prescription as the backend currently has it.
func (b *Builder) Load(ctx context.Context, appointmentID int64) (*Prescription, error) {
	p, err := b.repo.GetByAppointment(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if p.Regimens == nil {
		p.Regimens = []Regimen{}
	}
	b.prescription = p
	return p, nil
}

// RegimenInput carries raw form input for attaching a medication. TotalDays
// stays a string so non-numeric entry is caught here rather than upstream.
type RegimenInput struct {
	MedicationID int64
	Frequency    string
	TotalDays    string
	DoseQuantity string
}

// AddRegimen validates and normalizes the input, attaches the regimen
// remotely, and appends the backend's authoritative entry to the local list.
// Validation failures return ErrInvalidInput without a network call.
func (b *Builder) AddRegimen(ctx context.Context, in RegimenInput) (*Regimen, error) {
	if b.prescription == nil {
		return nil, ErrNoPrescription
	}
	if in.MedicationID <= 0 {
		return nil, fmt.Errorf("medication id %d: %w", in.MedicationID, ErrInvalidInput)
	}
	freq, err := NormalizeFrequency(in.Frequency)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrInvalidInput)
	}
	days, err := strconv.Atoi(strings.TrimSpace(in.TotalDays))
	if err != nil {
		return nil, fmt.Errorf("total days %q is not numeric: %w", in.TotalDays, ErrInvalidInput)
	}
	if days <= 0 {
		return nil, fmt.Errorf("total days must be greater than 0, got %d: %w", days, ErrInvalidInput)
	}
	if strings.TrimSpace(in.DoseQuantity) == "" {
		return nil, fmt.Errorf("dose quantity is required: %w", ErrInvalidInput)
	}

	req := RegimenRequest{
		MedicationID: in.MedicationID,
		Frequency:    freq,
		TotalDays:    days,
		DoseQuantity: strings.TrimSpace(in.DoseQuantity),
	}
	reg, err := b.repo.AddRegimen(ctx, b.prescription.ID, req)
	if err != nil {
		return nil, err
	}
	b.prescription.Regimens = append(b.prescription.Regimens, *reg)
	b.log.Info().
		Int64("prescription_id", b.prescription.ID).
		Int64("regimen_id", reg.ID).
		Str("frequency", freq).
		Int("total_days", days).
		Msg("regimen added")
	return reg, nil
}

// RemoveRegimen detaches a regimen. The local list shrinks only after the
// backend confirmed the delete; on failure it is left untouched.
func (b *Builder) RemoveRegimen(ctx context.Context, regimenID int64) error {
	if b.prescription == nil {
		return ErrNoPrescription
	}
	if err := b.repo.RemoveRegimen(ctx, b.prescription.ID, regimenID); err != nil {
		return err
	}
	kept := b.prescription.Regimens[:0]
	for _, reg := range b.prescription.Regimens {
		if reg.ID != regimenID {
			kept = append(kept, reg)
		}
	}
	b.prescription.Regimens = kept
	return nil
}

// Catalog lists the medications available to prescribe.
func (b *Builder) Catalog(ctx context.Context) ([]Medication, error) {
	return b.repo.ListMedications(ctx)
}
