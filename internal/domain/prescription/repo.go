package prescription

import "context"

// Repository is the remote backend surface for prescriptions and the
// medication catalog.
type Repository interface {
	Create(ctx context.Context, appointmentID int64, annotations string) (*Prescription, error)
	// GetByAppointment returns the prescription owned by an appointment, or
	// a rest.ErrNotFound-wrapped error when none exists yet.
	GetByAppointment(ctx context.Context, appointmentID int64) (*Prescription, error)
	AddRegimen(ctx context.Context, prescriptionID int64, req RegimenRequest) (*Regimen, error)
	RemoveRegimen(ctx context.Context, prescriptionID, regimenID int64) error
	ListMedications(ctx context.Context) ([]Medication, error)
}

// RegimenRequest is the attach payload. Frequency is already normalized to
// "HH:MM" by the service before it reaches the repository.
type RegimenRequest struct {
	MedicationID int64  `json:"medicationId"`
	Frequency    string `json:"frequency"`
	TotalDays    int    `json:"totalDays"`
	DoseQuantity string `json:"doseQuantity"`
}
