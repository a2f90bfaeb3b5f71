package appointment

import "context"

// Repository is the remote backend surface the appointment service needs.
// The only implementation outside tests talks to the CitaMed REST API; the
// backend decides what the caller's role may see and do.
type Repository interface {
	Get(ctx context.Context, id int64) (*Appointment, error)
	// List returns the caller's appointments, scoped by the backend to the
	// role and identity in the bearer token.
	List(ctx context.Context) ([]*Appointment, error)
	UpdateStatus(ctx context.Context, id int64, status Status) error
	Create(ctx context.Context, req BookingRequest) (*Appointment, error)
}
