package user

import "context"

// Repository is the remote backend surface for sessions and profiles.
type Repository interface {
	// Login exchanges credentials for a bearer token. The only operation
	// that runs without one.
	Login(ctx context.Context, creds Credentials) (string, error)
	PatientProfile(ctx context.Context) (*PatientProfile, error)
	DoctorProfile(ctx context.Context) (*DoctorProfile, error)
	// UpdateDoctor changes the calling doctor's editable fields.
	UpdateDoctor(ctx context.Context, specialty, phone string) error
}
