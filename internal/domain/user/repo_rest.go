package user

import (
	"context"
	"fmt"

	"github.com/citamed/citamed/internal/platform/rest"
)

type restRepo struct {
	client *rest.Client
	anon   *rest.Client
}

// NewRestRepository returns a Repository backed by the CitaMed API. The
// anonymous client is used for login only.
func NewRestRepository(client, anon *rest.Client) Repository {
	return &restRepo{client: client, anon: anon}
}

func (r *restRepo) Login(ctx context.Context, creds Credentials) (string, error) {
	var out struct {
		Token string `json:"token"`
	}
	if err := r.anon.Post(ctx, "/auth/login", nil, creds, &out); err != nil {
		return "", err
	}
	if out.Token == "" {
		return "", fmt.Errorf("login: backend returned no token")
	}
	return out.Token, nil
}

func (r *restRepo) PatientProfile(ctx context.Context) (*PatientProfile, error) {
	var p PatientProfile
	if err := r.client.Get(ctx, "/patients/profile", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *restRepo) DoctorProfile(ctx context.Context) (*DoctorProfile, error) {
	var d DoctorProfile
	if err := r.client.Get(ctx, "/doctors/profile", nil, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *restRepo) UpdateDoctor(ctx context.Context, specialty, phone string) error {
	body := map[string]string{"specialty": specialty, "phone": phone}
	return r.client.Put(ctx, "/doctors/profile", nil, body, nil)
}
