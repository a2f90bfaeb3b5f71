package appointment

import (
	"context"
	"fmt"
	"net/url"

	"github.com/citamed/citamed/internal/platform/rest"
)

type restRepo struct {
	client *rest.Client
}

// NewRestRepository returns a Repository backed by the CitaMed API.
func NewRestRepository(client *rest.Client) Repository {
	return &restRepo{client: client}
}

func (r *restRepo) Get(ctx context.Context, id int64) (*Appointment, error) {
	var appt Appointment
	if err := r.client.Get(ctx, fmt.Sprintf("/appointments/%d", id), nil, &appt); err != nil {
		return nil, err
	}
	return &appt, nil
}

func (r *restRepo) List(ctx context.Context) ([]*Appointment, error) {
	var appts []*Appointment
	if err := r.client.Get(ctx, "/appointments", nil, &appts); err != nil {
		return nil, err
	}
	return appts, nil
}

func (r *restRepo) UpdateStatus(ctx context.Context, id int64, status Status) error {
	q := url.Values{}
	q.Set("newStatus", string(status))
	return r.client.Put(ctx, fmt.Sprintf("/appointments/%d/status", id), q, nil, nil)
}

func (r *restRepo) Create(ctx context.Context, req BookingRequest) (*Appointment, error) {
	var appt Appointment
	if err := r.client.Post(ctx, "/appointments", nil, req, &appt); err != nil {
		return nil, err
	}
	return &appt, nil
}
