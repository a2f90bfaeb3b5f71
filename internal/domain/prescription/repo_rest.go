package prescription

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/citamed/citamed/internal/platform/rest"
)

type restRepo struct {
	client *rest.Client
}

// NewRestRepository returns a Repository backed by the CitaMed API.
func NewRestRepository(client *rest.Client) Repository {
	return &restRepo{client: client}
}

func (r *restRepo) Create(ctx context.Context, appointmentID int64, annotations string) (*Prescription, error) {
	q := url.Values{}
	q.Set("appointmentId", strconv.FormatInt(appointmentID, 10))
	q.Set("annotations", annotations)
	var p Prescription
	// Creation parameters travel as query params, body stays empty.
	if err := r.client.Post(ctx, "/prescriptions", q, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *restRepo) GetByAppointment(ctx context.Context, appointmentID int64) (*Prescription, error) {
	q := url.Values{}
	q.Set("appointmentId", strconv.FormatInt(appointmentID, 10))
	var p Prescription
	if err := r.client.Get(ctx, "/prescriptions", q, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *restRepo) AddRegimen(ctx context.Context, prescriptionID int64, req RegimenRequest) (*Regimen, error) {
	var reg Regimen
	path := fmt.Sprintf("/prescriptions/%d/medications", prescriptionID)
	if err := r.client.Post(ctx, path, nil, req, &reg); err != nil {
		return nil, err
	}
	return &reg, nil
}

func (r *restRepo) RemoveRegimen(ctx context.Context, prescriptionID, regimenID int64) error {
	return r.client.Delete(ctx, fmt.Sprintf("/prescriptions/%d/medications/%d", prescriptionID, regimenID))
}

func (r *restRepo) ListMedications(ctx context.Context) ([]Medication, error) {
	var meds []Medication
	if err := r.client.Get(ctx, "/medications", nil, &meds); err != nil {
		return nil, err
	}
	return meds, nil
}
