package dosing

import (
	"context"
	"fmt"

	"github.com/citamed/citamed/internal/platform/rest"
)

type restRepo struct {
	client *rest.Client
}

// NewRestRepository returns a Repository backed by the CitaMed API.
func NewRestRepository(client *rest.Client) Repository {
	return &restRepo{client: client}
}

func (r *restRepo) RecordDose(ctx context.Context, regimenID int64) error {
	return r.client.Put(ctx, fmt.Sprintf("/medications-prescribed/%d/dose", regimenID), nil, nil, nil)
}
