package schedule

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

func (r *restRepo) ListByDay(ctx context.Context, day string) ([]Block, error) {
	q := url.Values{}
	q.Set("day", day)
	var blocks []Block
	if err := r.client.Get(ctx, "/schedules", q, &blocks); err != nil {
		return nil, err
	}
	return blocks, nil
}

func (r *restRepo) ListOwn(ctx context.Context) ([]Block, error) {
	var blocks []Block
	if err := r.client.Get(ctx, "/schedules/mine", nil, &blocks); err != nil {
		return nil, err
	}
	return blocks, nil
}

func (r *restRepo) Create(ctx context.Context, block Block) (*Block, error) {
	var created Block
	if err := r.client.Post(ctx, "/schedules", nil, block, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *restRepo) Delete(ctx context.Context, id int64) error {
	return r.client.Delete(ctx, fmt.Sprintf("/schedules/%d", id))
}
