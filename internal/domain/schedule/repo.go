package schedule

import "context"

// Repository is the remote backend surface for doctor schedules.
type Repository interface {
	// ListByDay returns every doctor's blocks for a weekday; patients use it
	// to find bookable slots.
	ListByDay(ctx context.Context, day string) ([]Block, error)
	// ListOwn returns the calling doctor's blocks.
	ListOwn(ctx context.Context) ([]Block, error)
	Create(ctx context.Context, block Block) (*Block, error)
	Delete(ctx context.Context, id int64) error
}
