package schedule

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
)

// Service assembles doctor availability for booking and manages the calling
// doctor's own weekly blocks.
type Service struct {
	repo Repository
	log  zerolog.Logger
}

func NewService(repo Repository, log zerolog.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log.With().Str("component", "schedule").Logger(),
	}
}

// AvailabilityFor lists each doctor attending on the given date with their
// bookable slots, doctors ordered by name, slots in time order.
func (s *Service) AvailabilityFor(ctx context.Context, date time.Time) ([]Availability, error) {
	day := WeekdayName(date)
	blocks, err := s.repo.ListByDay(ctx, day)
	if err != nil {
		return nil, err
	}

	byDoctor := make(map[int64]*Availability)
	for _, block := range blocks {
		avail, ok := byDoctor[block.Doctor.ID]
		if !ok {
			avail = &Availability{Doctor: block.Doctor}
			byDoctor[block.Doctor.ID] = avail
		}
		avail.Slots = append(avail.Slots, SlotsBetween(block.StartTime, block.EndTime)...)
	}

	out := make([]Availability, 0, len(byDoctor))
	for _, avail := range byDoctor {
		sort.Strings(avail.Slots)
		out = append(out, *avail)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Doctor.Name < out[j].Doctor.Name })
	return out, nil
}

// ListOwn returns the calling doctor's blocks.
func (s *Service) ListOwn(ctx context.Context) ([]Block, error) {
	return s.repo.ListOwn(ctx)
}

// AddBlock creates a weekly block for the calling doctor after validating
// the span locally.
func (s *Service) AddBlock(ctx context.Context, day, start, end string) (*Block, error) {
	if !validDay(day) {
		return nil, fmt.Errorf("unknown weekday %q", day)
	}
	if len(SlotsBetween(start, end)) == 0 {
		return nil, fmt.Errorf("span %s–%s has no bookable slots", start, end)
	}
	block, err := s.repo.Create(ctx, Block{Day: day, StartTime: start, EndTime: end})
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("day", day).Str("start", start).Str("end", end).Msg("schedule block added")
	return block, nil
}

// RemoveBlock deletes one of the calling doctor's blocks.
func (s *Service) RemoveBlock(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

func validDay(day string) bool {
	for _, d := range Weekdays {
		if d == day {
			return true
		}
	}
	return false
}
