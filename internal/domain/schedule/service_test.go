package schedule

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type mockRepo struct {
	blocks      []Block
	createCalls int
	lastDay     string
}

func (m *mockRepo) ListByDay(ctx context.Context, day string) ([]Block, error) {
	m.lastDay = day
	var out []Block
	for _, b := range m.blocks {
		if b.Day == day {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *mockRepo) ListOwn(ctx context.Context) ([]Block, error) {
	return m.blocks, nil
}

func (m *mockRepo) Create(ctx context.Context, b Block) (*Block, error) {
	m.createCalls++
	b.ID = 10
	m.blocks = append(m.blocks, b)
	return &b, nil
}

func (m *mockRepo) Delete(ctx context.Context, id int64) error {
	return nil
}

func TestAvailabilityFor_GroupsAndSorts(t *testing.T) {
	garcia := Doctor{ID: 1, Name: "García", Specialty: "Cardiología"}
	alvarez := Doctor{ID: 2, Name: "Álvarez", Specialty: "General"}
	repo := &mockRepo{blocks: []Block{
		{ID: 1, Day: "LUNES", StartTime: "14:00", EndTime: "15:00", Doctor: garcia},
		{ID: 2, Day: "LUNES", StartTime: "09:00", EndTime: "10:00", Doctor: garcia},
		{ID: 3, Day: "LUNES", StartTime: "09:00", EndTime: "09:30", Doctor: alvarez},
		{ID: 4, Day: "MARTES", StartTime: "09:00", EndTime: "12:00", Doctor: garcia},
	}}
	svc := NewService(repo, zerolog.Nop())

	// 2026-03-09 is a Monday.
	monday := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	avail, err := svc.AvailabilityFor(context.Background(), monday)
	if err != nil {
		t.Fatalf("availability: %v", err)
	}
	if repo.lastDay != "LUNES" {
		t.Errorf("backend queried with %q", repo.lastDay)
	}
	if len(avail) != 2 {
		t.Fatalf("got %d doctors", len(avail))
	}
	if avail[0].Doctor.Name != "García" || avail[1].Doctor.Name != "Álvarez" {
		t.Errorf("doctors out of order: %q, %q", avail[0].Doctor.Name, avail[1].Doctor.Name)
	}
	want := []string{"09:00", "09:30", "14:00", "14:30"}
	if !reflect.DeepEqual(avail[0].Slots, want) {
		t.Errorf("slots from both blocks must merge sorted: got %v, want %v", avail[0].Slots, want)
	}
}

func TestAddBlock_ValidatesLocally(t *testing.T) {
	repo := &mockRepo{}
	svc := NewService(repo, zerolog.Nop())

	if _, err := svc.AddBlock(context.Background(), "FUNDAY", "09:00", "10:00"); err == nil {
		t.Fatal("expected error for unknown weekday")
	}
	if _, err := svc.AddBlock(context.Background(), "LUNES", "10:00", "09:00"); err == nil {
		t.Fatal("expected error for inverted span")
	}
	if repo.createCalls != 0 {
		t.Error("validation failures must not hit the backend")
	}

	block, err := svc.AddBlock(context.Background(), "LUNES", "09:00", "12:00")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if block.ID == 0 {
		t.Error("expected the backend's id on the created block")
	}
}
