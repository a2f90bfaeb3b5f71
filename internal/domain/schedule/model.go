package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Weekday names as the backend expects them.
var Weekdays = []string{
	"DOMINGO", "LUNES", "MARTES", "MIÉRCOLES", "JUEVES", "VIERNES", "SÁBADO",
}

// WeekdayName maps a date to the backend's weekday spelling.
func WeekdayName(t time.Time) string {
	return Weekdays[int(t.Weekday())]
}

// Block is one contiguous span a doctor attends on a given weekday.
type Block struct {
	ID        int64  `json:"id"`
	Day       string `json:"day"`
	StartTime string `json:"startTime"` // "HH:MM"
	EndTime   string `json:"endTime"`   // "HH:MM"
	DoctorID  int64  `json:"doctorId"`
	Doctor    Doctor `json:"doctor"`
}

// Doctor as embedded in schedule listings.
type Doctor struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Specialty string `json:"specialty"`
}

// SlotLength is the bookable granularity of every schedule block.
const SlotLength = 30 * time.Minute

// SlotsBetween expands a block's span into bookable "HH:MM" start times at
// SlotLength steps. The end time is exclusive: a 09:00–10:00 block yields
// 09:00 and 09:30. Malformed bounds or an inverted span yield no slots.
func SlotsBetween(start, end string) []string {
	from, err1 := minutesOfDay(start)
	to, err2 := minutesOfDay(end)
	if err1 != nil || err2 != nil || from >= to {
		return nil
	}
	step := int(SlotLength / time.Minute)
	var slots []string
	for m := from; m < to; m += step {
		slots = append(slots, fmt.Sprintf("%02d:%02d", m/60, m%60))
	}
	return slots
}

func minutesOfDay(hhmm string) (int, error) {
	parts := strings.Split(hhmm, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("time %q: want HH:MM", hhmm)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("time %q: bad hour", hhmm)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("time %q: bad minutes", hhmm)
	}
	return h*60 + m, nil
}

// Availability is one doctor's bookable slots for a day, assembled from all
// of their blocks.
type Availability struct {
	Doctor Doctor
	Slots  []string
}
