package prescription

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Medication is a catalog entry. Read-only reference data for this client;
// the catalog is maintained elsewhere.
type Medication struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Presentation string `json:"presentation"`
	Type         string `json:"type"`
}

// Regimen is one prescribed-medication line: which catalog medication, how
// much per dose, how often, and for how many days. DosesTaken and TotalDoses
// are backend-owned counters; the client only ever bumps DosesTaken
// optimistically after the backend accepted a dose.
type Regimen struct {
	ID           int64      `json:"id"`
	DoseQuantity string     `json:"doseQuantity"`
	Frequency    string     `json:"frequency"` // "HH:MM" hour interval
	TotalDays    int        `json:"totalDays"`
	Medication   Medication `json:"medication"`
	DosesTaken   int        `json:"dosesTaken"`
	TotalDoses   int        `json:"totalDoses"`
}

// Finished reports whether every expected dose has been taken. A zero
// TotalDoses means the backend did not report a total; the regimen is then
// never considered finished client-side.
func (r Regimen) Finished() bool {
	return r.TotalDoses > 0 && r.DosesTaken >= r.TotalDoses
}

// Interval converts the regimen's "HH:MM" frequency into a duration.
func (r Regimen) Interval() (time.Duration, error) {
	return ParseFrequency(r.Frequency)
}

// Prescription belongs to exactly one appointment. Annotations are fixed at
// creation; Regimens is insertion-ordered and always replaced wholesale on
// fetch, never merged with a previous snapshot.
type Prescription struct {
	ID            int64     `json:"id"`
	Annotations   string    `json:"annotations"`
	AppointmentID int64     `json:"appointmentId"`
	Regimens      []Regimen `json:"medications"`
}

// NormalizeFrequency brings user frequency input into "HH:MM" form. Input
// already containing a colon is returned unchanged. Bare numeric input is
// interpreted as hours when 1–2 digits ("8" → "08:00") and as HHMM when 3–4
// digits, last two digits being minutes ("800" → "08:00", "1230" → "12:30").
func NormalizeFrequency(input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", fmt.Errorf("frequency is empty")
	}
	if strings.Contains(input, ":") {
		if _, err := ParseFrequency(input); err != nil {
			return "", err
		}
		return input, nil
	}
	if _, err := strconv.Atoi(input); err != nil || len(input) > 4 {
		return "", fmt.Errorf("frequency %q is not numeric HH:MM or HHMM", input)
	}
	var normalized string
	if len(input) <= 2 {
		normalized = fmt.Sprintf("%02s:00", input)
	} else {
		padded := fmt.Sprintf("%04s", input)
		normalized = padded[:2] + ":" + padded[2:]
	}
	if _, err := ParseFrequency(normalized); err != nil {
		return "", err
	}
	return normalized, nil
}

// ParseFrequency parses an "HH:MM" hour interval into a duration. The
// interval must be positive; minutes must be below 60. Hours above 23 are
// allowed: "24:00" is a valid once-a-day interval.
func ParseFrequency(freq string) (time.Duration, error) {
	parts := strings.Split(freq, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("frequency %q: want HH:MM", freq)
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil || hours < 0 {
		return 0, fmt.Errorf("frequency %q: bad hours", freq)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("frequency %q: bad minutes", freq)
	}
	d := time.Duration(hours)*time.Hour + time.Duration(minutes)*time.Minute
	if d <= 0 {
		return 0, fmt.Errorf("frequency %q: interval must be positive", freq)
	}
	return d, nil
}
