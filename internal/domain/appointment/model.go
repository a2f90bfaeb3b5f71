package appointment

import (
	"time"
)

// Status is an appointment's lifecycle state as the backend reports it.
type Status string

const (
	StatusPending   Status = "PENDIENTE"
	StatusConfirmed Status = "CONFIRMADA"
	StatusCompleted Status = "COMPLETADA"
	StatusCancelled Status = "CANCELADA"
)

// Terminal reports whether no further transition is defined out of s.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CanTransitionTo encodes the allowed status graph:
//
//	PENDIENTE  → CONFIRMADA, CANCELADA
//	CONFIRMADA → COMPLETADA, CANCELADA
//
// COMPLETADA and CANCELADA are terminal.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusPending:
		return next == StatusConfirmed || next == StatusCancelled
	case StatusConfirmed:
		return next == StatusCompleted || next == StatusCancelled
	}
	return false
}

// Valid reports whether s is one of the four known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// PatientRef identifies the patient side of an appointment.
type PatientRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Sex  string `json:"sex"`
}

// DoctorRef identifies the doctor side of an appointment.
type DoctorRef struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Specialty string `json:"specialty"`
}

// Appointment is the backend's appointment record. Instances are snapshots
// owned by whoever fetched them; Status is only mutated through Service
// transitions after the backend acknowledged the change.
type Appointment struct {
	ID          int64      `json:"id"`
	ScheduledAt time.Time  `json:"scheduledAt"`
	Duration    int        `json:"duration"` // minutes
	Reason      string     `json:"reason"`
	Status      Status     `json:"status"`
	Patient     PatientRef `json:"patient"`
	Doctor      DoctorRef  `json:"doctor"`
}

// BookingRequest is the payload for creating a new appointment. Newly booked
// appointments start as PENDIENTE on the backend.
type BookingRequest struct {
	DoctorID    int64     `json:"doctorId"`
	ScheduledAt time.Time `json:"scheduledAt"`
	Duration    int       `json:"duration"`
	Reason      string    `json:"reason"`
}
