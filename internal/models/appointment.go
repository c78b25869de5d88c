package models

import (
	"time"
)

// VisitType classifies how the patient will be seen.
type VisitType string

const (
	VisitInPerson VisitType = "presencial"
	VisitVirtual  VisitType = "virtual"
)

// VirtualLocation is the fixed location recorded for virtual visits.
const VirtualLocation = "Videollamada en línea"

// AppointmentStatus represents the stored status of an appointment
type AppointmentStatus string

const (
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusCancelled AppointmentStatus = "cancelled"
)

// DateLayout is the wire and storage format for appointment dates.
const DateLayout = "2006-01-02"

// Appointment represents a booked medical appointment. Rows are never
// deleted; cancellation is a one-way status change.
type Appointment struct {
	BaseModel
	OwnerID          string            `gorm:"size:36;index" json:"ownerId"`
	ConfirmationCode string            `gorm:"size:50;uniqueIndex" json:"confirmationCode"`
	PatientName      string            `gorm:"size:100" json:"patientName"`
	PatientEmail     string            `gorm:"size:100" json:"patientEmail"`
	PatientPhone     string            `gorm:"size:20" json:"patientPhone"`
	VisitType        VisitType         `gorm:"size:20" json:"visitType"`
	Location         string            `gorm:"size:200" json:"location"`
	Specialty        string            `gorm:"size:100" json:"specialty"`
	Date             string            `gorm:"size:10;index" json:"date"`
	Time             string            `gorm:"size:5" json:"time"`
	Reason           string            `gorm:"type:text" json:"reason"`
	Status           AppointmentStatus `gorm:"size:20;default:'confirmed'" json:"status"`
}

// ScheduleState is the display-only classification of an appointment
// relative to the current date. It is computed, never stored.
type ScheduleState string

const (
	SchedulePast      ScheduleState = "past"
	ScheduleToday     ScheduleState = "today"
	ScheduleUpcoming  ScheduleState = "upcoming"
	ScheduleCancelled ScheduleState = "cancelled"
)

// Highlight windows used by clients when rendering upcoming appointments.
const (
	UrgentWindowDays   = 3
	ReminderWindowDays = 7
)

// DaysRemaining returns the number of whole days between now and the given
// appointment date, both truncated to midnight. Negative means the date has
// passed, zero means today.
func DaysRemaining(date string, now time.Time) (int, error) {
	d, err := time.Parse(DateLayout, date)
	if err != nil {
		return 0, err
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return int(d.Sub(today).Hours() / 24), nil
}

// ScheduleState classifies the appointment for display. Cancelled status
// overrides the date-derived states. An unparseable date counts as past.
func (a *Appointment) ScheduleState(now time.Time) ScheduleState {
	if a.Status == StatusCancelled {
		return ScheduleCancelled
	}
	days, err := DaysRemaining(a.Date, now)
	if err != nil || days < 0 {
		return SchedulePast
	}
	if days == 0 {
		return ScheduleToday
	}
	return ScheduleUpcoming
}

// AppointmentStats aggregates an owner's appointments by schedule state.
type AppointmentStats struct {
	Upcoming  int `json:"upcoming"`
	Cancelled int `json:"cancelled"`
	Past      int `json:"past"`
	Total     int `json:"total"`
}

// TallyStats computes aggregate counts with the same classification used for
// display. "Upcoming" includes appointments dated today, matching what the
// booking client shows as still actionable.
func TallyStats(appointments []Appointment, now time.Time) AppointmentStats {
	stats := AppointmentStats{Total: len(appointments)}
	for i := range appointments {
		switch appointments[i].ScheduleState(now) {
		case ScheduleCancelled:
			stats.Cancelled++
		case SchedulePast:
			stats.Past++
		default:
			stats.Upcoming++
		}
	}
	return stats
}
