package domain

import "time"

type AppointmentStatus string

const (
	AppointmentPending   AppointmentStatus = "pending"
	AppointmentConfirmed AppointmentStatus = "confirmed"
	AppointmentCancelled AppointmentStatus = "cancelled"
)

type Appointment struct {
	ID              string            `json:"id"`
	UserID          string            `json:"user_id"`
	DoctorID        string            `json:"doctor_id"`
	DoctorName      string            `json:"doctor_name,omitempty"`
	Specialty       string            `json:"specialty,omitempty"`
	SessionID       string            `json:"session_id,omitempty"`
	Date            string            `json:"appointment_date"`
	Time            string            `json:"appointment_time"`
	Reason          string            `json:"reason,omitempty"`
	SymptomsSummary string            `json:"symptoms_summary,omitempty"`
	Status          AppointmentStatus `json:"status"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// BookingRequest is a user's choice of doctor, day and slot.
type BookingRequest struct {
	DoctorID        string `json:"doctorId"`
	Date            string `json:"date"`
	Time            string `json:"time"`
	Reason          string `json:"reason,omitempty"`
	SessionID       string `json:"-"`
	SymptomsSummary string `json:"-"`
}

// AppointmentBooked is published after an appointment row is written and
// drives the confirmation email.
type AppointmentBooked struct {
	AppointmentID string    `json:"appointment_id"`
	UserEmail     string    `json:"user_email"`
	UserName      string    `json:"user_name,omitempty"`
	DoctorName    string    `json:"doctor_name"`
	Specialty     string    `json:"specialty"`
	Date          string    `json:"appointment_date"`
	Time          string    `json:"appointment_time"`
	Reason        string    `json:"reason"`
	BookedAt      time.Time `json:"booked_at"`
}
