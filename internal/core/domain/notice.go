package domain

import "time"

type NoticeKind string

const (
	NoticeAnalysisDegraded NoticeKind = "analysis_degraded"
	NoticeSessionNotSaved  NoticeKind = "session_not_saved"
	NoticeBookingFailed    NoticeKind = "booking_failed"
	NoticeBookingConfirmed NoticeKind = "booking_confirmed"
)

// Notice is a dismissible, non-fatal message shown next to the wizard.
type Notice struct {
	Kind      NoticeKind `json:"kind"`
	Title     string     `json:"title"`
	Message   string     `json:"message"`
	CreatedAt time.Time  `json:"created_at"`
}

// User is the authenticated caller. It is passed explicitly to every
// controller instead of being read from request globals.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
}
