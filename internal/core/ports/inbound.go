package ports

import (
	"context"
	"io"

	"github.com/kirillkom/symptom-triage/internal/core/domain"
)

// TriageSessions is the inbound contract for creating and resuming wizards.
type TriageSessions interface {
	Start(user domain.User) (TriageWizard, error)
	Lookup(user domain.User, sessionID string) (TriageWizard, error)
}

// TriageWizard drives one symptom-triage session.
type TriageWizard interface {
	ID() string
	View() domain.TriageView
	AddSymptom(tag string) error
	RemoveSymptom(tag string) error
	SetNarrative(text string) error
	Analyze(ctx context.Context) (domain.TriageView, error)
	AnswerFollowUp(ctx context.Context, answer string) (domain.TriageView, error)
	BackFromFollowUp() error
	OpenBooking() error
	BackToResult() error
	AvailableDoctors(ctx context.Context) ([]domain.Doctor, error)
	ConfirmBooking(ctx context.Context, req domain.BookingRequest) (*domain.Appointment, error)
	StartOver() error
	DismissNotices()
}

// AppointmentBooker is the inbound contract for appointments outside the wizard.
type AppointmentBooker interface {
	ListDoctors(ctx context.Context, specialty string) ([]domain.Doctor, error)
	Book(ctx context.Context, user domain.User, req domain.BookingRequest, status domain.AppointmentStatus) (*domain.Appointment, error)
	ListForUser(ctx context.Context, user domain.User) ([]domain.Appointment, error)
	Cancel(ctx context.Context, user domain.User, appointmentID string) error
}

// HistoryReader is the inbound read model for past sessions.
type HistoryReader interface {
	List(ctx context.Context, user domain.User, limit int) ([]domain.TriageSession, error)
	Summary(ctx context.Context, user domain.User) (domain.HistorySummary, error)
	Export(ctx context.Context, user domain.User, w io.Writer) error
}

// ConfirmationDispatcher sends booking confirmations from queued events.
type ConfirmationDispatcher interface {
	Dispatch(ctx context.Context, event domain.AppointmentBooked) error
}
