package ports

import (
	"context"
	"io"
	"time"

	"github.com/kirillkom/symptom-triage/internal/core/domain"
)

// SymptomClassifier turns reported symptoms into a triage verdict.
type SymptomClassifier interface {
	Classify(ctx context.Context, req domain.ClassificationRequest) (domain.Verdict, error)
}

// SessionStore persists finalized triage sessions.
type SessionStore interface {
	CreateSession(ctx context.Context, session *domain.TriageSession) error
	ListSessions(ctx context.Context, userID string, limit int) ([]domain.TriageSession, error)
}

// DoctorDirectory reads bookable specialists.
type DoctorDirectory interface {
	ListAvailableDoctors(ctx context.Context) ([]domain.Doctor, error)
	GetDoctor(ctx context.Context, id string) (*domain.Doctor, error)
}

// DoctorWriter loads directory entries, used by the seed loader.
type DoctorWriter interface {
	UpsertDoctor(ctx context.Context, doctor domain.Doctor) error
}

// AppointmentStore persists appointments.
type AppointmentStore interface {
	CreateAppointment(ctx context.Context, appointment *domain.Appointment) error
	ListAppointments(ctx context.Context, userID string) ([]domain.Appointment, error)
	CancelAppointment(ctx context.Context, userID, appointmentID string) error
}

// BookingEventPublisher announces new appointments.
type BookingEventPublisher interface {
	PublishAppointmentBooked(ctx context.Context, event domain.AppointmentBooked) error
}

// BookingEventSubscriber consumes appointment announcements.
type BookingEventSubscriber interface {
	SubscribeAppointmentBooked(ctx context.Context, handler func(context.Context, domain.AppointmentBooked) error) error
}

// EmailSender delivers transactional email.
type EmailSender interface {
	Send(ctx context.Context, email domain.Email) error
}

// NoticeSink receives non-fatal notices raised while a session runs.
type NoticeSink interface {
	Notify(notice domain.Notice)
}

// TriageObserver records triage flow metrics.
type TriageObserver interface {
	ObserveClassification(urgency domain.Urgency, degraded bool, duration time.Duration)
	ObserveTransition(from, to domain.Step)
	ObserveSessionSaved(status domain.SessionStatus, err error)
	ObserveBooking(status domain.AppointmentStatus, err error)
}

// SessionExporter writes a user's session history as a document.
type SessionExporter interface {
	ExportSessions(w io.Writer, sessions []domain.TriageSession) error
}
