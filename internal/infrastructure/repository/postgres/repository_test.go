package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/kirillkom/symptom-triage/internal/core/domain"
)

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return db, mock, func() { _ = db.Close() }
}

func TestCreateSessionStoresUrgencyAndStatus(t *testing.T) {
	db, mock, done := newMockDB(t)
	defer done()
	repo := NewSessionRepository(db)

	now := time.Date(2026, 10, 17, 10, 0, 0, 0, time.UTC)
	mock.ExpectExec("INSERT INTO symptom_sessions").
		WithArgs("s1", "u1", sqlmock.AnyArg(), "", sqlmock.AnyArg(), sqlmock.AnyArg(), "emergency", "emergency", now, now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.CreateSession(context.Background(), &domain.TriageSession{
		ID:        "s1",
		UserID:    "u1",
		Symptoms:  []string{"chest pain"},
		Verdict:   domain.Verdict{Urgency: domain.UrgencyEmergency},
		Status:    domain.SessionEmergency,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestListSessionsDecodesJSONColumns(t *testing.T) {
	db, mock, done := newMockDB(t)
	defer done()
	repo := NewSessionRepository(db)

	created := time.Date(2026, 10, 16, 8, 30, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "user_id", "symptoms", "narrative", "ai_analysis", "user_responses", "status", "created_at", "updated_at"}).
		AddRow("s1", "u1", []byte(`["cough"]`), "dry cough", []byte(`{"urgencyLevel":"routine","symptomCategories":["respiratory"]}`),
			[]byte(`[{"question":"How long?","answer":"3 days"}]`), "completed", created, created)
	mock.ExpectQuery("SELECT id, user_id, symptoms").
		WithArgs("u1", 20).
		WillReturnRows(rows)

	sessions, err := repo.ListSessions(context.Background(), "u1", 20)
	if err != nil {
		t.Fatalf("ListSessions() error = %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("expected 1 session, got %d", len(sessions))
	}
	got := sessions[0]
	if got.Urgency() != domain.UrgencyRoutine || got.Status != domain.SessionCompleted {
		t.Fatalf("unexpected session %+v", got)
	}
	if len(got.FollowUpResponses) != 1 || got.FollowUpResponses[0].Answer != "3 days" {
		t.Fatalf("unexpected responses %+v", got.FollowUpResponses)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetDoctorReturnsDomainNotFound(t *testing.T) {
	db, mock, done := newMockDB(t)
	defer done()
	repo := NewDoctorRepository(db)

	mock.ExpectQuery("SELECT id, full_name, specialty").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetDoctor(context.Background(), "missing")
	if !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetDoctorNormalizesSlotKeys(t *testing.T) {
	db, mock, done := newMockDB(t)
	defer done()
	repo := NewDoctorRepository(db)

	rows := sqlmock.NewRows([]string{"id", "full_name", "specialty", "email", "phone", "bio", "years_experience", "consultation_fee", "rating", "is_available", "available_slots", "created_at"}).
		AddRow("doc-1", "Dr. Ada Moss", "Cardiologist", "", "", "", 12, 150.0, 4.8, true, []byte(`{"Monday":["09:00"]}`), time.Now())
	mock.ExpectQuery("SELECT id, full_name, specialty").
		WithArgs("doc-1").
		WillReturnRows(rows)

	doctor, err := repo.GetDoctor(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("GetDoctor() error = %v", err)
	}
	if !doctor.HasSlot("2026-10-19", "09:00") {
		t.Fatalf("expected monday slot, got %+v", doctor.AvailableSlots)
	}
}

func TestUpsertDoctor(t *testing.T) {
	db, mock, done := newMockDB(t)
	defer done()
	repo := NewDoctorRepository(db)

	mock.ExpectExec("INSERT INTO doctors").
		WithArgs("doc-1", "Dr. Ada Moss", "Cardiologist", "", "", "", 0, 0.0, 0.0, true, []byte(`{"monday":["09:00"]}`), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpsertDoctor(context.Background(), domain.Doctor{
		ID:             "doc-1",
		FullName:       "Dr. Ada Moss",
		Specialty:      "Cardiologist",
		IsAvailable:    true,
		AvailableSlots: domain.WeeklySlots{"Monday": {"09:00"}},
	})
	if err != nil {
		t.Fatalf("UpsertDoctor() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestCreateAppointmentMapsDoubleBookingToConflict(t *testing.T) {
	db, mock, done := newMockDB(t)
	defer done()
	repo := NewAppointmentRepository(db)

	mock.ExpectExec("INSERT INTO appointments").
		WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key value"})

	err := repo.CreateAppointment(context.Background(), &domain.Appointment{
		ID:       "a1",
		UserID:   "u1",
		DoctorID: "doc-1",
		Date:     "2026-10-19",
		Time:     "09:00",
		Status:   domain.AppointmentConfirmed,
	})
	if !domain.IsKind(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestListAppointmentsFormatsDate(t *testing.T) {
	db, mock, done := newMockDB(t)
	defer done()
	repo := NewAppointmentRepository(db)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "user_id", "doctor_id", "full_name", "specialty", "session_id", "appointment_date", "appointment_time", "reason", "symptoms_summary", "status", "created_at", "updated_at"}).
		AddRow("a1", "u1", "doc-1", "Dr. Ada Moss", "Cardiologist", "", time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC), "09:00", "Symptom check: cough", "", "confirmed", now, now)
	mock.ExpectQuery("SELECT a.id, a.user_id").
		WithArgs("u1").
		WillReturnRows(rows)

	appointments, err := repo.ListAppointments(context.Background(), "u1")
	if err != nil {
		t.Fatalf("ListAppointments() error = %v", err)
	}
	if len(appointments) != 1 || appointments[0].Date != "2026-10-19" || appointments[0].DoctorName != "Dr. Ada Moss" {
		t.Fatalf("unexpected appointments %+v", appointments)
	}
}

func TestCancelAppointmentReturnsDomainNotFoundWhenNoRowsAffected(t *testing.T) {
	db, mock, done := newMockDB(t)
	defer done()
	repo := NewAppointmentRepository(db)

	mock.ExpectExec("UPDATE appointments").
		WithArgs("u1", "a1", "cancelled", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.CancelAppointment(context.Background(), "u1", "a1")
	if !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestEnsureSchemaTakesAdvisoryLock(t *testing.T) {
	db, mock, done := newMockDB(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectExec("SELECT pg_advisory_xact_lock").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS symptom_sessions").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	if err := EnsureSchema(context.Background(), db); err != nil {
		t.Fatalf("EnsureSchema() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
