package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/kirillkom/symptom-triage/internal/config"
	"github.com/kirillkom/symptom-triage/internal/core/domain"
	"github.com/kirillkom/symptom-triage/internal/core/usecase"
)

const testSecret = "test-secret"

type classifierFake struct {
	mu       sync.Mutex
	verdicts []domain.Verdict
	err      error
	requests []domain.ClassificationRequest
}

func (f *classifierFake) Classify(_ context.Context, req domain.ClassificationRequest) (domain.Verdict, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.err != nil {
		return domain.Verdict{}, f.err
	}
	if len(f.verdicts) == 0 {
		return domain.Verdict{Urgency: domain.UrgencyRoutine, Summary: "ok"}, nil
	}
	v := f.verdicts[0]
	if len(f.verdicts) > 1 {
		f.verdicts = f.verdicts[1:]
	}
	return v, nil
}

type sessionStoreFake struct {
	mu       sync.Mutex
	created  []domain.TriageSession
	sessions []domain.TriageSession
}

func (f *sessionStoreFake) CreateSession(_ context.Context, s *domain.TriageSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, *s)
	return nil
}

func (f *sessionStoreFake) ListSessions(_ context.Context, _ string, _ int) ([]domain.TriageSession, error) {
	return f.sessions, nil
}

type bookerFake struct {
	doctors   []domain.Doctor
	err       error
	booked    []domain.BookingRequest
	statuses  []domain.AppointmentStatus
	cancelErr error
}

func (f *bookerFake) ListDoctors(context.Context, string) ([]domain.Doctor, error) {
	return f.doctors, nil
}

func (f *bookerFake) Book(_ context.Context, user domain.User, req domain.BookingRequest, status domain.AppointmentStatus) (*domain.Appointment, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.booked = append(f.booked, req)
	f.statuses = append(f.statuses, status)
	return &domain.Appointment{
		ID:         "appt-1",
		UserID:     user.ID,
		DoctorID:   req.DoctorID,
		DoctorName: "Dr. Sarah Chen",
		SessionID:  req.SessionID,
		Date:       req.Date,
		Time:       req.Time,
		Status:     status,
	}, nil
}

func (f *bookerFake) ListForUser(context.Context, domain.User) ([]domain.Appointment, error) {
	return []domain.Appointment{{ID: "appt-1", Status: domain.AppointmentPending}}, nil
}

func (f *bookerFake) Cancel(context.Context, domain.User, string) error {
	return f.cancelErr
}

type historyFake struct {
	sessions  []domain.TriageSession
	exportErr error
	limit     int
}

func (f *historyFake) List(_ context.Context, _ domain.User, limit int) ([]domain.TriageSession, error) {
	f.limit = limit
	return f.sessions, nil
}

func (f *historyFake) Summary(context.Context, domain.User) (domain.HistorySummary, error) {
	return domain.HistorySummary{Total: len(f.sessions)}, nil
}

func (f *historyFake) Export(_ context.Context, _ domain.User, w io.Writer) error {
	if f.exportErr != nil {
		return f.exportErr
	}
	_, err := w.Write([]byte("PK-workbook"))
	return err
}

type testEnv struct {
	handler    http.Handler
	classifier *classifierFake
	store      *sessionStoreFake
	booker     *bookerFake
	history    *historyFake
	registry   *usecase.SessionRegistry
}

func newTestEnv(t *testing.T, cfg config.Config) *testEnv {
	t.Helper()
	if cfg.AuthJWTSecret == "" {
		cfg.AuthJWTSecret = testSecret
	}
	env := &testEnv{
		classifier: &classifierFake{},
		store:      &sessionStoreFake{},
		booker:     &bookerFake{},
		history:    &historyFake{},
	}
	env.registry = usecase.NewSessionRegistry(usecase.TriageDeps{
		Classifier: env.classifier,
		Sessions:   env.store,
		Booker:     env.booker,
	}, time.Hour)
	env.handler = NewRouter(cfg, Services{
		Sessions:     env.registry,
		Classifier:   env.classifier,
		Appointments: env.booker,
		History:      env.history,
	}).Handler()
	return env
}

func signToken(t *testing.T, subject string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Email: subject + "@example.com",
		Name:  "Test " + subject,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := token.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func (env *testEnv) do(t *testing.T, user, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set("Authorization", "Bearer "+signToken(t, user))
	}
	res := httptest.NewRecorder()
	env.handler.ServeHTTP(res, req)
	return res
}

func decodeView(t *testing.T, res *httptest.ResponseRecorder) domain.TriageView {
	t.Helper()
	var view domain.TriageView
	if err := json.NewDecoder(res.Body).Decode(&view); err != nil {
		t.Fatalf("decode view: %v (body %q)", err, res.Body.String())
	}
	return view
}
