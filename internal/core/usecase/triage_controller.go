package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/symptom-triage/internal/core/domain"
	"github.com/kirillkom/symptom-triage/internal/core/ports"
)

var (
	errNothingToAnalyze = errors.New("add at least one symptom or describe how you feel")
	errEmptyAnswer      = errors.New("answer must not be empty")
	errRequestInFlight  = errors.New("a request for this session is still running")
	errEmergencyBooking = errors.New("emergency assessments cannot be booked; call emergency services")
	errSessionBooked    = errors.New("session is already booked; start a new session")
)

// NoticeFeed is a notice sink that can also be read back and cleared.
type NoticeFeed interface {
	ports.NoticeSink
	Notices() []domain.Notice
	Dismiss()
}

// TriageDeps are the collaborators of one triage session. They are passed
// in explicitly; the controller reads no request or process globals.
type TriageDeps struct {
	Classifier ports.SymptomClassifier
	Sessions   ports.SessionStore
	Booker     ports.AppointmentBooker
	Notices    NoticeFeed
	Observer   ports.TriageObserver
	Now        func() time.Time
}

func (d TriageDeps) withDefaults() TriageDeps {
	if d.Notices == nil {
		d.Notices = NewNoticeBoard()
	}
	if d.Observer == nil {
		d.Observer = noopObserver{}
	}
	if d.Now == nil {
		d.Now = func() time.Time { return time.Now().UTC() }
	}
	return d
}

// TriageController walks one user through symptom entry, optional
// follow-up questions, the verdict and appointment booking.
//
// At most one classifier call or booking write runs at a time; while one
// is outstanding every mutating action is refused with ErrConflict.
type TriageController struct {
	id   string
	user domain.User
	deps TriageDeps

	mu        sync.Mutex
	step      domain.Step
	input     domain.SymptomInput
	verdict   *domain.Verdict
	answers   []domain.FollowUpAnswer
	current   int
	busy      bool
	savedID   string
	bookingID string
}

func NewTriageController(id string, user domain.User, deps TriageDeps) *TriageController {
	if id == "" {
		id = uuid.NewString()
	}
	return &TriageController{
		id:   id,
		user: user,
		deps: deps.withDefaults(),
		step: domain.StepInput,
	}
}

func (c *TriageController) ID() string {
	return c.id
}

func (c *TriageController) User() domain.User {
	return c.user
}

func (c *TriageController) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy
}

func (c *TriageController) Step() domain.Step {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.step
}

func (c *TriageController) View() domain.TriageView {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

func (c *TriageController) AddSymptom(tag string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.guardLocked("add symptom", domain.StepInput); err != nil {
		return err
	}
	if strings.TrimSpace(tag) == "" {
		return domain.WrapError(domain.ErrInvalidInput, "add symptom", errors.New("symptom must not be empty"))
	}
	c.input.AddTag(tag)
	return nil
}

func (c *TriageController) RemoveSymptom(tag string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.guardLocked("remove symptom", domain.StepInput); err != nil {
		return err
	}
	if !c.input.RemoveTag(tag) {
		return domain.WrapError(domain.ErrNotFound, "remove symptom", fmt.Errorf("symptom %q is not listed", tag))
	}
	return nil
}

func (c *TriageController) SetNarrative(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.guardLocked("set narrative", domain.StepInput); err != nil {
		return err
	}
	c.input.Narrative = strings.TrimSpace(text)
	return nil
}

// Analyze sends the current input to the classifier. It moves to the
// follow-up step when the verdict asks questions, otherwise to the result.
func (c *TriageController) Analyze(ctx context.Context) (domain.TriageView, error) {
	c.mu.Lock()
	if err := c.guardLocked("analyze", domain.StepInput); err != nil {
		view := c.viewLocked()
		c.mu.Unlock()
		return view, err
	}
	if c.input.Empty() {
		view := c.viewLocked()
		c.mu.Unlock()
		return view, domain.WrapError(domain.ErrInvalidInput, "analyze", errNothingToAnalyze)
	}
	req := domain.ClassificationRequest{
		Symptoms:  c.input.Clone().Tags,
		Narrative: c.input.Narrative,
	}
	c.busy = true
	c.mu.Unlock()

	return c.runClassification(ctx, req)
}

// AnswerFollowUp records the answer to the current question. The last
// answer re-runs classification with every response, which always ends on
// the result step.
func (c *TriageController) AnswerFollowUp(ctx context.Context, answer string) (domain.TriageView, error) {
	c.mu.Lock()
	if err := c.guardLocked("answer follow-up", domain.StepFollowUp); err != nil {
		view := c.viewLocked()
		c.mu.Unlock()
		return view, err
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		view := c.viewLocked()
		c.mu.Unlock()
		return view, domain.WrapError(domain.ErrInvalidInput, "answer follow-up", errEmptyAnswer)
	}

	c.answers[c.current].Answer = answer
	if c.current < len(c.answers)-1 {
		c.current++
		err := c.moveLocked(domain.StepFollowUp)
		view := c.viewLocked()
		c.mu.Unlock()
		return view, err
	}

	req := domain.ClassificationRequest{
		Symptoms:          c.input.Clone().Tags,
		Narrative:         c.input.Narrative,
		FollowUpResponses: append([]domain.FollowUpAnswer{}, c.answers...),
	}
	c.busy = true
	c.mu.Unlock()

	return c.runClassification(ctx, req)
}

// BackFromFollowUp steps to the previous question, or back to symptom
// editing from the first one, discarding the partial answers.
func (c *TriageController) BackFromFollowUp() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.guardLocked("back", domain.StepFollowUp); err != nil {
		return err
	}
	if c.current > 0 {
		c.current--
		return c.moveLocked(domain.StepFollowUp)
	}
	if err := c.moveLocked(domain.StepInput); err != nil {
		return err
	}
	c.verdict = nil
	c.answers = nil
	c.current = 0
	return nil
}

func (c *TriageController) OpenBooking() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.guardLocked("book appointment", domain.StepResult); err != nil {
		return err
	}
	if c.verdict == nil {
		return domain.WrapError(domain.ErrConflict, "book appointment", errors.New("no assessment to book from"))
	}
	if c.verdict.IsEmergency() {
		return domain.WrapError(domain.ErrConflict, "book appointment", errEmergencyBooking)
	}
	return c.moveLocked(domain.StepBooking)
}

func (c *TriageController) BackToResult() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.guardLocked("back", domain.StepBooking); err != nil {
		return err
	}
	return c.moveLocked(domain.StepResult)
}

// AvailableDoctors lists doctors matching the recommended specialist.
func (c *TriageController) AvailableDoctors(ctx context.Context) ([]domain.Doctor, error) {
	c.mu.Lock()
	if c.step != domain.StepBooking || c.verdict == nil {
		step := c.step
		c.mu.Unlock()
		return nil, domain.WrapError(domain.ErrConflict, "list doctors", fmt.Errorf("not available in step %s", step))
	}
	specialty := c.verdict.RecommendedSpecialist
	c.mu.Unlock()

	return c.deps.Booker.ListDoctors(ctx, specialty)
}

// ConfirmBooking writes the appointment. On failure the session stays on
// the booking step so the user can retry.
func (c *TriageController) ConfirmBooking(ctx context.Context, req domain.BookingRequest) (*domain.Appointment, error) {
	c.mu.Lock()
	if err := c.guardLocked("confirm booking", domain.StepBooking); err != nil {
		c.mu.Unlock()
		return nil, err
	}
	req.SessionID = c.savedID
	if c.verdict != nil {
		req.SymptomsSummary = c.verdict.Summary
	}
	if strings.TrimSpace(req.Reason) == "" {
		req.Reason = bookingReason(c.input)
	}
	c.busy = true
	c.mu.Unlock()

	// The write runs to completion so the wizard never disagrees with the
	// stored appointment.
	appointment, err := c.deps.Booker.Book(context.WithoutCancel(ctx), c.user, req, domain.AppointmentConfirmed)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.busy = false
	if err != nil {
		if !domain.IsKind(err, domain.ErrInvalidInput) {
			c.deps.Notices.Notify(domain.Notice{
				Kind:    domain.NoticeBookingFailed,
				Title:   "Booking Failed",
				Message: "Unable to book appointment. Please try again.",
			})
		}
		return nil, err
	}
	if err := c.moveLocked(domain.StepBooked); err != nil {
		return nil, err
	}
	c.bookingID = appointment.ID
	c.deps.Notices.Notify(domain.Notice{
		Kind:    domain.NoticeBookingConfirmed,
		Title:   "Appointment Booked!",
		Message: fmt.Sprintf("Your appointment with %s is confirmed for %s at %s.", appointment.DoctorName, appointment.Date, appointment.Time),
	})
	return appointment, nil
}

// StartOver clears input, verdict and answers and returns to symptom entry.
func (c *TriageController) StartOver() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.busy {
		return domain.WrapError(domain.ErrConflict, "start over", errRequestInFlight)
	}
	if c.step.Terminal() {
		return domain.WrapError(domain.ErrConflict, "start over", errSessionBooked)
	}
	if c.step != domain.StepInput {
		if err := c.moveLocked(domain.StepInput); err != nil {
			return err
		}
	}
	c.input = domain.SymptomInput{}
	c.verdict = nil
	c.answers = nil
	c.current = 0
	c.savedID = ""
	return nil
}

func (c *TriageController) DismissNotices() {
	c.deps.Notices.Dismiss()
}

// runClassification detaches from the caller's cancellation: a classifier
// call in flight always completes and a final verdict is always saved.
func (c *TriageController) runClassification(ctx context.Context, req domain.ClassificationRequest) (domain.TriageView, error) {
	work := context.WithoutCancel(ctx)
	verdict := c.classify(work, req)
	return c.finishClassification(work, req, verdict)
}

func (c *TriageController) classify(ctx context.Context, req domain.ClassificationRequest) domain.Verdict {
	start := c.deps.Now()
	verdict, err := c.deps.Classifier.Classify(ctx, req)
	if err == nil && !verdict.Urgency.Valid() {
		err = fmt.Errorf("classifier returned urgency %q", verdict.Urgency)
	}
	if err != nil {
		slog.Warn("classification_degraded",
			"session_id", c.id,
			"with_responses", req.HasResponses(),
			"error", err,
		)
		verdict = FallbackVerdict()
		c.deps.Notices.Notify(domain.Notice{
			Kind:    domain.NoticeAnalysisDegraded,
			Title:   "Analysis Limited",
			Message: "We couldn't fully analyze your symptoms right now, so you're seeing general guidance.",
		})
	}
	c.deps.Observer.ObserveClassification(verdict.Urgency, verdict.Degraded, c.deps.Now().Sub(start))
	return verdict.Normalize()
}

func (c *TriageController) finishClassification(
	ctx context.Context,
	req domain.ClassificationRequest,
	verdict domain.Verdict,
) (domain.TriageView, error) {
	c.mu.Lock()
	pending, err := c.applyVerdictLocked(req, verdict)
	if err != nil || pending == nil {
		c.busy = false
		view := c.viewLocked()
		c.mu.Unlock()
		return view, err
	}
	c.mu.Unlock()

	// The result is already visible; saving only adds a notice on failure.
	c.persist(ctx, pending)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.busy = false
	return c.viewLocked(), nil
}

// applyVerdictLocked moves to the next step and returns the session to save
// when the verdict is final.
func (c *TriageController) applyVerdictLocked(req domain.ClassificationRequest, verdict domain.Verdict) (*domain.TriageSession, error) {
	c.verdict = &verdict
	c.savedID = ""

	if !req.HasResponses() && verdict.HasFollowUps() {
		c.answers = make([]domain.FollowUpAnswer, len(verdict.FollowUpQuestions))
		for i, q := range verdict.FollowUpQuestions {
			c.answers[i] = domain.FollowUpAnswer{Question: q}
		}
		c.current = 0
		return nil, c.moveLocked(domain.StepFollowUp)
	}

	if err := c.moveLocked(domain.StepResult); err != nil {
		return nil, err
	}
	if !finalVerdict(req, verdict) {
		return nil, nil
	}

	now := c.deps.Now()
	return &domain.TriageSession{
		ID:                uuid.NewString(),
		UserID:            c.user.ID,
		Symptoms:          append([]string{}, req.Symptoms...),
		Narrative:         req.Narrative,
		Verdict:           verdict,
		FollowUpResponses: req.FollowUpResponses,
		Status:            domain.StatusForVerdict(verdict),
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}

// finalVerdict: clarification is never re-requested once answers were
// supplied, so any real verdict for a response-augmented call is final.
func finalVerdict(req domain.ClassificationRequest, verdict domain.Verdict) bool {
	if verdict.Degraded {
		return false
	}
	return verdict.Final() || req.HasResponses()
}

func (c *TriageController) persist(ctx context.Context, session *domain.TriageSession) {
	err := c.deps.Sessions.CreateSession(ctx, session)
	c.deps.Observer.ObserveSessionSaved(session.Status, err)
	if err != nil {
		slog.Warn("triage_session_not_saved", "session_id", c.id, "user_id", c.user.ID, "error", err)
		c.deps.Notices.Notify(domain.Notice{
			Kind:    domain.NoticeSessionNotSaved,
			Title:   "Not Saved",
			Message: "Your assessment is shown below but could not be saved to your history.",
		})
		return
	}

	c.mu.Lock()
	c.savedID = session.ID
	c.mu.Unlock()
}

func (c *TriageController) guardLocked(operation string, allowed domain.Step) error {
	if c.busy {
		return domain.WrapError(domain.ErrConflict, operation, errRequestInFlight)
	}
	if c.step != allowed {
		return domain.WrapError(domain.ErrConflict, operation, fmt.Errorf("not available in step %s", c.step))
	}
	return nil
}

func (c *TriageController) moveLocked(to domain.Step) error {
	from := c.step
	if !domain.CanTransition(from, to) {
		return domain.WrapError(domain.ErrConflict, "transition", fmt.Errorf("%s -> %s", from, to))
	}
	c.step = to
	c.deps.Observer.ObserveTransition(from, to)
	return nil
}

func (c *TriageController) viewLocked() domain.TriageView {
	view := domain.TriageView{
		SessionID:      c.id,
		Step:           c.step,
		Input:          c.input.Clone(),
		SavedSessionID: c.savedID,
		AppointmentID:  c.bookingID,
		Busy:           c.busy,
		Notices:        c.deps.Notices.Notices(),
	}
	if view.Input.Tags == nil {
		view.Input.Tags = []string{}
	}
	if c.verdict != nil {
		v := *c.verdict
		view.Verdict = &v
	}
	if c.step == domain.StepFollowUp && c.current < len(c.answers) {
		view.FollowUp = &domain.FollowUpProgress{
			Index:    c.current,
			Total:    len(c.answers),
			Question: c.answers[c.current].Question,
			Answer:   c.answers[c.current].Answer,
		}
	}
	view.Actions = c.actionsLocked()
	return view
}

func (c *TriageController) actionsLocked() []domain.Action {
	idle := !c.busy
	switch c.step {
	case domain.StepInput:
		return []domain.Action{
			{Name: domain.ActionAddSymptom, Enabled: idle},
			{Name: domain.ActionAnalyze, Enabled: idle && !c.input.Empty()},
			{Name: domain.ActionStartOver, Enabled: idle},
		}
	case domain.StepFollowUp:
		return []domain.Action{
			{Name: domain.ActionAnswer, Enabled: idle},
			{Name: domain.ActionBack, Enabled: idle},
			{Name: domain.ActionStartOver, Enabled: idle},
		}
	case domain.StepResult:
		if c.verdict != nil && c.verdict.IsEmergency() {
			return []domain.Action{
				{Name: domain.ActionCallEmergency, Enabled: true},
				{Name: domain.ActionStartOver, Enabled: idle},
			}
		}
		return []domain.Action{
			{Name: domain.ActionBookAppointment, Enabled: idle},
			{Name: domain.ActionStartOver, Enabled: idle},
		}
	case domain.StepBooking:
		return []domain.Action{
			{Name: domain.ActionConfirmBooking, Enabled: idle},
			{Name: domain.ActionBack, Enabled: idle},
			{Name: domain.ActionStartOver, Enabled: idle},
		}
	default:
		return []domain.Action{}
	}
}

func bookingReason(input domain.SymptomInput) string {
	if len(input.Tags) > 0 {
		return "Symptom check: " + strings.Join(input.Tags, ", ")
	}
	return "Symptom check: " + input.Narrative
}
