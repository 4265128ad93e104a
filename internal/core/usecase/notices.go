package usecase

import (
	"sync"
	"time"

	"github.com/kirillkom/symptom-triage/internal/core/domain"
)

const maxNotices = 10

// NoticeBoard collects notices for one session until the user dismisses them.
type NoticeBoard struct {
	mu      sync.Mutex
	notices []domain.Notice
	now     func() time.Time
}

func NewNoticeBoard() *NoticeBoard {
	return &NoticeBoard{now: func() time.Time { return time.Now().UTC() }}
}

func (b *NoticeBoard) Notify(notice domain.Notice) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if notice.CreatedAt.IsZero() {
		notice.CreatedAt = b.now()
	}
	b.notices = append(b.notices, notice)
	if len(b.notices) > maxNotices {
		b.notices = b.notices[len(b.notices)-maxNotices:]
	}
}

func (b *NoticeBoard) Notices() []domain.Notice {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]domain.Notice{}, b.notices...)
}

func (b *NoticeBoard) Dismiss() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.notices = nil
}

type noopObserver struct{}

func (noopObserver) ObserveClassification(domain.Urgency, bool, time.Duration) {}
func (noopObserver) ObserveTransition(domain.Step, domain.Step) {}
func (noopObserver) ObserveSessionSaved(domain.SessionStatus, error) {}
func (noopObserver) ObserveBooking(domain.AppointmentStatus, error) {}
