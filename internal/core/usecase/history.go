package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/kirillkom/symptom-triage/internal/core/domain"
	"github.com/kirillkom/symptom-triage/internal/core/ports"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

type HistoryService struct {
	sessions ports.SessionStore
	exporter ports.SessionExporter
}

func NewHistoryService(sessions ports.SessionStore, exporter ports.SessionExporter) *HistoryService {
	return &HistoryService{sessions: sessions, exporter: exporter}
}

// List returns the user's sessions, newest first.
func (s *HistoryService) List(ctx context.Context, user domain.User, limit int) ([]domain.TriageSession, error) {
	if strings.TrimSpace(user.ID) == "" {
		return nil, domain.WrapError(domain.ErrUnauthorized, "list history", errors.New("user is required"))
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	sessions, err := s.sessions.ListSessions(ctx, user.ID, limit)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}

func (s *HistoryService) Summary(ctx context.Context, user domain.User) (domain.HistorySummary, error) {
	sessions, err := s.List(ctx, user, maxHistoryLimit)
	if err != nil {
		return domain.HistorySummary{}, err
	}
	return summarizeSessions(sessions), nil
}

func (s *HistoryService) Export(ctx context.Context, user domain.User, w io.Writer) error {
	if s.exporter == nil {
		return domain.WrapError(domain.ErrTemporary, "export history", errors.New("exporter is not configured"))
	}
	sessions, err := s.List(ctx, user, maxHistoryLimit)
	if err != nil {
		return err
	}
	if err := s.exporter.ExportSessions(w, sessions); err != nil {
		return fmt.Errorf("export sessions: %w", err)
	}
	return nil
}

func summarizeSessions(sessions []domain.TriageSession) domain.HistorySummary {
	summary := domain.HistorySummary{
		Total: len(sessions),
		ByUrgency: map[domain.Urgency]int{
			domain.UrgencyEmergency: 0,
			domain.UrgencyUrgent:    0,
			domain.UrgencyRoutine:   0,
		},
		ByCategory: map[string]int{},
	}
	for i := range sessions {
		session := sessions[i]
		if session.Urgency().Valid() {
			summary.ByUrgency[session.Urgency()]++
		}
		for _, category := range session.Verdict.SymptomCategories {
			category = strings.ToLower(strings.TrimSpace(category))
			if category == "" {
				continue
			}
			summary.ByCategory[category]++
		}
		if summary.LastSession == nil || session.CreatedAt.After(*summary.LastSession) {
			created := session.CreatedAt
			summary.LastSession = &created
		}
	}
	return summary
}
