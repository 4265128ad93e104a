package usecase

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/kirillkom/symptom-triage/internal/core/domain"
)

func historyFixture() []domain.TriageSession {
	base := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
	return []domain.TriageSession{
		{
			ID:        "s3",
			CreatedAt: base.Add(48 * time.Hour),
			Verdict:   domain.Verdict{Urgency: domain.UrgencyEmergency, SymptomCategories: []string{"Cardiovascular"}},
		},
		{
			ID:        "s2",
			CreatedAt: base.Add(24 * time.Hour),
			Verdict:   domain.Verdict{Urgency: domain.UrgencyRoutine, SymptomCategories: []string{"respiratory", " "}},
		},
		{
			ID:        "s1",
			CreatedAt: base,
			Verdict:   domain.Verdict{Urgency: domain.UrgencyRoutine, SymptomCategories: []string{"Respiratory", "general"}},
		},
	}
}

func TestHistoryListClampsLimit(t *testing.T) {
	store := &sessionStoreFake{listed: historyFixture()}
	svc := NewHistoryService(store, nil)

	if _, err := svc.List(context.Background(), domain.User{ID: "u"}, 0); err != nil {
		t.Fatalf("list: %v", err)
	}
	if store.limit != defaultHistoryLimit {
		t.Fatalf("expected default limit, got %d", store.limit)
	}
	if _, err := svc.List(context.Background(), domain.User{ID: "u"}, 10_000); err != nil {
		t.Fatalf("list: %v", err)
	}
	if store.limit != maxHistoryLimit {
		t.Fatalf("expected max limit, got %d", store.limit)
	}
	if _, err := svc.List(context.Background(), domain.User{}, 5); !domain.IsKind(err, domain.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestHistorySummaryCounts(t *testing.T) {
	svc := NewHistoryService(&sessionStoreFake{listed: historyFixture()}, nil)

	summary, err := svc.Summary(context.Background(), domain.User{ID: "u"})
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.Total != 3 {
		t.Fatalf("expected 3 sessions, got %d", summary.Total)
	}
	if summary.ByUrgency[domain.UrgencyRoutine] != 2 || summary.ByUrgency[domain.UrgencyEmergency] != 1 {
		t.Fatalf("unexpected urgency counts %v", summary.ByUrgency)
	}
	if summary.ByUrgency[domain.UrgencyUrgent] != 0 {
		t.Fatalf("expected zero urgent, got %d", summary.ByUrgency[domain.UrgencyUrgent])
	}
	if summary.ByCategory["respiratory"] != 2 || summary.ByCategory["cardiovascular"] != 1 {
		t.Fatalf("unexpected category counts %v", summary.ByCategory)
	}
	want := time.Date(2026, 10, 3, 9, 0, 0, 0, time.UTC)
	if summary.LastSession == nil || !summary.LastSession.Equal(want) {
		t.Fatalf("expected last session %v, got %v", want, summary.LastSession)
	}
}

func TestHistoryExport(t *testing.T) {
	exporter := &sessionExporterFake{}
	svc := NewHistoryService(&sessionStoreFake{listed: historyFixture()}, exporter)

	var buf bytes.Buffer
	if err := svc.Export(context.Background(), domain.User{ID: "u"}, &buf); err != nil {
		t.Fatalf("export: %v", err)
	}
	if len(exporter.exported) != 3 || buf.Len() == 0 {
		t.Fatalf("expected exported sessions, got %d", len(exporter.exported))
	}

	noExporter := NewHistoryService(&sessionStoreFake{}, nil)
	if err := noExporter.Export(context.Background(), domain.User{ID: "u"}, &buf); !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected temporary error, got %v", err)
	}
}
