package domain

import "time"

type TriageSession struct {
	ID                string            `json:"id"`
	UserID            string            `json:"user_id"`
	Symptoms          []string          `json:"symptoms"`
	Narrative         string            `json:"narrative,omitempty"`
	Verdict           Verdict           `json:"ai_analysis"`
	FollowUpResponses FollowUpResponses `json:"user_responses,omitempty"`
	Status            SessionStatus     `json:"status"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

func (s TriageSession) Urgency() Urgency {
	return s.Verdict.Urgency
}

// HistorySummary aggregates a user's past sessions.
type HistorySummary struct {
	Total       int             `json:"total"`
	ByUrgency   map[Urgency]int `json:"by_urgency"`
	ByCategory  map[string]int  `json:"by_category"`
	LastSession *time.Time      `json:"last_session,omitempty"`
}
