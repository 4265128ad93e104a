package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/kirillkom/symptom-triage/internal/core/domain"
)

type SessionRepository struct {
	db *sql.DB
}

func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) CreateSession(ctx context.Context, session *domain.TriageSession) error {
	symptomsJSON, err := json.Marshal(nonNilStrings(session.Symptoms))
	if err != nil {
		return fmt.Errorf("marshal symptoms: %w", err)
	}
	verdictJSON, err := json.Marshal(session.Verdict)
	if err != nil {
		return fmt.Errorf("marshal analysis: %w", err)
	}
	responses := session.FollowUpResponses
	if responses == nil {
		responses = []domain.FollowUpAnswer{}
	}
	responsesJSON, err := json.Marshal(responses)
	if err != nil {
		return fmt.Errorf("marshal responses: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO symptom_sessions (
	id, user_id, symptoms, narrative, ai_analysis, user_responses, urgency_level, status, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
`,
		session.ID, session.UserID, symptomsJSON, session.Narrative, verdictJSON, responsesJSON,
		string(session.Urgency()), string(session.Status), session.CreatedAt, session.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.WrapError(domain.ErrConflict, "insert session", err)
		}
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// ListSessions returns the user's sessions, newest first.
func (r *SessionRepository) ListSessions(ctx context.Context, userID string, limit int) ([]domain.TriageSession, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, user_id, symptoms, narrative, ai_analysis, user_responses, status, created_at, updated_at
FROM symptom_sessions
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2
`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	out := make([]domain.TriageSession, 0)
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return out, nil
}

func scanSession(row rowScanner) (domain.TriageSession, error) {
	var session domain.TriageSession
	var symptomsRaw, verdictRaw, responsesRaw []byte
	var status string

	err := row.Scan(
		&session.ID,
		&session.UserID,
		&symptomsRaw,
		&session.Narrative,
		&verdictRaw,
		&responsesRaw,
		&status,
		&session.CreatedAt,
		&session.UpdatedAt,
	)
	if err != nil {
		return domain.TriageSession{}, fmt.Errorf("scan session: %w", err)
	}
	if err := json.Unmarshal(symptomsRaw, &session.Symptoms); err != nil {
		return domain.TriageSession{}, fmt.Errorf("unmarshal symptoms: %w", err)
	}
	if err := json.Unmarshal(verdictRaw, &session.Verdict); err != nil {
		return domain.TriageSession{}, fmt.Errorf("unmarshal analysis: %w", err)
	}
	if len(responsesRaw) > 0 {
		if err := json.Unmarshal(responsesRaw, &session.FollowUpResponses); err != nil {
			return domain.TriageSession{}, fmt.Errorf("unmarshal responses: %w", err)
		}
	}
	session.Status = domain.SessionStatus(status)
	return session, nil
}

func nonNilStrings(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
