package domain

type ActionName string

const (
	ActionAddSymptom      ActionName = "add_symptom"
	ActionAnalyze         ActionName = "analyze"
	ActionAnswer          ActionName = "answer"
	ActionBack            ActionName = "back"
	ActionBookAppointment ActionName = "book_appointment"
	ActionCallEmergency   ActionName = "call_emergency"
	ActionConfirmBooking  ActionName = "confirm_booking"
	ActionStartOver       ActionName = "start_over"
)

type Action struct {
	Name    ActionName `json:"name"`
	Enabled bool       `json:"enabled"`
}

type FollowUpProgress struct {
	Index    int    `json:"index"`
	Total    int    `json:"total"`
	Question string `json:"question"`
	Answer   string `json:"answer,omitempty"`
}

// TriageView is a read-only snapshot of a triage session for rendering.
type TriageView struct {
	SessionID      string            `json:"session_id"`
	Step           Step              `json:"step"`
	Input          SymptomInput      `json:"input"`
	Verdict        *Verdict          `json:"verdict,omitempty"`
	FollowUp       *FollowUpProgress `json:"follow_up,omitempty"`
	SavedSessionID string            `json:"saved_session_id,omitempty"`
	AppointmentID  string            `json:"appointment_id,omitempty"`
	Busy           bool              `json:"busy"`
	Notices        []Notice          `json:"notices"`
	Actions        []Action          `json:"actions"`
}

func (v TriageView) ActionEnabled(name ActionName) bool {
	for _, a := range v.Actions {
		if a.Name == name {
			return a.Enabled
		}
	}
	return false
}

func (v TriageView) HasAction(name ActionName) bool {
	for _, a := range v.Actions {
		if a.Name == name {
			return true
		}
	}
	return false
}
