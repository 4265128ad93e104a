package domain

// Step is the position of a triage session in the wizard.
type Step string

const (
	StepInput    Step = "input"
	StepFollowUp Step = "followup"
	StepResult   Step = "result"
	StepBooking  Step = "booking"
	StepBooked   Step = "booked"
)

var stepTransitions = map[Step][]Step{
	StepInput:    {StepFollowUp, StepResult},
	StepFollowUp: {StepFollowUp, StepResult, StepInput},
	StepResult:   {StepBooking, StepInput},
	StepBooking:  {StepResult, StepBooked, StepInput},
	StepBooked:   {},
}

// CanTransition reports whether the wizard may move from one step to
// another. "Start over" (any non-terminal step back to input) is listed
// explicitly in the table.
func CanTransition(from, to Step) bool {
	for _, next := range stepTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func (s Step) Terminal() bool {
	return s == StepBooked
}

type SessionStatus string

const (
	SessionActive    SessionStatus = "active"
	SessionCompleted SessionStatus = "completed"
	SessionEmergency SessionStatus = "emergency"
)

// StatusForVerdict derives the stored status of a finalized session.
func StatusForVerdict(v Verdict) SessionStatus {
	if v.IsEmergency() {
		return SessionEmergency
	}
	return SessionCompleted
}
