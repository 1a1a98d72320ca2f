package models

// State is the submission lifecycle of one form instance as reported to the
// browser.
//
//	idle -> validating -> rejected | accepted
//
// Validating is the span a submit holds its device lock, so it is never
// reported; a second submit from the same device waits for it to end.
// Rejected may re-enter validating on retry; reset returns to idle.
type State string

const (
	StateIdle     State = "idle"
	StateRejected State = "rejected"
	StateAccepted State = "accepted"
)

// Outcome distinguishes the two kinds of rejection from acceptance.
type Outcome string

const (
	OutcomeAccepted  Outcome = "accepted"
	OutcomeInvalid   Outcome = "invalid"
	OutcomeDuplicate Outcome = "duplicate"
)

// DuplicateNotice is the blocking message shown for a conflicting submission.
const DuplicateNotice = "You have already submitted the form!"

// SubmitResult is what the form displays after a submit attempt.
type SubmitResult struct {
	State    State       `json:"state"`
	Outcome  Outcome     `json:"outcome"`
	Errors   FieldErrors `json:"fields,omitempty"`
	Notice   string      `json:"notice,omitempty"`
	Redirect string      `json:"redirect,omitempty"`
}
