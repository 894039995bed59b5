package checkout

type Status string

const (
	StatusIdle       Status = "IDLE"
	StatusSubmitting Status = "SUBMITTING"
	StatusConfirmed  Status = "CONFIRMED"
	StatusFailed     Status = "FAILED"
)

// IsTerminal reports whether the flow waits for an acknowledgement.
func (s Status) IsTerminal() bool {
	return s == StatusConfirmed || s == StatusFailed
}

// String representation (for logging)
func (s Status) String() string {
	return string(s)
}
