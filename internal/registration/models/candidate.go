package models

// Candidate is unvalidated registration input as typed into the form.
// Optional fields use the empty string for "absent".
type Candidate struct {
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
	Phone           string
	DateOfBirth     string // YYYY-MM-DD
	Address         string
	Skills          []string
}

// NewCandidate returns an empty candidate with one blank skill slot, the
// shape a fresh form starts in.
func NewCandidate() Candidate {
	return Candidate{Skills: []string{""}}
}

// Clone returns a deep copy so callers can't alias the skills slice.
func (c Candidate) Clone() Candidate {
	c.Skills = append([]string(nil), c.Skills...)
	return c
}
