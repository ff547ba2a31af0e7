package models

import (
	"strings"
	"time"
)

// Record is an accepted registration. Records are immutable once appended;
// the password never becomes part of one.
//
// Invariants:
//   - at most one Record per UsernameKey(Username) across the registry
//   - RegisteredAt is UTC and set once, at acceptance time
type Record struct {
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	DateOfBirth  *Date     `json:"dob"`
	Address      string    `json:"address"`
	Skills       []string  `json:"skills"`
	RegisteredAt time.Time `json:"registeredAt"`
}

// Key returns the uniqueness key of the record.
func (r *Record) Key() string {
	return UsernameKey(r.Username)
}

// Clone returns a deep copy. Stores hand out clones so callers can't mutate
// stored state.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	out := *r
	out.Skills = append([]string(nil), r.Skills...)
	if r.DateOfBirth != nil {
		d := *r.DateOfBirth
		out.DateOfBirth = &d
	}
	return &out
}

// UsernameKey normalizes a username for case-insensitive comparison.
func UsernameKey(username string) string {
	return strings.ToLower(username)
}
