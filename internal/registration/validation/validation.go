// Package validation holds the registration input rules. Everything here is
// pure: the same candidate and the same "now" always give the same result.
package validation

import (
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"regdesk/internal/registration/models"
)

// Field names a candidate field. The values double as JSON keys in API
// error payloads.
type Field string

const (
	FieldUsername        Field = "username"
	FieldEmail           Field = "email"
	FieldPassword        Field = "password"
	FieldConfirmPassword Field = "confirmPassword"
	FieldPhone           Field = "phone"
	FieldDateOfBirth     Field = "dob"
	FieldAddress         Field = "address"
	FieldSkills          Field = "skills"
)

// Fields lists every candidate field in form order.
var Fields = []Field{
	FieldUsername, FieldEmail, FieldPassword, FieldConfirmPassword,
	FieldPhone, FieldDateOfBirth, FieldAddress, FieldSkills,
}

// Business rules. Fixed by product; not configurable.
const (
	MinPasswordLength = 8
	MinimumAge        = 13
)

var (
	usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]{3,20}$`)
	// Deliberately loose: "something@something.something". Not RFC 5322.
	emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)
	phonePattern = regexp.MustCompile(`^\d{10}$`)
)

const (
	MsgUsernameRequired = "Username is required"
	MsgUsernameFormat   = "3-20 chars; letters, numbers, underscore"
	MsgEmailRequired    = "Email is required"
	MsgEmailFormat      = "Invalid email"
	MsgPasswordRequired = "Password required"
	MsgPasswordLength   = "At least 8 characters"
	MsgPasswordMismatch = "Passwords do not match"
	MsgPhoneFormat      = "Enter 10 digit phone"
	MsgDateFormat       = "Enter a valid date (YYYY-MM-DD)"
	MsgTooYoung         = "Must be at least 13 years old"
	MsgAddressRequired  = "Address is required"
	MsgSkills           = "Add at least one skill (no empty)"
)

// Errors maps invalid fields to a user-facing message. A field missing from
// the map is valid.
type Errors map[Field]string

func (e Errors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	parts := make([]string, 0, len(e))
	for _, f := range slices.Sorted(maps.Keys(e)) {
		parts = append(parts, fmt.Sprintf("%s: %s", f, e[f]))
	}
	return "invalid registration: " + strings.Join(parts, "; ")
}

// Has reports whether f has an error.
func (e Errors) Has(f Field) bool {
	_, ok := e[f]
	return ok
}

// Validate checks every field of c independently. now anchors the age rule.
func Validate(c models.Candidate, now time.Time) Errors {
	errs := Errors{}
	for _, f := range Fields {
		if msg := ValidateField(f, c, now); msg != "" {
			errs[f] = msg
		}
	}
	return errs
}

// ValidateField returns the error message for a single field, or "".
func ValidateField(f Field, c models.Candidate, now time.Time) string {
	switch f {
	case FieldUsername:
		return checkUsername(c.Username)
	case FieldEmail:
		return checkEmail(c.Email)
	case FieldPassword:
		return checkPassword(c.Password)
	case FieldConfirmPassword:
		if c.ConfirmPassword != c.Password {
			return MsgPasswordMismatch
		}
	case FieldPhone:
		if c.Phone != "" && !phonePattern.MatchString(c.Phone) {
			return MsgPhoneFormat
		}
	case FieldDateOfBirth:
		return checkDateOfBirth(c.DateOfBirth, now)
	case FieldAddress:
		if strings.TrimSpace(c.Address) == "" {
			return MsgAddressRequired
		}
	case FieldSkills:
		return checkSkills(c.Skills)
	}
	return ""
}

func checkUsername(username string) string {
	if username == "" {
		return MsgUsernameRequired
	}
	if !usernamePattern.MatchString(username) {
		return MsgUsernameFormat
	}
	return ""
}

func checkEmail(email string) string {
	if email == "" {
		return MsgEmailRequired
	}
	if !emailPattern.MatchString(email) {
		return MsgEmailFormat
	}
	return ""
}

func checkPassword(password string) string {
	if password == "" {
		return MsgPasswordRequired
	}
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return MsgPasswordLength
	}
	return ""
}

func checkDateOfBirth(dob string, now time.Time) string {
	if dob == "" {
		return ""
	}
	d, err := models.ParseDate(dob)
	if err != nil {
		return MsgDateFormat
	}
	if d.YearsUntil(now) < MinimumAge {
		return MsgTooYoung
	}
	return ""
}

func checkSkills(skills []string) string {
	if len(skills) == 0 {
		return MsgSkills
	}
	for _, s := range skills {
		if strings.TrimSpace(s) == "" {
			return MsgSkills
		}
	}
	return ""
}
