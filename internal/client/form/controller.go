// Package form is the client-side registration state machine. It owns one
// Candidate, recomputes validation on every change, tracks which fields the
// user has touched and drives the username check and the submit call.
package form

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sync"
	"time"

	"regdesk/internal/client/api"
	"regdesk/internal/client/availability"
	"regdesk/internal/registration/models"
	"regdesk/internal/registration/validation"
)

// Submit outcome messages shown to the user.
const (
	MsgFixErrors          = "Fix validation errors before submit"
	MsgNetworkError       = "Network error"
	MsgRegisteredFallback = "Registered"
	MsgRejectedFallback   = "Registration failed"
)

var (
	ErrUnknownField   = errors.New("unknown field")
	ErrSkillIndex     = errors.New("skill index out of range")
	ErrSubmitInFlight = errors.New("submission already in flight")
)

// State of a form session.
type State int

const (
	StateEditing State = iota
	StateSubmitting
	StateAccepted
	StateRejected
)

func (s State) String() string {
	switch s {
	case StateSubmitting:
		return "submitting"
	case StateAccepted:
		return "accepted"
	case StateRejected:
		return "rejected"
	default:
		return "editing"
	}
}

// Submitter sends a registration to the server.
type Submitter interface {
	Register(ctx context.Context, req api.RegisterRequest) (api.Response, error)
}

// Outcome is the result of one Submit call. State is StateAccepted or
// StateRejected.
type Outcome struct {
	State   State
	Message string
	Errors  map[string]string
}

// Controller is safe for concurrent use; network calls run without the lock
// held.
type Controller struct {
	mu        sync.Mutex
	candidate models.Candidate
	touched   map[validation.Field]bool
	errors    validation.Errors
	server    map[string]string
	state     State
	message   string

	checker   *availability.Checker
	tracker   availability.Tracker
	submitter Submitter
	now       func() time.Time
}

type Option func(*Controller)

// WithClock sets the clock used for the age rule.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

func New(checker *availability.Checker, submitter Submitter, opts ...Option) *Controller {
	c := &Controller{
		checker:   checker,
		submitter: submitter,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.reset()
	return c
}

func (c *Controller) reset() {
	c.candidate = models.NewCandidate()
	c.touched = make(map[validation.Field]bool)
	c.server = nil
	c.state = StateEditing
	c.tracker.Reset()
	c.revalidate()
}

func (c *Controller) revalidate() {
	c.errors = validation.Validate(c.candidate, c.now())
}

// Set updates a scalar field. Skills are edited with the skill methods.
func (c *Controller) Set(field validation.Field, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch field {
	case validation.FieldUsername:
		if c.candidate.Username != value {
			c.tracker.Reset()
		}
		c.candidate.Username = value
	case validation.FieldEmail:
		c.candidate.Email = value
	case validation.FieldPassword:
		c.candidate.Password = value
	case validation.FieldConfirmPassword:
		c.candidate.ConfirmPassword = value
	case validation.FieldPhone:
		c.candidate.Phone = value
	case validation.FieldDateOfBirth:
		c.candidate.DateOfBirth = value
	case validation.FieldAddress:
		c.candidate.Address = value
	default:
		return fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	delete(c.server, string(field))
	c.revalidate()
	return nil
}

// SetSkill replaces the skill at index i.
func (c *Controller) SetSkill(i int, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i < 0 || i >= len(c.candidate.Skills) {
		return fmt.Errorf("%w: %d", ErrSkillIndex, i)
	}
	c.candidate.Skills[i] = value
	c.skillsChanged()
	return nil
}

// AddSkill appends an empty skill slot.
func (c *Controller) AddSkill() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.candidate.Skills = append(c.candidate.Skills, "")
	c.skillsChanged()
}

// RemoveSkill deletes the skill at index i.
func (c *Controller) RemoveSkill(i int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i < 0 || i >= len(c.candidate.Skills) {
		return fmt.Errorf("%w: %d", ErrSkillIndex, i)
	}
	c.candidate.Skills = append(c.candidate.Skills[:i], c.candidate.Skills[i+1:]...)
	c.skillsChanged()
	return nil
}

func (c *Controller) skillsChanged() {
	delete(c.server, string(validation.FieldSkills))
	c.revalidate()
}

// Blur marks field touched. Blurring the username runs the availability
// check and returns once it has finished or been superseded.
func (c *Controller) Blur(ctx context.Context, field validation.Field) availability.Status {
	c.mu.Lock()
	c.touched[field] = true
	username := c.candidate.Username
	c.mu.Unlock()

	if field != validation.FieldUsername || c.checker == nil {
		return c.tracker.Status()
	}

	if len(username) < availability.MinLength {
		c.tracker.Reset()
		return c.tracker.Status()
	}
	ticket := c.tracker.Begin(username)
	res, err := c.checker.Check(ctx, username)

	c.mu.Lock()
	current := c.candidate.Username
	c.mu.Unlock()
	c.tracker.Complete(ticket, current, res, err)
	return c.tracker.Status()
}

// UsernameStatus is the displayed availability of the current username.
func (c *Controller) UsernameStatus() availability.Status {
	return c.tracker.Status()
}

// CanSubmit reports whether the submit action is enabled.
func (c *Controller) CanSubmit() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.canSubmitLocked()
}

func (c *Controller) canSubmitLocked() bool {
	return len(c.errors) == 0 &&
		c.tracker.Status() != availability.StatusTaken &&
		c.state != StateSubmitting
}

// Errors returns every current validation error, touched or not.
func (c *Controller) Errors() validation.Errors {
	c.mu.Lock()
	defer c.mu.Unlock()
	return maps.Clone(c.errors)
}

// VisibleErrors returns validation errors of touched fields, plus any field
// errors the server reported on the last submit.
func (c *Controller) VisibleErrors() validation.Errors {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(validation.Errors)
	for field, msg := range c.errors {
		if c.touched[field] {
			out[field] = msg
		}
	}
	for field, msg := range c.server {
		if _, ok := out[validation.Field(field)]; !ok {
			out[validation.Field(field)] = msg
		}
	}
	return out
}

// PasswordStrength scores the current password from 0 to 4.
func (c *Controller) PasswordStrength() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return validation.PasswordStrength(c.candidate.Password)
}

// Candidate returns a copy of the form contents.
func (c *Controller) Candidate() models.Candidate {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.candidate.Clone()
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Message is the outcome message of the last submit.
func (c *Controller) Message() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.message
}

// Submit marks every field touched and, if the form is submittable, sends
// it. On acceptance the form resets to an empty candidate. A transport
// failure is a rejection with MsgNetworkError; the form keeps its contents.
func (c *Controller) Submit(ctx context.Context) (Outcome, error) {
	c.mu.Lock()
	if c.state == StateSubmitting {
		c.mu.Unlock()
		return Outcome{}, ErrSubmitInFlight
	}
	for _, f := range validation.Fields {
		c.touched[f] = true
	}
	c.revalidate()
	if !c.canSubmitLocked() {
		c.message = MsgFixErrors
		c.mu.Unlock()
		return Outcome{State: StateRejected, Message: MsgFixErrors}, nil
	}
	c.state = StateSubmitting
	c.message = ""
	req := toRequest(c.candidate)
	c.mu.Unlock()

	resp, err := c.submitter.Register(ctx, req)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.state = StateEditing
		c.message = MsgNetworkError
		return Outcome{State: StateRejected, Message: MsgNetworkError}, nil
	}
	if !resp.OK {
		c.state = StateEditing
		c.message = fallback(resp.Message, MsgRejectedFallback)
		c.server = maps.Clone(resp.Errors)
		return Outcome{State: StateRejected, Message: c.message, Errors: maps.Clone(resp.Errors)}, nil
	}

	c.reset()
	c.message = fallback(resp.Message, MsgRegisteredFallback)
	return Outcome{State: StateAccepted, Message: c.message}, nil
}

func toRequest(c models.Candidate) api.RegisterRequest {
	confirm := c.ConfirmPassword
	return api.RegisterRequest{
		Username:        c.Username,
		Email:           c.Email,
		Password:        c.Password,
		ConfirmPassword: &confirm,
		Phone:           c.Phone,
		DateOfBirth:     c.DateOfBirth,
		Address:         c.Address,
		Skills:          append([]string(nil), c.Skills...),
	}
}

func fallback(msg, def string) string {
	if msg == "" {
		return def
	}
	return msg
}
