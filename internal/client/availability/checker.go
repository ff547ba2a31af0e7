// Package availability is the client side of the username check: a bounded
// network probe plus a tracker that throws away answers nobody is waiting
// for anymore.
package availability

import (
	"context"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
)

// MinLength is the shortest username worth asking the server about.
const MinLength = 3

// DefaultTimeout bounds one check when none is configured.
const DefaultTimeout = 3 * time.Second

// Status is what the form shows next to the username field.
type Status int

const (
	StatusUnknown Status = iota
	StatusChecking
	StatusAvailable
	StatusTaken
)

func (s Status) String() string {
	switch s {
	case StatusChecking:
		return "checking"
	case StatusAvailable:
		return "available"
	case StatusTaken:
		return "taken"
	default:
		return "unknown"
	}
}

var (
	takenStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	availableStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	mutedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// Render returns a short styled label for terminals.
func (s Status) Render() string {
	switch s {
	case StatusChecking:
		return mutedStyle.Render("Checking username...")
	case StatusAvailable:
		return availableStyle.Render("Username available")
	case StatusTaken:
		return takenStyle.Render("Username taken")
	default:
		return ""
	}
}

// Prober performs the network call.
type Prober interface {
	CheckUsername(ctx context.Context, username string) (bool, error)
}

// Result of one check. Skipped means no call was made because the username
// is too short.
type Result struct {
	Taken   bool
	Skipped bool
}

// Checker issues bounded availability probes.
type Checker struct {
	prober  Prober
	timeout time.Duration
}

func NewChecker(prober Prober, timeout time.Duration) *Checker {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Checker{prober: prober, timeout: timeout}
}

// Check probes username. A timeout is returned as an error like any other
// transport failure.
func (c *Checker) Check(ctx context.Context, username string) (Result, error) {
	if utf8.RuneCountInString(username) < MinLength {
		return Result{Skipped: true}, nil
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	taken, err := c.prober.CheckUsername(ctx, username)
	if err != nil {
		return Result{}, err
	}
	return Result{Taken: taken}, nil
}

// Ticket identifies one issued check.
type Ticket struct {
	Seq      uint64
	Username string
}

// Tracker holds the displayed status. Only the latest issued ticket may
// update it, and only while its username is still the field's value.
type Tracker struct {
	mu     sync.Mutex
	seq    uint64
	status Status
}

// Begin issues a ticket and shows the checking state.
func (t *Tracker) Begin(username string) Ticket {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.seq++
	t.status = StatusChecking
	return Ticket{Seq: t.seq, Username: username}
}

// Complete applies the outcome of tk if it is still current and reports
// whether it did. Failures and skipped checks show StatusUnknown.
func (t *Tracker) Complete(tk Ticket, current string, res Result, err error) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if tk.Seq != t.seq || tk.Username != current {
		return false
	}
	switch {
	case err != nil, res.Skipped:
		t.status = StatusUnknown
	case res.Taken:
		t.status = StatusTaken
	default:
		t.status = StatusAvailable
	}
	return true
}

// Reset discards every outstanding ticket and clears the status.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.seq++
	t.status = StatusUnknown
}

func (t *Tracker) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}
