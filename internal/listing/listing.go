// Package listing renders the registrations returned by the API.
package listing

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"gopkg.in/yaml.v3"

	"regdesk/internal/client/api"
)

// Format selects an output encoding.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// EmptyMessage is printed by the table format when there is nothing to list.
const EmptyMessage = "No registrations yet."

// ParseFormat accepts table, json or yaml in any case.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatTable, FormatJSON, FormatYAML:
		return f, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown format %q (want table, json or yaml)", s)
	}
}

// Render writes users in insertion order.
func Render(w io.Writer, users []api.User, format Format) error {
	switch format {
	case FormatJSON:
		if users == nil {
			users = []api.User{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(users)
	case FormatYAML:
		return renderYAML(w, users)
	case FormatTable, "":
		return renderTable(w, users)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

type yamlUser struct {
	Username     string   `yaml:"username"`
	Email        string   `yaml:"email"`
	Phone        string   `yaml:"phone,omitempty"`
	DateOfBirth  string   `yaml:"dob,omitempty"`
	Address      string   `yaml:"address"`
	Skills       []string `yaml:"skills"`
	RegisteredAt string   `yaml:"registeredAt"`
}

func renderYAML(w io.Writer, users []api.User) error {
	out := make([]yamlUser, 0, len(users))
	for _, u := range users {
		out = append(out, yamlUser(u))
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("36")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
)

func renderTable(w io.Writer, users []api.User) error {
	if len(users) == 0 {
		_, err := fmt.Fprintln(w, mutedStyle.Render(EmptyMessage))
		return err
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("USERNAME", "EMAIL", "PHONE", "DOB", "ADDRESS", "SKILLS", "REGISTERED").
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	for _, u := range users {
		t.Row(u.Username, u.Email, dash(u.Phone), dash(u.DateOfBirth), u.Address,
			strings.Join(u.Skills, ", "), u.RegisteredAt)
	}
	_, err := fmt.Fprintln(w, t.String())
	return err
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
