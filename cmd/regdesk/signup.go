package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"regdesk/internal/client/availability"
	"regdesk/internal/client/form"
	"regdesk/internal/registration/validation"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	failureStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
)

var signupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Register interactively",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		client := newAPIClient(cfg.Client)
		ctrl := form.New(availability.NewChecker(client, cfg.Client.CheckTimeout), client)
		out := cmd.OutOrStdout()
		ctx := cmd.Context()

		var username string
		for {
			err := huh.NewForm(huh.NewGroup(
				huh.NewInput().Title("Username").Value(&username).Validate(fieldValidator(ctrl, validation.FieldUsername)),
			)).WithTheme(huh.ThemeCharm()).RunWithContext(ctx)
			if err != nil {
				return abortErr(err)
			}
			status := ctrl.Blur(ctx, validation.FieldUsername)
			if label := status.Render(); label != "" {
				fmt.Fprintln(out, label)
			}
			if status != availability.StatusTaken {
				break
			}
		}

		var (
			email, password, confirm, phone, dob, address, skills string
		)
		err = huh.NewForm(
			huh.NewGroup(
				huh.NewInput().Title("Email").Value(&email).Validate(fieldValidator(ctrl, validation.FieldEmail)),
				huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).Value(&password).
					Validate(fieldValidator(ctrl, validation.FieldPassword)).
					DescriptionFunc(func() string {
						return "Strength: " + validation.StrengthLabel(ctrl.PasswordStrength())
					}, &password),
				huh.NewInput().Title("Confirm password").EchoMode(huh.EchoModePassword).Value(&confirm).
					Validate(fieldValidator(ctrl, validation.FieldConfirmPassword)),
			),
			huh.NewGroup(
				huh.NewInput().Title("Phone").Description("Optional, 10 digits").Value(&phone).
					Validate(fieldValidator(ctrl, validation.FieldPhone)),
				huh.NewInput().Title("Date of birth").Description("Optional, YYYY-MM-DD").Value(&dob).
					Validate(fieldValidator(ctrl, validation.FieldDateOfBirth)),
				huh.NewText().Title("Address").Value(&address).
					Validate(fieldValidator(ctrl, validation.FieldAddress)),
				huh.NewInput().Title("Skills").Description("Comma separated").Value(&skills).
					Validate(skillsValidator(ctrl)),
			),
		).WithTheme(huh.ThemeCharm()).RunWithContext(ctx)
		if err != nil {
			return abortErr(err)
		}

		outcome, err := ctrl.Submit(ctx)
		if err != nil {
			return err
		}
		if outcome.State == form.StateAccepted {
			fmt.Fprintln(out, successStyle.Render(outcome.Message))
			return nil
		}
		fmt.Fprintln(out, failureStyle.Render(outcome.Message))
		for field, msg := range ctrl.VisibleErrors() {
			fmt.Fprintf(out, "  %s: %s\n", field, msg)
		}
		return errors.New("registration rejected")
	},
}

func fieldValidator(ctrl *form.Controller, field validation.Field) func(string) error {
	return func(value string) error {
		if err := ctrl.Set(field, value); err != nil {
			return err
		}
		if msg := ctrl.Errors()[field]; msg != "" {
			return errors.New(msg)
		}
		return nil
	}
}

// skillsValidator maps a comma separated list onto the form's skill slots.
func skillsValidator(ctrl *form.Controller) func(string) error {
	return func(value string) error {
		parts := strings.Split(value, ",")
		for len(ctrl.Candidate().Skills) < len(parts) {
			ctrl.AddSkill()
		}
		for len(ctrl.Candidate().Skills) > len(parts) {
			if err := ctrl.RemoveSkill(len(ctrl.Candidate().Skills) - 1); err != nil {
				return err
			}
		}
		for i, p := range parts {
			if err := ctrl.SetSkill(i, strings.TrimSpace(p)); err != nil {
				return err
			}
		}
		if msg := ctrl.Errors()[validation.FieldSkills]; msg != "" {
			return errors.New(msg)
		}
		return nil
	}
}

func abortErr(err error) error {
	if errors.Is(err, huh.ErrUserAborted) {
		return errors.New("signup cancelled")
	}
	return err
}
