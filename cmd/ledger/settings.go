package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Veraticus/household-ledger/internal/cli"
	"github.com/Veraticus/household-ledger/internal/model"
)

func settingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change ledger settings",
	}

	cmd.AddCommand(showSettingsCmd())
	cmd.AddCommand(setSettingsCmd())
	cmd.AddCommand(passcodeCmd())

	return cmd
}

func showSettingsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the current settings",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			s, err := a.ledger.GetSettings(ctx)
			if err != nil {
				return err
			}

			budget := "not set"
			if s.MonthlyBudget != nil {
				budget = cli.FormatAmount(*s.MonthlyBudget, s.Currency)
			}
			passcode := "off"
			if s.PasscodeEnabled {
				passcode = "on"
			}

			lines := []string{
				fmt.Sprintf("Currency:        %s", s.Currency),
				fmt.Sprintf("Language:        %s", s.Language),
				fmt.Sprintf("Theme:           %s", s.Theme),
				fmt.Sprintf("Week starts on:  %s", s.WeekStart),
				fmt.Sprintf("Monthly budget:  %s", budget),
				fmt.Sprintf("Passcode:        %s", passcode),
				"",
				cli.SubtleStyle.Render(fmt.Sprintf("Trash retention: %d days", int(a.ledger.Retention().Hours()/24))),
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.RenderBox("Settings", strings.Join(lines, "\n")))
			return nil
		},
	}
}

func setSettingsCmd() *cobra.Command {
	var clearBudget bool

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Change settings",
		Example: `  ledger settings set --currency EUR --language en
  ledger settings set --monthly-budget 200000
  ledger settings set --clear-monthly-budget`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			patch := model.SettingsPatch{
				Language:           changedString(cmd, "language"),
				ClearMonthlyBudget: clearBudget,
			}
			if s := changedString(cmd, "currency"); s != nil {
				upper := strings.ToUpper(strings.TrimSpace(*s))
				patch.Currency = &upper
			}
			if s := changedString(cmd, "week-start"); s != nil {
				ws := model.WeekStart(strings.ToLower(*s))
				patch.WeekStart = &ws
			}
			if s := changedString(cmd, "theme"); s != nil {
				theme := model.Theme(strings.ToLower(*s))
				patch.Theme = &theme
			}
			var err error
			if patch.MonthlyBudget, err = changedAmount(cmd, "monthly-budget"); err != nil {
				return err
			}

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			if _, err := a.ledger.UpdateSettings(ctx, patch); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Settings updated"))
			return nil
		},
	}

	cmd.Flags().String("currency", "", "3-letter currency code")
	cmd.Flags().String("language", "", "display language")
	cmd.Flags().String("week-start", "", "sunday or monday")
	cmd.Flags().String("theme", "", "light, dark or system")
	cmd.Flags().String("monthly-budget", "", "overall monthly spending ceiling")
	cmd.Flags().BoolVar(&clearBudget, "clear-monthly-budget", false, "remove the monthly spending ceiling")
	cmd.MarkFlagsMutuallyExclusive("monthly-budget", "clear-monthly-budget")

	return cmd
}

func passcodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "passcode",
		Short: "Manage the passcode lock",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set",
		Short: "Enable the passcode lock with a new passcode",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			prompter := cli.NewPrompter(cmd.InOrStdin(), cmd.OutOrStdout())

			first, err := prompter.Ask(ctx, "New passcode")
			if err != nil {
				return err
			}
			second, err := prompter.Ask(ctx, "Repeat passcode")
			if err != nil {
				return err
			}
			if first != second {
				return errors.New("passcodes do not match")
			}

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.ledger.SetPasscode(ctx, first); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Passcode enabled"))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "verify",
		Short: "Check a passcode against the stored one",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			passcode, err := cli.NewPrompter(cmd.InOrStdin(), cmd.OutOrStdout()).Ask(ctx, "Passcode")
			if err != nil {
				return err
			}
			ok, err := a.ledger.VerifyPasscode(ctx, passcode)
			if err != nil {
				return err
			}
			if !ok {
				return errors.New("passcode does not match")
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Passcode accepted"))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Disable the passcode lock",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.ledger.ClearPasscode(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Passcode disabled"))
			return nil
		},
	})

	return cmd
}
