package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/household-ledger/internal/common"
	"github.com/Veraticus/household-ledger/internal/config"
)

var (
	cfgFile string
	version = "dev"
	rootCmd = &cobra.Command{
		Use:   "ledger",
		Short: "Household income and expense ledger",
		Long: `ledger keeps a local record of household income and expenses.

Transactions are grouped into categories, deleted entries stay in the trash
for 30 days, and every change is written to an action log.`,
		PersistentPreRunE: initConfig,
		SilenceUsage:      true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.config/ledger/config.yaml)")
	rootCmd.PersistentFlags().String("db", "", "database file (default: $HOME/.local/share/ledger/ledger.db)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "console", "log format (console, json)")

	_ = viper.BindPFlag(config.KeyDatabasePath, rootCmd.PersistentFlags().Lookup("db"))
	_ = viper.BindPFlag(config.KeyLogLevel, rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag(config.KeyLogFormat, rootCmd.PersistentFlags().Lookup("log-format"))

	rootCmd.AddCommand(addCmd())
	rootCmd.AddCommand(listCmd())
	rootCmd.AddCommand(editCmd())
	rootCmd.AddCommand(deleteCmd())
	rootCmd.AddCommand(restoreCmd())
	rootCmd.AddCommand(trashCmd())
	rootCmd.AddCommand(purgeCmd())
	rootCmd.AddCommand(statsCmd())
	rootCmd.AddCommand(categoriesCmd())
	rootCmd.AddCommand(budgetsCmd())
	rootCmd.AddCommand(settingsCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(importCmd())
	rootCmd.AddCommand(importOFXCmd())
	rootCmd.AddCommand(logCmd())
	rootCmd.AddCommand(maintainCmd())
	rootCmd.AddCommand(checkpointCmd())
	rootCmd.AddCommand(versionCmd())
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := rootCmd.ExecuteContext(ctx)
	cancel()

	if err != nil {
		var userErr *common.UserError
		if errors.As(err, &userErr) {
			fmt.Fprintln(os.Stderr, userErr.UserMessage)
			slog.Debug("command failed", "error", userErr.Err)
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func initConfig(_ *cobra.Command, _ []string) error {
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("LEDGER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := common.SetupLogger(viper.GetString(config.KeyLogLevel), viper.GetString(config.KeyLogFormat)); err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	return nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "ledger %s\n", version)
		},
	}
}
