// contaflow is a back-office CLI for managing customers, subscriptions and
// payment links on the Asaas platform, importing bank statements, and
// categorizing financial transactions with rules.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/contaflow/contaflow/internal/cli"
	"github.com/contaflow/contaflow/internal/common"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "contaflow",
		Short: "💰 Back-office finance toolkit",
		Long: `contaflow keeps a local mirror of your customers, subscriptions and
payment links on the Asaas billing platform, imports financial statements
(from Asaas or OFX bank exports), and reconciles transactions against a
chart of categories using prioritized rules.`,
		PersistentPreRunE: initConfig,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.config/contaflow/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "console", "log format (console, json)")

	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))

	rootCmd.AddCommand(customersCmd())
	rootCmd.AddCommand(subscriptionsCmd())
	rootCmd.AddCommand(categoriesCmd())
	rootCmd.AddCommand(rulesCmd())
	rootCmd.AddCommand(transactionsCmd())
	rootCmd.AddCommand(categorizeCmd())
	rootCmd.AddCommand(reconcileCmd())
	rootCmd.AddCommand(reportCmd())
	rootCmd.AddCommand(linksCmd())
	rootCmd.AddCommand(notifyCmd())
	rootCmd.AddCommand(watchCmd())
	rootCmd.AddCommand(authCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(versionCmd())
}

func main() {
	handler := cli.NewInterruptHandler(os.Stderr)
	ctx := handler.HandleInterrupts(context.Background())

	err := rootCmd.ExecuteContext(ctx)

	if err != nil && !handler.WasInterrupted() {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initConfig(_ *cobra.Command, _ []string) error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}

		viper.AddConfigPath(fmt.Sprintf("%s/.config/contaflow", home))
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("CONTAFLOW")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config: %w", err)
		}
		// No config file is fine, defaults and env cover it.
	}

	level := common.ParseLogLevel(viper.GetString("log.level"))
	common.SetupLogger(level, viper.GetString("log.format"))

	return nil
}
