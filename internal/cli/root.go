package cli

import (
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/govdocs-network/govdocs-demo/internal/config"
	"github.com/govdocs-network/govdocs-demo/internal/logger"
	"github.com/govdocs-network/govdocs-demo/internal/version"
)

var (
	cfg       *config.ServerEnvironment
	appLogger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:               "govdocs-admin",
	CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
	Short:             "Document registry administration CLI",
	Long:              `Administration CLI for the document registry: enroll identities with the Fabric CA and run ledger maintenance transactions`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.NewServerConfig()
		if err != nil {
			log.Printf("failed to load configuration: %v", err.Error())
			return err
		}

		appLogger = logger.InitLogger(logger.ParseLogLevel(cfg.LogLevel), cfg.Environment)
		return nil
	},
}

func Execute() {
	v := version.Get()
	rootCmd.Version = fmt.Sprintf("%s (built %s, commit %s)", v.Version, v.BuildDate, v.GitCommit)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(enrollAdminCmd)
	rootCmd.AddCommand(registerUserCmd)
	rootCmd.AddCommand(initLedgerCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(revokeCmd)
}
