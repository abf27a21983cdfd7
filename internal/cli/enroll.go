package cli

import (
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/govdocs-network/govdocs-demo/internal/ca"
)

var enrollAdminCmd = &cobra.Command{
	Use:   "enroll-admin",
	Short: "Enroll the CA registrar identity",
	Long:  `Enroll the bootstrap admin with the certificate authority and store its credentials in the wallet. Safe to re-run: an existing admin identity is left untouched`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newCAClient()
		if err != nil {
			return err
		}

		err = client.EnrollAdmin(cmd.Context())
		var caErr *ca.CAError
		if errors.As(err, &caErr) && caErr.Code() == ca.ErrCodeAlreadyEnrolled {
			appLogger.Info("admin identity already enrolled, nothing to do")
			return nil
		}
		if err != nil {
			return err
		}

		appLogger.Info("admin identity enrolled",
			slog.String("enrollment_id", cfg.AdminEnrollmentID),
			slog.String("wallet", cfg.WalletPath),
		)
		return nil
	},
}

var registerUserCmd = &cobra.Command{
	Use:   "register-user <enrollment-id>",
	Short: "Register and enroll an application identity",
	Long:  `Register a new identity with the certificate authority using the enrolled admin, enroll it, and store its credentials in the wallet. Safe to re-run: an existing identity is left untouched`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		enrollmentID := args[0]

		client, err := newCAClient()
		if err != nil {
			return err
		}

		err = client.RegisterAndEnrollUser(cmd.Context(), enrollmentID)
		var caErr *ca.CAError
		if errors.As(err, &caErr) && caErr.Code() == ca.ErrCodeAlreadyRegistered {
			appLogger.Info("identity already registered, nothing to do",
				slog.String("enrollment_id", enrollmentID),
			)
			return nil
		}
		if err != nil {
			return err
		}

		appLogger.Info("identity registered and enrolled",
			slog.String("enrollment_id", enrollmentID),
			slog.String("wallet", cfg.WalletPath),
		)
		return nil
	},
}
