package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
)

var initLedgerCmd = &cobra.Command{
	Use:   "init-ledger",
	Short: "Seed the ledger with the chaincode's sample documents",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, cleanup, err := newRegistryService()
		if err != nil {
			return err
		}
		defer cleanup()

		if err := svc.InitLedger(cmd.Context(), identityFlag); err != nil {
			return err
		}

		appLogger.Info("ledger initialized")
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all document records",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, cleanup, err := newRegistryService()
		if err != nil {
			return err
		}
		defer cleanup()

		result, err := svc.ListAll(cmd.Context(), identityFlag)
		if err != nil {
			return err
		}

		fmt.Println(string(result))
		return nil
	},
}

var revokeCmd = &cobra.Command{
	Use:   "revoke <doc-id>",
	Short: "Revoke a document record",
	Long:  `Flip a document record's revoked flag on the ledger. The transition is one-way and revoking an already-revoked document is rejected by the chaincode`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		docID := args[0]

		svc, cleanup, err := newRegistryService()
		if err != nil {
			return err
		}
		defer cleanup()

		result, err := svc.Revoke(cmd.Context(), identityFlag, docID)
		if err != nil {
			return err
		}

		appLogger.Info("document revoked", slog.String("doc_id", docID))
		fmt.Println(string(result))
		return nil
	},
}

var identityFlag string

func init() {
	for _, cmd := range []*cobra.Command{initLedgerCmd, listCmd, revokeCmd} {
		cmd.Flags().StringVar(&identityFlag, "identity", "", "wallet identity to sign with (defaults to the configured identity)")
	}
}
