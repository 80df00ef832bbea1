//go:build unix

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	appendWalID      int32
	appendSegmentID  int32
	appendSegmentTxn uint64
)

// appendCmd represents the append command.
var appendCmd = &cobra.Command{
	Use:          "append",
	Short:        "Commits a data transaction.",
	Long:         `Commits a data transaction which references the given WAL writer, segment and segment transaction.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		transactionLog, err := openWriter()
		if err != nil {
			return err
		}
		txn, err := transactionLog.AddEntry(appendWalID, appendSegmentID, appendSegmentTxn)
		if closeErr := transactionLog.Close(); err == nil {
			err = closeErr
		}
		if err != nil {
			return err
		}
		fmt.Printf("Committed transaction %d.\n", txn)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(appendCmd)
	addSyncPolicyFlag(appendCmd)

	appendCmd.Flags().Int32Var(&appendWalID, "wal", 1, "The WAL writer holding the data.")
	appendCmd.Flags().Int32Var(&appendSegmentID, "segment", 0, "The WAL segment holding the data.")
	appendCmd.Flags().Uint64Var(&appendSegmentTxn, "segment-txn", 0, "The transaction within the WAL segment.")
}
