//go:build unix

package cmd

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/backbone81/wal-sequencer/pkg/sequencer"
)

var (
	txnsFrom     uint64
	txnsFollow   bool
	txnsInterval time.Duration
)

// txnsCmd represents the txns command.
var txnsCmd = &cobra.Command{
	Use:          "txns",
	Short:        "Lists committed transactions.",
	Long:         `Lists the committed transactions in commit order. With --follow, new transactions are printed as they are committed until interrupted.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		cursor, err := sequencer.OpenCursor(directory(), txnsFrom)
		if err != nil {
			return err
		}
		defer func() {
			if err := cursor.Close(); err != nil {
				logger.Error("Closing the cursor failed.", "error", err)
			}
		}()

		ticker := time.NewTicker(txnsInterval)
		defer ticker.Stop()
		for {
			for cursor.Next() {
				printTransaction(cursor.Value())
			}
			if err := cursor.Err(); err != nil {
				return err
			}
			if !txnsFollow {
				return nil
			}

			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
			}
		}
	},
}

func printTransaction(value sequencer.TransactionLogCursorValue) {
	if value.IsStructuralChange() {
		fmt.Printf("%20d  structural change to version %d\n", value.Txn, value.SegmentTxn)
		return
	}
	fmt.Printf("%20d  wal %d segment %d txn %d\n", value.Txn, value.WalID, value.SegmentID, value.SegmentTxn)
}

func init() {
	rootCmd.AddCommand(txnsCmd)

	txnsCmd.Flags().Uint64VarP(
		&txnsFrom,
		"from",
		"f",
		1,
		"The first transaction to list.",
	)
	txnsCmd.Flags().BoolVar(
		&txnsFollow,
		"follow",
		false,
		"Keep waiting for new transactions.",
	)
	txnsCmd.Flags().DurationVar(
		&txnsInterval,
		"interval",
		100*time.Millisecond,
		"How often to poll for new transactions when following.",
	)
}
