//go:build unix

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/backbone81/wal-sequencer/pkg/sequencer"
)

// writerSyncPolicy is shared by all commands which open the sequencer for writing.
var writerSyncPolicy string

func addSyncPolicyFlag(cmd *cobra.Command) {
	cmd.Flags().StringVar(
		&writerSyncPolicy,
		"sync-policy",
		sequencer.SyncPolicyTypeImmediate.String(),
		"When to flush the sequencer files. Valid values are none, immediate, periodic.",
	)
}

// openWriter opens the sequencer in the configured directory with the configured sync policy.
func openWriter() (*sequencer.TransactionLog, error) {
	syncPolicyType, err := sequencer.ParseSyncPolicyType(writerSyncPolicy)
	if err != nil {
		return nil, err
	}
	return sequencer.Open(directory(), sequencer.WithLogger(logger), sequencer.WithSyncPolicy(syncPolicyType))
}
