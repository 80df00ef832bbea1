//go:build unix

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/backbone81/wal-sequencer/pkg/sequencer"
)

var initPreAllocationSize int64

// initCmd represents the init command.
var initCmd = &cobra.Command{
	Use:          "init",
	Short:        "Initializes a new sequencer.",
	Long:         `Creates the empty sequencer files in the table directory.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		initialized, err := sequencer.IsInitialized(directory())
		if err != nil {
			return err
		}
		if initialized {
			return fmt.Errorf("sequencer already initialized at %q", directory())
		}

		if err := sequencer.Init(
			directory(),
			sequencer.WithPreAllocationSize(initPreAllocationSize),
			sequencer.WithLogger(logger),
		); err != nil {
			return err
		}
		fmt.Printf("Sequencer initialized at %q.\n", directory())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().Int64VarP(
		&initPreAllocationSize,
		"pre-allocation-size",
		"p",
		64*1024,
		"The granularity in bytes the sequencer files grow with.",
	)
}
