//go:build unix

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/backbone81/wal-sequencer/pkg/sequencer"
)

// describeCmd represents the describe command.
var describeCmd = &cobra.Command{
	Use:          "describe",
	Short:        "Provides detailed information about the sequencer.",
	Long:         `Prints the committed state as stored in the header of the sequencer log.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		header, err := sequencer.ReadHeader(directory())
		if err != nil {
			return err
		}
		fmt.Printf("Directory:             %s\n", directory())
		fmt.Printf("Format Version:        %d\n", header.FormatVersion)
		fmt.Printf("Last Transaction:      %d\n", header.MaxTxn)
		fmt.Printf("Structure Version:     %d\n", header.MaxStructureVersion)
		fmt.Printf("Structural Log Size:   %d\n", header.StructuralLogSize)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(describeCmd)
}
