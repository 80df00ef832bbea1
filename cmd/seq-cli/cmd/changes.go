//go:build unix

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/backbone81/wal-sequencer/pkg/sequencer"
)

var (
	changesFrom uint64
	changesJSON bool
)

// changesCmd represents the changes command.
var changesCmd = &cobra.Command{
	Use:          "changes",
	Short:        "Lists committed structural changes.",
	Long:         `Lists the structural changes committed after the given structure version.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		header, err := sequencer.ReadHeader(directory())
		if err != nil {
			return err
		}
		if changesFrom >= header.MaxStructureVersion {
			fmt.Printf("No structural changes after version %d.\n", changesFrom)
			return nil
		}

		serializer, err := operationSerializer(changesJSON)
		if err != nil {
			return err
		}
		changeLog, err := sequencer.OpenOperationChangeLog(directory(), changesFrom, serializer)
		if err != nil {
			return err
		}
		defer func() {
			if err := changeLog.Close(); err != nil {
				logger.Error("Closing the structural change log failed.", "error", err)
			}
		}()

		structureVersion := changesFrom
		for changeLog.Next() {
			structureVersion++
			fmt.Printf("%20d  %s\n", structureVersion, changeLog.Value())
		}
		return changeLog.Err()
	},
}

func operationSerializer(useJSON bool) (sequencer.Serializer[sequencer.Operation], error) {
	if useJSON {
		return sequencer.NewJSONSerializer()
	}
	return sequencer.BinarySerializer{}, nil
}

func init() {
	rootCmd.AddCommand(changesCmd)

	changesCmd.Flags().Uint64VarP(
		&changesFrom,
		"from",
		"f",
		0,
		"The structure version to list the changes after.",
	)
	changesCmd.Flags().BoolVar(
		&changesJSON,
		"json",
		false,
		"Decode structural changes stored as JSON documents instead of the binary form.",
	)
}
