//go:build unix

package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/backbone81/wal-sequencer/pkg/sequencer"
)

var errChangeFormatMismatch = errors.New("structural changes of the table are stored in a different format")

var (
	alterType    string
	alterColumn  string
	alterNewName string
	alterValue   string
	alterJSON    bool
)

// alterCmd represents the alter command.
var alterCmd = &cobra.Command{
	Use:          "alter",
	Short:        "Commits a structural change.",
	Long:         `Commits a structural change as the next structure version.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		operationType, err := sequencer.ParseOperationType(alterType)
		if err != nil {
			return err
		}
		operation := sequencer.Operation{
			Type:    operationType,
			Column:  alterColumn,
			NewName: alterNewName,
			Value:   alterValue,
		}
		serializer, err := operationSerializer(alterJSON)
		if err != nil {
			return err
		}

		if err := checkChangeFormat(directory(), serializer); err != nil {
			return err
		}

		transactionLog, err := openWriter()
		if err != nil {
			return err
		}
		txn, err := commitOperation(transactionLog, serializer, &operation)
		if closeErr := transactionLog.Close(); err == nil {
			err = closeErr
		}
		if err != nil {
			return err
		}
		fmt.Printf("Committed structure version %d as transaction %d.\n", transactionLog.MaxStructureVersion(), txn)
		return nil
	},
}

// checkChangeFormat makes sure the most recent structural change of the table can be read with the serializer. All
// changes of a table need to share one format, as they are read back with a single serializer.
func checkChangeFormat(directory string, serializer sequencer.Serializer[sequencer.Operation]) error {
	initialized, err := sequencer.IsInitialized(directory)
	if err != nil || !initialized {
		return err
	}
	header, err := sequencer.ReadHeader(directory)
	if err != nil {
		return err
	}
	if header.MaxStructureVersion == 0 {
		return nil
	}

	changeLog, err := sequencer.OpenOperationChangeLog(directory, header.MaxStructureVersion-1, serializer)
	if err != nil {
		return err
	}
	defer func() {
		_ = changeLog.Close()
	}()
	if !changeLog.Next() {
		return fmt.Errorf("%w: reading structure version %d: %w", errChangeFormatMismatch, header.MaxStructureVersion, changeLog.Err())
	}
	return nil
}

func commitOperation(transactionLog *sequencer.TransactionLog, serializer sequencer.Serializer[sequencer.Operation], operation *sequencer.Operation) (uint64, error) {
	structureVersion := transactionLog.MaxStructureVersion() + 1
	offset, err := transactionLog.BeginMetadataChangeEntry(structureVersion, sequencer.OperationChange(serializer, operation))
	if err != nil {
		return 0, err
	}
	return transactionLog.EndMetadataChangeEntry(structureVersion, offset)
}

func init() {
	rootCmd.AddCommand(alterCmd)
	addSyncPolicyFlag(alterCmd)

	alterCmd.Flags().StringVarP(
		&alterType,
		"type",
		"t",
		"",
		"The kind of change. Valid values are add-column, drop-column, rename-column, change-column-type, set-parameter.",
	)
	alterCmd.Flags().StringVarP(&alterColumn, "column", "c", "", "The column or parameter the change applies to.")
	alterCmd.Flags().StringVar(&alterNewName, "new-name", "", "The new column name for rename-column.")
	alterCmd.Flags().StringVar(&alterValue, "value", "", "The column type or parameter value.")
	alterCmd.Flags().BoolVar(&alterJSON, "json", false, "Store the change as a JSON document instead of the binary form.")
	cobra.CheckErr(alterCmd.MarkFlagRequired("type"))
	cobra.CheckErr(alterCmd.MarkFlagRequired("column"))
}
