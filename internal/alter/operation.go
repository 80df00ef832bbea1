// Package alter provides the structural changes recorded in the sequencer, like adding or renaming columns.
package alter

import (
	"encoding/binary"
	"errors"
	"fmt"
	"slices"
)

var (
	ErrOperationTypeUnsupported = errors.New("unsupported alter operation type")
	ErrOperationInvalid         = errors.New("invalid alter operation")
	ErrOperationTruncated       = errors.New("truncated alter operation")
)

// OperationType describes the kind of structural change.
type OperationType uint8

const (
	OperationTypeAddColumn OperationType = iota + 1
	OperationTypeDropColumn
	OperationTypeRenameColumn
	OperationTypeChangeColumnType
	OperationTypeSetParameter
)

// String returns a string representation of the operation type.
func (o OperationType) String() string {
	switch o {
	case OperationTypeAddColumn:
		return "add-column"
	case OperationTypeDropColumn:
		return "drop-column"
	case OperationTypeRenameColumn:
		return "rename-column"
	case OperationTypeChangeColumnType:
		return "change-column-type"
	case OperationTypeSetParameter:
		return "set-parameter"
	default:
		return "unknown"
	}
}

// OperationTypes provides a list of supported operation types.
var OperationTypes = []OperationType{
	OperationTypeAddColumn,
	OperationTypeDropColumn,
	OperationTypeRenameColumn,
	OperationTypeChangeColumnType,
	OperationTypeSetParameter,
}

// ParseOperationType returns the operation type for its string representation.
func ParseOperationType(value string) (OperationType, error) {
	for _, operationType := range OperationTypes {
		if operationType.String() == value {
			return operationType, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrOperationTypeUnsupported, value)
}

// Operation is a single structural change of a table.
type Operation struct {
	Type OperationType `json:"type"`

	// The column the operation applies to. For set-parameter this is the parameter name.
	Column string `json:"column"`

	// The new column name for rename-column.
	NewName string `json:"newName,omitempty"`

	// The column type for add-column and change-column-type. The parameter value for set-parameter.
	Value string `json:"value,omitempty"`
}

// Validate makes sure that all fields required by the operation type are set.
func (o *Operation) Validate() error {
	if !slices.Contains(OperationTypes, o.Type) {
		return fmt.Errorf("%w: %d", ErrOperationTypeUnsupported, o.Type)
	}
	if o.Column == "" {
		return fmt.Errorf("%w: %s without a column", ErrOperationInvalid, o.Type)
	}
	switch o.Type {
	case OperationTypeRenameColumn:
		if o.NewName == "" {
			return fmt.Errorf("%w: %s without a new name", ErrOperationInvalid, o.Type)
		}
	case OperationTypeAddColumn, OperationTypeChangeColumnType, OperationTypeSetParameter:
		if o.Value == "" {
			return fmt.Errorf("%w: %s without a value", ErrOperationInvalid, o.Type)
		}
	}
	return nil
}

// String returns a human-readable description of the operation.
func (o *Operation) String() string {
	switch o.Type {
	case OperationTypeRenameColumn:
		return fmt.Sprintf("%s %s to %s", o.Type, o.Column, o.NewName)
	case OperationTypeDropColumn:
		return fmt.Sprintf("%s %s", o.Type, o.Column)
	default:
		return fmt.Sprintf("%s %s %s", o.Type, o.Column, o.Value)
	}
}

// AppendBinary appends the binary form of the operation to dst. The operation is validated first.
//
// The binary form is the operation type as a single byte followed by the column, new name and value, each as a
// uvarint length and the bytes of the string.
func (o *Operation) AppendBinary(dst []byte) ([]byte, error) {
	if err := o.Validate(); err != nil {
		return dst, err
	}
	dst = append(dst, byte(o.Type))
	for _, value := range []string{o.Column, o.NewName, o.Value} {
		dst = binary.AppendUvarint(dst, uint64(len(value)))
		dst = append(dst, value...)
	}
	return dst, nil
}

// UnmarshalBinary overwrites the operation with the binary form in data. The strings are copied, so data can be
// reused afterward.
func (o *Operation) UnmarshalBinary(data []byte) error {
	if len(data) < 1 {
		return ErrOperationTruncated
	}
	result := Operation{
		Type: OperationType(data[0]),
	}
	data = data[1:]
	for _, value := range []*string{&result.Column, &result.NewName, &result.Value} {
		length, lengthBytes := binary.Uvarint(data)
		if lengthBytes <= 0 || uint64(len(data)-lengthBytes) < length {
			return ErrOperationTruncated
		}
		data = data[lengthBytes:]
		*value = string(data[:length])
		data = data[length:]
	}
	if len(data) != 0 {
		return fmt.Errorf("%w: %d trailing bytes", ErrOperationInvalid, len(data))
	}
	if err := result.Validate(); err != nil {
		return err
	}
	*o = result
	return nil
}
