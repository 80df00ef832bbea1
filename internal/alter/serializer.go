package alter

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/backbone81/wal-sequencer/internal/sequencer"
)

// BinarySerializer stores operations in their compact binary form.
type BinarySerializer struct{}

// BinarySerializer implements sequencer.Serializer.
var _ sequencer.Serializer[Operation] = BinarySerializer{}

func (BinarySerializer) AppendChange(dst []byte, change *Operation) ([]byte, error) {
	return change.AppendBinary(dst)
}

func (BinarySerializer) ReadChange(data []byte, change *Operation) error {
	return change.UnmarshalBinary(data)
}

// OperationSchema is the JSON schema every operation document must satisfy.
const OperationSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["type", "column"],
	"additionalProperties": false,
	"properties": {
		"type": {"type": "integer", "minimum": 1, "maximum": 5},
		"column": {"type": "string", "minLength": 1, "maxLength": 127},
		"newName": {"type": "string", "maxLength": 127},
		"value": {"type": "string", "maxLength": 1024}
	}
}`

// JSONSerializer stores operations as JSON documents. Documents are validated against OperationSchema when
// serializing and deserializing, so a malformed change never makes it into the sequencer.
type JSONSerializer struct {
	schema *gojsonschema.Schema
}

// JSONSerializer implements sequencer.Serializer.
var _ sequencer.Serializer[Operation] = (*JSONSerializer)(nil)

// NewJSONSerializer compiles the operation schema and returns a new JSONSerializer.
func NewJSONSerializer() (*JSONSerializer, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(OperationSchema))
	if err != nil {
		return nil, fmt.Errorf("invalid operation schema: %w", err)
	}
	return &JSONSerializer{
		schema: schema,
	}, nil
}

func (s *JSONSerializer) AppendChange(dst []byte, change *Operation) ([]byte, error) {
	if err := change.Validate(); err != nil {
		return dst, err
	}
	document, err := json.Marshal(change)
	if err != nil {
		return dst, fmt.Errorf("encoding operation: %w", err)
	}
	if err := s.validate(document); err != nil {
		return dst, err
	}
	return append(dst, document...), nil
}

func (s *JSONSerializer) ReadChange(data []byte, change *Operation) error {
	if err := s.validate(data); err != nil {
		return err
	}
	var result Operation
	if err := json.Unmarshal(data, &result); err != nil {
		return fmt.Errorf("decoding operation: %w", err)
	}
	if err := result.Validate(); err != nil {
		return err
	}
	*change = result
	return nil
}

func (s *JSONSerializer) validate(document []byte) error {
	result, err := s.schema.Validate(gojsonschema.NewBytesLoader(document))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrOperationInvalid, err)
	}
	if !result.Valid() {
		descriptions := make([]string, 0, len(result.Errors()))
		for _, resultError := range result.Errors() {
			descriptions = append(descriptions, resultError.String())
		}
		return fmt.Errorf("%w: %s", ErrOperationInvalid, strings.Join(descriptions, "; "))
	}
	return nil
}
