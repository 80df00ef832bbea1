package alter_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/backbone81/wal-sequencer/internal/alter"
)

var _ = Describe("JSONSerializer", func() {
	var serializer *alter.JSONSerializer

	BeforeEach(func() {
		var err error
		serializer, err = alter.NewJSONSerializer()
		Expect(err).ToNot(HaveOccurred())
	})

	It("should write a JSON document", func() {
		operation := alter.Operation{Type: alter.OperationTypeAddColumn, Column: "price", Value: "DOUBLE"}
		Expect(serializer.AppendChange(nil, &operation)).To(MatchJSON(`{"type": 1, "column": "price", "value": "DOUBLE"}`))
	})

	It("should read a JSON document", func() {
		var operation alter.Operation
		Expect(serializer.ReadChange([]byte(`{"type": 3, "column": "price", "newName": "cost"}`), &operation)).To(Succeed())
		Expect(operation).To(Equal(alter.Operation{Type: alter.OperationTypeRenameColumn, Column: "price", NewName: "cost"}))
	})

	DescribeTable("should refuse documents which violate the schema",
		func(document string) {
			operation := alter.Operation{Type: alter.OperationTypeDropColumn, Column: "untouched"}
			Expect(serializer.ReadChange([]byte(document), &operation)).To(MatchError(alter.ErrOperationInvalid))
			Expect(operation.Column).To(Equal("untouched"))
		},
		Entry("When the type is out of range", `{"type": 9, "column": "price"}`),
		Entry("When the column is missing", `{"type": 2}`),
		Entry("When the column is empty", `{"type": 2, "column": ""}`),
		Entry("When there are unknown properties", `{"type": 2, "column": "price", "cascade": true}`),
		Entry("When it is not an object", `[2, "price"]`),
		Entry("When it is not JSON", `type=2`),
	)

	It("should refuse to write invalid operations", func() {
		operation := alter.Operation{Type: alter.OperationTypeChangeColumnType, Column: "price"}
		Expect(serializer.AppendChange(nil, &operation)).Error().To(MatchError(alter.ErrOperationInvalid))
	})
})

var _ = Describe("BinarySerializer", func() {
	It("should append to the given buffer", func() {
		operation := alter.Operation{Type: alter.OperationTypeDropColumn, Column: "a"}
		Expect(alter.BinarySerializer{}.AppendChange([]byte{0xff}, &operation)).To(Equal([]byte{0xff, 2, 1, 'a', 0, 0}))

		var result alter.Operation
		Expect(alter.BinarySerializer{}.ReadChange([]byte{2, 1, 'a', 0, 0}, &result)).To(Succeed())
		Expect(result).To(Equal(operation))
	})
})
