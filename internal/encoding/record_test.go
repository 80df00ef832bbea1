package encoding_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/backbone81/wal-sequencer/internal/encoding"
)

var _ = Describe("Record", func() {
	DescribeTable("Encoding records",
		func(record encoding.Record) {
			buffer := make([]byte, encoding.RecordSize)
			for i := range buffer {
				buffer[i] = 0xaa
			}
			encoding.PutRecord(buffer, record)
			Expect(encoding.GetRecord(buffer)).To(Equal(record))
			Expect(buffer[encoding.SegmentTxnOffset+8:]).To(Equal(make([]byte, encoding.RecordReserved)))
		},
		Entry("When writing a data commit", encoding.Record{WalID: 1, SegmentID: 2, SegmentTxn: 3}),
		Entry("When writing a structural change", encoding.StructuralChangeRecord(5)),
		Entry("When writing negative segment ids", encoding.Record{WalID: 7, SegmentID: -3, SegmentTxn: 0}),
	)

	It("should place the fields at their offsets", func() {
		buffer := make([]byte, encoding.RecordSize)
		encoding.PutRecord(buffer, encoding.Record{WalID: -1, SegmentID: 0x01020304, SegmentTxn: 0x0102030405060708})

		Expect(buffer[encoding.WalIDOffset:encoding.SegmentIDOffset]).To(Equal([]byte{0xff, 0xff, 0xff, 0xff}))
		Expect(buffer[encoding.SegmentIDOffset:encoding.SegmentTxnOffset]).To(Equal([]byte{0x04, 0x03, 0x02, 0x01}))
		Expect(buffer[encoding.SegmentTxnOffset : encoding.SegmentTxnOffset+8]).To(Equal([]byte{0x08, 0x07, 0x06, 0x05, 0x04, 0x03, 0x02, 0x01}))
	})

	It("should recognize structural changes", func() {
		Expect(encoding.StructuralChangeRecord(1).IsStructuralChange()).To(BeTrue())
		Expect(encoding.Record{WalID: 1}.IsStructuralChange()).To(BeFalse())
	})

	It("should compute record offsets for 1-based transactions", func() {
		Expect(encoding.RecordOffset(1)).To(Equal(int64(encoding.HeaderSize)))
		Expect(encoding.RecordOffset(3)).To(Equal(int64(encoding.HeaderSize + 2*encoding.RecordSize)))
		Expect(encoding.LogSize(0)).To(Equal(int64(encoding.HeaderSize)))
		Expect(encoding.LogSize(2)).To(Equal(int64(encoding.HeaderSize + 2*encoding.RecordSize)))
	})
})
