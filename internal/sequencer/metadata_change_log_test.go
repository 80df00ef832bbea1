//go:build unix

package sequencer_test

import (
	"os"
	"path"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/backbone81/wal-sequencer/internal/alter"
	"github.com/backbone81/wal-sequencer/internal/encoding"
	"github.com/backbone81/wal-sequencer/internal/sequencer"
)

var _ = Describe("TableMetadataChangeLog", func() {
	var dir string
	var transactionLog *sequencer.TransactionLog

	BeforeEach(func() {
		var err error
		dir, err = os.MkdirTemp("", "test-metadata-change-log-*")
		Expect(err).ToNot(HaveOccurred())

		transactionLog, err = sequencer.Open(dir)
		Expect(err).ToNot(HaveOccurred())
	})

	AfterEach(func() {
		Expect(transactionLog.Close()).To(Succeed())
		Expect(os.RemoveAll(dir)).To(Succeed())
	})

	readAll := func(structureVersionLo uint64) []string {
		changeLog, err := sequencer.OpenMetadataChangeLog[[]byte](dir, structureVersionLo, rawSerializer{})
		Expect(err).ToNot(HaveOccurred())
		defer func() {
			Expect(changeLog.Close()).To(Succeed())
		}()

		var result []string
		for changeLog.Next() {
			result = append(result, string(*changeLog.Value()))
		}
		Expect(changeLog.Err()).ToNot(HaveOccurred())
		Expect(changeLog.HasNext()).To(BeFalse())
		return result
	}

	It("should return the most recent change when starting one version back", func() {
		addStructuralChange(transactionLog, 1, rawChange("add-column a"))
		Expect(readAll(0)).To(Equal([]string{"add-column a"}))
	})

	It("should return all changes after the given version in order", func() {
		addStructuralChange(transactionLog, 1, rawChange("first"))
		Expect(transactionLog.AddEntry(1, 0, 0)).Error().ToNot(HaveOccurred())
		addStructuralChange(transactionLog, 2, rawChange("second"))
		addStructuralChange(transactionLog, 3, rawChange(""))
		addStructuralChange(transactionLog, 4, rawChange("fourth"))

		Expect(readAll(0)).To(Equal([]string{"first", "second", "", "fourth"}))
		Expect(readAll(1)).To(Equal([]string{"second", "", "fourth"}))
		Expect(readAll(3)).To(Equal([]string{"fourth"}))
	})

	It("should report if there are changes left", func() {
		addStructuralChange(transactionLog, 1, rawChange("first"))
		addStructuralChange(transactionLog, 2, rawChange("second"))

		changeLog, err := sequencer.OpenMetadataChangeLog[[]byte](dir, 0, rawSerializer{})
		Expect(err).ToNot(HaveOccurred())
		defer func() {
			Expect(changeLog.Close()).To(Succeed())
		}()

		Expect(changeLog.HasNext()).To(BeTrue())
		Expect(changeLog.Next()).To(BeTrue())
		Expect(changeLog.HasNext()).To(BeTrue())
		Expect(changeLog.Next()).To(BeTrue())
		Expect(changeLog.HasNext()).To(BeFalse())
		Expect(changeLog.Next()).To(BeFalse())
		Expect(changeLog.Err()).ToNot(HaveOccurred())
	})

	It("should not see changes committed after opening", func() {
		addStructuralChange(transactionLog, 1, rawChange("first"))

		changeLog, err := sequencer.OpenMetadataChangeLog[[]byte](dir, 0, rawSerializer{})
		Expect(err).ToNot(HaveOccurred())
		defer func() {
			Expect(changeLog.Close()).To(Succeed())
		}()

		addStructuralChange(transactionLog, 2, rawChange("second"))
		Expect(changeLog.Next()).To(BeTrue())
		Expect(string(*changeLog.Value())).To(Equal("first"))
		Expect(changeLog.Next()).To(BeFalse())
	})

	It("should not see a change which only finished the first phase", func() {
		addStructuralChange(transactionLog, 1, rawChange("first"))
		Expect(transactionLog.BeginMetadataChangeEntry(2, rawChange("pending"))).Error().ToNot(HaveOccurred())

		Expect(readAll(0)).To(Equal([]string{"first"}))
		Expect(sequencer.OpenMetadataChangeLog[[]byte](dir, 1, rawSerializer{})).Error().To(MatchError(sequencer.ErrConsistency))
	})

	DescribeTable("should refuse versions without committed changes",
		func(committed uint64, structureVersionLo uint64) {
			for structureVersion := uint64(1); structureVersion <= committed; structureVersion++ {
				addStructuralChange(transactionLog, structureVersion, rawChange("change"))
			}
			Expect(sequencer.OpenMetadataChangeLog[[]byte](dir, structureVersionLo, rawSerializer{})).Error().To(MatchError(sequencer.ErrConsistency))
		},
		Entry("When the log has no changes", uint64(0), uint64(0)),
		Entry("When starting at the committed version", uint64(2), uint64(2)),
		Entry("When starting beyond the committed version", uint64(2), uint64(5)),
	)

	It("should detect a corrupted length prefix", func() {
		addStructuralChange(transactionLog, 1, rawChange("first"))
		Expect(transactionLog.Close()).To(Succeed())

		payloadFile, err := os.OpenFile(path.Join(dir, sequencer.PayloadFileName), os.O_RDWR, 0)
		Expect(err).ToNot(HaveOccurred())
		var prefix [encoding.LengthPrefixSize]byte
		encoding.Endian.PutUint32(prefix[:], encoding.MaxChangeSize+1)
		Expect(payloadFile.WriteAt(prefix[:], 0)).To(Equal(encoding.LengthPrefixSize))
		Expect(payloadFile.Close()).To(Succeed())

		changeLog, err := sequencer.OpenMetadataChangeLog[[]byte](dir, 0, rawSerializer{})
		Expect(err).ToNot(HaveOccurred())
		Expect(changeLog.Next()).To(BeFalse())
		Expect(changeLog.Err()).To(MatchError(sequencer.ErrCorruption))
		Expect(changeLog.HasNext()).To(BeFalse())
		Expect(changeLog.Close()).To(Succeed())

		transactionLog, err = sequencer.Open(dir)
		Expect(err).ToNot(HaveOccurred())
	})

	It("should detect a change which exceeds the committed payload", func() {
		addStructuralChange(transactionLog, 1, rawChange("first"))
		Expect(transactionLog.Close()).To(Succeed())

		payloadFile, err := os.OpenFile(path.Join(dir, sequencer.PayloadFileName), os.O_RDWR, 0)
		Expect(err).ToNot(HaveOccurred())
		var prefix [encoding.LengthPrefixSize]byte
		encoding.Endian.PutUint32(prefix[:], 100)
		Expect(payloadFile.WriteAt(prefix[:], 0)).To(Equal(encoding.LengthPrefixSize))
		Expect(payloadFile.Close()).To(Succeed())

		changeLog, err := sequencer.OpenMetadataChangeLog[[]byte](dir, 0, rawSerializer{})
		Expect(err).ToNot(HaveOccurred())
		Expect(changeLog.Next()).To(BeFalse())
		Expect(changeLog.Err()).To(MatchError(sequencer.ErrCorruption))
		Expect(changeLog.Close()).To(Succeed())

		transactionLog, err = sequencer.Open(dir)
		Expect(err).ToNot(HaveOccurred())
	})

	It("should follow the header published by an open writer", func() {
		for structureVersion := uint64(1); structureVersion <= 3; structureVersion++ {
			addStructuralChange(transactionLog, structureVersion, rawChange("change"))
			Expect(readAll(structureVersion - 1)).To(Equal([]string{"change"}))
		}
	})

	It("should refuse a log which is shorter than the header", func() {
		otherDir, err := os.MkdirTemp("", "test-metadata-change-log-*")
		Expect(err).ToNot(HaveOccurred())
		defer func() {
			Expect(os.RemoveAll(otherDir)).To(Succeed())
		}()
		Expect(os.WriteFile(path.Join(otherDir, sequencer.LogFileName), make([]byte, 10), 0o600)).To(Succeed())

		Expect(sequencer.OpenMetadataChangeLog[[]byte](otherDir, 0, rawSerializer{})).Error().To(MatchError(sequencer.ErrCorruption))
	})

	It("should refuse a log with a different format version", func() {
		addStructuralChange(transactionLog, 1, rawChange("first"))
		Expect(transactionLog.Close()).To(Succeed())

		logFile, err := os.OpenFile(path.Join(dir, sequencer.LogFileName), os.O_RDWR, 0)
		Expect(err).ToNot(HaveOccurred())
		var formatVersion [4]byte
		encoding.Endian.PutUint32(formatVersion[:], 7)
		Expect(logFile.WriteAt(formatVersion[:], encoding.FormatVersionOffset)).Error().ToNot(HaveOccurred())
		Expect(logFile.Close()).To(Succeed())

		Expect(sequencer.OpenMetadataChangeLog[[]byte](dir, 0, rawSerializer{})).Error().To(MatchError(encoding.ErrFormatMismatch))

		encoding.Endian.PutUint32(formatVersion[:], encoding.FormatVersion)
		logFile, err = os.OpenFile(path.Join(dir, sequencer.LogFileName), os.O_RDWR, 0)
		Expect(err).ToNot(HaveOccurred())
		Expect(logFile.WriteAt(formatVersion[:], encoding.FormatVersionOffset)).Error().ToNot(HaveOccurred())
		Expect(logFile.Close()).To(Succeed())
		transactionLog, err = sequencer.Open(dir)
		Expect(err).ToNot(HaveOccurred())
	})

	It("should fail after being closed", func() {
		addStructuralChange(transactionLog, 1, rawChange("first"))

		changeLog, err := sequencer.OpenMetadataChangeLog[[]byte](dir, 0, rawSerializer{})
		Expect(err).ToNot(HaveOccurred())
		Expect(changeLog.Close()).To(Succeed())
		Expect(changeLog.Close()).To(Succeed())

		Expect(changeLog.HasNext()).To(BeFalse())
		Expect(changeLog.Next()).To(BeFalse())
		Expect(changeLog.Err()).To(MatchError(sequencer.ErrClosed))
	})

	Context("With alter operations", func() {
		operations := []alter.Operation{
			{Type: alter.OperationTypeAddColumn, Column: "price", Value: "DOUBLE"},
			{Type: alter.OperationTypeRenameColumn, Column: "price", NewName: "cost"},
			{Type: alter.OperationTypeDropColumn, Column: "cost"},
			{Type: alter.OperationTypeSetParameter, Column: "maxUncommittedRows", Value: "1000"},
		}

		roundTrip := func(serializer sequencer.Serializer[alter.Operation]) {
			for i := range operations {
				addStructuralChange(transactionLog, uint64(i+1), sequencer.Change(serializer, &operations[i]))
			}

			changeLog, err := sequencer.OpenMetadataChangeLog(dir, 0, serializer)
			Expect(err).ToNot(HaveOccurred())
			defer func() {
				Expect(changeLog.Close()).To(Succeed())
			}()

			var result []alter.Operation
			for changeLog.Next() {
				result = append(result, *changeLog.Value())
			}
			Expect(changeLog.Err()).ToNot(HaveOccurred())
			Expect(result).To(Equal(operations))
		}

		It("should round trip the binary form", func() {
			roundTrip(alter.BinarySerializer{})
		})

		It("should round trip the JSON form", func() {
			serializer, err := alter.NewJSONSerializer()
			Expect(err).ToNot(HaveOccurred())
			roundTrip(serializer)
		})

		It("should not record an invalid operation", func() {
			operation := alter.Operation{Type: alter.OperationTypeRenameColumn, Column: "price"}
			Expect(transactionLog.BeginMetadataChangeEntry(1, sequencer.Change[alter.Operation](alter.BinarySerializer{}, &operation))).Error().To(MatchError(alter.ErrOperationInvalid))
			Expect(transactionLog.StructuralLogSize()).To(BeZero())
			Expect(transactionLog.MaxStructureVersion()).To(BeZero())
		})
	})
})
