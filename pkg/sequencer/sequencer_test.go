//go:build unix

package sequencer_test

import (
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/backbone81/wal-sequencer/pkg/sequencer"
)

var _ = Describe("Sequencer", func() {
	var dir string

	BeforeEach(func() {
		var err error
		dir, err = os.MkdirTemp("", "test-sequencer-*")
		Expect(err).ToNot(HaveOccurred())
	})

	AfterEach(func() {
		Expect(os.RemoveAll(dir)).To(Succeed())
	})

	It("should register all metrics", func() {
		registry := prometheus.NewRegistry()
		Expect(sequencer.RegisterMetrics(registry)).To(Succeed())
		Expect(sequencer.RegisterMetrics(registry)).ToNot(Succeed())
	})

	It("should commit transactions and structural changes", func() {
		Expect(sequencer.Init(dir)).To(Succeed())
		Expect(sequencer.IsInitialized(dir)).To(BeTrue())

		transactionLog, err := sequencer.Open(dir, sequencer.WithSyncPolicyImmediate())
		Expect(err).ToNot(HaveOccurred())

		Expect(transactionLog.AddEntry(1, 0, 0)).To(Equal(uint64(1)))

		serializer, err := sequencer.NewJSONSerializer()
		Expect(err).ToNot(HaveOccurred())
		operation := sequencer.Operation{Type: sequencer.OperationTypeAddColumn, Column: "price", Value: "DOUBLE"}
		offset, err := transactionLog.BeginMetadataChangeEntry(1, sequencer.OperationChange(serializer, &operation))
		Expect(err).ToNot(HaveOccurred())
		Expect(transactionLog.EndMetadataChangeEntry(1, offset)).To(Equal(uint64(2)))
		Expect(transactionLog.Close()).To(Succeed())

		header, err := sequencer.ReadHeader(dir)
		Expect(err).ToNot(HaveOccurred())
		Expect(header.MaxTxn).To(Equal(uint64(2)))
		Expect(header.MaxStructureVersion).To(Equal(uint64(1)))
		Expect(header.StructuralLogSize).To(Equal(offset))

		cursor, err := sequencer.OpenCursor(dir, 1)
		Expect(err).ToNot(HaveOccurred())
		Expect(cursor.Next()).To(BeTrue())
		Expect(cursor.IsStructuralChange()).To(BeFalse())
		Expect(cursor.Next()).To(BeTrue())
		Expect(cursor.WalID()).To(Equal(sequencer.StructuralChangeWalID))
		Expect(cursor.StructureVersion()).To(Equal(uint64(1)))
		Expect(cursor.Next()).To(BeFalse())
		Expect(cursor.Close()).To(Succeed())

		changeLog, err := sequencer.OpenOperationChangeLog(dir, 0, serializer)
		Expect(err).ToNot(HaveOccurred())
		Expect(changeLog.Next()).To(BeTrue())
		Expect(*changeLog.Value()).To(Equal(operation))
		Expect(changeLog.Next()).To(BeFalse())
		Expect(changeLog.Close()).To(Succeed())
	})
})
