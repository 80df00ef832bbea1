//go:build unix

package mmap_test

import (
	"os"
	"path"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/backbone81/wal-sequencer/internal/mmap"
)

var _ = Describe("Region", func() {
	var dir string
	var filePath string

	BeforeEach(func() {
		var err error
		dir, err = os.MkdirTemp("", "test-region-*")
		Expect(err).ToNot(HaveOccurred())
		filePath = path.Join(dir, "region")
	})

	AfterEach(func() {
		Expect(os.RemoveAll(dir)).To(Succeed())
	})

	It("should create and pre-allocate a writable region", func() {
		region, err := mmap.OpenReadWrite(filePath, 10, 4096)
		Expect(err).ToNot(HaveOccurred())
		defer func() {
			Expect(region.Close()).To(Succeed())
		}()

		Expect(region.Len()).To(Equal(int64(4096)))
		fileInfo, err := os.Stat(filePath)
		Expect(err).ToNot(HaveOccurred())
		Expect(fileInfo.Size()).To(Equal(int64(4096)))
	})

	It("should keep the content when growing", func() {
		region, err := mmap.OpenReadWrite(filePath, 4096, 4096)
		Expect(err).ToNot(HaveOccurred())
		defer func() {
			Expect(region.Close()).To(Succeed())
		}()

		copy(region.Bytes(), "foo")
		Expect(region.Grow(4097, 4096)).To(Succeed())
		Expect(region.Len()).To(Equal(int64(8192)))
		Expect(region.Bytes()[:3]).To(Equal([]byte("foo")))
		copy(region.Bytes()[4096:], "bar")
	})

	It("should not shrink when growing to a smaller size", func() {
		region, err := mmap.OpenReadWrite(filePath, 8192, 4096)
		Expect(err).ToNot(HaveOccurred())
		defer func() {
			Expect(region.Close()).To(Succeed())
		}()

		Expect(region.Grow(10, 4096)).To(Succeed())
		Expect(region.Len()).To(Equal(int64(8192)))
	})

	It("should observe writes of a writable region through a read-only region", func() {
		writer, err := mmap.OpenReadWrite(filePath, 4096, 4096)
		Expect(err).ToNot(HaveOccurred())
		defer func() {
			Expect(writer.Close()).To(Succeed())
		}()

		reader, err := mmap.OpenReadOnly(filePath, 16)
		Expect(err).ToNot(HaveOccurred())
		defer func() {
			Expect(reader.Close()).To(Succeed())
		}()

		copy(writer.Bytes(), "hello")
		Expect(reader.Bytes()[:5]).To(Equal([]byte("hello")))

		Expect(writer.Grow(3*4096, 4096)).To(Succeed())
		copy(writer.Bytes()[8192:], "world")
		Expect(reader.Remap(3 * 4096)).To(Succeed())
		Expect(reader.Bytes()[:5]).To(Equal([]byte("hello")))
		Expect(reader.Bytes()[8192 : 8192+5]).To(Equal([]byte("world")))
	})

	It("should map nothing for an empty read-only region", func() {
		Expect(os.WriteFile(filePath, nil, 0o600)).To(Succeed())
		reader, err := mmap.OpenReadOnly(filePath, 0)
		Expect(err).ToNot(HaveOccurred())
		Expect(reader.Len()).To(BeZero())
		Expect(reader.Bytes()).To(BeNil())
		Expect(reader.Close()).To(Succeed())
	})

	It("should refuse to grow a read-only region", func() {
		Expect(os.WriteFile(filePath, make([]byte, 16), 0o600)).To(Succeed())
		reader, err := mmap.OpenReadOnly(filePath, 16)
		Expect(err).ToNot(HaveOccurred())
		defer func() {
			Expect(reader.Close()).To(Succeed())
		}()

		Expect(reader.Grow(4096, 4096)).To(MatchError(mmap.ErrReadOnly))
	})

	It("should fail opening a missing file read-only", func() {
		Expect(mmap.OpenReadOnly(filePath, 16)).Error().To(HaveOccurred())
	})

	It("should allow closing multiple times", func() {
		region, err := mmap.OpenReadWrite(filePath, 4096, 4096)
		Expect(err).ToNot(HaveOccurred())
		Expect(region.Close()).To(Succeed())
		Expect(region.Close()).To(Succeed())
		Expect(region.Sync()).To(MatchError(mmap.ErrClosed))
	})
})
