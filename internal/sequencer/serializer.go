package sequencer

// ChangeAppender serializes a structural change by appending it to dst. It has the shape of
// encoding.BinaryAppender, so any type implementing that can be passed to BeginMetadataChangeEntry directly.
type ChangeAppender interface {
	AppendBinary(dst []byte) ([]byte, error)
}

// Serializer converts structural changes of type T to and from their serialized form.
type Serializer[T any] interface {
	// AppendChange appends the serialized change to dst and returns the extended slice.
	AppendChange(dst []byte, change *T) ([]byte, error)

	// ReadChange overwrites change with the content of data. data points into a read-only mapping and must not be
	// retained after the call returns.
	ReadChange(data []byte, change *T) error
}

// Change binds a change to its serializer, so it can be passed to BeginMetadataChangeEntry.
func Change[T any](serializer Serializer[T], change *T) ChangeAppender {
	return serializedChange[T]{
		serializer: serializer,
		change:     change,
	}
}

type serializedChange[T any] struct {
	serializer Serializer[T]
	change     *T
}

func (s serializedChange[T]) AppendBinary(dst []byte) ([]byte, error) {
	return s.serializer.AppendChange(dst, s.change)
}
