package core

import (
	"time"

	"github.com/mus-format/mus-go"
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// Timestamps are stored as Unix microseconds.

var float32SliceMUS = ord.NewSliceSer[float32](raw.Float32)

// DocumentMUS serializes Document values in the MUS format.
var DocumentMUS = documentMUS{}

type documentMUS struct{}

var _ mus.Serializer[Document] = DocumentMUS

func (s documentMUS) Marshal(v Document, bs []byte) (n int) {
	n = ord.String.Marshal(v.ID, bs)
	n += ord.String.Marshal(v.Title, bs[n:])
	n += ord.String.Marshal(v.Body, bs[n:])
	n += varint.Int64.Marshal(v.CreatedAt.UnixMicro(), bs[n:])
	n += varint.Int64.Marshal(v.UpdatedAt.UnixMicro(), bs[n:])
	return n
}

func (s documentMUS) Unmarshal(bs []byte) (v Document, n int, err error) {
	var n1 int
	v.ID, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	v.Title, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Body, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	var us int64
	us, n1, err = varint.Int64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.CreatedAt = time.UnixMicro(us).UTC()
	us, n1, err = varint.Int64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.UpdatedAt = time.UnixMicro(us).UTC()
	return
}

func (s documentMUS) Size(v Document) (size int) {
	size = ord.String.Size(v.ID)
	size += ord.String.Size(v.Title)
	size += ord.String.Size(v.Body)
	size += varint.Int64.Size(v.CreatedAt.UnixMicro())
	size += varint.Int64.Size(v.UpdatedAt.UnixMicro())
	return size
}

func (s documentMUS) Skip(bs []byte) (n int, err error) {
	var n1 int
	n, err = ord.String.Skip(bs)
	if err != nil {
		return
	}
	for i := 0; i < 2; i++ {
		n1, err = ord.String.Skip(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	for i := 0; i < 2; i++ {
		n1, err = varint.Int64.Skip(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	return
}

// EmbeddingRecordMUS serializes EmbeddingRecord values in the MUS format.
var EmbeddingRecordMUS = embeddingRecordMUS{}

type embeddingRecordMUS struct{}

var _ mus.Serializer[EmbeddingRecord] = EmbeddingRecordMUS

func (s embeddingRecordMUS) Marshal(v EmbeddingRecord, bs []byte) (n int) {
	n = ord.String.Marshal(v.DocumentID, bs)
	n += float32SliceMUS.Marshal(v.Vector, bs[n:])
	n += varint.Uint64.Marshal(v.Fingerprint, bs[n:])
	n += varint.Int64.Marshal(v.CreatedAt.UnixMicro(), bs[n:])
	return n
}

func (s embeddingRecordMUS) Unmarshal(bs []byte) (v EmbeddingRecord, n int, err error) {
	var n1 int
	v.DocumentID, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	v.Vector, n1, err = float32SliceMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Fingerprint, n1, err = varint.Uint64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	var us int64
	us, n1, err = varint.Int64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.CreatedAt = time.UnixMicro(us).UTC()
	return
}

func (s embeddingRecordMUS) Size(v EmbeddingRecord) (size int) {
	size = ord.String.Size(v.DocumentID)
	size += float32SliceMUS.Size(v.Vector)
	size += varint.Uint64.Size(v.Fingerprint)
	size += varint.Int64.Size(v.CreatedAt.UnixMicro())
	return size
}

func (s embeddingRecordMUS) Skip(bs []byte) (n int, err error) {
	var n1 int
	n, err = ord.String.Skip(bs)
	if err != nil {
		return
	}
	n1, err = float32SliceMUS.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = varint.Uint64.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = varint.Int64.Skip(bs[n:])
	n += n1
	return
}
