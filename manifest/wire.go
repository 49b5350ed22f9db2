package manifest

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/smarty/deliver/contracts"
)

// WireReader walks the tagged fields of a single message. Every message
// decoder reads a tag, handles the (field, wire type) pairs it knows and
// skips the rest.
type WireReader struct {
	buffer []byte
	offset int
}

func NewWireReader(buffer []byte) *WireReader {
	return &WireReader{buffer: buffer}
}

// ReadTag returns ok == false (and no error) once the buffer is exhausted.
func (this *WireReader) ReadTag() (field protowire.Number, wireType protowire.Type, ok bool, err error) {
	if this.offset >= len(this.buffer) {
		return 0, 0, false, nil
	}
	tag, n := protowire.ConsumeVarint(this.buffer[this.offset:])
	if n < 0 {
		return 0, 0, false, this.malformed("tag", n)
	}
	this.offset += n
	field, wireType = protowire.DecodeTag(tag)
	return field, wireType, true, nil
}

func (this *WireReader) ReadVarint() (uint64, error) {
	value, n := protowire.ConsumeVarint(this.buffer[this.offset:])
	if n < 0 {
		return 0, this.malformed("varint", n)
	}
	this.offset += n
	return value, nil
}

func (this *WireReader) ReadLengthDelimited() ([]byte, error) {
	value, n := protowire.ConsumeBytes(this.buffer[this.offset:])
	if n < 0 {
		return nil, this.malformed("length-delimited field", n)
	}
	this.offset += n
	return value, nil
}

func (this *WireReader) Skip(wireType protowire.Type) error {
	remaining := this.buffer[this.offset:]
	var n int
	switch wireType {
	case protowire.VarintType:
		_, n = protowire.ConsumeVarint(remaining)
	case protowire.Fixed64Type:
		_, n = protowire.ConsumeFixed64(remaining)
	case protowire.BytesType:
		_, n = protowire.ConsumeBytes(remaining)
	case protowire.Fixed32Type:
		_, n = protowire.ConsumeFixed32(remaining)
	default:
		return contracts.NewFormatError(fmt.Sprintf("unsupported wire type %d at offset %d", wireType, this.offset))
	}
	if n < 0 {
		return this.malformed(fmt.Sprintf("wire type %d", wireType), n)
	}
	this.offset += n
	return nil
}

func (this *WireReader) malformed(what string, n int) error {
	return &contracts.FormatError{
		Reason: fmt.Sprintf("unreadable %s at offset %d", what, this.offset),
		Err:    protowire.ParseError(n),
	}
}
