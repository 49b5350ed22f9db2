package manifest

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/itchio/lzma"
	"github.com/xi2/xz"

	"github.com/smarty/deliver/contracts"
)

type Strategy int

const (
	StrategyNone Strategy = iota
	StrategyRawLZMA
	StrategyXZ
)

func (this Strategy) String() string {
	switch this {
	case StrategyNone:
		return "none"
	case StrategyRawLZMA:
		return "lzma"
	case StrategyXZ:
		return "xz"
	default:
		return fmt.Sprintf("strategy(%d)", int(this))
	}
}

var xzMagic = []byte{0xFD, '7'}

// SelectStrategy picks the body decoder from the header's compression code
// and, for code 1, the leading bytes of the payload.
func SelectStrategy(code contracts.CompressionAlgorithm, payload []byte) (Strategy, error) {
	switch code {
	case contracts.CompressionNone:
		return StrategyNone, nil
	case contracts.CompressionLZMA:
		if bytes.HasPrefix(payload, xzMagic) {
			return StrategyXZ, nil
		}
		return StrategyRawLZMA, nil
	default:
		return 0, contracts.NewFormatError(fmt.Sprintf("unsupported compression algorithm %d", code))
	}
}

func Decompress(code contracts.CompressionAlgorithm, payload []byte) ([]byte, error) {
	strategy, err := SelectStrategy(code, payload)
	if err != nil {
		return nil, err
	}
	return strategy.Decompress(payload)
}

func (this Strategy) Decompress(payload []byte) ([]byte, error) {
	switch this {
	case StrategyNone:
		return payload, nil
	case StrategyXZ:
		reader, err := xz.NewReader(bytes.NewReader(payload), 0)
		if err != nil {
			return nil, &contracts.FormatError{Reason: "corrupt xz stream", Err: err}
		}
		return readAll(reader, "corrupt xz stream")
	case StrategyRawLZMA:
		return decompressLZMA(payload)
	default:
		return nil, contracts.NewFormatError(fmt.Sprintf("unsupported decompression %s", this))
	}
}

const (
	lzmaHeaderLength  = 13
	lzmaMaxProperties = 9 * 5 * 5
	lzmaMaxDictionary = 1 << 27
)

func decompressLZMA(payload []byte) (_ []byte, err error) {
	if len(payload) < lzmaHeaderLength {
		return nil, contracts.NewFormatError("corrupt lzma stream: truncated header")
	}
	if payload[0] >= lzmaMaxProperties {
		return nil, contracts.NewFormatError(fmt.Sprintf("corrupt lzma stream: properties byte 0x%02x", payload[0]))
	}
	// the decoder allocates the whole dictionary up front
	if dictionary := binary.LittleEndian.Uint32(payload[1:5]); dictionary > lzmaMaxDictionary {
		return nil, contracts.NewFormatError(fmt.Sprintf("corrupt lzma stream: dictionary size %d exceeds %d", dictionary, lzmaMaxDictionary))
	}
	defer func() {
		if recovered := recover(); recovered != nil {
			err = contracts.NewFormatError(fmt.Sprintf("corrupt lzma stream: %v", recovered))
		}
	}()
	reader := lzma.NewReader(bytes.NewReader(payload))
	defer func() { _ = reader.Close() }()
	raw, err := readAll(reader, "corrupt lzma stream")
	if err != nil {
		return nil, err
	}
	// all ones means the length is unknown and the stream carries an end marker
	declared := binary.LittleEndian.Uint64(payload[5:lzmaHeaderLength])
	if declared != math.MaxUint64 && declared != uint64(len(raw)) {
		return nil, contracts.NewFormatError(fmt.Sprintf("corrupt lzma stream: %d of %d bytes decoded", len(raw), declared))
	}
	return raw, nil
}

func readAll(reader io.Reader, reason string) ([]byte, error) {
	raw, err := io.ReadAll(reader)
	if err != nil {
		return nil, &contracts.FormatError{Reason: reason, Err: err}
	}
	return raw, nil
}
