package manifest

import (
	"encoding/binary"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/smarty/deliver/contracts"
)

const headerSizeLength = 4

const (
	headerFieldCompression    protowire.Number = 1
	compressionFieldAlgorithm protowire.Number = 1

	bodyFieldPackage protowire.Number = 1

	packageFieldName protowire.Number = 1
	packageFieldFile protowire.Number = 2

	fileFieldPath protowire.Number = 1
	fileFieldSize protowire.Number = 3
	fileFieldHash protowire.Number = 5

	hashFieldAlgorithm protowire.Number = 1
	hashFieldDigest    protowire.Number = 2
)

// Parse decodes a complete manifest blob: [uint32 BE header size][header][body].
// Nothing is returned unless the whole blob decodes.
func Parse(content []byte) (contracts.Catalog, error) {
	if len(content) <= headerSizeLength {
		return contracts.Catalog{}, contracts.NewFormatError("too short")
	}
	headerSize := uint64(binary.BigEndian.Uint32(content))
	if headerSize >= uint64(len(content)) {
		return contracts.Catalog{}, contracts.NewFormatError(
			fmt.Sprintf("invalid header size %d for manifest of %d bytes", headerSize, len(content)))
	}
	headerEnd := headerSizeLength + int(headerSize)
	if headerEnd > len(content) {
		return contracts.Catalog{}, contracts.NewFormatError(
			fmt.Sprintf("invalid header size %d for manifest of %d bytes", headerSize, len(content)))
	}

	algorithm, err := parseHeader(content[headerSizeLength:headerEnd])
	if err != nil {
		return contracts.Catalog{}, err
	}
	body, err := Decompress(algorithm, content[headerEnd:])
	if err != nil {
		return contracts.Catalog{}, err
	}
	return parseBody(body)
}

func parseHeader(header []byte) (algorithm contracts.CompressionAlgorithm, err error) {
	reader := NewWireReader(header)
	for {
		field, wireType, ok, err := reader.ReadTag()
		if err != nil || !ok {
			return algorithm, err
		}
		if field == headerFieldCompression && wireType == protowire.BytesType {
			settings, err := reader.ReadLengthDelimited()
			if err != nil {
				return 0, err
			}
			if algorithm, err = parseCompressionSettings(settings); err != nil {
				return 0, err
			}
		} else if err = reader.Skip(wireType); err != nil {
			return 0, err
		}
	}
}

func parseCompressionSettings(settings []byte) (algorithm contracts.CompressionAlgorithm, err error) {
	reader := NewWireReader(settings)
	for {
		field, wireType, ok, err := reader.ReadTag()
		if err != nil || !ok {
			return algorithm, err
		}
		if field == compressionFieldAlgorithm && wireType == protowire.VarintType {
			value, err := reader.ReadVarint()
			if err != nil {
				return 0, err
			}
			algorithm = contracts.CompressionAlgorithm(value)
		} else if err = reader.Skip(wireType); err != nil {
			return 0, err
		}
	}
}

func parseBody(body []byte) (catalog contracts.Catalog, err error) {
	reader := NewWireReader(body)
	for {
		field, wireType, ok, err := reader.ReadTag()
		if err != nil {
			return contracts.Catalog{}, err
		}
		if !ok {
			return catalog, nil
		}
		if field == bodyFieldPackage && wireType == protowire.BytesType {
			raw, err := reader.ReadLengthDelimited()
			if err != nil {
				return contracts.Catalog{}, err
			}
			item, err := parsePackage(raw)
			if err != nil {
				return contracts.Catalog{}, err
			}
			catalog.Packages = append(catalog.Packages, item)
		} else if err = reader.Skip(wireType); err != nil {
			return contracts.Catalog{}, err
		}
	}
}

// Directory records (field 3) are skipped along with anything unknown.
func parsePackage(raw []byte) (item contracts.Package, err error) {
	reader := NewWireReader(raw)
	for {
		field, wireType, ok, err := reader.ReadTag()
		if err != nil || !ok {
			return item, err
		}
		switch {
		case field == packageFieldName && wireType == protowire.BytesType:
			name, err := reader.ReadLengthDelimited()
			if err != nil {
				return item, err
			}
			item.Name = string(name)
		case field == packageFieldFile && wireType == protowire.BytesType:
			rawFile, err := reader.ReadLengthDelimited()
			if err != nil {
				return item, err
			}
			file, err := parseFile(rawFile)
			if err != nil {
				return item, err
			}
			item.Files = append(item.Files, file)
		default:
			if err = reader.Skip(wireType); err != nil {
				return item, err
			}
		}
	}
}

func parseFile(raw []byte) (file contracts.File, err error) {
	reader := NewWireReader(raw)
	hasPath := false
	for {
		field, wireType, ok, err := reader.ReadTag()
		if err != nil {
			return file, err
		}
		if !ok {
			break
		}
		switch {
		case field == fileFieldPath && wireType == protowire.BytesType:
			path, err := reader.ReadLengthDelimited()
			if err != nil {
				return file, err
			}
			file.Path = string(path)
			hasPath = true
		case field == fileFieldSize && wireType == protowire.VarintType:
			size, err := reader.ReadVarint()
			if err != nil {
				return file, err
			}
			if size > 1<<63-1 {
				return file, contracts.NewFormatError(fmt.Sprintf("file size %d out of range", size))
			}
			file.Size = int64(size)
		case field == fileFieldHash && wireType == protowire.BytesType:
			rawHash, err := reader.ReadLengthDelimited()
			if err != nil {
				return file, err
			}
			if file.HashAlgorithm, file.HashBytes, err = parseHash(rawHash); err != nil {
				return file, err
			}
		default:
			if err = reader.Skip(wireType); err != nil {
				return file, err
			}
		}
	}
	if !hasPath {
		return file, contracts.NewFormatError("file record without a path")
	}
	return file, nil
}

func parseHash(raw []byte) (algorithm contracts.HashAlgorithm, digest []byte, err error) {
	reader := NewWireReader(raw)
	for {
		field, wireType, ok, err := reader.ReadTag()
		if err != nil || !ok {
			return algorithm, digest, err
		}
		switch {
		case field == hashFieldAlgorithm && wireType == protowire.VarintType:
			value, err := reader.ReadVarint()
			if err != nil {
				return 0, nil, err
			}
			algorithm = contracts.HashAlgorithm(value)
		case field == hashFieldDigest && wireType == protowire.BytesType:
			value, err := reader.ReadLengthDelimited()
			if err != nil {
				return 0, nil, err
			}
			digest = append([]byte(nil), value...)
		default:
			if err = reader.Skip(wireType); err != nil {
				return 0, nil, err
			}
		}
	}
}
