package manifest

import (
	"bytes"
	"encoding/binary"

	"github.com/mholt/archiver"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/smarty/deliver/contracts"
)

type EncodeOptions struct {
	Compress bool
}

// Encode writes catalog in the same layout Parse reads. Compressed bodies are XZ streams.
func Encode(catalog contracts.Catalog, options EncodeOptions) ([]byte, error) {
	body := EncodeBody(catalog)
	if !options.Compress {
		return Assemble(contracts.CompressionNone, body), nil
	}
	compressed := new(bytes.Buffer)
	if err := archiver.NewXz().Compress(bytes.NewReader(body), compressed); err != nil {
		return nil, err
	}
	return Assemble(contracts.CompressionLZMA, compressed.Bytes()), nil
}

// Assemble frames an already prepared (and possibly compressed) body behind its header.
func Assemble(algorithm contracts.CompressionAlgorithm, body []byte) []byte {
	var settings []byte
	settings = protowire.AppendTag(settings, compressionFieldAlgorithm, protowire.VarintType)
	settings = protowire.AppendVarint(settings, uint64(algorithm))

	var header []byte
	header = protowire.AppendTag(header, headerFieldCompression, protowire.BytesType)
	header = protowire.AppendBytes(header, settings)

	content := make([]byte, headerSizeLength, headerSizeLength+len(header)+len(body))
	binary.BigEndian.PutUint32(content, uint32(len(header)))
	content = append(content, header...)
	return append(content, body...)
}

func EncodeBody(catalog contracts.Catalog) []byte {
	var body []byte
	for _, item := range catalog.Packages {
		body = protowire.AppendTag(body, bodyFieldPackage, protowire.BytesType)
		body = protowire.AppendBytes(body, encodePackage(item))
	}
	return body
}

func encodePackage(item contracts.Package) []byte {
	var raw []byte
	raw = protowire.AppendTag(raw, packageFieldName, protowire.BytesType)
	raw = protowire.AppendString(raw, item.Name)
	for _, file := range item.Files {
		raw = protowire.AppendTag(raw, packageFieldFile, protowire.BytesType)
		raw = protowire.AppendBytes(raw, encodeFile(file))
	}
	return raw
}

func encodeFile(file contracts.File) []byte {
	var raw []byte
	raw = protowire.AppendTag(raw, fileFieldPath, protowire.BytesType)
	raw = protowire.AppendString(raw, file.Path)
	raw = protowire.AppendTag(raw, fileFieldSize, protowire.VarintType)
	raw = protowire.AppendVarint(raw, uint64(file.Size))

	var hash []byte
	hash = protowire.AppendTag(hash, hashFieldAlgorithm, protowire.VarintType)
	hash = protowire.AppendVarint(hash, uint64(file.HashAlgorithm))
	hash = protowire.AppendTag(hash, hashFieldDigest, protowire.BytesType)
	hash = protowire.AppendBytes(hash, file.HashBytes)

	raw = protowire.AppendTag(raw, fileFieldHash, protowire.BytesType)
	return protowire.AppendBytes(raw, hash)
}
