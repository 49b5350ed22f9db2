package core

import (
	"crypto/sha256"
	"fmt"
	"hash"
	"io"

	"golang.org/x/crypto/sha3"

	"github.com/smarty/deliver/contracts"
)

// digestFile hashes the file at path with the catalog's algorithm. Shake128
// output is read to the length of the expected digest.
func digestFile(opener contracts.FileOpener, path string, expected contracts.File) ([]byte, error) {
	reader, err := opener.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = reader.Close() }()

	switch expected.HashAlgorithm {
	case contracts.HashSHA256:
		return sum(reader, sha256.New())
	case contracts.HashShake128:
		shake := sha3.NewShake128()
		if _, err = io.Copy(shake, reader); err != nil {
			return nil, err
		}
		digest := make([]byte, len(expected.HashBytes))
		_, err = io.ReadFull(shake, digest)
		return digest, err
	default:
		return nil, fmt.Errorf("unsupported hash algorithm %s", expected.HashAlgorithm)
	}
}

func sum(reader io.Reader, hasher hash.Hash) ([]byte, error) {
	if _, err := io.Copy(hasher, reader); err != nil {
		return nil, err
	}
	return hasher.Sum(nil), nil
}
