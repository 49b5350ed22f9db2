package core

import (
	"bytes"
	"fmt"

	"github.com/smarty/deliver/contracts"
)

// ContentIntegrityCheck hashes a file and compares the digest with the
// catalog's. Files without a usable digest pass. When disabled (quick
// verification) every file passes.
type ContentIntegrityCheck struct {
	fileSystem contracts.FileOpener
	enabled    bool
}

func NewContentIntegrityCheck(fileSystem contracts.FileOpener, enabled bool) *ContentIntegrityCheck {
	return &ContentIntegrityCheck{fileSystem: fileSystem, enabled: enabled}
}

func (this *ContentIntegrityCheck) Verify(file contracts.File, localPath string) error {
	if !this.enabled || !file.HasVerifiableDigest() {
		return nil
	}
	actual, err := digestFile(this.fileSystem, localPath, file)
	if err != nil {
		return fmt.Errorf("%w: %q could not be read: %w", contracts.ErrHashMismatch, localPath, err)
	}
	if !bytes.Equal(actual, file.HashBytes) {
		return fmt.Errorf("%w for %q (expected: [%s], actual: [%x])", contracts.ErrHashMismatch, localPath, file.DigestHex(), actual)
	}
	return nil
}
