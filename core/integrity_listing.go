package core

import (
	"errors"
	"fmt"
	"os"

	"github.com/smarty/deliver/contracts"
)

// ListingIntegrityCheck confirms a file exists with the size the catalog records.
type ListingIntegrityCheck struct {
	fileSystem contracts.FileChecker
}

func NewListingIntegrityCheck(fileSystem contracts.FileChecker) *ListingIntegrityCheck {
	return &ListingIntegrityCheck{fileSystem: fileSystem}
}

func (this *ListingIntegrityCheck) Verify(file contracts.File, localPath string) error {
	info, err := this.fileSystem.Stat(localPath)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %q", contracts.ErrFileMissing, localPath)
	}
	if err != nil {
		return fmt.Errorf("%w: %q: %w", contracts.ErrFileMissing, localPath, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %q is a directory", contracts.ErrFileMissing, localPath)
	}
	if info.Size() != file.Size {
		return fmt.Errorf("%w for %q (expected: [%d], actual: [%d])", contracts.ErrSizeMismatch, localPath, file.Size, info.Size())
	}
	return nil
}
