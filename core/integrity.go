package core

import (
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/smarty/deliver/contracts"
	"github.com/smarty/deliver/manifest"
)

type VerifierFileSystem interface {
	contracts.FileChecker
	contracts.FileOpener
	contracts.DirectoryChecker
}

// Verifier audits an installation against a catalog without touching the
// network or modifying anything on disk.
type Verifier struct {
	fileSystem VerifierFileSystem
	store      contracts.ContentStore
	check      contracts.IntegrityCheck
	logger     zerolog.Logger
}

// NewVerifier checks existence, then size, then (unless quick) the digest of every file.
func NewVerifier(fileSystem VerifierFileSystem, store contracts.ContentStore, quick bool, logger zerolog.Logger) *Verifier {
	return &Verifier{
		fileSystem: fileSystem,
		store:      store,
		check: NewCompoundIntegrityCheck(
			NewListingIntegrityCheck(fileSystem),
			NewContentIntegrityCheck(fileSystem, !quick),
		),
		logger: logger,
	}
}

func (this *Verifier) VerifyContent(contentID, installDir string) (contracts.VerificationResult, error) {
	raw, found, err := this.store.Get(contentID)
	if err != nil {
		return contracts.VerificationResult{}, err
	}
	if !found {
		return contracts.VerificationResult{}, fmt.Errorf("%w: %q", contracts.ErrManifestNotCached, contentID)
	}
	catalog, err := manifest.Parse(raw)
	if err != nil {
		return contracts.VerificationResult{}, err
	}
	return this.Verify(catalog, installDir)
}

func (this *Verifier) Verify(catalog contracts.Catalog, installDir string) (result contracts.VerificationResult, err error) {
	if err = this.inspectRoot(installDir); err != nil {
		return result, err
	}
	for _, file := range catalog.AllFiles() {
		verdict := this.verify(file, installDir)
		switch {
		case verdict == nil:
			result.VerifiedOK++
			continue
		case errors.Is(verdict, contracts.ErrSizeMismatch):
			result.SizeMismatch++
		case errors.Is(verdict, contracts.ErrHashMismatch):
			result.HashMismatch++
		default:
			result.Missing++
		}
		result.FailedPaths = append(result.FailedPaths, file.Path)
		this.logger.Debug().Err(verdict).Str("file", file.Path).Msg("verification failed")
	}
	this.logger.Info().
		Int("ok", result.VerifiedOK).
		Int("missing", result.Missing).
		Int("size_mismatch", result.SizeMismatch).
		Int("hash_mismatch", result.HashMismatch).
		Str("root", installDir).
		Msg("verification complete")
	return result, nil
}

func (this *Verifier) verify(file contracts.File, installDir string) error {
	localPath, err := file.LocalPath(installDir)
	if err != nil {
		return fmt.Errorf("%w: %w", contracts.ErrFileMissing, err)
	}
	return this.check.Verify(file, localPath)
}

// inspectRoot tolerates a missing root (every file is then missing) but not
// one that exists and cannot be listed.
func (this *Verifier) inspectRoot(installDir string) error {
	info, err := this.fileSystem.Stat(installDir)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return &contracts.FilesystemError{Op: "stat", Path: installDir, Err: err}
	}
	if !info.IsDir() {
		return &contracts.FilesystemError{Op: "stat", Path: installDir, Err: errNotADirectory}
	}
	if _, err = this.fileSystem.IsEmptyDirectory(installDir); err != nil {
		return &contracts.FilesystemError{Op: "open", Path: installDir, Err: err}
	}
	return nil
}

var errNotADirectory = errors.New("not a directory")
