package contracts

import (
	"context"
	"errors"
	"net/url"
)

type InstallationRequest struct {
	RemoteAddress url.URL
	LocalPath     string
}

// IntegrityCheck inspects a single installed file. Failing verdicts wrap
// ErrFileMissing, ErrSizeMismatch or ErrHashMismatch.
type IntegrityCheck interface {
	Verify(file File, localPath string) error
}

var (
	ErrFileMissing  = errors.New("file missing")
	ErrSizeMismatch = errors.New("file size mismatch")
	ErrHashMismatch = errors.New("file hash mismatch")
)

// PackageInstaller fetches and caches a manifest, then installs the catalog it
// describes.
type PackageInstaller interface {
	InstallManifest(ctx context.Context, request InstallationRequest, contentID string) (Catalog, error)
	InstallPackage(ctx context.Context, catalog Catalog, request InstallationRequest, sink ProgressSink) error
}

type ProgressUpdate struct {
	Completed int64
	Total     int64
}

func (this ProgressUpdate) Fraction() float64 {
	if this.Total <= 0 {
		return 1.0
	}
	return float64(this.Completed) / float64(this.Total)
}

type ProgressSink interface {
	Progress(update ProgressUpdate)
}

// ContentStore persists manifest bytes verbatim per content identifier.
type ContentStore interface {
	Get(contentID string) (content []byte, found bool, err error)
	Put(contentID string, content []byte) error
	Delete(contentID string) error
}

type VerificationResult struct {
	Missing      int
	SizeMismatch int
	HashMismatch int
	VerifiedOK   int
	FailedPaths  []string
}

func (this VerificationResult) IsValid() bool {
	return len(this.FailedPaths) == 0
}

type UninstallReport struct {
	DeletedFiles      int
	FailedFiles       int
	MissingFiles      int
	SkippedFiles      int
	PrunedDirectories int
	RootRemoved       bool
	UsedFallback      bool
}
