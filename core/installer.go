package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/smarty/deliver/contracts"
	"github.com/smarty/deliver/manifest"
)

const (
	DefaultBatchSize        = 6
	DefaultMaxRetry         = 3
	DefaultProgressInterval = 250 * time.Millisecond

	temporarySuffix = ".tmp"
)

type InstallerOptions struct {
	BatchSize        int
	StrictResume     bool
	ProgressInterval time.Duration
}

type InstallerFileSystem interface {
	contracts.FileChecker
	contracts.FileCreator
	contracts.FileOpener
	contracts.Deleter
	contracts.Renamer
}

type PackageInstaller struct {
	downloader contracts.Downloader
	fileSystem InstallerFileSystem
	store      contracts.ContentStore
	retrier    *Retrier
	logger     zerolog.Logger
	options    InstallerOptions
}

func NewPackageInstaller(
	downloader contracts.Downloader,
	fileSystem InstallerFileSystem,
	store contracts.ContentStore,
	retrier *Retrier,
	logger zerolog.Logger,
	options InstallerOptions,
) *PackageInstaller {
	if options.BatchSize <= 0 {
		options.BatchSize = DefaultBatchSize
	}
	return &PackageInstaller{
		downloader: downloader,
		fileSystem: fileSystem,
		store:      store,
		retrier:    retrier,
		logger:     logger,
		options:    options,
	}
}

func (this *PackageInstaller) DownloadManifest(ctx context.Context, remoteAddress url.URL) ([]byte, error) {
	body, err := this.downloader.Download(ctx, remoteAddress)
	if err != nil {
		return nil, err
	}
	defer func() { _ = body.Close() }()

	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, &contracts.NetworkError{Address: remoteAddress.String(), Err: err}
	}
	return raw, nil
}

// InstallManifest fetches and decodes the manifest at request.RemoteAddress and
// caches the raw bytes under contentID. Nothing is cached unless it decodes.
func (this *PackageInstaller) InstallManifest(ctx context.Context, request contracts.InstallationRequest, contentID string) (contracts.Catalog, error) {
	raw, err := this.DownloadManifest(ctx, request.RemoteAddress)
	if err != nil {
		return contracts.Catalog{}, err
	}
	catalog, err := manifest.Parse(raw)
	if err != nil {
		return contracts.Catalog{}, err
	}
	if err = this.store.Put(contentID, raw); err != nil {
		return contracts.Catalog{}, fmt.Errorf("caching manifest for %q: %w", contentID, err)
	}
	return catalog, nil
}

// InstallPackage downloads every file of the catalog beneath request.LocalPath
// from request.RemoteAddress, a batch at a time. Cancellation is honored
// between batches; files already in flight are allowed to finish. The first
// unrecoverable failure stops all remaining batches.
func (this *PackageInstaller) InstallPackage(ctx context.Context, catalog contracts.Catalog, request contracts.InstallationRequest, sink contracts.ProgressSink) error {
	files := catalog.AllFiles()
	progress := NewProgressTracker(catalog.TotalInstallSize(), sink, this.options.ProgressInterval)
	defer func() { _ = progress.Close() }()

	inFlight := context.WithoutCancel(ctx)
	for start := 0; start < len(files); start += this.options.BatchSize {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := min(start+this.options.BatchSize, len(files))
		group := new(errgroup.Group)
		for _, file := range files[start:end] {
			file := file
			group.Go(func() error { return this.installFile(inFlight, file, request, progress) })
		}
		if err := group.Wait(); err != nil {
			return err
		}
	}
	return nil
}

func (this *PackageInstaller) installFile(ctx context.Context, file contracts.File, request contracts.InstallationRequest, progress *ProgressTracker) error {
	destination, err := file.LocalPath(request.LocalPath)
	if err != nil {
		return &contracts.FilesystemError{Op: "resolve", Path: file.Path, Err: err}
	}
	if this.isSatisfied(file, destination) {
		this.logger.Debug().Str("file", file.Path).Msg("already present, skipping")
		progress.Add(file.Size)
		return nil
	}
	address := contracts.AppendRemotePath(request.RemoteAddress, contracts.RemoteFilesDirectory, file.DigestHex())
	return this.retrier.Do(file.Path, func() error {
		return this.attempt(ctx, file, address, destination, progress)
	})
}

func (this *PackageInstaller) isSatisfied(file contracts.File, destination string) bool {
	info, err := this.fileSystem.Stat(destination)
	if err != nil || info.IsDir() || info.Size() != file.Size {
		return false
	}
	if !this.options.StrictResume || !file.HasVerifiableDigest() {
		return true
	}
	return this.verifyDigest(file, destination) == nil
}

func (this *PackageInstaller) attempt(ctx context.Context, file contracts.File, address url.URL, destination string, progress *ProgressTracker) error {
	temporary := destination + temporarySuffix
	body, err := this.downloader.Download(ctx, address)
	if err != nil {
		return err
	}
	defer func() { _ = body.Close() }()

	reader := NewProgressReader(body, progress.Add)
	err = this.write(reader, temporary, address)
	if err == nil && reader.Count() != file.Size {
		err = &contracts.IntegrityError{
			Path:     file.Path,
			Expected: fmt.Sprintf("%d bytes", file.Size),
			Actual:   fmt.Sprintf("%d bytes", reader.Count()),
		}
	}
	if err == nil && file.HasVerifiableDigest() {
		err = this.verifyDigest(file, temporary)
	}
	if err == nil {
		err = this.replace(temporary, destination)
	}
	if err != nil {
		progress.Add(-reader.Count())
		_ = this.fileSystem.Delete(temporary)
	}
	return err
}

func (this *PackageInstaller) write(reader *ProgressReader, temporary string, address url.URL) error {
	writer, err := this.fileSystem.Create(temporary)
	if err != nil {
		return &contracts.FilesystemError{Op: "create", Path: temporary, Err: err}
	}
	_, err = io.Copy(writer, reader)
	closeErr := writer.Close()
	if err != nil && reader.Failure() != nil {
		return &contracts.NetworkError{Address: address.String(), Err: reader.Failure()}
	}
	if err != nil {
		return &contracts.FilesystemError{Op: "write", Path: temporary, Err: err}
	}
	if closeErr != nil {
		return &contracts.FilesystemError{Op: "close", Path: temporary, Err: closeErr}
	}
	return nil
}

func (this *PackageInstaller) verifyDigest(file contracts.File, path string) error {
	actual, err := digestFile(this.fileSystem, path, file)
	if err != nil {
		return &contracts.FilesystemError{Op: "hash", Path: path, Err: err}
	}
	if string(actual) != string(file.HashBytes) {
		return &contracts.IntegrityError{Path: file.Path, Expected: file.DigestHex(), Actual: fmt.Sprintf("%x", actual)}
	}
	return nil
}

func (this *PackageInstaller) replace(temporary, destination string) error {
	err := this.fileSystem.Delete(destination)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return &contracts.FilesystemError{Op: "remove", Path: destination, Err: err}
	}
	if err = this.fileSystem.Rename(temporary, destination); err != nil {
		return &contracts.FilesystemError{Op: "rename", Path: destination, Err: err}
	}
	return nil
}
