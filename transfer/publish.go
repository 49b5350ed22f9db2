package transfer

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"

	"github.com/smarty/deliver/build"
	"github.com/smarty/deliver/contracts"
	"github.com/smarty/deliver/manifest"
)

type PublishFileSystem interface {
	build.PackageBuilderFileSystem
	contracts.FileReader
	contracts.FileWriter
}

// PublishApp writes a content server tree: manifest.proto beside a files/
// directory of digest-named objects. With a bucket address configured the
// same tree is then uploaded there. The manifest goes last in both places so
// a server never advertises objects it doesn't yet hold.
type PublishApp struct {
	config     contracts.PublishConfig
	fileSystem PublishFileSystem
	uploader   contracts.Uploader
	builder    *build.PackageBuilder
	logger     zerolog.Logger
}

// NewPublishApp accepts a nil uploader when config.BucketAddress is nil.
func NewPublishApp(config contracts.PublishConfig, fileSystem PublishFileSystem, uploader contracts.Uploader, logger zerolog.Logger) *PublishApp {
	return &PublishApp{
		config:     config,
		fileSystem: fileSystem,
		uploader:   uploader,
		builder:    build.NewPackageBuilder(fileSystem, logger),
		logger:     logger,
	}
}

func (this *PublishApp) Run(ctx context.Context) (contracts.Catalog, error) {
	this.logger.Info().Str("source", this.config.SourceDirectory).Msg("building the package")
	catalog, err := this.builder.Build(this.config.SourceDirectory, this.config.OutputDirectory)
	if err != nil {
		return contracts.Catalog{}, err
	}

	raw, err := manifest.Encode(catalog, manifest.EncodeOptions{Compress: this.config.Compress})
	if err != nil {
		return contracts.Catalog{}, fmt.Errorf("encoding manifest: %w", err)
	}
	target := filepath.Join(this.config.OutputDirectory, contracts.RemoteManifestFilename)
	if err = this.fileSystem.WriteFile(target+".tmp", raw); err != nil {
		return contracts.Catalog{}, err
	}
	if err = this.fileSystem.Rename(target+".tmp", target); err != nil {
		return contracts.Catalog{}, err
	}

	this.logger.Info().
		Str("manifest", target).
		Str("manifest_size", humanize.Bytes(uint64(len(raw)))).
		Str("install_size", humanize.Bytes(uint64(catalog.TotalInstallSize()))).
		Bool("compressed", this.config.Compress).
		Msg("published")

	if this.config.BucketAddress == nil {
		return catalog, nil
	}
	if err = this.upload(ctx, catalog, raw); err != nil {
		return contracts.Catalog{}, err
	}
	return catalog, nil
}

func (this *PublishApp) upload(ctx context.Context, catalog contracts.Catalog, rawManifest []byte) error {
	base := *this.config.BucketAddress
	uploaded := make(map[string]struct{})
	var size int64
	for _, file := range catalog.AllFiles() {
		digest := file.DigestHex()
		if _, found := uploaded[digest]; found {
			continue
		}
		body, err := this.fileSystem.ReadFile(filepath.Join(this.config.OutputDirectory, contracts.RemoteFilesDirectory, digest))
		if err != nil {
			return err
		}
		err = this.uploader.Upload(ctx, contracts.UploadRequest{
			RemoteAddress: contracts.AppendRemotePath(base, contracts.RemoteFilesDirectory, digest),
			Body:          body,
			ContentType:   "application/octet-stream",
		})
		if err != nil {
			return err
		}
		uploaded[digest] = struct{}{}
		size += int64(len(body))
	}

	address := contracts.AppendRemotePath(base, contracts.RemoteManifestFilename)
	err := this.uploader.Upload(ctx, contracts.UploadRequest{
		RemoteAddress: address,
		Body:          rawManifest,
		ContentType:   "application/x-protobuf",
	})
	if err != nil {
		return err
	}
	this.logger.Info().
		Str("manifest", address.String()).
		Int("objects", len(uploaded)).
		Str("uploaded", humanize.Bytes(uint64(size))).
		Msg("uploaded")
	return nil
}
