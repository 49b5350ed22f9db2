package build

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"

	"github.com/smarty/deliver/contracts"
)

type PackageBuilderFileSystem interface {
	contracts.PathLister
	contracts.FileOpener
	contracts.FileCreator
	contracts.FileChecker
	contracts.Renamer
	contracts.Deleter
}

// PackageBuilder turns a directory into a single-package catalog and writes
// every distinct file, named by its SHA-256 digest, beneath output/files.
type PackageBuilder struct {
	storage PackageBuilderFileSystem
	logger  zerolog.Logger
}

func NewPackageBuilder(storage PackageBuilderFileSystem, logger zerolog.Logger) *PackageBuilder {
	return &PackageBuilder{storage: storage, logger: logger}
}

func (this *PackageBuilder) Build(source, output string) (contracts.Catalog, error) {
	source, output = filepath.Clean(source), filepath.Clean(output)
	listing, err := this.storage.Listing(source)
	if err != nil {
		return contracts.Catalog{}, err
	}

	item := contracts.Package{Name: filepath.Base(source)}
	var stored, skipped int64
	for _, info := range listing {
		if info.IsDir() || isWithin(output, info.Path()) {
			continue
		}
		file, written, err := this.add(source, output, info)
		if err != nil {
			return contracts.Catalog{}, err
		}
		if written {
			stored += file.Size
		} else {
			skipped += file.Size
		}
		item.Files = append(item.Files, file)
	}
	this.logger.Info().
		Int("files", len(item.Files)).
		Str("stored", humanize.Bytes(uint64(stored))).
		Str("deduplicated", humanize.Bytes(uint64(skipped))).
		Msg("package built")
	return contracts.Catalog{Packages: []contracts.Package{item}}, nil
}

func (this *PackageBuilder) add(source, output string, info contracts.FileInfo) (file contracts.File, written bool, err error) {
	relative, err := filepath.Rel(source, info.Path())
	if err != nil {
		return file, false, err
	}
	digest, size, err := this.digest(info.Path())
	if err != nil {
		return file, false, err
	}
	file = contracts.File{
		Path:          filepath.ToSlash(relative),
		Size:          size,
		HashAlgorithm: contracts.HashSHA256,
		HashBytes:     digest,
	}
	this.logger.Debug().Str("file", file.Path).Str("size", humanize.Bytes(uint64(size))).Msg("adding")

	target := filepath.Join(output, contracts.RemoteFilesDirectory, hex.EncodeToString(digest))
	if existing, err := this.storage.Stat(target); err == nil && existing.Size() == size {
		return file, false, nil
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return file, false, err
	}
	return file, true, this.store(info.Path(), target)
}

func (this *PackageBuilder) digest(path string) ([]byte, int64, error) {
	reader, err := this.storage.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer func() { _ = reader.Close() }()
	hasher := sha256.New()
	size, err := io.Copy(hasher, reader)
	if err != nil {
		return nil, 0, fmt.Errorf("hashing %q: %w", path, err)
	}
	return hasher.Sum(nil), size, nil
}

func (this *PackageBuilder) store(path, target string) error {
	reader, err := this.storage.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = reader.Close() }()

	temporary := target + ".tmp"
	writer, err := this.storage.Create(temporary)
	if err != nil {
		return err
	}
	_, err = io.Copy(writer, reader)
	if closeErr := writer.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = this.storage.Rename(temporary, target)
	}
	if err != nil {
		_ = this.storage.Delete(temporary)
		return fmt.Errorf("storing %q: %w", path, err)
	}
	return nil
}

func isWithin(directory, path string) bool {
	relative, err := filepath.Rel(directory, path)
	return err == nil && relative != ".." && !strings.HasPrefix(relative, ".."+string(filepath.Separator))
}
