package core

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/smarty/deliver/contracts"
	"github.com/smarty/deliver/manifest"
)

type UninstallerFileSystem interface {
	contracts.FileChecker
	contracts.Deleter
	contracts.RecursiveDeleter
	contracts.DirectoryChecker
}

// Uninstaller removes installed content. Guided by a catalog it deletes only
// the files the catalog names and the directories they leave empty; without
// one it removes the whole install root.
type Uninstaller struct {
	fileSystem UninstallerFileSystem
	store      contracts.ContentStore
	logger     zerolog.Logger
}

func NewUninstaller(fileSystem UninstallerFileSystem, store contracts.ContentStore, logger zerolog.Logger) *Uninstaller {
	return &Uninstaller{fileSystem: fileSystem, store: store, logger: logger}
}

// UninstallContent uninstalls using the cached manifest of contentID, falling
// back to a recursive delete only when none is cached or it can't be decoded.
// A cache that can't be read leaves the disk untouched. The cache entries are
// evicted once the files are gone.
func (this *Uninstaller) UninstallContent(contentID, installRoot string) (contracts.UninstallReport, error) {
	var catalog *contracts.Catalog
	raw, found, err := this.store.Get(contentID)
	var malformed *contracts.FormatError
	if err != nil && !errors.As(err, &malformed) {
		return contracts.UninstallReport{}, &contracts.FilesystemError{Op: "read", Path: contentID, Err: err}
	}
	if err == nil && found {
		parsed, parseErr := manifest.Parse(raw)
		err = parseErr
		if parseErr == nil {
			catalog = &parsed
		}
	}
	if catalog == nil {
		this.logger.Warn().Err(err).Str("content", contentID).Msg("no usable cached manifest, removing the whole install root")
	}

	report, err := this.Uninstall(catalog, installRoot)
	if err != nil {
		return report, err
	}
	if err = this.store.Delete(contentID); err != nil {
		return report, err
	}
	return report, this.store.Delete(contracts.VersionRecordKey(contentID))
}

func (this *Uninstaller) Uninstall(catalog *contracts.Catalog, installRoot string) (report contracts.UninstallReport, err error) {
	installRoot = filepath.Clean(installRoot)
	if catalog == nil {
		return this.removeAll(installRoot)
	}

	directories := make(map[string]struct{})
	for _, file := range catalog.AllFiles() {
		localPath, err := file.LocalPath(installRoot)
		if err != nil {
			report.SkippedFiles++
			this.logger.Warn().Err(err).Str("file", file.Path).Msg("skipping file outside of install root")
			continue
		}
		if _, err = this.fileSystem.Stat(localPath); errors.Is(err, os.ErrNotExist) {
			report.MissingFiles++
			continue
		}
		if err = this.fileSystem.Delete(localPath); err != nil {
			report.FailedFiles++
			this.logger.Warn().Err(err).Str("file", localPath).Msg("could not delete file")
			continue
		}
		report.DeletedFiles++
		for directory := filepath.Dir(localPath); isStrictlyBeneath(installRoot, directory); directory = filepath.Dir(directory) {
			directories[directory] = struct{}{}
		}
	}

	for _, directory := range deepestFirst(directories) {
		if this.deleteIfEmpty(directory) {
			report.PrunedDirectories++
		}
	}
	report.RootRemoved = this.deleteIfEmpty(installRoot)
	this.logger.Info().
		Int("deleted", report.DeletedFiles).
		Int("failed", report.FailedFiles).
		Int("pruned", report.PrunedDirectories).
		Bool("root_removed", report.RootRemoved).
		Str("root", installRoot).
		Msg("uninstall complete")
	return report, nil
}

func (this *Uninstaller) removeAll(installRoot string) (report contracts.UninstallReport, err error) {
	report.UsedFallback = true
	if err = this.fileSystem.DeleteAll(installRoot); err != nil {
		return report, &contracts.FilesystemError{Op: "remove", Path: installRoot, Err: err}
	}
	report.RootRemoved = true
	return report, nil
}

func (this *Uninstaller) deleteIfEmpty(directory string) bool {
	empty, err := this.fileSystem.IsEmptyDirectory(directory)
	if err != nil || !empty {
		return false
	}
	if err = this.fileSystem.Delete(directory); err != nil {
		this.logger.Warn().Err(err).Str("directory", directory).Msg("could not remove empty directory")
		return false
	}
	return true
}

func deepestFirst(directories map[string]struct{}) (ordered []string) {
	for directory := range directories {
		ordered = append(ordered, directory)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if len(ordered[i]) != len(ordered[j]) {
			return len(ordered[i]) > len(ordered[j])
		}
		return ordered[i] < ordered[j]
	})
	return ordered
}

func isStrictlyBeneath(root, path string) bool {
	relative, err := filepath.Rel(root, path)
	if err != nil || relative == "." || relative == ".." {
		return false
	}
	return !strings.HasPrefix(relative, ".."+string(filepath.Separator))
}
