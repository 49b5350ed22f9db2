package contracts

import (
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"
)

const (
	RemoteManifestFilename = "manifest.proto"
	RemoteFilesDirectory   = "files"
)

type HashAlgorithm int

const (
	HashSHA256   HashAlgorithm = 0
	HashShake128 HashAlgorithm = 1
)

func (this HashAlgorithm) String() string {
	switch this {
	case HashSHA256:
		return "sha256"
	case HashShake128:
		return "shake128"
	default:
		return fmt.Sprintf("unknown(%d)", int(this))
	}
}

type CompressionAlgorithm int

const (
	CompressionNone CompressionAlgorithm = 0
	CompressionLZMA CompressionAlgorithm = 1
)

// Catalog is the decoded form of a manifest. It is built once and only read afterward.
type Catalog struct {
	Packages []Package
}

type Package struct {
	Name  string
	Files []File
}

type File struct {
	Path          string
	Size          int64
	HashAlgorithm HashAlgorithm
	HashBytes     []byte
}

func (this Catalog) AllFiles() (files []File) {
	for _, item := range this.Packages {
		files = append(files, item.Files...)
	}
	return files
}

func (this Catalog) TotalInstallSize() (total int64) {
	for _, item := range this.Packages {
		for _, file := range item.Files {
			total += file.Size
		}
	}
	return total
}

func (this File) NormalizedPath() string {
	return strings.ReplaceAll(this.Path, `\`, "/")
}

func (this File) DigestHex() string {
	return hex.EncodeToString(this.HashBytes)
}

func (this File) HasVerifiableDigest() bool {
	if len(this.HashBytes) == 0 {
		return false
	}
	return this.HashAlgorithm == HashSHA256 || this.HashAlgorithm == HashShake128
}

// LocalPath resolves the file beneath root and rejects any path that would land outside of it.
func (this File) LocalPath(root string) (string, error) {
	root = filepath.Clean(root)
	target := filepath.Join(root, filepath.FromSlash(this.NormalizedPath()))
	relative, err := filepath.Rel(root, target)
	if err != nil || relative == "." || relative == ".." || strings.HasPrefix(relative, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q resolves outside of %q", ErrPathEscapesRoot, this.Path, root)
	}
	return target, nil
}
