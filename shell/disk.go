package shell

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/smarty/deliver/contracts"
)

type DiskFileSystem struct{}

func NewDiskFileSystem() *DiskFileSystem {
	return &DiskFileSystem{}
}

func (this *DiskFileSystem) Listing(root string) (listing []contracts.FileInfo, err error) {
	err = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		listing = append(listing, newFileInfo(path, info))
		return nil
	})
	return listing, err
}

func (this *DiskFileSystem) Stat(path string) (contracts.FileInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	return newFileInfo(path, info), nil
}

func (this *DiskFileSystem) Open(path string) (io.ReadCloser, error) {
	return os.Open(path)
}

func (this *DiskFileSystem) Create(path string) (io.WriteCloser, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	return os.Create(path)
}

func (this *DiskFileSystem) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

func (this *DiskFileSystem) WriteFile(path string, content []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, content, 0644)
}

func (this *DiskFileSystem) Delete(path string) error {
	return os.Remove(path)
}

func (this *DiskFileSystem) DeleteAll(path string) error {
	return os.RemoveAll(path)
}

func (this *DiskFileSystem) Rename(source, target string) error {
	return os.Rename(source, target)
}

func (this *DiskFileSystem) IsEmptyDirectory(path string) (bool, error) {
	directory, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer func() { _ = directory.Close() }()

	info, err := directory.Stat()
	if err != nil {
		return false, err
	}
	if !info.IsDir() {
		return false, nil
	}
	_, err = directory.Readdirnames(1)
	if errors.Is(err, io.EOF) {
		return true, nil
	}
	return false, err
}

////////////////////////////////////////

type FileInfo struct {
	path  string
	size  int64
	mod   time.Time
	isDir bool
}

func newFileInfo(path string, info os.FileInfo) FileInfo {
	return FileInfo{path: path, size: info.Size(), mod: info.ModTime(), isDir: info.IsDir()}
}

func (this FileInfo) Path() string       { return this.path }
func (this FileInfo) Size() int64        { return this.size }
func (this FileInfo) ModTime() time.Time { return this.mod }
func (this FileInfo) IsDir() bool        { return this.isDir }
