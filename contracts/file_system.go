package contracts

import (
	"io"
	"time"
)

type PathLister interface {
	Listing(root string) ([]FileInfo, error)
}

type FileOpener interface {
	Open(path string) (io.ReadCloser, error)
}

// FileCreator creates (or truncates) the file at path, creating missing parent directories.
type FileCreator interface {
	Create(path string) (io.WriteCloser, error)
}

type FileReader interface {
	ReadFile(path string) ([]byte, error)
}

type FileWriter interface {
	WriteFile(path string, content []byte) error
}

// Deleter removes a file or an empty directory.
type Deleter interface {
	Delete(path string) error
}

type RecursiveDeleter interface {
	DeleteAll(path string) error
}

type Renamer interface {
	Rename(source, target string) error
}

// FileChecker reports a missing path with an error matching os.ErrNotExist.
type FileChecker interface {
	Stat(path string) (FileInfo, error)
}

type DirectoryChecker interface {
	IsEmptyDirectory(path string) (bool, error)
}

type FileInfo interface {
	Path() string
	Size() int64
	ModTime() time.Time
	IsDir() bool
}

type FileSystem interface {
	PathLister
	FileOpener
	FileCreator
	FileReader
	FileWriter
	Deleter
	RecursiveDeleter
	Renamer
	FileChecker
	DirectoryChecker
}
