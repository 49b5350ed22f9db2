package shell

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/smarty/deliver/contracts"
)

// InMemoryFileSystem mirrors DiskFileSystem for tests. Directories come into
// existence when a file is written beneath them and stay until deleted.
type InMemoryFileSystem struct {
	lock        sync.Mutex
	files       map[string]*file
	directories map[string]struct{}
	failures    map[string]error
}

func NewInMemoryFileSystem() *InMemoryFileSystem {
	return &InMemoryFileSystem{
		files:       make(map[string]*file),
		directories: make(map[string]struct{}),
		failures:    make(map[string]error),
	}
}

// Fail makes every subsequent call of operation ("open", "create", "read",
// "write", "remove", "rename", "stat") on path return err.
func (this *InMemoryFileSystem) Fail(operation, path string, err error) {
	this.lock.Lock()
	defer this.lock.Unlock()
	this.failures[operation+":"+filepath.Clean(path)] = err
}

func (this *InMemoryFileSystem) failure(operation, path string) error {
	if err, found := this.failures[operation+":"+path]; found {
		return &os.PathError{Op: operation, Path: path, Err: err}
	}
	return nil
}

func (this *InMemoryFileSystem) Listing(root string) (listing []contracts.FileInfo, err error) {
	this.lock.Lock()
	defer this.lock.Unlock()

	root = filepath.Clean(root)
	for path, item := range this.files {
		if path == root || isBeneath(root, path) {
			listing = append(listing, item.info())
		}
	}
	sort.Slice(listing, func(i, j int) bool { return listing[i].Path() < listing[j].Path() })
	return listing, nil
}

func (this *InMemoryFileSystem) Stat(path string) (contracts.FileInfo, error) {
	this.lock.Lock()
	defer this.lock.Unlock()

	path = filepath.Clean(path)
	if err := this.failure("stat", path); err != nil {
		return nil, err
	}
	if item, found := this.files[path]; found {
		return item.info(), nil
	}
	if _, found := this.directories[path]; found {
		return FileInfo{path: path, mod: InMemoryModTime, isDir: true}, nil
	}
	return nil, notExist("stat", path)
}

func (this *InMemoryFileSystem) Open(path string) (io.ReadCloser, error) {
	this.lock.Lock()
	defer this.lock.Unlock()

	path = filepath.Clean(path)
	if err := this.failure("open", path); err != nil {
		return nil, err
	}
	item, found := this.files[path]
	if !found {
		return nil, notExist("open", path)
	}
	return io.NopCloser(bytes.NewReader(append([]byte(nil), item.contents...))), nil
}

func (this *InMemoryFileSystem) Create(path string) (io.WriteCloser, error) {
	this.lock.Lock()
	defer this.lock.Unlock()

	path = filepath.Clean(path)
	if err := this.failure("create", path); err != nil {
		return nil, err
	}
	item := this.put(path, nil)
	return &writer{owner: this, file: item}, nil
}

func (this *InMemoryFileSystem) ReadFile(path string) ([]byte, error) {
	this.lock.Lock()
	defer this.lock.Unlock()

	path = filepath.Clean(path)
	if err := this.failure("read", path); err != nil {
		return nil, err
	}
	item, found := this.files[path]
	if !found {
		return nil, notExist("open", path)
	}
	return append([]byte(nil), item.contents...), nil
}

func (this *InMemoryFileSystem) WriteFile(path string, content []byte) error {
	this.lock.Lock()
	defer this.lock.Unlock()

	path = filepath.Clean(path)
	if err := this.failure("write", path); err != nil {
		return err
	}
	this.put(path, append([]byte(nil), content...))
	return nil
}

func (this *InMemoryFileSystem) Delete(path string) error {
	this.lock.Lock()
	defer this.lock.Unlock()

	path = filepath.Clean(path)
	if err := this.failure("remove", path); err != nil {
		return err
	}
	if _, found := this.files[path]; found {
		delete(this.files, path)
		return nil
	}
	if _, found := this.directories[path]; !found {
		return notExist("remove", path)
	}
	if !this.isEmpty(path) {
		return &os.PathError{Op: "remove", Path: path, Err: errDirectoryNotEmpty}
	}
	delete(this.directories, path)
	return nil
}

func (this *InMemoryFileSystem) DeleteAll(path string) error {
	this.lock.Lock()
	defer this.lock.Unlock()

	path = filepath.Clean(path)
	if err := this.failure("remove", path); err != nil {
		return err
	}
	for candidate := range this.files {
		if candidate == path || isBeneath(path, candidate) {
			delete(this.files, candidate)
		}
	}
	for candidate := range this.directories {
		if candidate == path || isBeneath(path, candidate) {
			delete(this.directories, candidate)
		}
	}
	return nil
}

func (this *InMemoryFileSystem) Rename(source, target string) error {
	this.lock.Lock()
	defer this.lock.Unlock()

	source, target = filepath.Clean(source), filepath.Clean(target)
	if err := this.failure("rename", target); err != nil {
		return err
	}
	item, found := this.files[source]
	if !found {
		return notExist("rename", source)
	}
	delete(this.files, source)
	this.put(target, item.contents)
	return nil
}

func (this *InMemoryFileSystem) IsEmptyDirectory(path string) (bool, error) {
	this.lock.Lock()
	defer this.lock.Unlock()

	path = filepath.Clean(path)
	if err := this.failure("open", path); err != nil {
		return false, err
	}
	if _, found := this.files[path]; found {
		return false, nil
	}
	if _, found := this.directories[path]; !found {
		return false, notExist("open", path)
	}
	return this.isEmpty(path), nil
}

func (this *InMemoryFileSystem) put(path string, contents []byte) *file {
	item := &file{path: path, contents: contents, mod: InMemoryModTime}
	this.files[path] = item
	for parent := filepath.Dir(path); ; parent = filepath.Dir(parent) {
		if parent == "." || parent == string(filepath.Separator) {
			break
		}
		this.directories[parent] = struct{}{}
		if parent == filepath.Dir(parent) {
			break
		}
	}
	return item
}

func (this *InMemoryFileSystem) isEmpty(directory string) bool {
	for path := range this.files {
		if isBeneath(directory, path) {
			return false
		}
	}
	for path := range this.directories {
		if isBeneath(directory, path) {
			return false
		}
	}
	return true
}

func isBeneath(directory, path string) bool {
	if directory == "." {
		return !filepath.IsAbs(path) && path != "."
	}
	return strings.HasPrefix(path, strings.TrimSuffix(directory, string(filepath.Separator))+string(filepath.Separator))
}

var errDirectoryNotEmpty = errors.New("directory not empty")

func notExist(operation, path string) error {
	return &os.PathError{Op: operation, Path: path, Err: os.ErrNotExist}
}

/////////////////////////////////////////////////

type file struct {
	path     string
	contents []byte
	mod      time.Time
}

func (this *file) info() FileInfo {
	return FileInfo{path: this.path, size: int64(len(this.contents)), mod: this.mod}
}

var InMemoryModTime = time.Now()

type writer struct {
	owner *InMemoryFileSystem
	file  *file
}

func (this *writer) Write(p []byte) (n int, err error) {
	this.owner.lock.Lock()
	defer this.owner.lock.Unlock()
	if err := this.owner.failure("write", this.file.path); err != nil {
		return 0, err
	}
	this.file.contents = append(this.file.contents, p...)
	return len(p), nil
}

func (this *writer) Close() error {
	return nil
}
