package shell

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/smarty/deliver/contracts"
)

type contentStoreFileSystem interface {
	contracts.FileReader
	contracts.FileWriter
	contracts.Deleter
	contracts.Renamer
}

// DiskContentStore keeps one zstd frame per content identifier beneath root.
// Get always hands back the bytes exactly as they were Put.
type DiskContentStore struct {
	root       string
	fileSystem contentStoreFileSystem
	encoder    *zstd.Encoder
	decoder    *zstd.Decoder
}

func NewDiskContentStore(root string, fileSystem contentStoreFileSystem) (*DiskContentStore, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, err
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	return &DiskContentStore{root: root, fileSystem: fileSystem, encoder: encoder, decoder: decoder}, nil
}

func (this *DiskContentStore) Get(contentID string) ([]byte, bool, error) {
	compressed, err := this.fileSystem.ReadFile(this.path(contentID))
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	content, err := this.decoder.DecodeAll(compressed, nil)
	if err != nil {
		return nil, false, &contracts.FormatError{Reason: fmt.Sprintf("cached manifest for %q is corrupt", contentID), Err: err}
	}
	return content, true, nil
}

func (this *DiskContentStore) Put(contentID string, content []byte) error {
	target := this.path(contentID)
	temporary := target + ".tmp"
	if err := this.fileSystem.WriteFile(temporary, this.encoder.EncodeAll(content, nil)); err != nil {
		return err
	}
	return this.fileSystem.Rename(temporary, target)
}

func (this *DiskContentStore) Delete(contentID string) error {
	err := this.fileSystem.Delete(this.path(contentID))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func (this *DiskContentStore) path(contentID string) string {
	return filepath.Join(this.root, url.PathEscape(contentID)+".manifest.zst")
}

////////////////////////////////////////

type InMemoryContentStore struct {
	lock    sync.Mutex
	content map[string][]byte
}

func NewInMemoryContentStore() *InMemoryContentStore {
	return &InMemoryContentStore{content: make(map[string][]byte)}
}

func (this *InMemoryContentStore) Get(contentID string) ([]byte, bool, error) {
	this.lock.Lock()
	defer this.lock.Unlock()
	content, found := this.content[contentID]
	return append([]byte(nil), content...), found, nil
}

func (this *InMemoryContentStore) Put(contentID string, content []byte) error {
	this.lock.Lock()
	defer this.lock.Unlock()
	this.content[contentID] = append([]byte(nil), content...)
	return nil
}

func (this *InMemoryContentStore) Delete(contentID string) error {
	this.lock.Lock()
	defer this.lock.Unlock()
	delete(this.content, contentID)
	return nil
}
