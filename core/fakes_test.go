package core

import (
	"bytes"
	"context"
	"crypto/sha256"
	"io"
	"net/url"
	"sync"

	"github.com/smarty/deliver/contracts"
)

type FakeDownloader struct {
	lock      sync.Mutex
	content   map[string][]byte
	failures  map[string][]error
	requests  []string
	onRequest func(path string)
}

func NewFakeDownloader() *FakeDownloader {
	return &FakeDownloader{
		content:  make(map[string][]byte),
		failures: make(map[string][]error),
	}
}

func (this *FakeDownloader) Serve(path string, content []byte) {
	this.lock.Lock()
	defer this.lock.Unlock()
	this.content[path] = content
}

// FailNext queues errors returned (in order) before the served content is.
func (this *FakeDownloader) FailNext(path string, errs ...error) {
	this.lock.Lock()
	defer this.lock.Unlock()
	this.failures[path] = append(this.failures[path], errs...)
}

func (this *FakeDownloader) Download(ctx context.Context, address url.URL) (io.ReadCloser, error) {
	this.lock.Lock()
	this.requests = append(this.requests, address.Path)
	hook := this.onRequest
	var failure error
	if queued := this.failures[address.Path]; len(queued) > 0 {
		failure, this.failures[address.Path] = queued[0], queued[1:]
	}
	content, found := this.content[address.Path]
	this.lock.Unlock()

	if hook != nil {
		hook(address.Path)
	}
	if err := ctx.Err(); err != nil {
		return nil, &contracts.NetworkError{Address: address.String(), Err: err}
	}
	if failure != nil {
		return nil, failure
	}
	if !found {
		return nil, &contracts.NetworkError{Address: address.String(), StatusCode: 404}
	}
	return io.NopCloser(bytes.NewReader(content)), nil
}

func (this *FakeDownloader) Requests() []string {
	this.lock.Lock()
	defer this.lock.Unlock()
	return append([]string(nil), this.requests...)
}

func (this *FakeDownloader) RequestCount(path string) (count int) {
	for _, request := range this.Requests() {
		if request == path {
			count++
		}
	}
	return count
}

/////////////////////////////////////////////////////////////

type FakeIntegrityCheck struct {
	lock     sync.Mutex
	verdicts map[string]error
	checked  []string
}

func NewFakeIntegrityCheck() *FakeIntegrityCheck {
	return &FakeIntegrityCheck{verdicts: make(map[string]error)}
}

func (this *FakeIntegrityCheck) Verify(file contracts.File, localPath string) error {
	this.lock.Lock()
	defer this.lock.Unlock()
	this.checked = append(this.checked, file.Path)
	return this.verdicts[file.Path]
}

/////////////////////////////////////////////////////////////

func sha256File(path, content string) contracts.File {
	sum := sha256.Sum256([]byte(content))
	return contracts.File{Path: path, Size: int64(len(content)), HashAlgorithm: contracts.HashSHA256, HashBytes: sum[:]}
}
