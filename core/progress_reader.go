package core

import (
	"errors"
	"io"
)

// ProgressReader credits every chunk read from the source and remembers the
// running total so a failed attempt can take its bytes back.
type ProgressReader struct {
	io.Reader
	credit  func(int64)
	count   int64
	failure error
}

func NewProgressReader(source io.Reader, credit func(int64)) *ProgressReader {
	return &ProgressReader{Reader: source, credit: credit}
}

func (this *ProgressReader) Read(buffer []byte) (int, error) {
	count, err := this.Reader.Read(buffer)
	if count > 0 {
		this.count += int64(count)
		this.credit(int64(count))
	}
	if err != nil && !errors.Is(err, io.EOF) {
		this.failure = err
	}
	return count, err
}

func (this *ProgressReader) Count() int64 {
	return this.count
}

// Failure is the first read error other than io.EOF, if any.
func (this *ProgressReader) Failure() error {
	return this.failure
}
