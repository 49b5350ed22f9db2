package contracts

import (
	"errors"
	"fmt"
)

var (
	ErrPathEscapesRoot   = errors.New("path escapes install root")
	ErrManifestNotCached = errors.New("manifest not cached")
)

type FormatError struct {
	Reason string
	Err    error
}

func NewFormatError(reason string) *FormatError {
	return &FormatError{Reason: reason}
}

func (this *FormatError) Error() string {
	if this.Err != nil {
		return fmt.Sprintf("malformed manifest: %s: %s", this.Reason, this.Err)
	}
	return "malformed manifest: " + this.Reason
}

func (this *FormatError) Unwrap() error { return this.Err }

type NetworkError struct {
	Address    string
	StatusCode int
	Err        error
}

func (this *NetworkError) Error() string {
	if this.Err != nil {
		return fmt.Sprintf("request for %q failed: %s", this.Address, this.Err)
	}
	return fmt.Sprintf("request for %q failed: non 200 status code: %d", this.Address, this.StatusCode)
}

func (this *NetworkError) Unwrap() error { return this.Err }

type IntegrityError struct {
	Path     string
	Expected string
	Actual   string
}

func (this *IntegrityError) Error() string {
	return fmt.Sprintf("checksum mismatch for %q (expected: [%s], actual: [%s])", this.Path, this.Expected, this.Actual)
}

type FilesystemError struct {
	Op   string
	Path string
	Err  error
}

func (this *FilesystemError) Error() string {
	return fmt.Sprintf("%s %q: %s", this.Op, this.Path, this.Err)
}

func (this *FilesystemError) Unwrap() error { return this.Err }

// IsRetryable reports whether another attempt at the same file could succeed.
func IsRetryable(err error) bool {
	var network *NetworkError
	var integrity *IntegrityError
	return errors.As(err, &network) || errors.As(err, &integrity)
}
