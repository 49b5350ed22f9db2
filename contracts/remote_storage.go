package contracts

import (
	"context"
	"io"
	"net/url"
)

type Downloader interface {
	Download(ctx context.Context, address url.URL) (io.ReadCloser, error)
}

type Uploader interface {
	Upload(ctx context.Context, request UploadRequest) error
}

// UploadRequest carries one published object. RemoteAddress names the bucket
// and the object key beneath it.
type UploadRequest struct {
	RemoteAddress url.URL
	Body          []byte
	ContentType   string
}
