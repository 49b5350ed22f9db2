package remote

import (
	"context"
	"crypto/md5"
	"encoding/base64"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/smartystreets/s3"

	"github.com/smarty/deliver/contracts"
)

// S3Uploader PUTs published objects into an S3 compatible bucket. The
// endpoint, bucket and key all come from each request's address, e.g.
// https://s3-us-west-2.amazonaws.com/bucket/titles/v1/manifest.proto.
type S3Uploader struct {
	client      *http.Client
	credentials s3.Option
	logger      zerolog.Logger
}

// NewS3Uploader signs with credentials; a nil option falls back to the
// AWS_* environment variables or the EC2 instance role.
func NewS3Uploader(client *http.Client, credentials s3.Option, logger zerolog.Logger) *S3Uploader {
	return &S3Uploader{client: client, credentials: credentials, logger: logger}
}

func (this *S3Uploader) Upload(ctx context.Context, request contracts.UploadRequest) error {
	address := request.RemoteAddress
	checksum := md5.Sum(request.Body)
	signed, err := s3.NewRequest(s3.PUT,
		this.credentials,
		s3.StorageAddress(&address),
		s3.ContentBytes(request.Body),
		s3.ContentType(request.ContentType),
		s3.ContentMD5(base64.StdEncoding.EncodeToString(checksum[:])),
	)
	if err != nil {
		return fmt.Errorf("upload to %q: %w", address.String(), err)
	}
	signed = signed.WithContext(ctx)

	response, err := this.client.Do(signed)
	if err != nil {
		return &contracts.NetworkError{Address: address.String(), Err: err}
	}
	defer func() { _ = response.Body.Close() }()
	if response.StatusCode != http.StatusOK {
		dump(this.logger, signed, response)
		return &contracts.NetworkError{Address: address.String(), StatusCode: response.StatusCode}
	}
	return nil
}
