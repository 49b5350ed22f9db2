package main

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/smartystreets/s3"

	"github.com/smarty/deliver/contracts"
	"github.com/smarty/deliver/core"
	"github.com/smarty/deliver/remote"
	"github.com/smarty/deliver/shell"
	"github.com/smarty/deliver/transfer"
)

// newPublishApp signs bucket uploads with credentials, or with the ambient
// AWS credentials when nil.
func newPublishApp(config contracts.PublishConfig, credentials s3.Option, logger zerolog.Logger) *transfer.PublishApp {
	var uploader contracts.Uploader
	if config.BucketAddress != nil {
		retrier := core.NewRetrier(config.MaxRetry, time.Sleep, logger)
		uploader = core.NewRetryUploader(remote.NewS3Uploader(shell.NewHTTPClient(), credentials, logger), retrier)
	}
	return transfer.NewPublishApp(config, shell.NewDiskFileSystem(), uploader, logger)
}
