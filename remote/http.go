package remote

import (
	"context"
	"io"
	"net/http"
	"net/http/httputil"
	"net/url"

	"github.com/rs/zerolog"

	"github.com/smarty/deliver/contracts"
)

// HTTPDownloader fetches manifests and content objects from a content server.
type HTTPDownloader struct {
	client      *http.Client
	bearerToken string
	logger      zerolog.Logger
}

func NewHTTPDownloader(client *http.Client, bearerToken string, logger zerolog.Logger) *HTTPDownloader {
	return &HTTPDownloader{client: client, bearerToken: bearerToken, logger: logger}
}

func (this *HTTPDownloader) Download(ctx context.Context, address url.URL) (io.ReadCloser, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, address.String(), nil)
	if err != nil {
		return nil, &contracts.NetworkError{Address: address.String(), Err: err}
	}
	if this.bearerToken != "" {
		request.Header.Set("Authorization", "Bearer "+this.bearerToken)
	}
	response, err := this.client.Do(request)
	if err != nil {
		return nil, &contracts.NetworkError{Address: address.String(), Err: err}
	}
	if response.StatusCode != http.StatusOK {
		dump(this.logger, request, response)
		_ = response.Body.Close()
		return nil, &contracts.NetworkError{Address: address.String(), StatusCode: response.StatusCode}
	}
	return response.Body, nil
}

func dump(logger zerolog.Logger, request *http.Request, response *http.Response) {
	if logger.GetLevel() > zerolog.DebugLevel {
		return
	}
	request.Header.Del("Authorization")
	requestDump, _ := httputil.DumpRequestOut(request, false)
	responseDump, _ := httputil.DumpResponse(response, true)
	logger.Debug().
		Bytes("request", requestDump).
		Bytes("response", responseDump).
		Msg("non 200 status code")
}
