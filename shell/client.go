package shell

import (
	"net"
	"net/http"
	"time"
)

// NewHTTPClient bounds each phase of a request rather than the whole transfer,
// since content objects can be arbitrarily large.
func NewHTTPClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   8 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:          32,
			IdleConnTimeout:       32 * time.Second,
			TLSHandshakeTimeout:   16 * time.Second,
			ResponseHeaderTimeout: 32 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
			MaxIdleConnsPerHost:   8,
			ForceAttemptHTTP2:     true,
		},
	}
}
