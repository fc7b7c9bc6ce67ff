package http

import (
	"crypto/tls"
	nethttp "net/http"
	"os"

	"golang.org/x/net/http2"

	"github.com/rescale/pricestrip/internal/config"
	"github.com/rescale/pricestrip/internal/logging"
)

// CreateTransferClient creates the HTTP client used for uploads and downloads.
//
// It starts from ConfigureHTTPClient (proxy handling) and, when the transport is a
// plain *nethttp.Transport, enables HTTP/2 and disables compression since the
// payloads are PDFs and zip archives. HTTP/2 is turned off behind a proxy or when
// DISABLE_HTTP2=true, because proxies frequently break multiplexed streams.
func CreateTransferClient(cfg *config.Config, logger *logging.Logger) (*nethttp.Client, error) {
	baseClient, err := ConfigureHTTPClient(cfg, logger)
	if err != nil {
		return nil, err
	}

	tr, ok := baseClient.Transport.(*nethttp.Transport)
	if !ok {
		// NTLM wraps the transport in a Negotiator; leave it as configured.
		return baseClient, nil
	}

	tr.DisableCompression = true
	tr.ForceAttemptHTTP2 = true
	_ = http2.ConfigureTransport(tr)

	if os.Getenv("DISABLE_HTTP2") == "true" || tr.Proxy != nil {
		tr.ForceAttemptHTTP2 = false
		tr.TLSNextProto = make(map[string]func(string, *tls.Conn) nethttp.RoundTripper)
	}

	baseClient.Transport = tr
	return baseClient, nil
}
