package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	nethttp "net/http"
	"net/textproto"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/rescale/pricestrip/internal/config"
	"github.com/rescale/pricestrip/internal/constants"
	ihttp "github.com/rescale/pricestrip/internal/http"
	"github.com/rescale/pricestrip/internal/logging"
)

// retryLogger adapts retryablehttp's LeveledLogger to zerolog.
type retryLogger struct {
	logger *logging.Logger
}

func (l *retryLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Error().Fields(keysAndValues).Msg(msg)
}

func (l *retryLogger) Info(msg string, keysAndValues ...interface{}) {
	// Only log errors and warnings, not all info
}

func (l *retryLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l *retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Warn().Fields(keysAndValues).Msg(msg)
}

// Client talks to the processing service.
type Client struct {
	// httpClient carries request bodies (upload, process) and is never retried.
	httpClient *nethttp.Client
	// getClient serves idempotent GETs and may retry them.
	getClient *nethttp.Client
	baseURL   string
	timeout   time.Duration
	logger    *logging.Logger
}

// NewClient creates a client from configuration, including proxy and retry settings.
func NewClient(cfg *config.Config, logger *logging.Logger) (*Client, error) {
	if cfg.BaseURL() == "" {
		return nil, config.ErrMissingServerURL
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	transfer, err := ihttp.CreateTransferClient(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to configure HTTP client: %w", err)
	}

	c := NewClientWithHTTP(cfg.BaseURL(), transfer, logger)
	c.timeout = cfg.RequestTimeout
	c.getClient = newRetryClient(transfer, cfg.Retries, logger)
	return c, nil
}

// NewClientWithHTTP builds a client around an existing http.Client with no retries.
func NewClientWithHTTP(baseURL string, hc *nethttp.Client, logger *logging.Logger) *Client {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Client{
		httpClient: hc,
		getClient:  hc,
		baseURL:    strings.TrimRight(baseURL, "/"),
		logger:     logger.Component("api"),
	}
}

func newRetryClient(hc *nethttp.Client, retries int, logger *logging.Logger) *nethttp.Client {
	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient = hc
	retryClient.RetryMax = retries
	retryClient.RetryWaitMin = constants.RetryWaitMin
	retryClient.RetryWaitMax = constants.RetryWaitMax
	retryClient.CheckRetry = ihttp.RetryPolicy
	// Hand the final response back untouched so error bodies can still be decoded.
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	retryClient.Logger = &retryLogger{logger: logger.Component("retry")}
	return retryClient.StandardClient()
}

// BaseURL returns the service root without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SetTimeout bounds every subsequent request. Zero disables the bound.
func (c *Client) SetTimeout(d time.Duration) {
	c.timeout = d
}

func (c *Client) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout > 0 {
		return context.WithTimeout(ctx, c.timeout)
	}
	return context.WithCancel(ctx)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*nethttp.Request, string, error) {
	req, err := nethttp.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, "", err
	}
	reqID := uuid.NewString()
	req.Header.Set(constants.RequestIDHeader, reqID)
	return req, reqID, nil
}

// ListFiles returns the processed file names currently held by the server.
// Any non-OK response is treated as a transport-class failure.
func (c *Client) ListFiles(ctx context.Context) ([]string, error) {
	const op = "list files"
	ctx, cancel := c.requestContext(ctx)
	defer cancel()

	req, reqID, err := c.newRequest(ctx, nethttp.MethodGet, constants.PathListFiles, nil)
	if err != nil {
		return nil, transportErr(op, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.getClient.Do(req)
	if err != nil {
		return nil, transportErr(op, err)
	}
	defer resp.Body.Close()

	c.logger.Debug().Str("request_id", reqID).Int("status", resp.StatusCode).Msg("list files")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return nil, transportErr(op, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	var result FileListResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, transportErr(op, fmt.Errorf("failed to decode response: %w", err))
	}
	if result.Files == nil {
		return []string{}, nil
	}
	return result.Files, nil
}

// Upload posts every file as a repeated "files" part of one multipart body.
// The body is streamed; obs may be nil.
func (c *Client) Upload(ctx context.Context, files []UploadFile, obs UploadObserver) (*MessageResponse, error) {
	const op = "upload"
	ctx, cancel := c.requestContext(ctx)
	defer cancel()

	pr, pw := io.Pipe()
	defer pr.Close()
	mw := multipart.NewWriter(pw)

	go func() {
		err := writeParts(mw, files, obs)
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
	}()

	req, reqID, err := c.newRequest(ctx, nethttp.MethodPost, constants.PathUpload, pr)
	if err != nil {
		return nil, transportErr(op, err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().Str("request_id", reqID).Int("files", len(files)).Msg("upload")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, transportErr(op, err)
	}
	defer resp.Body.Close()
	return decodeMessage(op, resp)
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func writeParts(mw *multipart.Writer, files []UploadFile, obs UploadObserver) error {
	for i, f := range files {
		err := writePart(mw, i, f, obs)
		if obs != nil {
			obs.Done(i, err)
		}
		if err != nil {
			return fmt.Errorf("%s: %w", f.Name, err)
		}
	}
	return nil
}

func writePart(mw *multipart.Writer, index int, f UploadFile, obs UploadObserver) error {
	contentType := mime.TypeByExtension(strings.ToLower(filepath.Ext(f.Name)))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		constants.UploadFieldName, quoteEscaper.Replace(f.Name)))
	h.Set("Content-Type", contentType)

	part, err := mw.CreatePart(h)
	if err != nil {
		return err
	}
	if f.Open == nil {
		return errors.New("no content source")
	}
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	var r io.Reader = rc
	if obs != nil {
		r = obs.Wrap(index, f.Name, f.Size, rc)
	}
	_, err = io.Copy(part, r)
	return err
}

// Process asks the server to transform every stored upload. No body is sent.
func (c *Client) Process(ctx context.Context) (*MessageResponse, error) {
	const op = "process"
	ctx, cancel := c.requestContext(ctx)
	defer cancel()

	req, reqID, err := c.newRequest(ctx, nethttp.MethodPost, constants.PathProcess, nil)
	if err != nil {
		return nil, transportErr(op, err)
	}
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().Str("request_id", reqID).Msg("process")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, transportErr(op, err)
	}
	defer resp.Body.Close()
	return decodeMessage(op, resp)
}

// DownloadURL returns the address of a single processed file. The name is
// path-escaped so spaces and reserved characters survive.
func (c *Client) DownloadURL(name string) string {
	return c.baseURL + constants.PathDownload + url.PathEscape(name)
}

// Download opens a single processed file.
func (c *Client) Download(ctx context.Context, name string) (*Download, error) {
	return c.openDownload(ctx, "download", constants.PathDownload+url.PathEscape(name), name)
}

// DownloadAll opens the zip archive of every processed file.
func (c *Client) DownloadAll(ctx context.Context) (*Download, error) {
	return c.openDownload(ctx, "download all", constants.PathDownloadAll, constants.DownloadAllFileName)
}

func (c *Client) openDownload(ctx context.Context, op, path, fallbackName string) (*Download, error) {
	ctx, cancel := c.requestContext(ctx)

	req, reqID, err := c.newRequest(ctx, nethttp.MethodGet, path, nil)
	if err != nil {
		cancel()
		return nil, transportErr(op, err)
	}

	resp, err := c.getClient.Do(req)
	if err != nil {
		cancel()
		return nil, transportErr(op, err)
	}

	c.logger.Debug().Str("request_id", reqID).Str("path", path).Int("status", resp.StatusCode).Msg(op)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer cancel()
		defer resp.Body.Close()
		return nil, decodeFailure(op, resp)
	}

	name := fallbackName
	if cd := resp.Header.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil && params["filename"] != "" {
			name = filepath.Base(params["filename"])
		}
	}

	return &Download{
		Body:      &cancelOnClose{ReadCloser: resp.Body, cancel: cancel},
		Size:      resp.ContentLength,
		FileName:  name,
		RequestID: reqID,
	}, nil
}

// cancelOnClose keeps the request context alive until the body is consumed.
type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}

// decodeMessage maps a JSON response onto the three outcomes: success message,
// server error or transport error.
func decodeMessage(op string, resp *nethttp.Response) (*MessageResponse, error) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportErr(op, fmt.Errorf("failed to read response: %w", err))
	}

	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		var msg MessageResponse
		if err := json.Unmarshal(body, &msg); err != nil {
			return nil, transportErr(op, fmt.Errorf("failed to decode response: %w", err))
		}
		return &msg, nil
	}

	var e errorResponse
	if err := json.Unmarshal(body, &e); err != nil {
		return nil, transportErr(op, fmt.Errorf("status %d with undecodable body: %w", resp.StatusCode, err))
	}
	return nil, newServerError(op, resp.StatusCode, e.Error)
}

// decodeFailure interprets a non-OK download response. A structured error body
// yields a ServerError; anything else is transport-class.
func decodeFailure(op string, resp *nethttp.Response) error {
	var e errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&e); err != nil {
		return transportErr(op, fmt.Errorf("status %d with undecodable body: %w", resp.StatusCode, err))
	}
	return newServerError(op, resp.StatusCode, e.Error)
}

func newServerError(op string, status int, message string) *ServerError {
	if message == "" {
		message = fmt.Sprintf("%d %s", status, nethttp.StatusText(status))
	}
	return &ServerError{Op: op, StatusCode: status, Message: message}
}
