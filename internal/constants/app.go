package constants

import (
	"time"
)

// Application identity
const (
	AppName     = "pricestrip"
	AppID       = "com.rescale.pricestrip"
	WindowTitle = "Prisfjerning"
)

// Endpoint paths exposed by the processing service.
const (
	PathListFiles   = "/files"
	PathUpload      = "/upload"
	PathProcess     = "/process"
	PathDownload    = "/download/"
	PathDownloadAll = "/download-all"
)

// Wire format
const (
	// UploadFieldName is the multipart field repeated once per selected file.
	UploadFieldName = "files"

	// DownloadAllFileName is the fixed local name of the bundled archive.
	DownloadAllFileName = "processed_files.zip"

	// ProcessedPrefix is prepended by the server to every processed output.
	ProcessedPrefix = "Prosessert_"

	// RequestIDHeader carries a per-request UUID for server log correlation.
	RequestIDHeader = "X-Request-ID"
)

// User-facing status messages. Server-supplied message/error text is shown verbatim;
// these cover the cases where no usable server text exists.
const (
	MsgSelectAtLeastOne = "Vennligst velg minst én fil"
	MsgUploadFailed     = "Feil ved opplasting av filer"
	MsgProcessFailed    = "Feil ved prosessering av filer"
	MsgDownloadFailed   = "Feil ved nedlasting av filer"
	MsgNoDiskSpace      = "Ikke nok ledig diskplass"
	LabelDownload       = "Last ned"
	LabelDownloadAll    = "Last ned alle"
	MsgNoFiles          = "Ingen prosesserte filer"
	MsgNoSelection      = "Ingen filer valgt"
	MsgSavedTo          = "Lagret til"
)

// Event bus buffers
const (
	// EventBusDefaultBuffer - default buffer size for event channels
	EventBusDefaultBuffer = 256

	// EventBusMaxBuffer - upper bound for subscriber buffers
	EventBusMaxBuffer = 4096
)

// HTTP Client Timeouts
const (
	// HTTPIdleConnTimeout - how long to keep idle connections open (90 seconds)
	HTTPIdleConnTimeout = 90 * time.Second

	// HTTPTLSHandshakeTimeout - timeout for TLS handshake (30 seconds)
	HTTPTLSHandshakeTimeout = 30 * time.Second

	// HTTPExpectContinueTimeout - timeout for 100-continue response (1 second)
	HTTPExpectContinueTimeout = 1 * time.Second

	// HTTPDialTimeout - timeout for establishing connection (30 seconds)
	HTTPDialTimeout = 30 * time.Second

	// HTTPDialKeepAlive - keep-alive period for dialer (30 seconds)
	HTTPDialKeepAlive = 30 * time.Second

	// ProxyWarmupTimeout bounds the optional proxy warmup request.
	ProxyWarmupTimeout = 15 * time.Second
)

// Retry defaults for the optional retryablehttp layer. Retries are off unless configured.
const (
	DefaultRetries      = 0
	MaxRetries          = 10
	RetryWaitMin        = 1 * time.Second
	RetryWaitMax        = 30 * time.Second
	DefaultServerURL    = "http://localhost:5002"
	DefaultGUIWidth     = 720
	DefaultGUIHeight    = 640
	ProgressRefreshRate = 300 * time.Millisecond
)
