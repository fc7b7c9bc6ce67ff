// Package core implements the upload / process / download workflow on top of
// the processing service. Every operation maps its outcome onto a status
// region; frontends only render state and forward user actions.
package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rescale/pricestrip/internal/api"
	"github.com/rescale/pricestrip/internal/config"
	"github.com/rescale/pricestrip/internal/constants"
	"github.com/rescale/pricestrip/internal/diskspace"
	"github.com/rescale/pricestrip/internal/events"
	"github.com/rescale/pricestrip/internal/logging"
	"github.com/rescale/pricestrip/internal/state"
)

// ErrEmptySelection is returned by SubmitUpload when nothing is selected.
var ErrEmptySelection = errors.New("no files selected")

// Service is the processing-service surface driven by the controller.
// *api.Client implements it.
type Service interface {
	ListFiles(ctx context.Context) ([]string, error)
	Upload(ctx context.Context, files []api.UploadFile, obs api.UploadObserver) (*api.MessageResponse, error)
	Process(ctx context.Context) (*api.MessageResponse, error)
	DownloadURL(name string) string
	Download(ctx context.Context, name string) (*api.Download, error)
	DownloadAll(ctx context.Context) (*api.Download, error)
}

// UploadProgress observes one upload. Finish is called when the request completes.
type UploadProgress interface {
	api.UploadObserver
	Finish()
}

// DownloadProgress receives every byte of one download.
type DownloadProgress interface {
	io.Writer
	Finish()
}

// ProgressReporter creates progress displays for transfers.
type ProgressReporter interface {
	Upload(files []state.LocalFile) UploadProgress
	Download(name string, size int64) DownloadProgress
}

// Options configures a Controller.
type Options struct {
	DownloadDir string
	Logger      *logging.Logger
	Progress    ProgressReporter
}

// Controller owns the session state and runs the workflow operations.
// Operations are safe to call concurrently; status regions are last-write-wins.
type Controller struct {
	service   Service
	eventBus  *events.EventBus
	selection *state.SelectionState
	files     *state.FileListState
	status    *state.StatusState
	saver     *Saver
	progress  ProgressReporter
	logger    *logging.Logger
}

// NewController creates a controller around service. A nil eventBus gets a default one.
func NewController(service Service, eventBus *events.EventBus, opts Options) *Controller {
	if eventBus == nil {
		eventBus = events.NewEventBus(constants.EventBusDefaultBuffer)
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Controller{
		service:   service,
		eventBus:  eventBus,
		selection: state.NewSelectionState(eventBus),
		files:     state.NewFileListState(eventBus),
		status:    state.NewStatusState(eventBus),
		saver:     &Saver{Dir: opts.DownloadDir},
		progress:  opts.Progress,
		logger:    logger.Component("controller"),
	}
}

// NewControllerFromConfig builds the API client from cfg and wraps it.
func NewControllerFromConfig(cfg *config.Config, logger *logging.Logger, progress ProgressReporter) (*Controller, error) {
	client, err := api.NewClient(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create API client: %w", err)
	}
	return NewController(client, nil, Options{
		DownloadDir: cfg.DownloadDir,
		Logger:      logger,
		Progress:    progress,
	}), nil
}

// Events returns the bus state changes are published on.
func (c *Controller) Events() *events.EventBus { return c.eventBus }

// Selection returns the local selection.
func (c *Controller) Selection() *state.SelectionState { return c.selection }

// FileList returns the processed file list.
func (c *Controller) FileList() *state.FileListState { return c.files }

// Status returns the status regions.
func (c *Controller) Status() *state.StatusState { return c.status }

// DownloadDir returns the folder downloads are saved into.
func (c *Controller) DownloadDir() string { return c.saver.Dir }

// SetProgress replaces the progress reporter. nil disables progress display.
func (c *Controller) SetProgress(p ProgressReporter) { c.progress = p }

// Initialize loads the processed file list.
func (c *Controller) Initialize(ctx context.Context) error {
	return c.RefreshFileList(ctx)
}

// UpdateSelection replaces the local selection.
func (c *Controller) UpdateSelection(files []state.LocalFile) {
	c.selection.Set(files)
}

// AddToSelection stats each path and appends it to the selection. If any path
// is missing or is a directory, the selection is left untouched.
func (c *Controller) AddToSelection(paths ...string) error {
	added := make([]state.LocalFile, 0, len(paths))
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return fmt.Errorf("cannot select %s: %w", p, err)
		}
		if info.IsDir() {
			return fmt.Errorf("cannot select %s: is a directory", p)
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			abs = p
		}
		added = append(added, state.LocalFile{Name: info.Name(), Path: abs, Size: info.Size()})
	}
	c.selection.Add(added...)
	return nil
}

// RemoveFromSelection drops the file at index. Returns false for an index
// outside the current selection.
func (c *Controller) RemoveFromSelection(index int) bool {
	return c.selection.Remove(index)
}

// DownloadLink returns the URL a single processed file is served at.
func (c *Controller) DownloadLink(name string) string {
	return c.service.DownloadURL(name)
}

// SubmitUpload sends every selected file in one request. On success the
// selection is cleared and the list refreshed. The outcome is written to the
// upload status region and also returned.
func (c *Controller) SubmitUpload(ctx context.Context) error {
	const op = "upload"
	selected := c.selection.Files()
	if len(selected) == 0 {
		c.status.Error(state.RegionUpload, constants.MsgSelectAtLeastOne)
		return ErrEmptySelection
	}

	uploads := make([]api.UploadFile, len(selected))
	for i, f := range selected {
		u := api.UploadFileFromPath(f.Path, f.Size)
		u.Name = f.Name
		uploads[i] = u
	}

	var obs api.UploadObserver
	if c.progress != nil {
		p := c.progress.Upload(selected)
		defer p.Finish()
		obs = p
	}

	c.eventBus.PublishRequest(events.EventRequestStarted, op, "", nil)
	resp, err := c.service.Upload(ctx, uploads, obs)
	c.eventBus.PublishRequest(events.EventRequestFinished, op, "", err)
	if err != nil {
		c.reportFailure(state.RegionUpload, op, err, constants.MsgUploadFailed)
		return err
	}

	c.logger.Info().Int("files", len(selected)).Msg("upload succeeded")
	c.status.Success(state.RegionUpload, resp.Message)
	c.selection.Clear()
	c.RefreshFileList(ctx)
	return nil
}

// TriggerProcessing asks the server to process every stored upload and
// refreshes the list on success. Repeated triggers are not guarded.
func (c *Controller) TriggerProcessing(ctx context.Context) error {
	const op = "process"
	c.eventBus.PublishRequest(events.EventRequestStarted, op, "", nil)
	resp, err := c.service.Process(ctx)
	c.eventBus.PublishRequest(events.EventRequestFinished, op, "", err)
	if err != nil {
		c.reportFailure(state.RegionProcess, op, err, constants.MsgProcessFailed)
		return err
	}

	c.logger.Info().Msg("processing succeeded")
	c.status.Success(state.RegionProcess, resp.Message)
	c.RefreshFileList(ctx)
	return nil
}

// DownloadAll saves the archive of every processed file as processed_files.zip
// in the download folder and returns its path. Success writes no status;
// failures go to the process region.
func (c *Controller) DownloadAll(ctx context.Context) (string, error) {
	const op = "download-all"
	c.eventBus.PublishRequest(events.EventRequestStarted, op, "", nil)
	path, err := c.fetch(ctx, op, "", true)
	c.eventBus.PublishRequest(events.EventRequestFinished, op, "", err)
	if err != nil {
		c.reportFailure(state.RegionProcess, op, err, constants.MsgDownloadFailed)
		return "", err
	}
	return path, nil
}

// DownloadFile saves one processed file into the download folder under the
// name the server sends, and returns its path. Failures go to the process region.
func (c *Controller) DownloadFile(ctx context.Context, name string) (string, error) {
	const op = "download"
	if name == "" {
		err := fmt.Errorf("%w: empty name", ErrInvalidFileName)
		c.status.Error(state.RegionProcess, constants.MsgDownloadFailed)
		return "", err
	}
	c.eventBus.PublishRequest(events.EventRequestStarted, op, "", nil)
	path, err := c.fetch(ctx, op, name, false)
	c.eventBus.PublishRequest(events.EventRequestFinished, op, "", err)
	if err != nil {
		c.reportFailure(state.RegionProcess, op, err, constants.MsgDownloadFailed)
		return "", err
	}
	return path, nil
}

func (c *Controller) fetch(ctx context.Context, op, name string, all bool) (string, error) {
	var (
		dl  *api.Download
		err error
	)
	if all {
		dl, err = c.service.DownloadAll(ctx)
	} else {
		dl, err = c.service.Download(ctx, name)
	}
	if err != nil {
		return "", err
	}
	defer dl.Close()

	target := dl.FileName
	if all {
		target = constants.DownloadAllFileName
	}

	if err := diskspace.Check(c.saver.Dir, dl.Size, diskspace.DefaultSafetyMargin); err != nil {
		return "", err
	}

	var r io.Reader = dl.Body
	if c.progress != nil {
		p := c.progress.Download(target, dl.Size)
		defer p.Finish()
		r = io.TeeReader(dl.Body, p)
	}

	path, n, err := c.saver.Save(target, r)
	if err != nil {
		return "", err
	}
	c.logger.Info().
		Str("op", op).
		Str("path", path).
		Int64("bytes", n).
		Str("request_id", dl.RequestID).
		Msg("download saved")
	return path, nil
}

// RefreshFileList re-reads the processed list. A failure is logged only; the
// list keeps its previous contents and no status is written. A response that
// arrives after a newer refresh has been applied is discarded.
func (c *Controller) RefreshFileList(ctx context.Context) error {
	gen := c.files.BeginRefresh()
	c.eventBus.PublishRequest(events.EventRequestStarted, "list", "", nil)
	names, err := c.service.ListFiles(ctx)
	c.eventBus.PublishRequest(events.EventRequestFinished, "list", "", err)
	if err != nil {
		c.files.SetError(err)
		c.logger.Error().Err(err).Msg("failed to load file list")
		c.eventBus.PublishLog(events.ErrorLevel, "failed to load file list", err)
		return err
	}

	if !c.files.Apply(gen, names) {
		c.logger.Debug().Uint64("generation", gen).Msg("discarded stale file list")
	}
	return nil
}

// reportFailure writes the server's error text when the server answered with
// one, and fallback otherwise.
func (c *Controller) reportFailure(region state.Region, op string, err error, fallback string) {
	if se, ok := api.AsServerError(err); ok {
		c.logger.Warn().Str("op", op).Int("status", se.StatusCode).Msg(se.Message)
		c.status.Error(region, se.Message)
		return
	}
	if diskspace.IsInsufficientSpaceError(err) {
		c.logger.Error().Str("op", op).Err(err).Msg("download refused")
		c.status.Error(region, constants.MsgNoDiskSpace)
		return
	}
	c.logger.Error().Str("op", op).Err(err).Msg("request failed")
	c.eventBus.PublishLog(events.ErrorLevel, op+" failed", err)
	c.status.Error(region, fallback)
}
