package gui

import (
	"context"
	"errors"
	"testing"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rescale/pricestrip/internal/api"
	"github.com/rescale/pricestrip/internal/core"
	"github.com/rescale/pricestrip/internal/state"
	"github.com/rescale/pricestrip/internal/view"
)

type stubService struct {
	files []string
}

func (s *stubService) ListFiles(context.Context) ([]string, error) { return s.files, nil }
func (s *stubService) Upload(context.Context, []api.UploadFile, api.UploadObserver) (*api.MessageResponse, error) {
	return &api.MessageResponse{Message: "ok"}, nil
}
func (s *stubService) Process(context.Context) (*api.MessageResponse, error) {
	return &api.MessageResponse{Message: "ok"}, nil
}
func (s *stubService) DownloadURL(name string) string { return "http://localhost:5002/download/" + name }
func (s *stubService) Download(context.Context, string) (*api.Download, error) {
	return nil, errors.New("not used")
}
func (s *stubService) DownloadAll(context.Context) (*api.Download, error) {
	return nil, errors.New("not used")
}

func TestCheckDisplay(t *testing.T) {
	empty := func(string) string { return "" }
	assert.ErrorIs(t, checkDisplay("linux", empty), ErrNoDisplay)
	assert.NoError(t, checkDisplay("darwin", empty))
	assert.NoError(t, checkDisplay("linux", func(k string) string {
		if k == "WAYLAND_DISPLAY" {
			return "wayland-0"
		}
		return ""
	}))
}

func TestURIsToPaths(t *testing.T) {
	web, err := storage.ParseURI("https://example.com/a.pdf")
	require.NoError(t, err)

	paths := urisToPaths([]fyne.URI{storage.NewFileURI("/tmp/a.pdf"), web, nil})
	assert.Equal(t, []string{"/tmp/a.pdf"}, paths)
}

func TestLevelFor(t *testing.T) {
	assert.Equal(t, StatusNone, levelFor(state.Status{}))
	assert.Equal(t, StatusSuccess, levelFor(state.Status{Message: "ok", Category: state.CategorySuccess}))
	assert.Equal(t, StatusError, levelFor(state.Status{Message: "nei", Category: state.CategoryError}))
}

func TestStatusBarBusyNests(t *testing.T) {
	test.NewTempApp(t)
	sb := NewStatusBar()

	sb.SetBusy(true)
	sb.SetBusy(true)
	sb.SetBusy(false)
	assert.True(t, sb.IsBusy())
	sb.SetBusy(false)
	assert.False(t, sb.IsBusy())
	sb.SetBusy(false)
	assert.False(t, sb.IsBusy())
}

func TestStatusBarSetStatus(t *testing.T) {
	test.NewTempApp(t)
	sb := NewStatusBar()

	sb.SetStatus(state.Status{Message: "Feil", Category: state.CategoryError})
	assert.Equal(t, "Feil", sb.GetMessage())
	assert.Equal(t, StatusError, sb.GetLevel())

	sb.SetStatus(state.Status{})
	assert.Equal(t, StatusNone, sb.GetLevel())
}

func TestRenderRebuildsRows(t *testing.T) {
	test.NewTempApp(t)
	ctrl := core.NewController(&stubService{files: []string{"Prosessert_a.pdf", "Prosessert_b.pdf"}}, nil, core.Options{})
	w := test.NewTempWindow(t, nil)

	ui := NewUI(ctrl, w, nil)
	w.SetContent(ui.Build())

	assert.Len(t, ui.selectedBox.Objects, 0)
	assert.Len(t, ui.filesBox.Objects, 1, "empty placeholder")
	assert.False(t, ui.downloadAllBtn.Visible())

	require.NoError(t, ctrl.RefreshFileList(context.Background()))
	ctrl.UpdateSelection([]state.LocalFile{{Name: "x.pdf", Size: 10}, {Name: "y.pdf", Size: 20}})
	ctrl.Status().Error(state.RegionUpload, "Feil")
	ui.render(view.Build(ctrl))

	assert.Len(t, ui.selectedBox.Objects, 2)
	assert.Len(t, ui.filesBox.Objects, 2)
	assert.True(t, ui.downloadAllBtn.Visible())
	assert.Equal(t, StatusError, ui.uploadStatus.GetLevel())
	assert.Equal(t, StatusNone, ui.processStatus.GetLevel())
}

func TestStatusForOperation(t *testing.T) {
	test.NewTempApp(t)
	ui := NewUI(core.NewController(&stubService{}, nil, core.Options{}), nil, nil)

	assert.Same(t, ui.uploadStatus, ui.statusFor("upload"))
	assert.Same(t, ui.processStatus, ui.statusFor("process"))
	assert.Same(t, ui.processStatus, ui.statusFor("download-all"))
	assert.Nil(t, ui.statusFor("list"))
}
