package gui

import (
	"context"
	"fmt"
	"net/url"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/rescale/pricestrip/internal/config"
	"github.com/rescale/pricestrip/internal/constants"
	"github.com/rescale/pricestrip/internal/core"
	"github.com/rescale/pricestrip/internal/events"
	"github.com/rescale/pricestrip/internal/logging"
	"github.com/rescale/pricestrip/internal/progress"
	"github.com/rescale/pricestrip/internal/view"
)

// LaunchGUI opens the main window and blocks until it is closed.
func LaunchGUI(cfg *config.Config, logger *logging.Logger) error {
	ctrl, err := core.NewControllerFromConfig(cfg, logger, nil)
	if err != nil {
		return err
	}
	ctrl.SetProgress(progress.NewGUIProgress(ctrl.Events()))

	a := app.NewWithID(constants.AppID)
	a.Settings().SetTheme(&appTheme{})

	w := a.NewWindow(constants.WindowTitle)
	w.SetMaster()

	ui := NewUI(ctrl, w, logger)
	w.SetContent(ui.Build())
	w.SetOnDropped(func(_ fyne.Position, uris []fyne.URI) {
		ui.addPaths(urisToPaths(uris))
	})
	w.Resize(fyne.NewSize(constants.DefaultGUIWidth, constants.DefaultGUIHeight))
	w.CenterOnScreen()
	w.SetOnClosed(ui.Stop)

	ui.Start()
	w.ShowAndRun()
	return nil
}

// UI is the single page: selection, upload, processing and the processed list.
type UI struct {
	ctrl   *core.Controller
	window fyne.Window
	logger *logging.Logger

	ctx    context.Context
	cancel context.CancelFunc

	selectedBox    *fyne.Container
	filesBox       *fyne.Container
	emptyLabel     *widget.Label
	uploadStatus   *StatusBar
	processStatus  *StatusBar
	downloadAllBtn *widget.Button
	transfer       *widget.ProgressBar
}

// NewUI creates the page widgets. Nothing is rendered until Build.
func NewUI(ctrl *core.Controller, window fyne.Window, logger *logging.Logger) *UI {
	ctx, cancel := context.WithCancel(context.Background())
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &UI{
		ctrl:          ctrl,
		window:        window,
		logger:        logger.Component("gui"),
		ctx:           ctx,
		cancel:        cancel,
		selectedBox:   container.NewVBox(),
		filesBox:      container.NewVBox(),
		emptyLabel:    widget.NewLabel(constants.MsgNoFiles),
		uploadStatus:  NewStatusBar(),
		processStatus: NewStatusBar(),
		transfer:      widget.NewProgressBar(),
	}
}

// Build lays out the page and renders the current state.
func (ui *UI) Build() fyne.CanvasObject {
	addBtn := widget.NewButtonWithIcon("Velg filer", theme.FileIcon(), ui.chooseFile)
	uploadBtn := NewPrimaryButtonWithIcon("Last opp", theme.UploadIcon(), func() {
		go ui.ctrl.SubmitUpload(ui.ctx)
	})
	processBtn := NewPrimaryButtonWithIcon("Prosesser filer", theme.MediaPlayIcon(), func() {
		go ui.ctrl.TriggerProcessing(ui.ctx)
	})
	ui.downloadAllBtn = widget.NewButtonWithIcon(constants.LabelDownloadAll, theme.DownloadIcon(), ui.downloadAll)
	ui.transfer.Hide()

	upload := container.NewVBox(
		SectionHeading("Last opp filer"),
		container.NewHBox(addBtn, uploadBtn),
		ui.selectedBox,
		ui.uploadStatus,
	)
	process := container.NewVBox(
		SectionHeading("Prosessering"),
		container.NewHBox(processBtn),
		ui.processStatus,
		ui.transfer,
	)
	files := container.NewBorder(
		SectionHeading("Prosesserte filer"),
		container.NewHBox(ui.downloadAllBtn),
		nil, nil,
		container.NewVScroll(ui.filesBox),
	)

	ui.render(view.Build(ui.ctrl))
	top := container.NewVBox(upload, VerticalSpacer(12), widget.NewSeparator(), process, VerticalSpacer(12), widget.NewSeparator())
	return container.NewPadded(container.NewBorder(top, nil, nil, nil, files))
}

// Start subscribes to state changes and loads the processed list.
func (ui *UI) Start() {
	ch := ui.ctrl.Events().SubscribeAll()
	go ui.monitorEvents(ch)
	go ui.ctrl.Initialize(ui.ctx)
}

// Stop cancels in-flight requests and ends event monitoring.
func (ui *UI) Stop() {
	ui.cancel()
}

func (ui *UI) monitorEvents(ch <-chan events.Event) {
	defer ui.ctrl.Events().UnsubscribeAll(ch)
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return
			}
			ui.handle(ev)
		case <-ui.ctx.Done():
			return
		}
	}
}

func (ui *UI) handle(ev events.Event) {
	switch e := ev.(type) {
	case *events.RequestEvent:
		busy := e.Type() == events.EventRequestStarted
		if bar := ui.statusFor(e.Operation); bar != nil {
			fyne.Do(func() { bar.SetBusy(busy) })
		}
	case *events.TransferProgressEvent:
		fyne.Do(func() { ui.showTransfer(e) })
	case *events.LogEvent:
		ui.logger.Debug().Str("level", e.Level.String()).Msg(e.Message)
	default:
		m := view.Build(ui.ctrl)
		fyne.Do(func() { ui.render(m) })
	}
}

// statusFor returns the region an operation reports into. List refreshes
// have no region.
func (ui *UI) statusFor(op string) *StatusBar {
	switch op {
	case "upload":
		return ui.uploadStatus
	case "process", "download", "download-all":
		return ui.processStatus
	}
	return nil
}

func (ui *UI) showTransfer(e *events.TransferProgressEvent) {
	if e.Done || e.Total <= 0 {
		ui.transfer.Hide()
		return
	}
	ui.transfer.Max = float64(e.Total)
	ui.transfer.SetValue(float64(e.Current))
	ui.transfer.Show()
}

// render replaces the selection and file rows from m. Rows are rebuilt
// wholesale, so remove buttons always carry indices of the rendered snapshot.
func (ui *UI) render(m view.Model) {
	rows := make([]fyne.CanvasObject, 0, len(m.Selected))
	for _, s := range m.Selected {
		index := s.Index
		remove := widget.NewButtonWithIcon("", theme.DeleteIcon(), func() {
			ui.ctrl.RemoveFromSelection(index)
		})
		remove.Importance = widget.LowImportance
		rows = append(rows, container.NewBorder(nil, nil, nil, remove,
			widget.NewLabel(fmt.Sprintf("%s (%s)", s.Name, s.Size))))
	}
	ui.selectedBox.Objects = rows
	ui.selectedBox.Refresh()

	fileRows := make([]fyne.CanvasObject, 0, len(m.Files)+1)
	for _, f := range m.Files {
		fileRows = append(fileRows, ui.fileRow(f))
	}
	if len(fileRows) == 0 {
		fileRows = append(fileRows, ui.emptyLabel)
	}
	ui.filesBox.Objects = fileRows
	ui.filesBox.Refresh()

	if ui.downloadAllBtn != nil {
		if m.DownloadAllVisible {
			ui.downloadAllBtn.Show()
		} else {
			ui.downloadAllBtn.Hide()
		}
	}
	ui.uploadStatus.SetStatus(m.UploadStatus)
	ui.processStatus.SetStatus(m.ProcessStatus)
}

func (ui *UI) fileRow(f view.FileRow) fyne.CanvasObject {
	name := f.Name
	save := widget.NewButtonWithIcon("", theme.DocumentSaveIcon(), func() {
		go func() {
			if path, err := ui.ctrl.DownloadFile(ui.ctx, name); err == nil {
				ui.notifySaved(path)
			}
		}()
	})
	save.Importance = widget.LowImportance

	var link fyne.CanvasObject = widget.NewLabel(constants.LabelDownload)
	if u, err := url.Parse(f.Link); err == nil {
		link = widget.NewHyperlink(constants.LabelDownload, u)
	}
	return container.NewBorder(nil, nil, nil, container.NewHBox(link, save), widget.NewLabel(name))
}

func (ui *UI) chooseFile() {
	d := dialog.NewFileOpen(func(rc fyne.URIReadCloser, err error) {
		if err != nil {
			dialog.ShowError(err, ui.window)
			return
		}
		if rc == nil {
			return
		}
		rc.Close()
		ui.addPaths(urisToPaths([]fyne.URI{rc.URI()}))
	}, ui.window)
	d.Show()
}

func (ui *UI) addPaths(paths []string) {
	if len(paths) == 0 {
		return
	}
	if err := ui.ctrl.AddToSelection(paths...); err != nil {
		ui.logger.Warn().Err(err).Msg("selection rejected")
		dialog.ShowError(err, ui.window)
	}
}

func (ui *UI) downloadAll() {
	go func() {
		if path, err := ui.ctrl.DownloadAll(ui.ctx); err == nil {
			ui.notifySaved(path)
		}
	}()
}

func (ui *UI) notifySaved(path string) {
	fyne.Do(func() {
		dialog.ShowInformation(constants.LabelDownload, constants.MsgSavedTo+" "+path, ui.window)
	})
}

// urisToPaths keeps local file URIs and drops everything else.
func urisToPaths(uris []fyne.URI) []string {
	paths := make([]string, 0, len(uris))
	for _, u := range uris {
		if u == nil || u.Scheme() != "file" || u.Path() == "" {
			continue
		}
		paths = append(paths, u.Path())
	}
	return paths
}
