package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/mdp/qrterminal/v3"

	"github.com/rescale/pricestrip/internal/constants"
	"github.com/rescale/pricestrip/internal/core"
	"github.com/rescale/pricestrip/internal/progress"
	"github.com/rescale/pricestrip/internal/state"
	"github.com/rescale/pricestrip/internal/view"
)

// errFailed marks a failure whose status line has already been printed.
// It only turns into a non-zero exit code.
var errFailed = errors.New("operation failed")

// workflow runs controller operations and prints their outcome. It is shared
// by the one-shot commands and the interactive shell.
type workflow struct {
	ctrl     *core.Controller
	out      io.Writer
	renderer *view.Renderer
}

func newWorkflow(ctrl *core.Controller, out io.Writer) *workflow {
	return &workflow{
		ctrl: ctrl,
		out:  out,
		renderer: &view.Renderer{
			Color:           isTerminal(out),
			DownloadAllHint: constants.AppName + " download-all",
		},
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && progress.SupportsColor(f)
}

// report prints the status of region and returns errFailed when it is an error.
func (w *workflow) report(region state.Region) error {
	s := w.ctrl.Status().Get(region)
	if line := w.renderer.Status(s); line != "" {
		fmt.Fprintln(w.out, line)
	}
	if s.IsError() {
		return errFailed
	}
	return nil
}

func (w *workflow) upload(ctx context.Context, paths []string) error {
	if len(paths) > 0 {
		expanded, err := expandPaths(paths)
		if err != nil {
			return err
		}
		if err := w.ctrl.AddToSelection(expanded...); err != nil {
			return err
		}
	}
	w.ctrl.SubmitUpload(ctx)
	return w.report(state.RegionUpload)
}

func (w *workflow) process(ctx context.Context) error {
	w.ctrl.TriggerProcessing(ctx)
	return w.report(state.RegionProcess)
}

// files refreshes and prints the processed list. Unlike the background
// refresh, an explicit listing reports its failure.
func (w *workflow) files(ctx context.Context) error {
	if err := w.ctrl.RefreshFileList(ctx); err != nil {
		return fmt.Errorf("failed to load file list: %w", err)
	}
	w.printFiles()
	return nil
}

func (w *workflow) printFiles() {
	out := w.renderer.Files(view.Build(w.ctrl))
	if out == "" {
		out = constants.MsgNoFiles
	}
	fmt.Fprintln(w.out, out)
}

func (w *workflow) printSelection() {
	out := w.renderer.Selection(view.Build(w.ctrl))
	if out == "" {
		out = constants.MsgNoSelection
	}
	fmt.Fprintln(w.out, out)
}

func (w *workflow) download(ctx context.Context, names []string) error {
	for _, name := range names {
		path, err := w.ctrl.DownloadFile(ctx, name)
		if err != nil {
			return w.report(state.RegionProcess)
		}
		fmt.Fprintf(w.out, "%s %s\n", constants.MsgSavedTo, path)
	}
	return nil
}

func (w *workflow) downloadAll(ctx context.Context) error {
	path, err := w.ctrl.DownloadAll(ctx)
	if err != nil {
		return w.report(state.RegionProcess)
	}
	fmt.Fprintf(w.out, "%s %s\n", constants.MsgSavedTo, path)
	return nil
}

func (w *workflow) link(name string, qr bool) {
	w.printLink(w.ctrl.DownloadLink(name), qr)
}

func (w *workflow) printLink(link string, qr bool) {
	fmt.Fprintln(w.out, link)
	if !qr {
		return
	}
	qrterminal.GenerateWithConfig(link, qrterminal.Config{
		Level:          qrterminal.M,
		Writer:         w.out,
		HalfBlocks:     true,
		BlackChar:      qrterminal.BLACK_BLACK,
		WhiteBlackChar: qrterminal.WHITE_BLACK,
		WhiteChar:      qrterminal.WHITE_WHITE,
		BlackWhiteChar: qrterminal.BLACK_WHITE,
		QuietZone:      1,
	})
}
