package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/rescale/pricestrip/internal/constants"
)

const shellPrompt = constants.AppName + "> "

const shellHelp = `Commands:
  add <path>...      add local files to the selection
  rm <index>         remove the selected file at index
  ls                 show the selection
  clear              empty the selection
  upload             upload the selection
  process            process uploaded files
  files              list processed files
  download <name>    save one processed file
  download-all       save every processed file as processed_files.zip
  link <name>        print the download link of a processed file
  help               show this help
  quit               leave the shell`

// errQuit ends the shell loop.
var errQuit = errors.New("quit")

// session keeps a selection across commands. Every command prints its own
// outcome; failures never end the session.
type session struct {
	wf *workflow
}

// Exec runs one shell line. It returns errQuit for quit/exit and a non-nil
// error only for usage mistakes.
func (s *session) Exec(ctx context.Context, line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	cmd, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)
	out := s.wf.out

	switch cmd {
	case "help", "?":
		fmt.Fprintln(out, shellHelp)
	case "quit", "exit":
		return errQuit
	case "add":
		paths := strings.Fields(rest)
		if len(paths) == 0 {
			return fmt.Errorf("usage: add <path>...")
		}
		expanded, err := expandPaths(paths)
		if err != nil {
			return err
		}
		if err := s.wf.ctrl.AddToSelection(expanded...); err != nil {
			return err
		}
		s.wf.printSelection()
	case "rm":
		index, err := strconv.Atoi(rest)
		if err != nil {
			return fmt.Errorf("usage: rm <index>")
		}
		if !s.wf.ctrl.RemoveFromSelection(index) {
			return fmt.Errorf("no selected file at index %d", index)
		}
		s.wf.printSelection()
	case "ls":
		s.wf.printSelection()
	case "clear":
		s.wf.ctrl.UpdateSelection(nil)
	case "upload":
		s.wf.upload(ctx, nil)
	case "process":
		s.wf.process(ctx)
	case "files":
		if err := s.wf.files(ctx); err != nil {
			return err
		}
	case "download":
		if rest == "" {
			return fmt.Errorf("usage: download <name>")
		}
		s.wf.download(ctx, []string{rest})
	case "download-all":
		s.wf.downloadAll(ctx)
	case "link":
		if rest == "" {
			return fmt.Errorf("usage: link <name>")
		}
		s.wf.link(rest, false)
	default:
		return fmt.Errorf("unknown command %q, type help", cmd)
	}
	return nil
}

// lineReader yields shell input lines; io.EOF ends the session.
type lineReader interface {
	ReadLine() (string, error)
}

type scannerReader struct {
	scanner *bufio.Scanner
	out     io.Writer
}

func (r *scannerReader) ReadLine() (string, error) {
	fmt.Fprint(r.out, shellPrompt)
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return r.scanner.Text(), nil
}

// run reads lines until EOF or quit.
func (s *session) run(ctx context.Context, in lineReader) error {
	for {
		if ctx.Err() != nil {
			return nil
		}
		line, err := in.ReadLine()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := s.Exec(ctx, line); err != nil {
			if errors.Is(err, errQuit) {
				return nil
			}
			fmt.Fprintf(s.wf.out, "Error: %v\n", err)
		}
	}
}

func newShellCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Interactive session: select, upload, process and download",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, err := newController()
			if err != nil {
				return err
			}
			ctx := GetContext()

			fd := int(os.Stdin.Fd())
			if !term.IsTerminal(fd) {
				s := &session{wf: newWorkflow(ctrl, cmd.OutOrStdout())}
				return s.start(ctx, &scannerReader{scanner: bufio.NewScanner(os.Stdin), out: cmd.OutOrStdout()})
			}

			oldState, err := term.MakeRaw(fd)
			if err != nil {
				return fmt.Errorf("failed to enter raw mode: %w", err)
			}
			defer term.Restore(fd, oldState)

			// Progress bars redraw with their own escapes and fight the line editor.
			ctrl.SetProgress(nil)
			t := term.NewTerminal(struct {
				io.Reader
				io.Writer
			}{os.Stdin, os.Stdout}, shellPrompt)
			s := &session{wf: newWorkflow(ctrl, t)}
			s.wf.renderer.Color = true
			return s.start(ctx, t)
		},
	}
}

func (s *session) start(ctx context.Context, in lineReader) error {
	fmt.Fprintln(s.wf.out, "Type help for commands.")
	if err := s.wf.ctrl.Initialize(ctx); err == nil {
		s.wf.printFiles()
	}
	return s.run(ctx, in)
}
