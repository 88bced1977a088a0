package cli

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"sync"

	"golang.org/x/term"
)

const prompt = "> "

// Run reads commands from in until exit, EOF or ctx is done. On a terminal
// it provides line editing and history; otherwise it reads plain lines.
func Run(ctx context.Context, shell *Shell, in, out *os.File) error {
	if term.IsTerminal(int(in.Fd())) && term.IsTerminal(int(out.Fd())) {
		return runTerminal(ctx, shell, in, out)
	}
	return runLines(ctx, shell, in, out)
}

func runTerminal(ctx context.Context, shell *Shell, in, out *os.File) error {
	fd := int(in.Fd())
	state, err := term.MakeRaw(fd)
	if err != nil {
		return runLines(ctx, shell, in, out)
	}

	var restoreOnce sync.Once
	restore := func() { restoreOnce.Do(func() { _ = term.Restore(fd, state) }) }
	defer restore()

	stop := context.AfterFunc(ctx, restore)
	defer stop()

	t := term.NewTerminal(struct {
		io.Reader
		io.Writer
	}{in, out}, prompt)
	if width, height, err := term.GetSize(fd); err == nil {
		_ = t.SetSize(width, height)
	}
	shell.SetOutput(t)
	defer shell.SetOutput(out)

	for {
		line, err := t.ReadLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if !shell.Execute(ctx, line) || ctx.Err() != nil {
			return nil
		}
	}
}

func runLines(ctx context.Context, shell *Shell, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	for {
		if ctx.Err() != nil {
			return nil
		}
		shell.write(out, prompt)
		if !scanner.Scan() {
			return scanner.Err()
		}
		if !shell.Execute(ctx, scanner.Text()) {
			return nil
		}
	}
}
