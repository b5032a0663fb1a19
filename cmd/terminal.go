package cmd

import (
	"context"
	"os"
	"runtime"
	"time"

	tea "charm.land/bubbletea/v2"
	"golang.org/x/term"
)

// Seams replaced in tests.
var (
	stdinIsPiped     = func() bool { return !term.IsTerminal(int(os.Stdin.Fd())) }
	stdoutIsTerminal = func() bool { return term.IsTerminal(int(os.Stdout.Fd())) }
	openTerminalIOFn = openTerminalIO
	termGetSize      = term.GetSize
)

// programOptions reopens the terminal when the tree was piped on stdin, so
// the browser still gets keyboard input and resize events. The returned
// cleanup closes what was opened.
func programOptions(ctx context.Context, piped bool) ([]tea.ProgramOption, func()) {
	if !piped {
		return nil, func() {}
	}
	in, out, err := openTerminalIOFn()
	if err != nil {
		// No controlling terminal (CI); the browser runs without keys.
		return nil, func() {}
	}

	ctx, cancel := context.WithCancel(ctx)
	opts := []tea.ProgramOption{tea.WithInput(in)}
	if out != nil {
		opts = append(opts, tea.WithOutput(out), withResizeWatcher(ctx, out))
	}
	return opts, func() {
		cancel()
		_ = in.Close()
		if out != nil && out != in {
			_ = out.Close()
		}
	}
}

func openTerminalIO() (*os.File, *os.File, error) {
	inName, outName := terminalDeviceNames(runtime.GOOS)
	in, err := os.OpenFile(inName, os.O_RDWR, 0)
	if err != nil {
		return nil, nil, err
	}
	if outName == inName {
		return in, in, nil
	}
	out, err := os.OpenFile(outName, os.O_RDWR, 0)
	if err != nil {
		return in, nil, nil //nolint:nilerr // input alone still works
	}
	return in, out, nil
}

func terminalDeviceNames(goos string) (string, string) {
	if goos == "windows" {
		return "CONIN$", "CONOUT$"
	}
	return "/dev/tty", "/dev/tty"
}

// withResizeWatcher polls the terminal size, since resize signals are not
// delivered for a reopened terminal on every platform.
func withResizeWatcher(ctx context.Context, out *os.File) tea.ProgramOption {
	return func(p *tea.Program) {
		go func() {
			ticker := time.NewTicker(250 * time.Millisecond)
			defer ticker.Stop()
			lastW, lastH := 0, 0
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					w, h, err := termGetSize(int(out.Fd()))
					if err != nil || (w == lastW && h == lastH) {
						continue
					}
					lastW, lastH = w, h
					p.Send(tea.WindowSizeMsg{Width: w, Height: h})
				}
			}
		}()
	}
}
