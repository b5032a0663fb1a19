package ui

import (
	"context"
	"fmt"

	tea "charm.land/bubbletea/v2"
)

// Attach is called once the program exists, with a function that delivers
// messages to it from any goroutine. It lets a file watcher push TreeLoaded.
type Attach func(send func(tea.Msg)) error

// Run drives m until the user quits or ctx is done. The filter is closed
// on return.
func Run(ctx context.Context, m *Model, attach Attach, opts ...tea.ProgramOption) error {
	defer m.Close()

	opts = append([]tea.ProgramOption{tea.WithContext(ctx)}, opts...)
	prog := tea.NewProgram(m, opts...)
	if attach != nil {
		if err := attach(prog.Send); err != nil {
			return fmt.Errorf("attach: %w", err)
		}
	}
	if _, err := prog.Run(); err != nil {
		return fmt.Errorf("run browser: %w", err)
	}
	return nil
}
