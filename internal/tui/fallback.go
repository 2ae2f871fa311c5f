package tui

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/term"
)

// Size of the text rendering when the terminal size is unknown.
const (
	simpleWidth  = 80
	simpleHeight = 24
)

// isTerminal returns true if both stdout and stdin are TTYs.
func isTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd())) && term.IsTerminal(int(os.Stdin.Fd()))
}

// terminalSize returns the current terminal width and height.
// Returns 0, 0 if the terminal size cannot be determined.
func terminalSize() (width, height int) {
	width, height, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return 0, 0
	}
	return width, height
}

// terminalTooSmall returns true if the terminal is below the minimum size.
func terminalTooSmall() bool {
	width, height := terminalSize()
	return width < minWidth || height < minHeight
}

// runSimple loads the graph, waits for the initial layouts and prints a
// plain text rendering followed by the events seen on the way.
func (t *TUI) runSimple(ctx context.Context) error {
	if t.loader != nil && t.location != "" {
		res, err := t.loader.Load(ctx, t.location)
		if err != nil {
			return err
		}
		t.scene.SetGraph(res.Graph, res.Location)
		if len(t.layouts) > 0 {
			if _, err := t.scene.RunLayout(ctx, t.layouts, t.duration); err != nil {
				return err
			}
		}
	}

	done := make(chan struct{})
	go func() {
		t.scene.WaitLayout()
		close(done)
	}()
	select {
	case <-ctx.Done():
		t.scene.Close()
		return nil
	case <-done:
	}

	f, err := t.scene.Render()
	if err != nil {
		return err
	}

	width, height := terminalSize()
	if width <= 0 || height <= 0 {
		width, height = simpleWidth, simpleHeight
	}
	cv := renderCanvas(f, width, height-2, t.theme)
	fmt.Fprintln(t.output, cv.grid.Plain())
	fmt.Fprintf(t.output, "%s  %s  %d nodes  %d edges\n", f.Layout.Label(), f.WindowLabel, len(f.Nodes), len(f.Edges))

	t.drainEvents()
	return nil
}

// drainEvents prints whatever is buffered on the event channel.
func (t *TUI) drainEvents() {
	if t.eventChan == nil {
		return
	}
	for {
		select {
		case event, ok := <-t.eventChan:
			if !ok {
				return
			}
			if text := eventsLine(event); text != "" {
				fmt.Fprintln(t.output, text)
			}
		default:
			return
		}
	}
}
