package termui

import (
	"bufio"
	"context"
	"io"
)

// Run drives the interactive loop: read a line, dispatch it, repeat until
// /quit, end of input, or context cancellation. Confirmation prompts issued
// mid-command consume the next line from the same stream.
func (a *App) Run(ctx context.Context, in io.Reader) error {
	a.ctx = ctx

	go func() {
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case a.lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		close(a.lines)
	}()

	for {
		a.renderer.Prompt()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-a.lines:
			if !ok {
				return nil
			}
			if a.Dispatch(line) {
				return nil
			}
		}
	}
}
