package ingest

import (
	"bufio"
	"context"
	"io"
)

// RunTerminal lee un token por línea de r hasta EOF o cancelación de ctx.
func RunTerminal(ctx context.Context, r io.Reader, a *Adapter) error {
	lines := make(chan string)
	errc := make(chan error, 1)
	go func() {
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		errc <- sc.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-errc:
			return err
		case line := <-lines:
			_ = a.Handle(line)
		}
	}
}
