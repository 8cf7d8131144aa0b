// Package signal turns SIGINT and SIGTERM into context cancellation.
package signal

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	clog "github.com/xrsl/cvtailor/pkg/log"
)

// exit is replaced in tests.
var exit = os.Exit

// WithInterrupt returns a context cancelled by the first SIGINT or SIGTERM.
// The in-flight model call is cancelled and the run stops before the next
// job. A second signal exits the process with status 130.
func WithInterrupt(parent context.Context) (context.Context, context.CancelFunc) {
	return withSignals(parent, make(chan os.Signal, 2), true)
}

func withSignals(parent context.Context, sigCh chan os.Signal, notify bool) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	if notify {
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	}

	stop := make(chan struct{})
	var once sync.Once
	release := func() {
		once.Do(func() { close(stop) })
		cancel()
	}

	go func() {
		if notify {
			defer signal.Stop(sigCh)
		}

		select {
		case sig := <-sigCh:
			clog.Warn("interrupt received, stopping (press Ctrl-C again to force)", "signal", sig.String())
			cancel()
		case <-parent.Done():
			return
		case <-stop:
			return
		}

		select {
		case <-sigCh:
			clog.Error("forced exit")
			exit(130)
		case <-stop:
		}
	}()

	return ctx, release
}
