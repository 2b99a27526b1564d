package util

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
)

// InterruptContext returns a context cancelled on SIGINT or SIGTERM. A second
// signal exits immediately.
func InterruptContext(parent context.Context, onSignal func(os.Signal)) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sig := make(chan os.Signal, 2)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sig)

		select {
		case s := <-sig:
			if onSignal != nil {
				onSignal(s)
			}
			cancel()
		case <-ctx.Done():
			return
		}

		select {
		case <-sig:
			os.Exit(1)
		case <-parent.Done():
		}
	}()

	return ctx, cancel
}

// CleanupTempFiles removes leftover "*.tmp" files of interrupted atomic
// writes in dir and returns how many were removed.
func CleanupTempFiles(dir string) int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}

	n := 0
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".tmp") {
			continue
		}
		if err := os.Remove(filepath.Join(dir, name)); err == nil {
			n++
		}
	}

	return n
}

// RemoveIfEmpty deletes dir when it holds no entries.
func RemoveIfEmpty(dir string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil || len(entries) > 0 {
		return false
	}

	return os.Remove(dir) == nil
}
