package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"forkful/app"
	"forkful/internal/httpserver"
)

func main() {
	runtime, err := app.Build(app.Options{LoadDotEnv: true})
	if err != nil {
		fmt.Fprintf(os.Stderr, "bootstrap failed: %v\n", err)
		os.Exit(1)
	}
	defer runtime.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := httpserver.Serve(ctx, runtime.Addr, runtime.Handler, runtime.Logger); err != nil {
		runtime.Logger.Error("server_failed", map[string]any{"error": err.Error()})
		_ = runtime.Close()
		os.Exit(1)
	}
}
