// Package main provides tippingctl, the offline companion of the viewer.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/okian/tipping/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Execute(ctx)
	stop()
	os.Exit(code)
}
