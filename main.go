package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/mbocsi/dutchctl/app"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := app.New().Execute(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}
