package main

import (
	"context"
	"os/signal"
	"syscall"

	parlor "github.com/parlor-chat/parlor/app"
)

func main() {
	ctx, _ := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGHUP)

	app := parlor.New(ctx, nil)
	app.Start()
}
