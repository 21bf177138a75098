package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/livp123/proxylens/cmd/proxylens/commands"
	"github.com/livp123/proxylens/internal/utils/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := commands.RootCmd.ExecuteContext(ctx)
	_ = logger.Sync()
	if err != nil {
		os.Exit(1)
	}
}
