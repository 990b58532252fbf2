package main

import (
	"context"
	"fmt"
	"os"

	"dailyspend/internal/cli"
	"dailyspend/internal/log"
)

func main() {
	cli.LoadEnvFile()

	ctx, cancel := cli.SignalContext(context.Background(), log.New(log.Config{
		Level:     log.ParseLevel("info"),
		Component: log.ComponentCLI,
		Output:    os.Stderr,
	}))
	err := newRootCmd(newApp()).ExecuteContext(ctx)
	cancel()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
