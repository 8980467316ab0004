// Command apisuite runs HTTP API scenarios and reports whether
// every expectation held.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"digital.vasic.apisuite/pkg/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.NewApp(os.Stdout, os.Stderr).Execute(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}
