// Command cloudreq sends authenticated requests to the cloud API.
//
//	cloudreq [flags] get <path>
//	cloudreq [flags] download <path> [-o file]
//	cloudreq [flags] login <token>
//	cloudreq [flags] whoami
//	cloudreq version
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/kbukum/cloudreq/request"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintf(os.Stderr, "cloudreq: %v\n", err)
		}
		if request.IsUnauthorized(err) {
			fmt.Fprintln(os.Stderr, "cloudreq: run `cloudreq login <token>` to authenticate")
		}
		stop()
		os.Exit(1)
	}
}
