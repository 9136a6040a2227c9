package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/matzehuels/pkgexplorer/internal/cli"
	apperrors "github.com/matzehuels/pkgexplorer/pkg/errors"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(130) // Standard shell convention for SIGINT
		}
		fmt.Fprintln(os.Stderr, "Error:", message(err))
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	root := cli.New(os.Stderr, cli.LogInfo).RootCommand()
	root.SilenceErrors = true
	return root.ExecuteContext(ctx)
}

// message drops the error code prefix but keeps the underlying cause.
func message(err error) string {
	msg := apperrors.UserMessage(err)
	if cause := errors.Unwrap(err); cause != nil && !strings.Contains(msg, cause.Error()) {
		msg += ": " + cause.Error()
	}
	return msg
}
