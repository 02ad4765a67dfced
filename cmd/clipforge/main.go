package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"clipforge/internal/retry"
)

const exitRetryExhausted = 3

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		var exhausted *retry.ExhaustedError
		if errors.As(err, &exhausted) {
			os.Exit(exitRetryExhausted)
		}
		os.Exit(1)
	}
}
