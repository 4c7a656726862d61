package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/sandeepkv93/campus-notify-core/internal/tools/opsctl"
)

func main() {
	if err := opsctl.NewRootCommand().Execute(); err != nil {
		var exitErr *opsctl.ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, exitErr.Err)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
