package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"fmtd/internal/serverctl"
)

func runFormat(ctx *commandContext, cmd *cobra.Command, args []string) error {
	if len(args) != 1 || strings.TrimSpace(args[0]) == "" {
		return errors.New("a file name is required (contents are read from stdin)")
	}
	fileName := args[0]

	contents, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return fmt.Errorf("read stdin: %w", err)
	}
	if len(contents) == 0 {
		return errors.New("no input on stdin; pipe the file contents to fmtd")
	}

	return ctx.withController(func(ctl *serverctl.Controller) error {
		formatted, err := ctl.Format(cmd.Context(), fileName, string(contents))
		if err != nil {
			return err
		}
		_, err = io.WriteString(cmd.OutOrStdout(), formatted)
		return err
	})
}
