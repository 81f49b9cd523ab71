package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bioflowy/flowy/pkg/wdl/document"
	"github.com/bioflowy/flowy/pkg/wdl/werrors"
)

func newCheckCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <document.wdl>",
		Short: "Type-check a WDL document without executing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(args[0])
		},
	}
	return cmd
}

func runCheck(path string) error {
	loaded, err := document.Load(path)
	if err != nil {
		if mv, ok := err.(*werrors.MultipleValidation); ok {
			printValidationErrors(mv)
			os.Exit(1)
		}
		return err
	}
	if loaded.Result != nil && !loaded.Result.CompleteCalls {
		fmt.Println(dimStyle.Render("note: one or more calls are missing required inputs that no binding supplies"))
	}
	fmt.Println(okStyle.Render("OK") + " " + path + " type-checks cleanly")
	return nil
}

func printValidationErrors(mv *werrors.MultipleValidation) {
	fmt.Fprintln(os.Stderr, errorStyle.Render(fmt.Sprintf("%d error(s)", len(mv.Errors))))
	for _, e := range mv.Errors {
		if e.Pos != nil {
			fmt.Fprintf(os.Stderr, "  %s: %s\n", e.Pos.String(), e.Message)
		} else {
			fmt.Fprintf(os.Stderr, "  %s\n", e.Message)
		}
	}
}
