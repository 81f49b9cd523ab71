package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/bioflowy/flowy/pkg/watch"
	"github.com/bioflowy/flowy/pkg/wdl/werrors"
)

func newWatchCommand() *cobra.Command {
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Watch a directory of .wdl files and report type errors as they change",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(args[0], debounce)
		},
	}
	cmd.Flags().DurationVar(&debounce, "debounce", 200*time.Millisecond, "Debounce window for rapid successive writes")
	return cmd
}

func runWatch(dir string, debounce time.Duration) error {
	w, err := watch.New(dir, debounce)
	if err != nil {
		return err
	}
	if err := w.Start(); err != nil {
		return err
	}
	defer w.Stop()

	fmt.Println(titleStyle.Render("watching " + dir + " for .wdl changes"))
	for r := range w.Reports {
		if r.Err == nil {
			fmt.Println(okStyle.Render("OK") + " " + r.Path)
			continue
		}
		fmt.Println(errorStyle.Render("FAIL") + " " + r.Path)
		if mv, ok := r.Err.(*werrors.MultipleValidation); ok {
			for _, e := range mv.Errors {
				if e.Pos != nil {
					fmt.Printf("  %s: %s\n", e.Pos.String(), e.Message)
				} else {
					fmt.Printf("  %s\n", e.Message)
				}
			}
			continue
		}
		fmt.Printf("  %v\n", r.Err)
	}
	return nil
}
