package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
	"github.com/wudi/ocrconvert/ocr"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "ocrconvert %s\n", version)
			fmt.Fprintf(w, "  commit:     %s\n", gitCommit)
			fmt.Fprintf(w, "  built:      %s\n", buildTime)
			fmt.Fprintf(w, "  go:         %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
			fmt.Fprintf(w, "  ocr engine: %s\n", ocr.DefaultEngine().Name())
		},
	}
}
