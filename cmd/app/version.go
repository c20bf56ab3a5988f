package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/local/docfinder/internal/ocr"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "docfinder %s\n", Version)
			fmt.Fprintf(out, "  Git Commit:  %s\n", GitCommit)
			fmt.Fprintf(out, "  Build Time:  %s\n", BuildTime)
			fmt.Fprintf(out, "  Go Version:  %s\n", runtime.Version())
			fmt.Fprintf(out, "  OS/Arch:     %s/%s\n", runtime.GOOS, runtime.GOARCH)
			fmt.Fprintf(out, "  Tesseract:   %s\n", ocr.Version())
		},
	}
}
