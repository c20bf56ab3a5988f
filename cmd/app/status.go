package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/local/docfinder/internal/ocr"
	"github.com/local/docfinder/internal/statuscheck"
)

func newStatusCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Check that Tesseract and the configured language models are installed",
		RunE: func(cmd *cobra.Command, args []string) error {
			checker := statuscheck.New(statuscheck.Options{
				Languages:      ocr.ParseLanguages(a.cfg.OCR.Languages),
				TessdataPrefix: a.cfg.OCR.TessdataPrefix,
			})
			s := checker.Summary()

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(s); err != nil {
					return err
				}
			} else {
				fmt.Fprintf(out, "Tesseract: %s %s\n", mark(s.Tesseract.OK), s.Tesseract.Message)
				fmt.Fprintf(out, "Models:    %s %s\n", mark(s.Models.OK), s.Models.Message)
			}
			if !s.OK() {
				return fmt.Errorf("OCR engine not ready")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the status as JSON")
	return cmd
}

func mark(ok bool) string {
	if ok {
		return "✅"
	}
	return "❌"
}
