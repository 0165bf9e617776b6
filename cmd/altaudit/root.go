package main

import (
	"strings"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "altaudit",
		Short: "Audit web pages for images without alternative text",
		Long: strings.TrimSpace(`
altaudit fetches a list of pages, classifies every image by its alt attribute
(present, missing or empty) and reports the results. It runs either as an HTTP
service with live progress or as a one-shot command line scan.
`),
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "dotenv config file (default ./.env when present)")

	cmd.AddCommand(newServeCmd(opts), newScanCmd(opts))
	return cmd
}
