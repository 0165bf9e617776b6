package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/user/alt-audit-service/internal/entity"
	"github.com/user/alt-audit-service/internal/progress"
	"github.com/user/alt-audit-service/internal/report"
	"github.com/user/alt-audit-service/internal/repository"
	"github.com/user/alt-audit-service/internal/usecase"
	"github.com/user/alt-audit-service/pkg/utils"
)

type scanOptions struct {
	file      string
	csvPath   string
	status    string
	demo      bool
	batchSize int
	delay     time.Duration
	timeout   time.Duration
	exportDB  bool
}

func newScanCmd(root *rootOptions) *cobra.Command {
	opts := &scanOptions{}
	cmd := &cobra.Command{
		Use:   "scan [url...]",
		Short: "Scan pages once and print a summary",
		Long: strings.TrimSpace(`
Scan the given pages and print one line per page followed by totals. URLs are
taken from the arguments, from --file, or from standard input when neither is
given. Entries may be separated by newlines, commas or semicolons.
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd, root, opts, args)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.file, "file", "f", "", `read URLs from a file ("-" for stdin)`)
	f.StringVar(&opts.csvPath, "csv", "", `write the image report as CSV to this path ("-" for stdout)`)
	f.StringVar(&opts.status, "status", "all", "status filter for the CSV report: all, present, missing or empty")
	f.BoolVar(&opts.demo, "demo", false, "generate sample data instead of fetching pages")
	f.IntVar(&opts.batchSize, "batch-size", 0, "pages scanned concurrently (overrides SCAN_BATCH_SIZE)")
	f.DurationVar(&opts.delay, "delay", -1, "pause between batches (overrides SCAN_INTER_BATCH_DELAY)")
	f.DurationVar(&opts.timeout, "timeout", 0, "per-page fetch timeout (overrides FETCH_TIMEOUT)")
	f.BoolVar(&opts.exportDB, "export-db", false, "write the results to PostgreSQL (requires POSTGRES_URL)")
	return cmd
}

func runScan(cmd *cobra.Command, root *rootOptions, opts *scanOptions, args []string) (retErr error) {
	filter, err := report.ParseStatusFilter(opts.status)
	if err != nil {
		return err
	}
	urls, rejected, err := collectURLs(cmd.InOrStdin(), opts.file, args)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, r := range rejected {
		fmt.Fprintf(cmd.ErrOrStderr(), "skipping invalid URL %q\n", r)
	}
	if len(urls) == 0 {
		return usecase.ErrNoURLs
	}

	a, err := newApp(root.configPath)
	if err != nil {
		return err
	}
	defer a.closeInto(&retErr)

	ctx, stop := signal.NotifyContext(cmdContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var exporter repository.AuditExportRepository
	if opts.exportDB {
		repo, err := a.exporter(ctx)
		if err != nil {
			return err
		}
		if repo == nil {
			return usecase.ErrExportDisabled
		}
		exporter = repo
	}

	demo := opts.demo || a.cfg.ScanDemoMode
	var fetcher repository.PageFetcher
	if !demo {
		if fetcher, err = a.fetcher(); err != nil {
			return err
		}
	}

	cfg := a.scanConfig()
	if opts.batchSize > 0 {
		cfg.BatchSize = opts.batchSize
	}
	if opts.delay >= 0 {
		cfg.InterBatchDelay = opts.delay
	}
	if opts.timeout > 0 {
		cfg.FetchTimeout = opts.timeout
	}

	hub := progress.NewHub(a.logger)
	hub.Subscribe(progress.MetricsListener())
	hub.Subscribe(printProgress(out, min(len(urls), cfg.MaxURLs)))

	orchestrator := usecase.NewScanOrchestrator(cfg, usecase.NewPageScanner(fetcher, cfg, a.logger), hub, a.logger)
	scan, runErr := orchestrator.Scan(ctx, urls, demo)

	if scan.Dropped > 0 {
		fmt.Fprintf(out, "warning: only the first %d of %d URLs were scanned\n", len(scan.Pages), scan.Requested)
	}
	printStats(out, scan.Stats())

	if opts.csvPath != "" {
		if err := writeCSV(out, opts.csvPath, scan, filter); err != nil {
			return err
		}
	}
	if exporter != nil {
		if err := exporter.SaveScan(context.WithoutCancel(ctx), scan); err != nil {
			return fmt.Errorf("failed to export scan: %w", err)
		}
		fmt.Fprintf(out, "exported scan %s to PostgreSQL\n", scan.ID)
	}
	if errors.Is(runErr, context.Canceled) {
		return errors.New("scan interrupted")
	}
	return runErr
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func collectURLs(stdin io.Reader, file string, args []string) ([]string, []string, error) {
	var text strings.Builder
	for _, arg := range args {
		text.WriteString(arg)
		text.WriteByte('\n')
	}

	var src io.Reader
	switch {
	case file == "-":
		src = stdin
	case file != "":
		f, err := os.Open(file)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open URL file: %w", err)
		}
		defer f.Close()
		src = f
	case len(args) == 0:
		src = stdin
	}
	if src != nil {
		sc := bufio.NewScanner(src)
		for sc.Scan() {
			text.WriteString(sc.Text())
			text.WriteByte('\n')
		}
		if err := sc.Err(); err != nil {
			return nil, nil, fmt.Errorf("failed to read URLs: %w", err)
		}
	}

	urls, rejected := utils.ParseURLList(text.String())
	return urls, rejected, nil
}

// printProgress prints one line per page once it reaches a terminal state.
func printProgress(w io.Writer, total int) progress.Listener {
	done := 0
	return func(e progress.Event) {
		if e.Kind != progress.KindPage || e.Page == nil || !e.Page.Status.Terminal() {
			return
		}
		done++
		p := e.Page
		line := fmt.Sprintf("[%d/%d] %-9s %s", done, total, p.Status, p.URL)
		switch {
		case p.Status == entity.StatusFailed:
			line += "  error: " + p.Error
		default:
			line += fmt.Sprintf("  images=%d missing=%d empty=%d", p.ImagesCount, p.MissingAltCount, p.EmptyAltCount)
			if p.FallbackReason != "" {
				line += " (sample data: " + p.FallbackReason + ")"
			}
		}
		fmt.Fprintln(w, line)
	}
}

func printStats(w io.Writer, s entity.ScanStats) {
	fmt.Fprintf(w, "\npages:   %d scanned, %d failed, %d total\n", s.ProcessedURLs, s.FailedURLs, s.TotalURLs)
	fmt.Fprintf(w, "images:  %d total, %d with alt text, %d missing alt, %d empty alt\n",
		s.TotalImages, s.PresentAltImages(), s.MissingAltImages, s.EmptyAltImages)
}

func writeCSV(stdout io.Writer, path string, scan *entity.Scan, filter report.StatusFilter) error {
	images := report.Flatten(scan.Pages)
	if path == "-" {
		return report.WriteCSV(stdout, images, filter)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	if err := report.WriteCSV(f, images, filter); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "wrote %s\n", path)
	return nil
}
