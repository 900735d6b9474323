package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/kirillkom/homestay-faq-assistant/internal/bootstrap"
	"github.com/kirillkom/homestay-faq-assistant/internal/config"
	"github.com/kirillkom/homestay-faq-assistant/internal/observability/logging"
)

const usage = `usage:
  faqctl import [-by name] <faqs.xlsx>   upsert FAQs from a sheet and schedule embeddings
  faqctl reindex                         schedule embeddings for FAQs that have none`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	cfg := config.Load()
	logger := logging.NewJSONLoggerTo(os.Stderr, "faqctl", cfg.LogLevel)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, bootstrap.Options{Service: "faqctl", Logger: logger})
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	switch os.Args[1] {
	case "import":
		err = runImport(ctx, app, os.Args[2:])
	case "reindex":
		err = runReindex(ctx, app)
	default:
		fmt.Fprintln(os.Stderr, usage)
		err = fmt.Errorf("unknown command %q", os.Args[1])
	}
	if err != nil {
		logger.Error("faqctl_failed", "command", os.Args[1], "error", err)
		app.Close()
		os.Exit(1)
	}
}

func runImport(ctx context.Context, app *bootstrap.App, args []string) error {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	updatedBy := fs.String("by", "faqctl", "Name recorded as updated_by")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("import expects exactly one .xlsx path")
	}

	f, err := os.Open(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("open sheet: %w", err)
	}
	defer f.Close()

	report, err := app.ImportUC.Import(ctx, f, *updatedBy)
	if err != nil {
		return err
	}
	fmt.Printf("imported %d faqs\n", len(report.Imported))
	for _, skipped := range report.Skipped {
		fmt.Printf("skipped %s\n", skipped)
	}
	return nil
}

func runReindex(ctx context.Context, app *bootstrap.App) error {
	n, err := app.ImportUC.Reindex(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("scheduled %d faqs for embedding\n", n)
	return nil
}
