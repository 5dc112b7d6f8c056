package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"grievance-intake-go/internal/aggregator"
	"grievance-intake-go/internal/api"
	"grievance-intake-go/internal/app"
	"grievance-intake-go/internal/config"
	"grievance-intake-go/internal/dataset"
	"grievance-intake-go/internal/events"
	"grievance-intake-go/internal/logger"
	"grievance-intake-go/internal/storage"
	"grievance-intake-go/internal/types"
)

func main() {
	_ = godotenv.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func usage(w io.Writer) {
	fmt.Fprintln(w, `Usage: admin <command> [args]

Commands:
  import <file.xlsx> <submitter_id>            ingest a spreadsheet of complaints
  export [-status S] [-area A] <file.xlsx>     write complaints and statistics
  set-status <id> <status> <actor_id> [remarks]
  token [-ttl 24h] <subject> <citizen|authority>
  watch                                        print complaint events from Redis`)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) < 2 {
		usage(stderr)
		return 2
	}
	switch args[1] {
	case "import":
		return handleImport(ctx, args[2:], stdout, stderr)
	case "export":
		return handleExport(ctx, args[2:], stdout, stderr)
	case "set-status":
		return handleSetStatus(ctx, args[2:], stdout, stderr)
	case "token":
		return handleToken(args[2:], stdout, stderr)
	case "watch":
		return handleWatch(ctx, stdout, stderr)
	default:
		usage(stderr)
		return 2
	}
}

func build(ctx context.Context, stderr io.Writer) (*app.App, *logger.Logger, error) {
	log := logger.NewWithOutput(stderr)
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	a, err := app.Build(ctx, cfg, log)
	return a, log, err
}

func handleImport(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) != 2 {
		fmt.Fprintln(stderr, "import requires <file.xlsx> <submitter_id>")
		return 2
	}
	rows, err := dataset.LoadSubmissions(args[0], args[1])
	if err != nil {
		fmt.Fprintln(stderr, err.Error())
		return 1
	}
	a, log, err := build(ctx, stderr)
	if err != nil {
		fmt.Fprintln(stderr, err.Error())
		return 1
	}
	defer a.Close()

	var accepted, rejected int
	for _, row := range rows {
		res, err := a.Pipeline.Submit(ctx, row.Submission)
		if err != nil {
			rejected++
			log.WithError(err).WithField("line", row.Line).Warn("row rejected")
			continue
		}
		accepted++
		fmt.Fprintf(stdout, "line %d: %s %s\n", row.Line, res.Record.ID, res.Record.Category)
	}
	fmt.Fprintf(stdout, "imported %d of %d rows (%d rejected)\n", accepted, len(rows), rejected)
	if accepted == 0 && rejected > 0 {
		return 1
	}
	return 0
}

func handleExport(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	fs.SetOutput(stderr)
	status := fs.String("status", "", "only complaints in this status")
	area := fs.String("area", "", "only complaints from this area code")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(stderr, "export requires <file.xlsx>")
		return 2
	}

	filter := storage.Filter{AreaCode: *area}
	if *status != "" {
		st, err := types.ParseStatus(*status)
		if err != nil {
			fmt.Fprintln(stderr, err.Error())
			return 2
		}
		filter.Status = st
	}

	a, _, err := build(ctx, stderr)
	if err != nil {
		fmt.Fprintln(stderr, err.Error())
		return 1
	}
	defer a.Close()

	records, err := a.Store.List(ctx, filter)
	if err != nil {
		fmt.Fprintln(stderr, err.Error())
		return 1
	}
	f, err := os.Create(fs.Arg(0))
	if err != nil {
		fmt.Fprintln(stderr, err.Error())
		return 1
	}
	if err := dataset.WriteReport(f, records, aggregator.Aggregate(records)); err != nil {
		f.Close()
		fmt.Fprintln(stderr, err.Error())
		return 1
	}
	if err := f.Close(); err != nil {
		fmt.Fprintln(stderr, err.Error())
		return 1
	}
	fmt.Fprintf(stdout, "exported %d complaints to %s\n", len(records), fs.Arg(0))
	return 0
}

func handleSetStatus(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) < 3 {
		fmt.Fprintln(stderr, "set-status requires <id> <status> <actor_id> [remarks]")
		return 2
	}
	a, _, err := build(ctx, stderr)
	if err != nil {
		fmt.Fprintln(stderr, err.Error())
		return 1
	}
	defer a.Close()

	rec, err := a.Workflow.Transition(ctx, args[0], args[1], args[2], strings.Join(args[3:], " "))
	if err != nil {
		fmt.Fprintln(stderr, err.Error())
		return 1
	}
	fmt.Fprintf(stdout, "complaint %s is now %s\n", rec.ID, rec.Status)
	return 0
}

func handleToken(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	fs.SetOutput(stderr)
	ttl := fs.Duration("ttl", 24*time.Hour, "token lifetime")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 2 {
		fmt.Fprintln(stderr, "token requires <subject> <citizen|authority>")
		return 2
	}
	auth, err := api.NewAuthenticator(os.Getenv("JWT_SECRET"))
	if err != nil {
		fmt.Fprintln(stderr, err.Error())
		return 1
	}
	tok, err := auth.Issue(fs.Arg(0), fs.Arg(1), *ttl)
	if err != nil {
		fmt.Fprintln(stderr, err.Error())
		return 2
	}
	fmt.Fprintln(stdout, tok)
	return 0
}

func handleWatch(ctx context.Context, stdout, stderr io.Writer) int {
	a, log, err := build(ctx, stderr)
	if err != nil {
		fmt.Fprintln(stderr, err.Error())
		return 1
	}
	defer a.Close()
	if a.Redis == nil {
		fmt.Fprintln(stderr, "watch requires REDIS_ADDR")
		return 1
	}

	enc := json.NewEncoder(stdout)
	err = events.Subscribe(ctx, a.Redis, log, func(ev events.Event) {
		_ = enc.Encode(ev)
	})
	if err != nil {
		fmt.Fprintln(stderr, err.Error())
		return 1
	}
	return 0
}
