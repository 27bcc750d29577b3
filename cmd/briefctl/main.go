// Command briefctl runs single pipeline stages by hand:
//
//	briefctl migrate [--down]
//	briefctl ingest
//	briefctl process
//	briefctl digest [--date 2006-01-02] [--out preview.html]
//	briefctl send [--date 2006-01-02]
//	briefctl subscribe --email reader@example.com [--name 이름]
//	briefctl unsubscribe --email reader@example.com
//	briefctl run [--no-send]
//	briefctl sources [--json]
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jessevdk/go-flags"

	"newsbrief/internal/app"
	"newsbrief/internal/observability/logging"
)

type globalOptions struct {
	EnvFiles []string `long:"env-file" description:"dotenv file to load (repeatable)" default:".env"`
	LogLevel string   `long:"log-level" env:"LOG_LEVEL" default:"info" description:"debug, info, warn or error"`
}

var (
	opts   globalOptions
	logger = slog.Default()
	ctx    = context.Background()
)

func newParser() *flags.Parser {
	p := flags.NewParser(&opts, flags.HelpFlag|flags.PassDoubleDash)
	p.CommandHandler = func(cmd flags.Commander, args []string) error {
		if cmd == nil {
			return nil
		}
		app.LoadDotenv(opts.EnvFiles...)
		logger = logging.NewTextLogger(opts.LogLevel)
		slog.SetDefault(logger)
		return cmd.Execute(args)
	}

	mustAdd(p, "migrate", "Apply database migrations", &migrateCommand{})
	mustAdd(p, "ingest", "Scrape sources and insert new articles as PENDING", &ingestCommand{})
	mustAdd(p, "process", "Summarize PENDING articles and write today's insight", &processCommand{})
	mustAdd(p, "digest", "Render a day's digest to a file or stdout", &digestCommand{})
	mustAdd(p, "send", "Send a day's digest to every active subscriber", &sendCommand{})
	mustAdd(p, "subscribe", "Add an active subscriber", &subscribeCommand{})
	mustAdd(p, "unsubscribe", "Deactivate a subscriber", &unsubscribeCommand{})
	mustAdd(p, "run", "Run ingest, process and send once", &runCommand{})
	mustAdd(p, "sources", "Fetch every configured source once and report what it yields", &sourcesCommand{})
	return p
}

func mustAdd(p *flags.Parser, name, short string, cmd any) {
	if _, err := p.AddCommand(name, short, "", cmd); err != nil {
		panic(err)
	}
}

func main() {
	var cancel context.CancelFunc
	ctx, cancel = signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	_, err := newParser().Parse()
	if err == nil {
		return
	}
	code := 1
	var flagsErr *flags.Error
	switch {
	case errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp:
		fmt.Fprintln(os.Stdout, flagsErr.Message)
		return
	case errors.As(err, &flagsErr):
		fmt.Fprintln(os.Stderr, flagsErr.Message)
		code = 2
	default:
		logger.Error("command failed", slog.Any("error", err))
	}
	cancel()
	os.Exit(code)
}
