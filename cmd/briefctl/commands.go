package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"newsbrief/internal/app"
	"newsbrief/internal/infra/db"
	"newsbrief/internal/infra/worker"
	"newsbrief/internal/pkg/config"
	"newsbrief/internal/usecase/digest"
)

const dayLayout = "2006-01-02"

// withApp wires the application for one command and closes it afterwards.
func withApp(fn func(ctx context.Context, a *app.App) error) error {
	a, err := app.New(ctx, app.Options{Logger: logger, Component: "briefctl"})
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()
	return fn(ctx, a)
}

// parseDay resolves --date in loc; empty means today.
func parseDay(value string, today time.Time) (time.Time, error) {
	if value == "" {
		return today, nil
	}
	day, err := time.ParseInLocation(dayLayout, value, today.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --date %q, want YYYY-MM-DD: %w", value, err)
	}
	return day, nil
}

type migrateCommand struct {
	Down bool `long:"down" description:"roll back every migration"`
}

func (c *migrateCommand) Execute([]string) error {
	cfg := db.LoadConfigFromEnv(config.NewLoader(logger, nil))
	conn, err := db.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	if c.Down {
		return db.MigrateDown(conn, cfg.Driver)
	}
	version, err := db.MigrateUp(conn, cfg.Driver)
	if err != nil {
		return err
	}
	fmt.Printf("schema at version %d\n", version)
	return nil
}

type ingestCommand struct{}

func (ingestCommand) Execute([]string) error {
	return withApp(func(ctx context.Context, a *app.App) error {
		stats, err := a.Ingest.Run(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("sources=%d errors=%d candidates=%d inserted=%d duplicated=%d invalid=%d\n",
			stats.Sources, stats.SourceErrors, stats.Candidates, stats.Inserted, stats.Duplicated, stats.Invalid)
		return nil
	})
}

type processCommand struct{}

func (processCommand) Execute([]string) error {
	return withApp(func(ctx context.Context, a *app.App) error {
		res, err := a.Process.Run(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("pending=%d approved=%d rejected=%d skipped=%d store_errors=%d insight=%t\n",
			res.Pending, res.Approved, res.Rejected, res.Skipped, res.StoreErrors, res.InsightWritten)
		return nil
	})
}

type digestCommand struct {
	Date string `long:"date" description:"day to render (YYYY-MM-DD), default today"`
	Out  string `long:"out" short:"o" description:"write HTML here instead of stdout"`
}

func (c *digestCommand) Execute([]string) error {
	return withApp(func(ctx context.Context, a *app.App) error {
		day, err := parseDay(c.Date, a.Digest.Today())
		if err != nil {
			return err
		}
		d, html, err := a.Digest.RenderDay(ctx, day)
		if err != nil {
			return err
		}
		if c.Out == "" {
			_, err = fmt.Fprint(os.Stdout, html)
			return err
		}
		if err := os.WriteFile(c.Out, []byte(html), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", c.Out, err)
		}
		logger.Info("digest written",
			slog.String("file", c.Out),
			slog.Int("articles", len(d.Articles)),
			slog.Bool("has_insight", d.HasInsight))
		return nil
	})
}

type sendCommand struct {
	Date string `long:"date" description:"day to send (YYYY-MM-DD), default today"`
}

func (c *sendCommand) Execute([]string) error {
	return withApp(func(ctx context.Context, a *app.App) error {
		day, err := parseDay(c.Date, a.Digest.Today())
		if err != nil {
			return err
		}
		res, err := a.Digest.Send(ctx, day)
		if err != nil {
			return err
		}
		fmt.Printf("newsletter=%d preview=%t recipients=%d sent=%d failed=%d status=%s\n",
			res.NewsletterID, res.Preview, res.Recipients, res.Sent, res.Failed, res.Status)
		return nil
	})
}

type subscribeCommand struct {
	Email string `long:"email" required:"true" description:"subscriber address"`
	Name  string `long:"name" description:"display name"`
}

func (c *subscribeCommand) Execute([]string) error {
	return withApp(func(ctx context.Context, a *app.App) error {
		sub, created, err := a.Digest.Subscribe(ctx, c.Email, c.Name)
		if err != nil {
			return err
		}
		if created {
			fmt.Printf("subscribed %s (id %d)\n", sub.Email, sub.ID)
		} else {
			fmt.Printf("%s is already subscribed\n", sub.Email)
		}
		return nil
	})
}

type unsubscribeCommand struct {
	Email string `long:"email" required:"true" description:"subscriber address"`
}

func (c *unsubscribeCommand) Execute([]string) error {
	return withApp(func(ctx context.Context, a *app.App) error {
		if err := a.Digest.Unsubscribe(ctx, c.Email); err != nil {
			return err
		}
		fmt.Printf("unsubscribed %s\n", c.Email)
		return nil
	})
}

type runCommand struct {
	NoSend bool `long:"no-send" description:"skip digest delivery"`
}

func (c *runCommand) Execute([]string) error {
	return withApp(func(ctx context.Context, a *app.App) error {
		var dispatcher worker.Dispatcher
		if !c.NoSend {
			dispatcher = a.Digest
		}
		rep, err := worker.NewPipeline(a.Ingest, a.Process, dispatcher, worker.WithLogger(logger)).Run(ctx)
		if err != nil && !errors.Is(err, digest.ErrNothingToSend) {
			return err
		}
		fmt.Printf("run=%s inserted=%d approved=%d rejected=%d insight=%t sent=%d skipped=%q\n",
			rep.RunID, rep.Ingest.Inserted, rep.Process.Approved, rep.Process.Rejected,
			rep.Process.InsightWritten, rep.Digest.Sent, rep.DigestSkipped)
		return nil
	})
}
