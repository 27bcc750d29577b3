package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"newsbrief/internal/app"
	"newsbrief/internal/infra/scraper"
	"newsbrief/internal/usecase/ingest"
)

// Source diagnosis statuses.
const (
	statusOK          = "OK"
	statusEmpty       = "EMPTY"
	statusError       = "ERROR"
	statusDisabled    = "DISABLED"
	statusUnknownKind = "UNKNOWN_KIND"
)

// sourceDiagnostic is the dry-run result for one configured source.
type sourceDiagnostic struct {
	Name         string `json:"name"`
	Kind         string `json:"kind"`
	URL          string `json:"url"`
	Status       string `json:"status"`
	ItemCount    int    `json:"item_count"`
	FirstTitle   string `json:"first_title,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
	ResponseTime int64  `json:"response_time_ms"`
}

type sourcesCommand struct {
	JSON  bool          `long:"json" description:"print the report as JSON"`
	Pause time.Duration `long:"pause" default:"500ms" description:"wait between sources"`
}

func (c *sourcesCommand) Execute([]string) error {
	return withApp(func(ctx context.Context, a *app.App) error {
		diags := diagnoseSources(ctx, a.Fetchers, a.Sources, c.Pause)
		if c.JSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(diags)
		}
		return writeSourceReport(os.Stdout, diags)
	})
}

// diagnoseSources fetches every source once without touching the database.
func diagnoseSources(ctx context.Context, fetchers map[string]ingest.Fetcher, sources []ingest.SourceConfig, pause time.Duration) []sourceDiagnostic {
	out := make([]sourceDiagnostic, 0, len(sources))
	for i, src := range sources {
		d := sourceDiagnostic{Name: src.Name, Kind: src.Kind, URL: src.URL}
		f, ok := fetchers[src.Kind]
		switch {
		case src.Disabled:
			d.Status = statusDisabled
		case !ok:
			d.Status = statusUnknownKind
			d.ErrorMessage = fmt.Sprintf("%v: %q", ingest.ErrUnknownKind, src.Kind)
		default:
			if i > 0 && pause > 0 {
				select {
				case <-ctx.Done():
				case <-time.After(pause):
				}
			}
			start := time.Now()
			cands, err := f.Fetch(ctx, src)
			d.ResponseTime = time.Since(start).Milliseconds()
			d.ItemCount = len(cands)
			switch {
			case err != nil && !errors.Is(err, scraper.ErrNoItems):
				d.Status = statusError
				d.ErrorMessage = err.Error()
			case len(cands) == 0:
				d.Status = statusEmpty
			default:
				d.Status = statusOK
				d.FirstTitle = cands[0].Title
			}
		}
		out = append(out, d)
	}
	return out
}

func writeSourceReport(w io.Writer, diags []sourceDiagnostic) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "NAME\tKIND\tSTATUS\tITEMS\tMS\tDETAIL")
	broken := 0
	for _, d := range diags {
		detail := d.FirstTitle
		if d.ErrorMessage != "" {
			detail = d.ErrorMessage
		}
		if d.Status == statusError || d.Status == statusEmpty || d.Status == statusUnknownKind {
			broken++
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\n", d.Name, d.Kind, d.Status, d.ItemCount, d.ResponseTime, detail)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\n%d sources, %d need attention\n", len(diags), broken)
	return err
}
