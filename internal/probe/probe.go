// Package probe checks that every registry calendar answers CalDAV discovery.
package probe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/emersion/go-webdav"
	"github.com/emersion/go-webdav/caldav"
	"github.com/fatih/color"
	"golang.org/x/sync/errgroup"

	"github.com/Raimguhinov/linkal/internal/registry"
	"github.com/Raimguhinov/linkal/pkg/logger"
)

const (
	_defaultTimeout     = 15 * time.Second
	_defaultMaxParallel = 8
)

// Result is the outcome of probing one calendar.
type Result struct {
	Calendar registry.Calendar
	// UpstreamName is the displayname the upstream reports for the collection.
	UpstreamName string
	Components   []string
	Duration     time.Duration
	Err          error
}

func (r Result) OK() bool {
	return r.Err == nil
}

type Prober struct {
	registry    *registry.Registry
	client      webdav.HTTPClient
	timeout     time.Duration
	maxParallel int
	l           *logger.Logger
}

type Option func(*Prober)

func Timeout(d time.Duration) Option {
	return func(p *Prober) {
		if d > 0 {
			p.timeout = d
		}
	}
}

func MaxParallel(n int) Option {
	return func(p *Prober) {
		if n > 0 {
			p.maxParallel = n
		}
	}
}

// BasicAuth sends the given credentials to every upstream.
func BasicAuth(username, password string) Option {
	return func(p *Prober) {
		if username != "" {
			p.client = webdav.HTTPClientWithBasicAuth(p.client, username, password)
		}
	}
}

// HTTPClient replaces the client used for discovery. Apply it before BasicAuth.
func HTTPClient(c webdav.HTTPClient) Option {
	return func(p *Prober) {
		p.client = c
	}
}

func New(reg *registry.Registry, l *logger.Logger, opts ...Option) *Prober {
	p := &Prober{
		registry:    reg,
		client:      http.DefaultClient,
		timeout:     _defaultTimeout,
		maxParallel: _defaultMaxParallel,
		l:           l,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Check probes every calendar concurrently. Results keep registry order; a
// failing calendar never stops the others.
func (p *Prober) Check(ctx context.Context) []Result {
	calendars := p.registry.All()
	results := make([]Result, len(calendars))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.maxParallel)
	for i, c := range calendars {
		g.Go(func() error {
			results[i] = p.checkOne(ctx, c)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (p *Prober) checkOne(ctx context.Context, c registry.Calendar) (res Result) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	res.Calendar = c
	start := time.Now()
	defer func() {
		res.Duration = time.Since(start)
	}()

	client, err := caldav.NewClient(p.client, c.URL)
	if err != nil {
		res.Err = fmt.Errorf("probe - caldav.NewClient: %w", err)
		return res
	}

	found, err := client.FindCalendars(ctx, c.UpstreamPath())
	if err != nil {
		res.Err = fmt.Errorf("probe - FindCalendars: %w", err)
		p.l.Warn("calendar probe failed", logger.Calendar(c.Segment), logger.Err(err))
		return res
	}

	cal, ok := pick(found, c.UpstreamPath())
	if !ok {
		res.Err = fmt.Errorf("probe: %s is not a calendar collection", c.URL)
		return res
	}
	res.UpstreamName = cal.Name
	res.Components = cal.SupportedComponentSet

	p.l.Debug("calendar probe succeeded", logger.Calendar(c.Segment))
	return res
}

// pick returns the calendar whose path is the probed one, or the first.
func pick(found []caldav.Calendar, upstreamPath string) (caldav.Calendar, bool) {
	if len(found) == 0 {
		return caldav.Calendar{}, false
	}
	want := strings.TrimSuffix(upstreamPath, "/")
	for _, cal := range found {
		if strings.TrimSuffix(cal.Path, "/") == want {
			return cal, true
		}
	}
	return found[0], true
}

// Report writes one line per result and returns the number of failures.
func Report(w io.Writer, results []Result) int {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	failed := 0

	fmt.Fprintln(tw, "STATUS\tSEGMENT\tNAME\tUPSTREAM NAME\tDURATION\tDETAIL")
	for _, r := range results {
		status := color.GreenString("OK")
		detail := strings.Join(r.Components, ",")
		if !r.OK() {
			failed++
			status = color.RedString("FAIL")
			detail = r.Err.Error()
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			status, r.Calendar.Segment, r.Calendar.Name, r.UpstreamName,
			r.Duration.Round(time.Millisecond), detail)
	}
	_ = tw.Flush()

	return failed
}
