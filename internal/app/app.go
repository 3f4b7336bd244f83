// Package app wires config, the Reddit feed, saved-post state and the
// publishers into one polling cycle.
package app

import (
	"context"
	"fmt"
	"time"

	"fgfbot/internal/config"
	"fgfbot/internal/ingest"
	"fgfbot/internal/publish"
	"fgfbot/internal/reddit"
	"fgfbot/internal/storage"
	logx "fgfbot/pkg/logx"
)

type App struct {
	cfg   *config.Config
	log   logx.Logger
	store storage.Store
	pipe  *ingest.Pipeline
	pub   *publish.Publisher
}

// RunReport summarizes one cycle.
type RunReport struct {
	Ingest ingest.Result
	Sinks  []publish.Report // nil unless Ingest.Status is StatusNew
	Took   time.Duration
}

// Posted is the number of successful sends across all sinks.
func (r RunReport) Posted() int {
	n := 0
	for _, s := range r.Sinks {
		n += s.Count(publish.StatusSent)
	}
	return n
}

// New builds the feed client, opens state and constructs the enabled sinks.
// Missing Reddit credentials or an unusable state store are fatal here.
func New(cfg *config.Config, log logx.Logger) (*App, error) {
	if log.IsZero() {
		log = logx.Nop()
	}
	sec := cfg.Secrets
	feed, err := reddit.New(reddit.Config{
		ClientID:     sec.RedditClientID,
		ClientSecret: sec.RedditClientSecret,
		UserAgent:    sec.RedditUserAgent,
		Timeout:      cfg.Timeout(),
	})
	if err != nil {
		return nil, fmt.Errorf("reddit init: %w", err)
	}

	store, err := storage.Open(mapStateConfig(cfg), log.With(logx.String("comp", "storage")))
	if err != nil {
		return nil, fmt.Errorf("open state: %w", err)
	}

	return assemble(cfg, feed, store, buildSinks(cfg), log), nil
}

func assemble(cfg *config.Config, feed ingest.Feed, store storage.Store, sinks []sinkEntry, log logx.Logger) *App {
	pipe := ingest.New(feed, store, ingest.Options{
		Subreddit:  cfg.Subreddit,
		SkipFlairs: cfg.SkipFlairs,
	}, log.With(logx.String("comp", "ingest")))

	all := make([]publish.Sink, 0, len(sinks))
	for _, s := range sinks {
		all = append(all, s.sink)
	}
	pub := publish.New(log.With(logx.String("comp", "publish")), all...)
	for _, s := range sinks {
		if s.rate > 0 {
			pub.SetRate(s.sink.Name(), s.rate)
		}
	}

	return &App{
		cfg:   cfg,
		log:   log.With(logx.String("comp", "app")),
		store: store,
		pipe:  pipe,
		pub:   pub,
	}
}

// Run executes one fetch-and-publish cycle. The only errors returned are state
// failures; feed and sink failures are logged and reflected in the report.
func (a *App) Run(ctx context.Context) (RunReport, error) {
	start := time.Now()
	a.log.Info("cycle start",
		logx.String("subreddit", a.cfg.Subreddit),
		logx.Int("post_count", a.cfg.PostCount),
		logx.Strings("sinks", a.pub.Sinks()))

	rep := RunReport{Ingest: a.pipe.FetchNew(ctx, a.cfg.PostCount)}
	switch rep.Ingest.Status {
	case ingest.StatusFatal:
		rep.Took = time.Since(start)
		return rep, rep.Ingest.Err
	case ingest.StatusEmpty:
		rep.Took = time.Since(start)
		a.log.Info("cycle done, nothing to publish", logx.Duration("took", rep.Took))
		return rep, nil
	}

	if len(a.pub.Sinks()) == 0 {
		a.log.Warn("no sinks enabled, new posts saved without publishing",
			logx.Int("count", len(rep.Ingest.Posts)))
	}
	rep.Sinks = a.pub.PublishAll(ctx, rep.Ingest.Posts)
	rep.Took = time.Since(start)

	a.log.Info("cycle done",
		logx.Int("new", len(rep.Ingest.Posts)),
		logx.Int("posted", rep.Posted()),
		logx.Duration("took", rep.Took))
	return rep, nil
}

func (a *App) Close() error {
	if a.store == nil {
		return nil
	}
	return a.store.Close()
}
