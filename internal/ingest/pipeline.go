// Package ingest fetches new community posts and records them as seen.
//
// One call to Pipeline.FetchNew reads the feed, drops excluded flairs,
// diffs against persisted state and appends the new batch. Feed failures
// are not fatal: the run simply has nothing new. State failures are.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"fgfbot/internal/model"
	"fgfbot/internal/storage"
	logx "fgfbot/pkg/logx"
)

var ErrInvalidCount = errors.New("ingest: post count must be positive")

// Feed is the source of community posts. *reddit.Client implements it.
type Feed interface {
	// New returns up to limit of the newest posts, newest first.
	New(ctx context.Context, subreddit string, limit int) ([]model.Post, error)
}

type Status int

const (
	// StatusEmpty means nothing new was found, or the feed could not be read.
	StatusEmpty Status = iota
	// StatusNew means Posts holds the newly discovered batch, already persisted.
	StatusNew
	// StatusFatal means state could not be read or written; Err is set.
	StatusFatal
)

func (s Status) String() string {
	switch s {
	case StatusEmpty:
		return "empty"
	case StatusNew:
		return "new"
	case StatusFatal:
		return "fatal"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Result is the outcome of one FetchNew call.
type Result struct {
	Status Status
	Posts  []model.SavedPost
	// Err is the fatal error for StatusFatal, or the swallowed feed error for StatusEmpty.
	Err error
}

// FeedErr returns the feed error behind an empty result, if any.
func (r Result) FeedErr() error {
	if r.Status == StatusEmpty {
		return r.Err
	}
	return nil
}

type Options struct {
	Subreddit  string
	SkipFlairs []string // nil means DefaultSkipFlairs
}

type Pipeline struct {
	feed  Feed
	store storage.Store
	opts  Options
	log   logx.Logger
}

func New(feed Feed, store storage.Store, opts Options, log logx.Logger) *Pipeline {
	if log.IsZero() {
		log = logx.Nop()
	}
	if opts.SkipFlairs == nil {
		opts.SkipFlairs = DefaultSkipFlairs
	}
	return &Pipeline{feed: feed, store: store, opts: opts, log: log}
}

// FetchNew reads the postCount newest posts and returns those never seen before,
// oldest first. When the batch is non-empty it is appended to state before returning.
func (p *Pipeline) FetchNew(ctx context.Context, postCount int) Result {
	if postCount <= 0 {
		return Result{Status: StatusFatal, Err: fmt.Errorf("%w: %d", ErrInvalidCount, postCount)}
	}

	latest, err := p.feed.New(ctx, p.opts.Subreddit, postCount)
	if err != nil {
		p.log.Warn("feed unavailable, treating as no new posts",
			logx.String("subreddit", p.opts.Subreddit), logx.Err(err))
		return Result{Status: StatusEmpty, Err: err}
	}
	candidates := FilterFlairs(Chronological(latest), p.opts.SkipFlairs)

	saved, err := p.store.Load(ctx)
	if err != nil {
		return Result{Status: StatusFatal, Err: fmt.Errorf("load state: %w", err)}
	}

	fresh := Unseen(candidates, saved)
	if len(fresh) == 0 {
		p.log.Info("no new posts",
			logx.Int("fetched", len(latest)), logx.Int("eligible", len(candidates)))
		return Result{Status: StatusEmpty}
	}

	all := append(slices.Clip(saved), fresh...)
	if err := p.store.Save(ctx, all); err != nil {
		return Result{Status: StatusFatal, Err: fmt.Errorf("save state: %w", err)}
	}

	ids := make([]string, 0, len(fresh))
	for _, sp := range fresh {
		ids = append(ids, sp.ID)
	}
	p.log.Info("saved new posts", logx.Int("count", len(fresh)), logx.Strings("ids", ids))
	return Result{Status: StatusNew, Posts: fresh}
}
