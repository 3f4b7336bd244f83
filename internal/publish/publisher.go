// Package publish fans a batch of new posts out to social sinks.
//
// Sinks are independent: a sink that cannot connect skips its whole batch,
// a post that fails on one sink is recorded and the loop moves on. Nothing
// is retried. Sinks run one after another in registration order.
package publish

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"golang.org/x/time/rate"

	"fgfbot/internal/model"
	logx "fgfbot/pkg/logx"
)

// ErrSkip may be returned by Poster.Post when a post should not be sent.
var ErrSkip = errors.New("publish: skipped")

// Sink is one outbound platform.
type Sink interface {
	Name() string
	// Connect authenticates and returns a poster for one batch.
	Connect(ctx context.Context) (Poster, error)
}

type Poster interface {
	Post(ctx context.Context, p model.SavedPost) error
}

type Status int

const (
	StatusSent Status = iota
	StatusSkipped
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusSent:
		return "sent"
	case StatusSkipped:
		return "skipped"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

type Outcome struct {
	PostID string
	Title  string
	Status Status
	Err    error
}

// Report is the result of publishing one batch to one sink.
type Report struct {
	Sink string
	// InitErr is set when Connect failed; every outcome is then StatusSkipped.
	InitErr  error
	Outcomes []Outcome
	Took     time.Duration
}

func (r Report) Count(s Status) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == s {
			n++
		}
	}
	return n
}

type Publisher struct {
	log      logx.Logger
	sinks    []Sink
	limiters map[string]*rate.Limiter
}

func New(log logx.Logger, sinks ...Sink) *Publisher {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Publisher{log: log, sinks: sinks, limiters: map[string]*rate.Limiter{}}
}

// SetRate paces sends to the named sink at perSec posts per second.
// perSec <= 0 removes pacing.
func (p *Publisher) SetRate(sink string, perSec float64) {
	if perSec <= 0 {
		delete(p.limiters, sink)
		return
	}
	p.limiters[sink] = rate.NewLimiter(rate.Limit(perSec), 1)
}

func (p *Publisher) Sinks() []string {
	names := make([]string, 0, len(p.sinks))
	for _, s := range p.sinks {
		names = append(names, s.Name())
	}
	return names
}

// PublishAll publishes posts to every sink in order.
func (p *Publisher) PublishAll(ctx context.Context, posts []model.SavedPost) []Report {
	reports := make([]Report, 0, len(p.sinks))
	for _, s := range p.sinks {
		reports = append(reports, p.Publish(ctx, s, posts))
	}
	return reports
}

// Publish sends every post to sink and records one outcome per post.
func (p *Publisher) Publish(ctx context.Context, sink Sink, posts []model.SavedPost) Report {
	start := time.Now()
	name := sink.Name()
	log := p.log.With(logx.String("sink", name))
	rep := Report{Sink: name, Outcomes: make([]Outcome, 0, len(posts))}

	poster, err := sink.Connect(ctx)
	if err != nil {
		log.Error("sink init failed, skipping batch", logx.Int("posts", len(posts)), logx.Err(err))
		rep.InitErr = err
		for _, post := range posts {
			rep.Outcomes = append(rep.Outcomes, Outcome{PostID: post.ID, Title: post.Title, Status: StatusSkipped, Err: err})
		}
		rep.Took = time.Since(start)
		return rep
	}

	lim := p.limiters[name]
	for _, post := range posts {
		o := Outcome{PostID: post.ID, Title: post.Title}
		if lim != nil {
			if err := lim.Wait(ctx); err != nil {
				o.Status, o.Err = StatusSkipped, err
				log.Warn("post skipped", logx.String("title", post.Title), logx.Err(err))
				rep.Outcomes = append(rep.Outcomes, o)
				continue
			}
		}

		log.Info("posting", logx.String("id", post.ID), logx.String("title", post.Title))
		err := safePost(ctx, poster, post)
		switch {
		case err == nil:
			o.Status = StatusSent
		case errors.Is(err, ErrSkip):
			o.Status, o.Err = StatusSkipped, err
			log.Warn("post skipped", logx.String("title", post.Title), logx.Err(err))
		default:
			o.Status, o.Err = StatusFailed, err
			log.Error("post failed", logx.String("title", post.Title), logx.Err(err))
		}
		rep.Outcomes = append(rep.Outcomes, o)
	}

	rep.Took = time.Since(start)
	log.Info("batch done",
		logx.Int("sent", rep.Count(StatusSent)),
		logx.Int("failed", rep.Count(StatusFailed)),
		logx.Int("skipped", rep.Count(StatusSkipped)),
		logx.Duration("took", rep.Took))
	return rep
}

// safePost turns a panicking Poster into a failed outcome for that post only.
func safePost(ctx context.Context, poster Poster, post model.SavedPost) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in poster: %v\n%s", r, debug.Stack())
		}
	}()
	return poster.Post(ctx, post)
}
