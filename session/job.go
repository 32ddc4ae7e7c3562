package session

import (
	"context"
	"fmt"

	"github.com/iw2rmb/vistex/syntax"
)

// Job is a full parse of one buffer version. Run is safe to call off the
// session's goroutine; the result goes back through Session.Install. The
// session cancels a job once a newer edit supersedes it.
type Job struct {
	Version uint64
	Text    string

	parser *syntax.Parser
	done   context.Context
	cancel context.CancelFunc
}

func newJob(version uint64, text string, p *syntax.Parser) *Job {
	done, cancel := context.WithCancel(context.Background())
	return &Job{Version: version, Text: text, parser: p, done: done, cancel: cancel}
}

// JobResult is the outcome of a Job.
type JobResult struct {
	Version uint64
	Tree    *syntax.Tree
}

// Run parses the job's text. It stops with context.Canceled when ctx ends
// or the job is superseded.
func (j *Job) Run(ctx context.Context) (JobResult, error) {
	ctx, stop := context.WithCancel(ctx)
	defer stop()
	if j.done != nil {
		defer context.AfterFunc(j.done, stop)()
	}
	t, err := j.parser.Parse(ctx, j.Text, j.Version)
	if err != nil {
		return JobResult{}, fmt.Errorf("parse version %d: %w", j.Version, err)
	}
	return JobResult{Version: j.Version, Tree: t}, nil
}

// Superseded reports whether the session has cancelled the job.
func (j *Job) Superseded() bool {
	return j.done != nil && j.done.Err() != nil
}

func (j *Job) stop() {
	if j.cancel != nil {
		j.cancel()
	}
}
