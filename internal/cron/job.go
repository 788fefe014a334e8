// Package cron runs periodic maintenance jobs: the cascade sweep that
// catches products an earlier cascade missed, and outbox retention.
package cron

import "context"

type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// JobFunc adapts a plain function to Job.
func JobFunc(name string, fn func(ctx context.Context) error) Job {
	return funcJob{name: name, fn: fn}
}

type funcJob struct {
	name string
	fn   func(ctx context.Context) error
}

func (j funcJob) Name() string                  { return j.name }
func (j funcJob) Run(ctx context.Context) error { return j.fn(ctx) }
