// Package batch runs an ordered list of conversion jobs one at a time and
// summarizes their outcomes.
package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/nconklindev/tabjson/internal/converter"
	"github.com/nconklindev/tabjson/internal/types"
)

// Status is the outcome of a single job.
type Status string

const (
	StatusConverted Status = "converted"
	StatusChecked   Status = "checked"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
)

// ErrStopped marks jobs that never ran because an earlier job failed with
// StopOnError set.
var ErrStopped = errors.New("stopped after earlier failure")

// ConvertFunc converts one source into one destination.
type ConvertFunc func(source, destination string, opts converter.Options) (*types.ConversionResult, error)

// Options configures a Runner.
type Options struct {
	Converter   converter.Options
	StopOnError bool
	// DryRun parses every source without writing any destination.
	DryRun bool
	// Convert defaults to converter.Convert.
	Convert ConvertFunc
}

// JobResult is the outcome of one job.
type JobResult struct {
	Job    types.Job
	Status Status
	Result *types.ConversionResult
	Err    error
}

// Summary aggregates the results of a run in job order.
type Summary struct {
	RunID     string
	Results   []JobResult
	Converted int
	Checked   int
	Failed    int
	Skipped   int
}

// Add records a job result.
func (s *Summary) Add(r JobResult) {
	s.Results = append(s.Results, r)
	switch r.Status {
	case StatusConverted:
		s.Converted++
	case StatusChecked:
		s.Checked++
	case StatusFailed:
		s.Failed++
	case StatusSkipped:
		s.Skipped++
	}
}

// Total returns the number of jobs recorded.
func (s Summary) Total() int {
	return len(s.Results)
}

// HasFailures reports whether any job failed.
func (s Summary) HasFailures() bool {
	return s.Failed > 0
}

// Cancelled reports whether any job was skipped because the run's context
// was cancelled or timed out.
func (s Summary) Cancelled() bool {
	for _, r := range s.Results {
		if r.Status == StatusSkipped && (errors.Is(r.Err, context.Canceled) || errors.Is(r.Err, context.DeadlineExceeded)) {
			return true
		}
	}
	return false
}

// Err joins the errors of every failed job, or returns nil.
func (s Summary) Err() error {
	var errs []error
	for _, r := range s.Results {
		if r.Status == StatusFailed {
			errs = append(errs, r.Err)
		}
	}
	return errors.Join(errs...)
}

// Print writes one status line per job and a closing summary line to w.
func (s Summary) Print(w io.Writer) {
	for _, r := range s.Results {
		switch r.Status {
		case StatusConverted, StatusChecked:
			fmt.Fprintf(w, "%-9s  %s -> %s (%d rows)\n", r.Status, r.Job.Source, r.Job.Destination, r.Result.RowsProcessed)
		default:
			fmt.Fprintf(w, "%-9s  %s (%v)\n", r.Status, r.Job.Source, r.Err)
		}
	}
	fmt.Fprintf(w, "\nBatch summary: %d converted, %d checked, %d failed, %d skipped (total: %d)\n",
		s.Converted, s.Checked, s.Failed, s.Skipped, s.Total())
}

// Runner executes jobs sequentially. A Runner is not safe for concurrent use.
type Runner struct {
	runID   string
	opts    Options
	logger  *slog.Logger
	stopped bool
}

func NewRunner(opts Options) *Runner {
	if opts.Convert == nil {
		opts.Convert = converter.Convert
	}
	runID := uuid.NewString()
	return &Runner{
		runID:  runID,
		opts:   opts,
		logger: slog.Default().With("run", runID),
	}
}

func (r *Runner) RunID() string { return r.runID }

// RunJob converts a single job. Once a job has failed under StopOnError, or
// ctx is done, later jobs are skipped without touching their files.
func (r *Runner) RunJob(ctx context.Context, job types.Job) JobResult {
	if r.stopped {
		return JobResult{Job: job, Status: StatusSkipped, Err: ErrStopped}
	}
	if err := ctx.Err(); err != nil {
		return JobResult{Job: job, Status: StatusSkipped, Err: err}
	}

	log := r.logger.With("source", job.Source, "destination", job.Destination)

	if r.opts.DryRun {
		res, err := check(job, r.opts.Converter)
		if err != nil {
			log.Error("batch: check failed", "error", err)
			r.stopped = r.opts.StopOnError
			return JobResult{Job: job, Status: StatusFailed, Err: err}
		}
		log.Info("batch: source checked", "rows", res.RowsProcessed)
		return JobResult{Job: job, Status: StatusChecked, Result: res}
	}

	log.Debug("batch: converting")
	res, err := r.opts.Convert(job.Source, job.Destination, r.opts.Converter)
	if err != nil {
		log.Error("batch: conversion failed", "error", err)
		r.stopped = r.opts.StopOnError
		return JobResult{Job: job, Status: StatusFailed, Err: err}
	}
	log.Info("batch: converted", "rows", res.RowsProcessed, "columns", len(res.ColumnsFound))
	return JobResult{Job: job, Status: StatusConverted, Result: res}
}

// Run executes jobs in order and returns their summary.
func (r *Runner) Run(ctx context.Context, jobs []types.Job) Summary {
	summary := Summary{RunID: r.runID}
	r.logger.Info("batch: starting", "jobs", len(jobs), "dry_run", r.opts.DryRun)
	for _, job := range jobs {
		summary.Add(r.RunJob(ctx, job))
	}
	r.logger.Info("batch: finished",
		"converted", summary.Converted, "checked", summary.Checked,
		"failed", summary.Failed, "skipped", summary.Skipped)
	return summary
}

// Run is shorthand for NewRunner(opts).Run(ctx, jobs).
func Run(ctx context.Context, jobs []types.Job, opts Options) Summary {
	return NewRunner(opts).Run(ctx, jobs)
}

func check(job types.Job, opts converter.Options) (*types.ConversionResult, error) {
	data, err := converter.ReadFileData(job.Source)
	if err != nil {
		return nil, err
	}
	records := converter.BuildRecords(data, opts)
	return &types.ConversionResult{
		InputFile:     job.Source,
		OutputFile:    job.Destination,
		ColumnsFound:  data.Headers,
		RowsProcessed: len(records),
	}, nil
}
