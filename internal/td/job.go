package td

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/tdquery/tdquery-go/internal/query"
)

// DefaultPollInterval is the wait between two status checks.
const DefaultPollInterval = 5 * time.Second

// Job status values reported by the service.
const (
	StatusQueued  = "queued"
	StatusBooting = "booting"
	StatusRunning = "running"
	StatusSuccess = "success"
	StatusError   = "error"
	StatusKilled  = "killed"
)

// Job is a handle on a submitted query.
type Job struct {
	client *Client

	ID       string
	Database string
	Type     query.Engine
	Query    string
	Status   string
}

// Update refreshes the job status.
func (j *Job) Update(ctx context.Context) error {
	status, err := j.client.JobStatus(ctx, j.ID)
	if err != nil {
		return err
	}
	j.Status = status
	return nil
}

// Finished reports whether the job reached a terminal status.
func (j *Job) Finished() bool {
	switch j.Status {
	case StatusSuccess, StatusError, StatusKilled:
		return true
	}
	return false
}

// Succeeded reports whether the job finished successfully.
func (j *Job) Succeeded() bool {
	return j.Status == StatusSuccess
}

// Wait polls the job until it finishes or ctx is done.
// onPoll, if set, is called after every check that found the job unfinished.
func (j *Job) Wait(ctx context.Context, interval time.Duration, onPoll func(*Job)) error {
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	for {
		if err := j.Update(ctx); err != nil {
			if ctx.Err() != nil {
				return fmt.Errorf("waiting for job %s: %w", j.ID, ctx.Err())
			}
			return err
		}
		if j.Finished() {
			return nil
		}
		if onPoll != nil {
			onPoll(j)
		}

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("waiting for job %s: %w", j.ID, ctx.Err())
		case <-timer.C:
		}
	}
}

// Failure builds the error describing an unsuccessful finished job.
// Debug output is fetched on a best-effort basis.
func (j *Job) Failure(ctx context.Context) *JobFailedError {
	jfe := &JobFailedError{JobID: j.ID, Status: j.Status}
	if info, err := j.client.ShowJob(ctx, j.ID); err == nil {
		jfe.Debug = info.DebugSummary()
	}
	return jfe
}

// JobInfo is the job description returned by the show endpoint.
type JobInfo struct {
	JobID            string `json:"job_id"`
	Status           string `json:"status"`
	Type             string `json:"type"`
	Database         string `json:"database"`
	Query            string `json:"query"`
	URL              string `json:"url"`
	HiveResultSchema string `json:"hive_result_schema"`
	Debug            struct {
		Stderr string `json:"stderr"`
		Cmdout string `json:"cmdout"`
	} `json:"debug"`
}

// ResultColumns returns the column names of the result schema, if any.
// The schema is a JSON-encoded list of [name, type] pairs.
func (ji *JobInfo) ResultColumns() ([]string, error) {
	if strings.TrimSpace(ji.HiveResultSchema) == "" {
		return nil, nil
	}

	var pairs [][]string
	if err := json.Unmarshal([]byte(ji.HiveResultSchema), &pairs); err != nil {
		return nil, fmt.Errorf("failed to parse result schema: %w", err)
	}

	columns := make([]string, 0, len(pairs))
	for _, p := range pairs {
		if len(p) == 0 {
			continue
		}
		columns = append(columns, p[0])
	}
	return columns, nil
}

// DebugSummary returns the last non-empty line of the job's stderr.
func (ji *JobInfo) DebugSummary() string {
	lines := strings.Split(strings.TrimSpace(ji.Debug.Stderr), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if l := strings.TrimSpace(lines[i]); l != "" {
			return l
		}
	}
	return ""
}
