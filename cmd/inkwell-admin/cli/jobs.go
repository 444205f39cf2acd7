package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/hibiken/asynq"
	"github.com/spf13/pflag"

	"github.com/inkwell-blog/inkwell/jobs"
)

// Triggerer enqueues named tasks.
type Triggerer interface {
	Trigger(ctx context.Context, taskType string) (*asynq.TaskInfo, error)
}

// JobsCLI wraps manual management helpers for Asynq jobs.
type JobsCLI struct {
	client    Triggerer
	inspector jobs.QueueInspector
}

// NewJobsCLI initialises the CLI helpers. Either dependency may be nil when
// the corresponding subcommand is not needed.
func NewJobsCLI(client Triggerer, inspector jobs.QueueInspector) *JobsCLI {
	return &JobsCLI{client: client, inspector: inspector}
}

// TriggerCommand runs `jobs trigger <task>`.
func (c *JobsCLI) TriggerCommand(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	flags := pflag.NewFlagSet("jobs trigger", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		_, _ = fmt.Fprintf(stderr, "%s: %v\n", flags.Name(), err)
		return 2
	}
	if flags.NArg() != 1 {
		_, _ = fmt.Fprintf(stderr, "jobs trigger: expected one task name (one of %s)\n", strings.Join(jobs.TriggerableTasks(), ", "))
		return 2
	}
	if c == nil || c.client == nil {
		_, _ = fmt.Fprintln(stderr, "jobs trigger: client not configured")
		return 1
	}
	info, err := c.client.Trigger(ctx, flags.Arg(0))
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "jobs trigger: %v\n", err)
		return 1
	}
	_, _ = fmt.Fprintf(stdout, "enqueued %s id=%s queue=%s\n", info.Type, info.ID, info.Queue)
	return 0
}

// StatsCommand runs `jobs stats [--json]`.
func (c *JobsCLI) StatsCommand(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	flags := pflag.NewFlagSet("jobs stats", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	jsonOutput := flags.Bool("json", false, "print stats as JSON")
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		_, _ = fmt.Fprintf(stderr, "%s: %v\n", flags.Name(), err)
		return 2
	}
	if c == nil || c.inspector == nil {
		_, _ = fmt.Fprintln(stderr, "jobs stats: inspector not configured")
		return 1
	}
	stats, err := jobs.Stats(c.inspector)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "jobs stats: %v\n", err)
		return 1
	}
	if *jsonOutput {
		if err := json.NewEncoder(stdout).Encode(stats); err != nil {
			_, _ = fmt.Fprintf(stderr, "jobs stats: encode json: %v\n", err)
			return 1
		}
		return 0
	}
	_, _ = fmt.Fprintf(stdout, "queue=%s pending=%d active=%d scheduled=%d retry=%d archived=%d\n",
		stats.Queue, stats.Pending, stats.Active, stats.Scheduled, stats.Retry, stats.Archived)
	return 0
}
