// Binary lk-worker registers with lighthouse, polls for jobs, executes
// them, and reports status back. A Job carries a module/kind plus opaque
// JSON data; execution semantics belong to whatever enqueued the job, not
// to the worker, so this binary just decodes and runs a command.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/lkhq/laniakea/internal/jobs"
	"github.com/lkhq/laniakea/internal/logging"
	"github.com/lkhq/laniakea/internal/pb"
	"github.com/lkhq/laniakea/internal/toolexec"
)

var (
	lighthouseAddr string
	machineName    string
	owner          string
	accepts        []string
	pollInterval   time.Duration
	pingInterval   time.Duration
	logLevel       string
)

// jobPayload is the expected shape of a Job.Data blob this worker knows how
// to execute: a single command plus its arguments and working directory.
type jobPayload struct {
	Command string   `json:"command"`
	Args    []string `json:"args"`
	Dir     string   `json:"dir"`
}

func main() {
	root := &cobra.Command{
		Use:   "lk-worker",
		Short: "register with lighthouse and execute dispatched jobs",
		RunE:  run,
	}
	root.Flags().StringVar(&lighthouseAddr, "lighthouse", "localhost:12320", "lighthouse gRPC address")
	root.Flags().StringVar(&machineName, "machine-name", "", "this worker's machine name (defaults to hostname)")
	root.Flags().StringVar(&owner, "owner", "", "owner/contact for this worker")
	root.Flags().StringSliceVar(&accepts, "accepts", []string{"PACKAGE_BUILD"}, "job modules this worker accepts")
	root.Flags().DurationVar(&pollInterval, "poll-interval", 10*time.Second, "how often to poll for work when idle")
	root.Flags().DurationVar(&pingInterval, "ping-interval", 30*time.Second, "how often to ping lighthouse")
	root.Flags().StringVar(&logLevel, "log-level", "info", "debug, info, warn, error")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	log := logging.Setup("worker", logging.Options{Level: logLevel})
	ctx := context.Background()

	if machineName == "" {
		if h, err := os.Hostname(); err == nil {
			machineName = h
		}
	}

	conn, err := grpc.NewClient(lighthouseAddr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(pb.Codec.Name())))
	if err != nil {
		return err
	}
	defer conn.Close()
	client := pb.NewLighthouseClient(conn)

	reg, err := client.RegisterWorker(ctx, &pb.RegisterWorkerRequest{
		MachineName: machineName,
		Owner:       owner,
		Accepts:     accepts,
	})
	if err != nil {
		return err
	}
	log.WithField("worker_id", reg.WorkerId).Info("registered with lighthouse")

	runner := &toolexec.Runner{Timeout: 2 * time.Hour}
	lastPing := time.Now()

	for {
		if time.Since(lastPing) >= pingInterval {
			if _, err := client.Ping(ctx, &pb.PingRequest{WorkerId: reg.WorkerId}); err != nil {
				log.WithField("err", err).Warn("ping failed")
			}
			lastPing = time.Now()
		}

		poll, err := client.PollJob(ctx, &pb.PollJobRequest{WorkerId: reg.WorkerId})
		if err != nil {
			log.WithField("err", err).Warn("poll failed")
			time.Sleep(pollInterval)
			continue
		}
		if !poll.HasJob {
			time.Sleep(pollInterval)
			continue
		}

		executeJob(ctx, log, client, runner, poll)
	}
}

// executeJob runs one dispatched job's command and reports its outcome. A
// payload that doesn't decode, or names no command, fails the job rather
// than silently skipping it: an unrunnable job is still a result lighthouse
// needs to record.
func executeJob(ctx context.Context, log *logrus.Entry, client pb.LighthouseClient, runner *toolexec.Runner, poll *pb.PollJobReply) {
	jlog := log.WithField("job_id", poll.JobId).WithField("module", poll.Module).WithField("kind", poll.Kind)
	jlog.Info("running job")

	_, _ = client.ReportStatus(ctx, &pb.ReportStatusRequest{
		JobId:  poll.JobId,
		Status: string(jobs.StatusRunning),
	})

	var payload jobPayload
	if err := json.Unmarshal(poll.Data, &payload); err != nil || payload.Command == "" {
		jlog.WithField("err", err).Warn("job has no runnable payload")
		reportDone(ctx, client, poll.JobId, jobs.ResultFailure, "no runnable command in job data")
		return
	}

	res, err := runner.Run(ctx, payload.Dir, payload.Command, payload.Args...)
	result := jobs.ResultSuccess
	excerpt := tail(res)
	if err != nil {
		result = jobs.ResultFailure
		if excerpt == "" {
			excerpt = err.Error()
		}
	}
	reportDone(ctx, client, poll.JobId, result, excerpt)
}

func reportDone(ctx context.Context, client pb.LighthouseClient, jobID string, result jobs.Result, excerpt string) {
	_, _ = client.ReportStatus(ctx, &pb.ReportStatusRequest{
		JobId:            jobID,
		Status:           string(jobs.StatusDone),
		Result:           string(result),
		LatestLogExcerpt: excerpt,
	})
}

// tail returns the last portion of a command's combined output, bounded so
// a runaway build doesn't blow up the job record's log excerpt.
func tail(res *toolexec.Result) string {
	if res == nil {
		return ""
	}
	const maxLen = 4096
	out := res.Combined
	if len(out) <= maxLen {
		return out
	}
	return out[len(out)-maxLen:]
}
