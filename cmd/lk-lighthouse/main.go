// Binary lk-lighthouse is the job/worker coordination server:
// workers register, ping, poll for work and report status over the
// Lighthouse gRPC service (internal/pb).
package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"

	"github.com/lkhq/laniakea/internal/config"
	"github.com/lkhq/laniakea/internal/jobs"
	"github.com/lkhq/laniakea/internal/logging"
	"github.com/lkhq/laniakea/internal/pb"
	"github.com/lkhq/laniakea/internal/store"
)

var (
	configPath  string
	logLevel    string
	listenAddr  string
	metricsAddr string
)

// pendingJobsGauge tracks queue depth per module, updated opportunistically
// whenever PollJob already fetches a module's pending jobs rather than
// running a separate polling loop against the store.
var pendingJobsGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
	Name: "laniakea_lighthouse_pending_jobs",
	Help: "Jobs waiting to be scheduled, by module.",
}, []string{"module"})

func init() {
	prometheus.MustRegister(pendingJobsGauge)
}

func main() {
	root := &cobra.Command{
		Use:   "lk-lighthouse",
		Short: "serve the job/worker coordination gRPC service",
		RunE:  run,
	}
	root.Flags().StringVar(&configPath, "config", "", "path to base-config.json")
	root.Flags().StringVar(&logLevel, "log-level", "info", "debug, info, warn, error")
	root.Flags().StringVar(&listenAddr, "listen", ":12320", "gRPC listen address")
	root.Flags().StringVar(&metricsAddr, "metrics-listen", ":9120", "Prometheus /metrics listen address")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	log := logging.Setup("lighthouse", logging.Options{Level: logLevel})
	ctx := context.Background()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	st, err := store.Open(ctx, store.Config{DSN: cfg.Database.DSN()}, log)
	if err != nil {
		return err
	}
	defer st.Close()

	lis, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return err
	}

	grpcServer := grpc.NewServer()
	pb.RegisterLighthouseServer(grpcServer, &lighthouseServer{engine: jobs.NewEngine(st), store: st})

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		log.WithField("addr", metricsAddr).Info("lighthouse metrics listening")
		if err := http.ListenAndServe(metricsAddr, mux); err != nil {
			log.WithField("err", err).Warn("metrics listener stopped")
		}
	}()

	log.WithField("addr", listenAddr).Info("lighthouse listening")
	return grpcServer.Serve(lis)
}

type lighthouseServer struct {
	engine *jobs.Engine
	store  *store.Store
}

func (s *lighthouseServer) RegisterWorker(ctx context.Context, in *pb.RegisterWorkerRequest) (*pb.RegisterWorkerReply, error) {
	w := &jobs.Worker{
		MachineName: in.MachineName,
		Owner:       in.Owner,
		Accepts:     in.Accepts,
		Status:      jobs.WorkerStatusIdle,
		Enabled:     true,
	}
	if err := s.engine.UpsertWorker(ctx, w); err != nil {
		return nil, err
	}
	return &pb.RegisterWorkerReply{WorkerId: w.UUID.String()}, nil
}

func (s *lighthouseServer) Ping(ctx context.Context, in *pb.PingRequest) (*pb.PingReply, error) {
	id, err := uuid.Parse(in.WorkerId)
	if err != nil {
		return nil, err
	}
	if err := s.engine.UpdateWorkerPing(ctx, id); err != nil {
		return nil, err
	}
	return &pb.PingReply{}, nil
}

// PollJob hands the worker one waiting job whose module is in its accepted
// list. Ordering (highest priority first, then oldest created_time) is
// per-module, so the worker's first accepted module with any pending work
// wins; a single worker only pulls one job per poll.
func (s *lighthouseServer) PollJob(ctx context.Context, in *pb.PollJobRequest) (*pb.PollJobReply, error) {
	workerID, err := uuid.Parse(in.WorkerId)
	if err != nil {
		return nil, err
	}

	for _, module := range s.acceptsFor(ctx, workerID) {
		pending, err := s.engine.PendingJobs(ctx, module)
		if err != nil {
			return nil, err
		}
		pendingJobsGauge.WithLabelValues(module).Set(float64(len(pending)))
		for _, j := range pending {
			if j.Status != jobs.StatusWaiting {
				continue
			}
			j.Status = jobs.StatusScheduled
			j.WorkerId = workerID
			if err := s.engine.UpdateJob(ctx, j); err != nil {
				return nil, err
			}
			return &pb.PollJobReply{
				HasJob:       true,
				JobId:        j.UUID.String(),
				Module:       j.Module,
				Kind:         j.Kind,
				Trigger:      j.Trigger.String(),
				Version:      j.Version,
				Architecture: j.Architecture,
				Data:         j.Data,
			}, nil
		}
	}
	return &pb.PollJobReply{HasJob: false}, nil
}

func (s *lighthouseServer) acceptsFor(ctx context.Context, workerID uuid.UUID) []string {
	w, err := s.store.WorkerByUUID(ctx, workerID)
	if err != nil || w == nil {
		// An unregistered worker simply sees no modules; polling is not
		// fatal since Lighthouse never rejects a stray poll outright.
		return nil
	}
	return w.Accepts
}

func (s *lighthouseServer) ReportStatus(ctx context.Context, in *pb.ReportStatusRequest) (*pb.ReportStatusReply, error) {
	id, err := uuid.Parse(in.JobId)
	if err != nil {
		return nil, err
	}
	if in.Status != "" {
		if err := s.engine.SetJobStatus(ctx, id, jobs.Status(in.Status)); err != nil {
			return nil, err
		}
	}
	if in.Result != "" {
		if err := s.engine.SetJobResult(ctx, id, jobs.Result(in.Result)); err != nil {
			return nil, err
		}
	}
	if in.LatestLogExcerpt != "" {
		if err := s.engine.SetJobLogExcerpt(ctx, id, in.LatestLogExcerpt); err != nil {
			return nil, err
		}
	}
	return &pb.ReportStatusReply{}, nil
}
