// Package pb is the Lighthouse wire protocol: worker registration, ping,
// and job dispatch between lk-lighthouse and lk-worker.
//
// This build pipeline has no protoc available, so these message types
// are hand-declared as plain Go structs carrying `json` tags and are
// (de)serialized by the "json" grpc.Codec registered in codec.go, rather
// than through protoc-gen-go's descriptor-based wire format. The service
// surface (ServiceDesc, client/server stubs) below mirrors exactly what
// protoc-gen-go-grpc would emit for the equivalent .proto, so swapping in a
// real protoc toolchain later only touches this package.
package pb

// RegisterWorkerRequest announces a worker to the lighthouse.
type RegisterWorkerRequest struct {
	MachineName string   `json:"machine_name"`
	Owner       string   `json:"owner"`
	Accepts     []string `json:"accepts"`
}

// RegisterWorkerReply returns the assigned worker UUID.
type RegisterWorkerReply struct {
	WorkerId string `json:"worker_id"`
}

// PingRequest is sent periodically by a worker to report liveness.
type PingRequest struct {
	WorkerId string `json:"worker_id"`
}

// PingReply is empty; its receipt alone updates LastPing.
type PingReply struct{}

// PollJobRequest asks for the next job this worker should run.
type PollJobRequest struct {
	WorkerId string `json:"worker_id"`
}

// PollJobReply carries a job assignment, or HasJob=false when the queue has
// nothing this worker accepts.
type PollJobReply struct {
	HasJob bool   `json:"has_job"`
	JobId  string `json:"job_id"`
	Module string `json:"module"`
	Kind   string `json:"kind"`
	Trigger string `json:"trigger"`
	Version string `json:"version"`
	Architecture string `json:"architecture"`
	Data    []byte `json:"data"`
}

// ReportStatusRequest updates a job's status/result from the worker side.
type ReportStatusRequest struct {
	WorkerId        string `json:"worker_id"`
	JobId           string `json:"job_id"`
	Status          string `json:"status"`
	Result          string `json:"result"`
	LatestLogExcerpt string `json:"latest_log_excerpt"`
}

// ReportStatusReply is empty.
type ReportStatusReply struct{}
