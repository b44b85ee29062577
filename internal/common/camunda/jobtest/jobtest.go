// Package jobtest provides an in-memory Zeebe job client for handler tests.
package jobtest

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/camunda/zeebe/clients/go/v8/pkg/commands"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"google.golang.org/grpc"
)

// Gateway records the job commands a handler sends. Methods other than
// CompleteJob, FailJob and ThrowError are left to the nil embedded client
// and panic if called.
type Gateway struct {
	pb.GatewayClient

	mu        sync.Mutex
	Completed []*pb.CompleteJobRequest
	Failed    []*pb.FailJobRequest
	Thrown    []*pb.ThrowErrorRequest
}

func (g *Gateway) CompleteJob(_ context.Context, req *pb.CompleteJobRequest, _ ...grpc.CallOption) (*pb.CompleteJobResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Completed = append(g.Completed, req)
	return &pb.CompleteJobResponse{}, nil
}

func (g *Gateway) FailJob(_ context.Context, req *pb.FailJobRequest, _ ...grpc.CallOption) (*pb.FailJobResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Failed = append(g.Failed, req)
	return &pb.FailJobResponse{}, nil
}

func (g *Gateway) ThrowError(_ context.Context, req *pb.ThrowErrorRequest, _ ...grpc.CallOption) (*pb.ThrowErrorResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Thrown = append(g.Thrown, req)
	return &pb.ThrowErrorResponse{}, nil
}

func neverRetry(context.Context, error) bool { return false }

// Client implements worker.JobClient on top of a recording Gateway.
type Client struct {
	Gateway *Gateway
}

func NewClient() *Client {
	return &Client{Gateway: &Gateway{}}
}

func (c *Client) NewCompleteJobCommand() commands.CompleteJobCommandStep1 {
	return commands.NewCompleteJobCommand(c.Gateway, neverRetry)
}

func (c *Client) NewFailJobCommand() commands.FailJobCommandStep1 {
	return commands.NewFailJobCommand(c.Gateway, neverRetry)
}

func (c *Client) NewThrowErrorCommand() commands.ThrowErrorCommandStep1 {
	return commands.NewThrowErrorCommand(c.Gateway, neverRetry)
}

// CompletedVariables decodes the variables of the only completed job.
func (c *Client) CompletedVariables(t testing.TB) map[string]interface{} {
	t.Helper()
	c.Gateway.mu.Lock()
	defer c.Gateway.mu.Unlock()
	if len(c.Gateway.Completed) != 1 {
		t.Fatalf("expected 1 completed job, got %d (failed %d, thrown %d)",
			len(c.Gateway.Completed), len(c.Gateway.Failed), len(c.Gateway.Thrown))
	}
	var vars map[string]interface{}
	if err := json.Unmarshal([]byte(c.Gateway.Completed[0].Variables), &vars); err != nil {
		t.Fatalf("decode completed variables: %v", err)
	}
	return vars
}

// ThrownCode returns the BPMN error code of the only thrown error.
func (c *Client) ThrownCode(t testing.TB) string {
	t.Helper()
	c.Gateway.mu.Lock()
	defer c.Gateway.mu.Unlock()
	if len(c.Gateway.Thrown) != 1 {
		t.Fatalf("expected 1 thrown error, got %d (completed %d, failed %d)",
			len(c.Gateway.Thrown), len(c.Gateway.Completed), len(c.Gateway.Failed))
	}
	return c.Gateway.Thrown[0].ErrorCode
}

// NewJob builds an activated job carrying variables encoded as JSON.
func NewJob(key int64, taskType string, variables interface{}) entities.Job {
	raw, _ := json.Marshal(variables)
	return entities.Job{ActivatedJob: &pb.ActivatedJob{
		Key:                      key,
		Type:                     taskType,
		ProcessInstanceKey:       key * 10,
		BpmnProcessId:            "test-process",
		ProcessDefinitionVersion: 1,
		ProcessDefinitionKey:     1,
		ElementId:                "Activity_" + taskType,
		ElementInstanceKey:       1,
		CustomHeaders:            "{}",
		Worker:                   "test-worker",
		Retries:                  3,
		Variables:                string(raw),
	}}
}
