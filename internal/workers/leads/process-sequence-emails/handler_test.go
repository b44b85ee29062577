package processsequenceemails

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prospect-composer/internal/common/camunda/jobtest"
	"prospect-composer/internal/common/config"
	apperrors "prospect-composer/internal/common/errors"
	"prospect-composer/internal/common/logger"
	"prospect-composer/internal/sequences"
)

type fakeProcessor struct {
	result *sequences.Result
	err    error
	runs   int
}

func (f *fakeProcessor) Process(context.Context) (*sequences.Result, error) {
	f.runs++
	return f.result, f.err
}

func createTestHandler(t *testing.T, p *fakeProcessor) *Handler {
	t.Helper()
	return NewHandler(&Config{Timeout: time.Second}, p, nil, nil, logger.NewTestLogger(t))
}

func TestExecute(t *testing.T) {
	p := &fakeProcessor{result: &sequences.Result{
		TotalProcessed: 4, EmailsSent: 2, CompletedSequences: 1,
		Errors: []sequences.ResultError{{LeadID: "lead-3", Email: "sam@example.com", Error: "Throttling"}},
	}}
	h := createTestHandler(t, p)

	out, err := h.Execute(context.Background(), &Input{})
	require.NoError(t, err)
	assert.Equal(t, 1, p.runs)
	assert.Equal(t, 4, out.TotalProcessed)
	assert.Equal(t, 2, out.EmailsSent)
	require.Len(t, out.Errors, 1)
	assert.Equal(t, "lead-3", out.Errors[0].LeadID)
}

func TestExecute_ListFailureIsRetryable(t *testing.T) {
	h := createTestHandler(t, &fakeProcessor{err: apperrors.NewDatabaseError("list active sequences", errors.New("connection refused"))})

	_, err := h.Execute(context.Background(), &Input{})
	stdErr, ok := apperrors.AsStandardError(err)
	require.True(t, ok)
	assert.True(t, stdErr.Retryable)
}

func TestLoadConfig_Default(t *testing.T) {
	assert.Equal(t, 5*time.Minute, LoadConfig(config.WorkerConfig{}).Timeout)
	assert.Equal(t, 30*time.Second, LoadConfig(config.WorkerConfig{Timeout: 30000}).Timeout)
}

func TestHandle(t *testing.T) {
	h := createTestHandler(t, &fakeProcessor{result: &sequences.Result{TotalProcessed: 1, EmailsSent: 1, Errors: []sequences.ResultError{}}})
	client := jobtest.NewClient()
	h.Handle(client, jobtest.NewJob(1, TaskType, map[string]interface{}{}))

	vars := client.CompletedVariables(t)
	assert.Equal(t, float64(1), vars["emailsSent"])
	assert.Equal(t, float64(1), vars["totalProcessed"])
	assert.Equal(t, []interface{}{}, vars["errors"])
}
