package model

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyModel fails the first failures generations, then delegates to a mock.
type flakyModel struct {
	failures int32
	calls    atomic.Int32
	inner    *MockModel
}

func newFlakyModel(failures int32) *flakyModel {
	return &flakyModel{failures: failures, inner: NewMockModel("flaky")}
}

func (f *flakyModel) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	call := f.calls.Add(1)
	if call <= f.failures {
		respCh := make(chan Response)
		errCh := make(chan error, 1)
		errCh <- fmt.Errorf("transient provider failure %d", call)
		close(respCh)
		close(errCh)
		return respCh, errCh
	}
	return f.inner.Generate(ctx, req)
}

func (f *flakyModel) Info() Info { return Info{Name: "flaky", Provider: "mock"} }

func fastRetry(o *RetryOptions) {
	o.MaxRetries = 5
	o.InitialInterval = time.Millisecond
	o.MaxInterval = 5 * time.Millisecond
}

func TestWithRetry_RecoversFromTransientFailures(t *testing.T) {
	flaky := newFlakyModel(2)
	m := WithRetry(flaky, fastRetry)

	respCh, errCh := m.Generate(context.Background(), Request{
		Messages: []Message{{Role: RoleUser, Content: "ping"}},
	})

	responses, err := drain(t, respCh, errCh)
	require.NoError(t, err)
	require.Len(t, responses, 1)
	assert.Equal(t, int32(3), flaky.calls.Load())
}

func TestWithRetry_GivesUpAfterMaxRetries(t *testing.T) {
	flaky := newFlakyModel(100)
	m := WithRetry(flaky, func(o *RetryOptions) {
		o.MaxRetries = 2
		o.InitialInterval = time.Millisecond
		o.MaxInterval = 2 * time.Millisecond
	})

	respCh, errCh := m.Generate(context.Background(), Request{
		Messages: []Message{{Role: RoleUser, Content: "ping"}},
	})

	responses, err := drain(t, respCh, errCh)
	assert.Error(t, err)
	assert.Empty(t, responses)
	assert.Equal(t, int32(3), flaky.calls.Load()) // initial attempt + 2 retries
}

func TestWithRetry_PassesThroughOnFirstSuccess(t *testing.T) {
	inner := NewMockModel("steady")
	inner.AddResponse("hi", "hello")
	m := WithRetry(inner, fastRetry)

	respCh, errCh := m.Generate(context.Background(), Request{
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
	})

	responses, err := drain(t, respCh, errCh)
	require.NoError(t, err)
	require.Len(t, responses, 1)
	assert.Equal(t, "hello", responses[0].Message.Content)
}

func TestWithRetry_Info(t *testing.T) {
	m := WithRetry(NewMockModel("steady"), fastRetry)
	assert.Equal(t, "steady", m.Info().Name)
}
