package model

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// drain collects all responses and the terminal error (if any) from a generation.
func drain(t *testing.T, respCh <-chan Response, errCh <-chan error) ([]Response, error) {
	t.Helper()
	var responses []Response
	var genErr error
	for respCh != nil || errCh != nil {
		select {
		case resp, ok := <-respCh:
			if !ok {
				respCh = nil
				continue
			}
			responses = append(responses, resp)
		case err, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}
			if err != nil {
				genErr = err
			}
		}
	}
	return responses, genErr
}

func TestMockModel_CannedResponse(t *testing.T) {
	m := NewMockModel("test-model")
	m.AddResponse("2+2?", "4")

	respCh, errCh := m.Generate(context.Background(), Request{
		Messages: []Message{{Role: RoleUser, Content: "2+2?"}},
	})

	responses, err := drain(t, respCh, errCh)
	require.NoError(t, err)
	require.Len(t, responses, 1)
	assert.False(t, responses[0].Partial)
	assert.Equal(t, "4", responses[0].Message.Content)
	assert.Equal(t, "stop", responses[0].FinishReason)
}

func TestMockModel_Fallback(t *testing.T) {
	m := NewMockModel("test-model")

	respCh, errCh := m.Generate(context.Background(), Request{
		Messages: []Message{{Role: RoleUser, Content: "anything"}},
	})

	responses, err := drain(t, respCh, errCh)
	require.NoError(t, err)
	require.Len(t, responses, 1)
	assert.Contains(t, responses[0].Message.Content, "anything")
}

func TestMockModel_Streaming(t *testing.T) {
	m := NewMockModel("test-model")
	m.AddResponse("hi", "hey")

	respCh, errCh := m.Generate(context.Background(), Request{
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
		Stream:   true,
	})

	responses, err := drain(t, respCh, errCh)
	require.NoError(t, err)

	var sb strings.Builder
	var finals int
	for _, resp := range responses {
		if resp.Partial {
			sb.WriteString(resp.Message.Content)
			continue
		}
		finals++
		assert.Equal(t, "hey", resp.Message.Content)
	}
	assert.Equal(t, "hey", sb.String())
	assert.Equal(t, 1, finals)
}

func TestMockModel_EmptyRequest(t *testing.T) {
	m := NewMockModel("test-model")

	respCh, errCh := m.Generate(context.Background(), Request{})
	responses, err := drain(t, respCh, errCh)
	assert.Error(t, err)
	assert.Empty(t, responses)
}

func TestMockModel_Info(t *testing.T) {
	m := NewMockModel("test-model")
	assert.Equal(t, Info{Name: "test-model", Provider: "mock"}, m.Info())
}

func TestMockModel_ConcurrentAddResponse(t *testing.T) {
	m := NewMockModel("test-model")
	m.AddResponse("ping", "pong")

	const workers = 8
	results := make(chan string, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()

			// Register new prompts while other generations are in flight.
			m.AddResponse(fmt.Sprintf("prompt-%d", n), "canned")

			respCh, errCh := m.Generate(context.Background(), Request{
				Messages: []Message{{Role: RoleUser, Content: "ping"}},
			})
			var final string
			for resp := range respCh {
				if !resp.Partial {
					final = resp.Message.Content
				}
			}
			if err := <-errCh; err != nil {
				results <- "error: " + err.Error()
				return
			}
			results <- final
		}(i)
	}
	wg.Wait()
	close(results)

	for got := range results {
		assert.Equal(t, "pong", got)
	}
}
