package factory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/nerdneilsfield/doc-forge/internal/test"
	"github.com/nerdneilsfield/doc-forge/pkg/providers"
)

func TestGetSupportedProviders(t *testing.T) {
	assert.Equal(t, []string{"compatible", "openai", "raw"}, GetSupportedProviders())
}

func TestNewUnknownType(t *testing.T) {
	cfg := providers.DefaultConfig()
	cfg.APIType = "deepl"

	_, err := New(cfg, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "deepl")
}

func TestNewAgainstMockServer(t *testing.T) {
	server := test.NewMockOpenAIServer(t)
	server.AddResponse("ping", "pong")

	for _, apiType := range []string{"openai", "compatible"} {
		t.Run(apiType, func(t *testing.T) {
			cfg := providers.DefaultConfig()
			cfg.APIType = apiType
			cfg.APIKey = "sk-test"
			cfg.BaseURL = server.BaseURL()
			cfg.Model = "mock-model"

			completer, err := New(cfg, zaptest.NewLogger(t))
			require.NoError(t, err)
			assert.Equal(t, apiType, completer.Name())

			resp, err := completer.Complete(context.Background(), &providers.CompletionRequest{
				Purpose: providers.PurposeGenerate,
				System:  "sys",
				User:    "ping",
			})
			require.NoError(t, err)
			assert.Equal(t, "pong", resp.Text)
		})
	}

	requests := server.Requests()
	require.Len(t, requests, 2)
	assert.Equal(t, "sys", requests[0].System)
	assert.Equal(t, "mock-model", requests[1].Model)
}

func TestRawEchoesUserText(t *testing.T) {
	cfg := providers.DefaultConfig()
	cfg.APIType = "raw"

	completer, err := New(cfg, nil)
	require.NoError(t, err)

	resp, err := completer.Complete(context.Background(), &providers.CompletionRequest{User: "same text"})
	require.NoError(t, err)
	assert.Equal(t, "same text", resp.Text)
}
