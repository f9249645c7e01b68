package logging

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/stagehand/internal/testutil"
)

// Fake secrets are assembled at runtime so secret scanners stay quiet.
func fakeAnthropicKey() string { return "sk-" + "ant-api03-test-key-do-not-use" }
func fakeGitHubPAT() string    { return "ghp_" + "xxxxxxxxxxTESTONLYxxxxxxxxxx" }
func fakeOpenAIKey() string    { return "sk-" + "TESTONLYxxxxxxxxxxxxxxxxxxxx1234" }
func fakeAWSKeyID() string     { return "AKIA" + "TESTONLY12345678" }
func fakePassword() string     { return "testonly" + "password123" }

func TestContainsSensitiveData(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected bool
	}{
		{name: "anthropic key", input: "ANTHROPIC_API_KEY=" + fakeAnthropicKey(), expected: true},
		{name: "openai key", input: "using " + fakeOpenAIKey(), expected: true},
		{name: "github token", input: "GH=" + fakeGitHubPAT() + " ./gen.sh", expected: true},
		{name: "aws key id", input: "aws --key " + fakeAWSKeyID(), expected: true},
		{name: "password flag", input: "deploy --password=" + fakePassword(), expected: true},
		{name: "url credentials", input: "curl https://bob:" + fakePassword() + "@example.com/x", expected: true},
		{name: "plain command", input: "./generate.sh --out scripts", expected: false},
		{name: "short password value", input: "password=abc", expected: false},
		{name: "empty", input: "", expected: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expected, ContainsSensitiveData(tc.input))
		})
	}
}

func TestFilterSensitiveValue(t *testing.T) {
	t.Parallel()

	t.Run("redacts token in stage command", func(t *testing.T) {
		t.Parallel()
		out := FilterSensitiveValue("GITHUB_TOKEN=" + fakeGitHubPAT() + " ./assemble.sh")
		assert.NotContains(t, out, fakeGitHubPAT())
		assert.Contains(t, out, RedactedValue)
		assert.Contains(t, out, "./assemble.sh")
	})

	t.Run("redacts url credentials keeping host", func(t *testing.T) {
		t.Parallel()
		out := FilterSensitiveValue("git clone https://bob:" + fakePassword() + "@example.com/repo")
		assert.NotContains(t, out, fakePassword())
		assert.Contains(t, out, "example.com/repo")
	})

	t.Run("leaves clean text untouched", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "stage generate finished", FilterSensitiveValue("stage generate finished"))
	})
}

func TestSafeValue(t *testing.T) {
	t.Parallel()

	assert.Equal(t, RedactedValue, SafeValue("api_token", "anything"))
	assert.Equal(t, RedactedValue, SafeValue("DB_PASSWORD", "anything"))
	assert.Equal(t, "./gen.sh", SafeValue("command", "./gen.sh"))
	assert.NotContains(t, SafeValue("command", "KEY="+fakeOpenAIKey()), fakeOpenAIKey())
}

func TestIsSensitiveFieldName(t *testing.T) {
	t.Parallel()

	assert.True(t, IsSensitiveFieldName("Authorization"))
	assert.True(t, IsSensitiveFieldName("client_secret"))
	assert.False(t, IsSensitiveFieldName("version"))
	assert.False(t, IsSensitiveFieldName("stage"))
}

func TestSensitiveDataHook(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := zerolog.New(&buf).Hook(NewSensitiveDataHook())

	logger.Info().Msg("running " + fakeGitHubPAT())
	assert.Contains(t, buf.String(), `"contains_filtered_data":true`)

	buf.Reset()
	logger.Info().Msg("stage complete")
	assert.NotContains(t, buf.String(), "contains_filtered_data")
}

func TestFilteringWriter(t *testing.T) {
	t.Parallel()

	t.Run("scrubs structured log lines", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := zerolog.New(NewFilteringWriter(&buf))
		logger.Info().Str("command", "TOKEN="+fakeAnthropicKey()+" ./gen.sh").Msg("stage started")

		assert.NotContains(t, buf.String(), fakeAnthropicKey())
		assert.Contains(t, buf.String(), "stage started")
	})

	t.Run("reports original length", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		input := []byte("key " + fakeOpenAIKey())
		n, err := NewFilteringWriter(&buf).Write(input)
		require.NoError(t, err)
		assert.Equal(t, len(input), n)
	})

	t.Run("propagates write errors", func(t *testing.T) {
		t.Parallel()

		n, err := NewFilteringWriter(failingWriter{}).Write([]byte("hello"))
		require.ErrorIs(t, err, testutil.ErrMockWriteFailed)
		assert.Zero(t, n)
	})
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, testutil.ErrMockWriteFailed }
