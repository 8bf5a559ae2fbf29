package outputs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "output")

	err := Write(path, Outputs{
		AgentID:        "ag-1",
		ConversationID: "cv-1",
		Conclusion:     "success",
		TranscriptPath: "/tmp/x.ndjson",
	})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "agent_id=ag-1\nconversation_id=cv-1\nconclusion=success\ntranscript_path=/tmp/x.ndjson\n", string(data))
}

func TestWriteSkipsEmptyFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "output")

	require.NoError(t, Write(path, Outputs{Conclusion: "failure"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "conclusion=failure\n", string(data))
}

func TestWriteAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "output")
	require.NoError(t, os.WriteFile(path, []byte("existing=1\n"), 0644))

	require.NoError(t, Write(path, Outputs{Conclusion: "success"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "existing=1\nconclusion=success\n", string(data))
}

func TestWriteRejectsNewlines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "output")
	err := Write(path, Outputs{AgentID: "bad\nvalue"})
	assert.Error(t, err)
}

func TestWriteNoPathIsNoop(t *testing.T) {
	assert.NoError(t, Write("", Outputs{Conclusion: "success"}))
}
