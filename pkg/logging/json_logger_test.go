package logging

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readEntries(t *testing.T, data []byte) []LogEntry {
	t.Helper()
	var entries []LogEntry
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		var e LogEntry
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &e))
		entries = append(entries, e)
	}
	return entries
}

func TestJSONLogger_NewJSONLogger_Stdout(t *testing.T) {
	logger, err := NewJSONLogger(LoggerConfig{Level: LevelInfo})
	require.NoError(t, err)
	assert.Equal(t, os.Stdout, logger.sink.output)
	require.NoError(t, logger.Close())
}

func TestJSONLogger_NewJSONLogger_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "run.log")

	logger, err := NewJSONLogger(LoggerConfig{
		OutputPath: path,
		Level:      LevelInfo,
		Fields:     map[string]any{"run_id": "r1"},
	})
	require.NoError(t, err)

	logger.Info("scenario passed", ScenarioField("single user"))
	require.NoError(t, logger.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	entries := readEntries(t, data)
	require.Len(t, entries, 1)
	assert.Equal(t, "INFO", entries[0].Level)
	assert.Equal(t, "scenario passed", entries[0].Message)
	assert.Equal(t, "r1", entries[0].Fields["run_id"])
	assert.Equal(t, "single user", entries[0].Fields["scenario"])
}

func TestJSONLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLoggerTo(&buf, LevelWarn)

	logger.Debug("hidden")
	logger.Info("hidden")
	logger.Warn("shown")
	logger.Error("shown too")

	entries := readEntries(t, buf.Bytes())
	require.Len(t, entries, 2)
	assert.Equal(t, "WARN", entries[0].Level)
	assert.Equal(t, "ERROR", entries[1].Level)
}

func TestJSONLogger_DebugNeedsVerbose(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLoggerTo(&buf, LevelDebug)
	logger.Debug("detail")
	assert.Len(t, readEntries(t, buf.Bytes()), 1)
}

func TestJSONLogger_WithFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLoggerTo(&buf, LevelInfo)
	child := logger.WithFields(StringField("category", "auth"))

	child.Info("child")
	logger.Info("parent")

	entries := readEntries(t, buf.Bytes())
	require.Len(t, entries, 2)
	assert.Equal(t, "auth", entries[0].Fields["category"])
	assert.NotContains(t, entries[1].Fields, "category")
}

func TestJSONLogger_MarshalFailureIsDropped(t *testing.T) {
	orig := jsonMarshal
	jsonMarshal = func(any) ([]byte, error) { return nil, errors.New("nope") }
	defer func() { jsonMarshal = orig }()

	var buf bytes.Buffer
	NewJSONLoggerTo(&buf, LevelInfo).Info("lost")
	assert.Empty(t, buf.String())
}

func TestJSONLogger_LogAPIRequestAndResponse(t *testing.T) {
	dir := t.TempDir()
	logger, err := NewJSONLogger(LoggerConfig{
		OutputPath:     filepath.Join(dir, "run.log"),
		APIRequestLog:  filepath.Join(dir, "req.log"),
		APIResponseLog: filepath.Join(dir, "resp.log"),
	})
	require.NoError(t, err)

	logger.LogAPIRequest(APIRequestLog{
		RequestID: "abc", Method: "POST", URL: "https://reqres.in/api/users",
	})
	logger.LogAPIResponse(APIResponseLog{
		RequestID: "abc", StatusCode: 201, ResponseTimeMs: 42,
	})
	require.NoError(t, logger.Close())

	reqData, err := os.ReadFile(filepath.Join(dir, "req.log"))
	require.NoError(t, err)
	var req APIRequestLog
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(reqData), &req))
	assert.Equal(t, "POST", req.Method)

	respData, err := os.ReadFile(filepath.Join(dir, "resp.log"))
	require.NoError(t, err)
	var resp APIResponseLog
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(respData), &resp))
	assert.Equal(t, 201, resp.StatusCode)
	assert.Equal(t, int64(42), resp.ResponseTimeMs)
}

func TestJSONLogger_ClosedLoggerNoop(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLoggerTo(&buf, LevelInfo)
	require.NoError(t, logger.Close())
	require.NoError(t, logger.Close())

	logger.Info("after close")
	logger.WithFields(StringField("k", "v")).Error("child after close")
	assert.Empty(t, buf.String())
}

func TestSetupLogging(t *testing.T) {
	dir := t.TempDir()
	logger, err := SetupLogging(dir, true)
	require.NoError(t, err)
	assert.Equal(t, LevelDebug, logger.level)

	logger.Info("hello")
	require.NoError(t, logger.Close())

	for _, name := range []string{RunLogFile, RequestLogFile, ResponseLogFile} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}
	assert.Equal(t, "apisuite.log", RunLogFile)
}
