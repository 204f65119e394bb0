package server

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/firebase/genkit/go/genkit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/va6996/seatsaero-mcp/plugins/seatsaero"
	"github.com/va6996/seatsaero-mcp/tools"
)

type rpcResponse struct {
	ID     int             `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type listResult struct {
	Tools []struct {
		Name        string                 `json:"name"`
		Description string                 `json:"description"`
		InputSchema map[string]interface{} `json:"inputSchema"`
	} `json:"tools"`
}

type callResult struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	IsError bool `json:"isError"`
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	registry := tools.NewRegistry()
	_, err := seatsaero.NewClient(seatsaero.Options{APIKey: "test-key", BaseURL: "http://127.0.0.1:1"}, genkit.Init(context.Background()), registry)
	require.NoError(t, err)

	s := New(registry, "seats-aero-mcp", "1.0.0")
	send(t, s, `{"jsonrpc":"2.0","id":0,"method":"initialize","params":{"protocolVersion":"2024-11-05","capabilities":{},"clientInfo":{"name":"test","version":"0"}}}`)
	return s
}

func send(t *testing.T, s *Server, msg string) rpcResponse {
	t.Helper()
	reply := s.MCP().HandleMessage(context.Background(), json.RawMessage(msg))
	require.NotNil(t, reply)

	raw, err := json.Marshal(reply)
	require.NoError(t, err)

	var resp rpcResponse
	require.NoError(t, json.Unmarshal(raw, &resp))
	return resp
}

func callTool(t *testing.T, s *Server, name string, args string) callResult {
	t.Helper()
	resp := send(t, s, `{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"`+name+`","arguments":`+args+`}}`)
	require.Nil(t, resp.Error)

	var result callResult
	require.NoError(t, json.Unmarshal(resp.Result, &result))
	require.Len(t, result.Content, 1)
	assert.Equal(t, "text", result.Content[0].Type)
	return result
}

func TestToolsList(t *testing.T) {
	s := newTestServer(t)
	resp := send(t, s, `{"jsonrpc":"2.0","id":1,"method":"tools/list"}`)
	require.Nil(t, resp.Error)

	var result listResult
	require.NoError(t, json.Unmarshal(resp.Result, &result))

	names := map[string]bool{}
	for _, tool := range result.Tools {
		names[tool.Name] = true
		assert.NotEmpty(t, tool.Description)
		assert.Equal(t, "object", tool.InputSchema["type"])
	}
	assert.Len(t, result.Tools, 5)
	for _, name := range []string{
		seatsaero.SearchToolName,
		seatsaero.BulkToolName,
		seatsaero.FlightDetailsToolName,
		seatsaero.RoutesToolName,
		seatsaero.MileageProgramToolName,
	} {
		assert.True(t, names[name], "missing %s", name)
	}
	assert.False(t, names[unknownTool])
}

func TestToolsCall(t *testing.T) {
	s := newTestServer(t)

	t.Run("MileagePrograms", func(t *testing.T) {
		result := callTool(t, s, seatsaero.MileageProgramToolName, `{}`)
		assert.False(t, result.IsError)
		assert.True(t, strings.HasPrefix(result.Content[0].Text, "Supported Mileage Programs:\n"))
	})

	t.Run("InvalidArguments", func(t *testing.T) {
		result := callTool(t, s, seatsaero.SearchToolName, `{"origins":["SFO"],"destinations":["NRT"],"endDate":"2026-11-30"}`)
		assert.True(t, result.IsError)
		assert.True(t, strings.HasPrefix(result.Content[0].Text, "Error: "))
	})

	t.Run("UnknownTool", func(t *testing.T) {
		result := callTool(t, s, "book_flight", `{"origin":"SFO"}`)
		assert.True(t, result.IsError)
		assert.Equal(t, "Error: Unknown tool: book_flight", result.Content[0].Text)
	})

	t.Run("UnknownToolWithoutArguments", func(t *testing.T) {
		resp := send(t, s, `{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"nope"}}`)
		require.Nil(t, resp.Error)

		var result callResult
		require.NoError(t, json.Unmarshal(resp.Result, &result))
		require.Len(t, result.Content, 1)
		assert.True(t, result.IsError)
		assert.Equal(t, "Error: Unknown tool: nope", result.Content[0].Text)
	})

	t.Run("UnreachableUpstream", func(t *testing.T) {
		result := callTool(t, s, seatsaero.RoutesToolName, `{"origin":"SFO"}`)
		assert.True(t, result.IsError)
		assert.True(t, strings.HasPrefix(result.Content[0].Text, "Error: "))
	})
}

func TestServeStopsAtEndOfInput(t *testing.T) {
	s := newTestServer(t)
	var out bytes.Buffer
	assert.NoError(t, s.Serve(context.Background(), strings.NewReader(""), &out))
}
