package http_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/finecision/finecision/internal/runtime"
	api "github.com/finecision/finecision/pkg/adapters/http"
	"github.com/finecision/finecision/pkg/adapters/memory"
	"github.com/finecision/finecision/pkg/domain"
	"github.com/finecision/finecision/pkg/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ageWorkflow = `{
  "name": "Age gate",
  "nodes": [
    {"id": "start", "type": "trigger", "position": {"x": 0, "y": 0},
     "data": {"title": "Start", "variables": [{"id": "age", "name": "Age", "type": "number"}]}},
    {"id": "adult", "type": "condition", "position": {"x": 0, "y": 100},
     "data": {"config": {"variable": "age", "operator": "greater_than_equal", "value": "18"}}},
    {"id": "ok", "type": "action", "position": {"x": -100, "y": 200},
     "data": {"config": {"actionType": "approve"}}},
    {"id": "ko", "type": "action", "position": {"x": 100, "y": 200},
     "data": {"config": {"actionType": "reject", "comment": "Under age"}}}
  ],
  "connections": [
    {"id": "c1", "source": "start", "target": "adult", "type": "default"},
    {"id": "c2", "source": "adult", "target": "ok", "type": "true"},
    {"id": "c3", "source": "adult", "target": "ko", "type": "false"}
  ]
}`

type testServer struct {
	*httptest.Server
	streams *api.StreamManager
}

func newTestServer(t *testing.T) testServer {
	t.Helper()

	streams := api.NewStreamManager(nil)
	engine := runtime.NewEngine(runtime.WithLifecycleHooks(streams.Hooks()))
	workflows := service.NewWorkflowService(memory.NewWorkflowStore())
	applications := service.NewApplicationService(memory.NewApplicationStore(), workflows, engine,
		service.WithLocker(memory.NewLocker()))

	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("# metrics\n"))
	})

	handler, err := api.NewHandler(workflows, applications,
		api.WithMetricsHandler(metrics),
		api.WithStreams(streams))
	require.NoError(t, err)

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return testServer{Server: srv, streams: streams}
}

func (s testServer) do(t *testing.T, method, path, body string) (*http.Response, map[string]any) {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, s.URL+path, reader)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := s.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	if resp.StatusCode != http.StatusNoContent && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		var raw any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&raw))
		switch v := raw.(type) {
		case map[string]any:
			out = v
		case []any:
			out = map[string]any{"items": v}
		}
	}
	return resp, out
}

func TestServer_Health(t *testing.T) {
	srv := newTestServer(t)

	resp, body := srv.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])

	resp, body = srv.do(t, http.MethodGet, "/info", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "1.0.0", body["api_version"])

	resp, _ = srv.do(t, http.MethodGet, "/openapi.yaml", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/yaml", resp.Header.Get("Content-Type"))

	resp, _ = srv.do(t, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_WorkflowLifecycle(t *testing.T) {
	srv := newTestServer(t)

	resp, created := srv.do(t, http.MethodPost, "/api/workflows", ageWorkflow)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id, _ := created["id"].(string)
	require.NotEmpty(t, id)
	assert.Equal(t, true, created["isActive"])

	resp, got := srv.do(t, http.MethodGet, "/api/workflows/"+id, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	nodes, _ := got["nodes"].([]any)
	assert.Len(t, nodes, 4)

	resp, list := srv.do(t, http.MethodGet, "/api/workflows", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, list["items"], 1)

	t.Run("Execute", func(t *testing.T) {
		resp, decision := srv.do(t, http.MethodPost, "/api/workflows/"+id+"/execute", `{"variables": {"age": 20}}`)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "approved", decision["status"])
		assert.Equal(t, []any{"start", "adult", "ok"}, decision["path"])
		assert.NotContains(t, decision, "creditScore")

		resp, decision = srv.do(t, http.MethodPost, "/api/workflows/"+id+"/execute", `{"variables": {"age": 15}}`)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "rejected", decision["status"])
		assert.Equal(t, "Under age", decision["comment"])
	})

	t.Run("Preview", func(t *testing.T) {
		resp, preview := srv.do(t, http.MethodPost, "/api/workflows/"+id+"/preview", `{"variables": {"age": "30"}}`)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, map[string]any{"age": 30.0}, preview["variables"])
	})

	t.Run("Update", func(t *testing.T) {
		renamed := strings.Replace(ageWorkflow, "Age gate", "Adults only", 1)
		resp, updated := srv.do(t, http.MethodPut, "/api/workflows/"+id, renamed)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "Adults only", updated["name"])
	})

	t.Run("Delete", func(t *testing.T) {
		resp, _ := srv.do(t, http.MethodDelete, "/api/workflows/"+id, "")
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)

		resp, body := srv.do(t, http.MethodGet, "/api/workflows/"+id, "")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "Workflow not found", body["message"])

		resp, _ = srv.do(t, http.MethodPost, "/api/workflows/"+id+"/execute", `{"variables": {}}`)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestServer_RejectsBadRequests(t *testing.T) {
	srv := newTestServer(t)

	t.Run("Schema violation", func(t *testing.T) {
		resp, body := srv.do(t, http.MethodPost, "/api/workflows", `{"name": "no graph"}`)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "Invalid request", body["message"])
	})

	t.Run("Unknown connection type", func(t *testing.T) {
		bad := strings.Replace(ageWorkflow, `"type": "default"`, `"type": "maybe"`, 1)
		resp, _ := srv.do(t, http.MethodPost, "/api/workflows", bad)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("Invalid node config", func(t *testing.T) {
		bad := strings.Replace(ageWorkflow, `"actionType": "approve"`, `"actionType": {"kind": "approve"}`, 1)
		resp, _ := srv.do(t, http.MethodPost, "/api/workflows", bad)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("Structurally invalid workflow", func(t *testing.T) {
		bad := strings.Replace(ageWorkflow, `"type": "trigger"`, `"type": "sticky-note"`, 1)
		resp, body := srv.do(t, http.MethodPost, "/api/workflows", bad)
		require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
		assert.Equal(t, "Invalid workflow", body["message"])
		assert.Contains(t, body["details"], "workflow has no trigger node")
	})

	t.Run("Unknown route", func(t *testing.T) {
		resp, _ := srv.do(t, http.MethodGet, "/api/unknown", "")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestServer_Applications(t *testing.T) {
	srv := newTestServer(t)

	resp, created := srv.do(t, http.MethodPost, "/api/workflows", ageWorkflow)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	workflowID := created["id"].(string)

	resp, app := srv.do(t, http.MethodPost, "/api/applications", `{"workflowId": "`+workflowID+`", "variables": {"age": 44}}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "pending", app["status"])
	appID := app["id"].(string)

	resp, processed := srv.do(t, http.MethodPut, "/api/applications/"+appID+"/process", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "approved", processed["status"])

	resp, got := srv.do(t, http.MethodGet, "/api/applications/"+appID, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "approved", got["status"])

	resp, list := srv.do(t, http.MethodGet, "/api/applications", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, list["items"], 1)

	resp, body := srv.do(t, http.MethodGet, "/api/applications/missing", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Application not found", body["message"])

	resp, _ = srv.do(t, http.MethodPost, "/api/applications", `{"workflowId": "missing", "variables": {}}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = srv.do(t, http.MethodPost, "/api/applications", `{"variables": {}}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestStreamManager_Decisions(t *testing.T) {
	sm := api.NewStreamManager(nil)

	all, cancelAll := sm.Subscribe("")
	defer cancelAll()
	one, cancelOne := sm.Subscribe("wf-1")
	defer cancelOne()
	other, cancelOther := sm.Subscribe("wf-2")
	defer cancelOther()

	sm.Hooks().OnDecision(context.Background(), &domain.DecisionEvent{
		EventBase: domain.EventBase{Type: domain.EventDecision, WorkflowID: "wf-1", Timestamp: time.Now()},
		Result:    domain.ExecutionResult{Status: domain.StatusApproved},
		Steps:     3,
	})

	for _, ch := range []<-chan string{all, one} {
		select {
		case msg := <-ch:
			assert.Contains(t, msg, `"workflow_id":"wf-1"`)
			assert.Contains(t, msg, `"status":"approved"`)
		case <-time.After(time.Second):
			t.Fatal("expected a decision message")
		}
	}

	select {
	case msg := <-other:
		t.Fatalf("unexpected message for another workflow: %s", msg)
	default:
	}
}

func TestServer_Events(t *testing.T) {
	srv := newTestServer(t)

	resp, created := srv.do(t, http.MethodPost, "/api/workflows", ageWorkflow)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id := created["id"].(string)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events?workflowId="+id, nil)
	require.NoError(t, err)
	stream, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer stream.Body.Close()

	buf := make([]byte, 4096)
	n, err := stream.Body.Read(buf)
	require.NoError(t, err)
	require.Contains(t, string(buf[:n]), "event: ping")

	resp, _ = srv.do(t, http.MethodPost, "/api/workflows/"+id+"/execute", `{"variables": {"age": 20}}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var received strings.Builder
	for !strings.Contains(received.String(), `"status":"approved"`) {
		n, err := stream.Body.Read(buf)
		require.NoError(t, err)
		received.Write(buf[:n])
	}
	assert.Contains(t, received.String(), "event: decision")
}
