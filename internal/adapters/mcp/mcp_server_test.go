package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/xvierd/flow-grid/internal/domain"
	"github.com/xvierd/flow-grid/internal/ports"
)

// mockStateProvider is a mock implementation of ports.MCPStateProvider for testing.
type mockStateProvider struct {
	state          *domain.TimerState
	activeTask     *domain.Task
	tasks          []*domain.Task
	progress       map[string]*ports.TaskProgress
	taskHistory    map[string][]*domain.Session
	recentSessions []*domain.Session

	linked           *domain.Subtask
	toggled          []int
	includeCompleted bool
	subtaskCalls     map[string]bool
	described        map[string]string
}

func (m *mockStateProvider) GetTimerState(ctx context.Context) (*domain.TimerState, *domain.Task, error) {
	return m.state, m.activeTask, nil
}

func (m *mockStateProvider) ListTasks(ctx context.Context, includeCompleted bool) ([]*domain.Task, error) {
	m.includeCompleted = includeCompleted
	return m.tasks, nil
}

func (m *mockStateProvider) GetTaskProgress(ctx context.Context, taskID string) (*ports.TaskProgress, error) {
	if p, ok := m.progress[taskID]; ok {
		return p, nil
	}
	return nil, domain.ErrTaskNotFound
}

func (m *mockStateProvider) GetTaskHistory(ctx context.Context, taskID string) ([]*domain.Session, error) {
	return m.taskHistory[taskID], nil
}

func (m *mockStateProvider) GetRecentSessions(ctx context.Context, limit int) ([]*domain.Session, error) {
	if len(m.recentSessions) > limit {
		return m.recentSessions[:limit], nil
	}
	return m.recentSessions, nil
}

func (m *mockStateProvider) ToggleCell(ctx context.Context, taskID string, index int) (*ports.TaskProgress, *domain.Subtask, error) {
	p, ok := m.progress[taskID]
	if !ok {
		return nil, nil, domain.ErrTaskNotFound
	}
	if m.linked != nil {
		return p, m.linked, nil
	}
	m.toggled = append(m.toggled, index)
	return p, nil, nil
}

func (m *mockStateProvider) SetSubtaskCompleted(ctx context.Context, taskID, subtaskID string, completed bool) (*ports.TaskProgress, error) {
	p, ok := m.progress[taskID]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	if m.subtaskCalls == nil {
		m.subtaskCalls = map[string]bool{}
	}
	m.subtaskCalls[subtaskID] = completed
	return p, nil
}

func (m *mockStateProvider) DescribeSession(ctx context.Context, sessionID, description string) (*domain.Session, error) {
	for _, s := range m.recentSessions {
		if s.ID == sessionID {
			if m.described == nil {
				m.described = map[string]string{}
			}
			m.described[sessionID] = description
			s.Description = description
			return s, nil
		}
	}
	return nil, errors.New("session not found")
}

func newFixture(t *testing.T) (*mockStateProvider, *domain.Task) {
	t.Helper()
	task, err := domain.NewTask("Write report", 50, 4)
	if err != nil {
		t.Fatal(err)
	}
	task.ProgressGridFilled = 2
	session := domain.NewSession(task, domain.PhaseFocus, 25, 0, 2)

	return &mockStateProvider{
		tasks: []*domain.Task{task},
		progress: map[string]*ports.TaskProgress{
			task.ID: {Task: task, FilledIndices: []int{0, 1}, Percentage: 50},
		},
		taskHistory:    map[string][]*domain.Session{task.ID: {session}},
		recentSessions: []*domain.Session{session},
	}, task
}

func args(kv map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{Arguments: kv},
	}
}

func decode(t *testing.T, result *mcp.CallToolResult) map[string]interface{} {
	t.Helper()
	if result == nil {
		t.Fatal("nil result")
	}
	if result.IsError {
		t.Fatalf("unexpected error result: %+v", result.Content)
	}
	if len(result.Content) == 0 {
		t.Fatal("empty content")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content is %T, want mcp.TextContent", result.Content[0])
	}
	var out map[string]interface{}
	if err := json.Unmarshal([]byte(text.Text), &out); err != nil {
		t.Fatalf("result is not JSON: %v", err)
	}
	return out
}

func TestNewServer(t *testing.T) {
	mock := &mockStateProvider{}
	server := NewServer(mock)

	if server == nil {
		t.Fatal("NewServer() returned nil")
	}
	if server.stateProvider != mock {
		t.Error("NewServer() did not set state provider correctly")
	}
	if server.server == nil {
		t.Error("NewServer() did not create MCP server")
	}
}

func TestServer_IsRunningAndStop(t *testing.T) {
	server := NewServer(&mockStateProvider{})

	if server.IsRunning() {
		t.Error("IsRunning() should return false before Start()")
	}
	if err := server.Stop(); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
}

func TestServer_handleGetTimerState(t *testing.T) {
	mock, task := newFixture(t)
	state := domain.NewTimerState(1500)
	state.OpenSession(time.Now(), 2, 10, []int{0, 1})
	state.Seconds = 1375
	state.ActiveTaskID = task.ID
	mock.state = &state
	mock.activeTask = task

	out := decode(t, mustCall(t, NewServer(mock).handleGetTimerState, args(nil)))

	timer, ok := out["timer"].(map[string]interface{})
	if !ok {
		t.Fatalf("timer = %v", out["timer"])
	}
	if timer["seconds"] != float64(1375) {
		t.Errorf("seconds = %v, want 1375", timer["seconds"])
	}
	if timer["session_open"] != true {
		t.Error("session_open should be true")
	}
	if timer["elapsed_seconds"] != float64(125) {
		t.Errorf("elapsed_seconds = %v, want 125", timer["elapsed_seconds"])
	}
	active, ok := out["active_task"].(map[string]interface{})
	if !ok || active["id"] != task.ID {
		t.Errorf("active_task = %v", out["active_task"])
	}
}

func TestServer_handleGetTimerState_Empty(t *testing.T) {
	out := decode(t, mustCall(t, NewServer(&mockStateProvider{}).handleGetTimerState, args(nil)))
	if out["timer"] != nil || out["active_task"] != nil {
		t.Errorf("expected null timer and task, got %v", out)
	}
}

func TestServer_handleListTasks(t *testing.T) {
	mock, task := newFixture(t)
	server := NewServer(mock)

	out := decode(t, mustCall(t, server.handleListTasks, args(map[string]interface{}{"include_completed": true})))

	if !mock.includeCompleted {
		t.Error("include_completed should be forwarded")
	}
	if out["total_count"] != float64(1) {
		t.Errorf("total_count = %v", out["total_count"])
	}
	tasks := out["tasks"].([]interface{})
	if tasks[0].(map[string]interface{})["id"] != task.ID {
		t.Errorf("tasks = %v", tasks)
	}
}

func TestServer_handleGetTaskProgress(t *testing.T) {
	mock, task := newFixture(t)
	server := NewServer(mock)

	out := decode(t, mustCall(t, server.handleGetTaskProgress, args(map[string]interface{}{"task_id": task.ID})))
	if out["percentage"] != float64(50) {
		t.Errorf("percentage = %v, want 50", out["percentage"])
	}

	result := mustCall(t, server.handleGetTaskProgress, args(map[string]interface{}{"task_id": "missing"}))
	if !result.IsError {
		t.Error("unknown task should return an error result")
	}
}

func TestServer_handleGetTaskHistory(t *testing.T) {
	mock, task := newFixture(t)
	server := NewServer(mock)

	out := decode(t, mustCall(t, server.handleGetTaskHistory, args(map[string]interface{}{"task_id": task.ID})))
	if out["total_sessions"] != float64(1) {
		t.Errorf("total_sessions = %v", out["total_sessions"])
	}
	if out["total_focus_time"] != "25m0s" {
		t.Errorf("total_focus_time = %v, want 25m0s", out["total_focus_time"])
	}
}

func TestServer_RequiredArguments(t *testing.T) {
	mock, _ := newFixture(t)
	server := NewServer(mock)

	tests := []struct {
		name    string
		handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)
	}{
		{"get_task_progress", server.handleGetTaskProgress},
		{"get_task_history", server.handleGetTaskHistory},
		{"toggle_cell", server.handleToggleCell},
		{"complete_subtask", server.handleSetSubtask(true)},
		{"describe_session", server.handleDescribeSession},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := mustCall(t, tt.handler, args(map[string]interface{}{}))
			if !result.IsError {
				t.Errorf("%s should return error for missing arguments", tt.name)
			}
		})
	}
}

func TestServer_handleGetRecentSessions(t *testing.T) {
	mock, task := newFixture(t)
	mock.recentSessions = append(mock.recentSessions, domain.NewSession(task, domain.PhaseBreak, 5, 2, 2))
	server := NewServer(mock)

	out := decode(t, mustCall(t, server.handleGetRecentSessions, args(map[string]interface{}{"limit": float64(1)})))
	if out["total_count"] != float64(1) {
		t.Errorf("total_count = %v, want 1", out["total_count"])
	}
}

func TestServer_handleToggleCell(t *testing.T) {
	mock, task := newFixture(t)
	server := NewServer(mock)

	decode(t, mustCall(t, server.handleToggleCell, args(map[string]interface{}{
		"task_id": task.ID,
		"index":   float64(3),
	})))
	if len(mock.toggled) != 1 || mock.toggled[0] != 3 {
		t.Errorf("toggled = %v, want [3]", mock.toggled)
	}
}

func TestServer_handleToggleCell_Linked(t *testing.T) {
	mock, task := newFixture(t)
	idx := 1
	mock.linked = &domain.Subtask{ID: "st1", Title: "Outline", LinkedToProgressGrid: true, ProgressGridIndex: &idx}
	server := NewServer(mock)

	result := mustCall(t, server.handleToggleCell, args(map[string]interface{}{
		"task_id": task.ID,
		"index":   float64(1),
	}))
	if !result.IsError {
		t.Error("toggling a linked cell should return an error result")
	}
	if len(mock.toggled) != 0 {
		t.Error("linked cell must not be toggled")
	}
}

func TestServer_handleSetSubtask(t *testing.T) {
	mock, task := newFixture(t)
	server := NewServer(mock)
	req := args(map[string]interface{}{"task_id": task.ID, "subtask_id": "st1"})

	decode(t, mustCall(t, server.handleSetSubtask(true), req))
	if done, ok := mock.subtaskCalls["st1"]; !ok || !done {
		t.Errorf("complete_subtask not forwarded: %v", mock.subtaskCalls)
	}

	decode(t, mustCall(t, server.handleSetSubtask(false), req))
	if mock.subtaskCalls["st1"] {
		t.Error("uncomplete_subtask should forward completed=false")
	}
}

func TestServer_handleDescribeSession(t *testing.T) {
	mock, _ := newFixture(t)
	server := NewServer(mock)
	id := mock.recentSessions[0].ID

	out := decode(t, mustCall(t, server.handleDescribeSession, args(map[string]interface{}{
		"session_id":  id,
		"description": "drafted intro",
	})))
	if out["description"] != "drafted intro" {
		t.Errorf("description = %v", out["description"])
	}

	result := mustCall(t, server.handleDescribeSession, args(map[string]interface{}{
		"session_id":  "missing",
		"description": "x",
	}))
	if !result.IsError {
		t.Error("unknown session should return an error result")
	}
}

func mustCall(t *testing.T, h func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), req mcp.CallToolRequest) *mcp.CallToolResult {
	t.Helper()
	result, err := h(context.Background(), req)
	if err != nil {
		t.Fatalf("handler error = %v", err)
	}
	return result
}
