// Package mcp exposes timer state, task grids and session history to
// assistants over the Model Context Protocol.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/xvierd/flow-grid/internal/domain"
	"github.com/xvierd/flow-grid/internal/ports"
)

const timeLayout = "2006-01-02T15:04:05"

// Server implements the MCP server using mark3labs/mcp-go.
type Server struct {
	server        *server.MCPServer
	stateProvider ports.MCPStateProvider
	ctx           context.Context
	cancel        context.CancelFunc
}

// NewServer creates a new MCP server instance.
func NewServer(stateProvider ports.MCPStateProvider) *Server {
	s := &Server{
		stateProvider: stateProvider,
	}

	s.server = server.NewMCPServer(
		"flow-grid",
		"1.0.0",
		server.WithLogging(),
	)
	s.registerTools()

	return s
}

func (s *Server) registerTools() {
	s.server.AddTool(
		mcp.NewTool(
			"get_timer_state",
			mcp.WithDescription("Get the persisted timer state: phase, remaining seconds, break bonus, open session and active task"),
		),
		s.handleGetTimerState,
	)

	s.server.AddTool(
		mcp.NewTool(
			"list_tasks",
			mcp.WithDescription("List tasks with their progress grid fill and tracked minutes"),
			mcp.WithBoolean(
				"include_completed",
				mcp.Description("Include completed tasks (default: false)"),
			),
		),
		s.handleListTasks,
	)

	s.server.AddTool(
		mcp.NewTool(
			"get_task_progress",
			mcp.WithDescription("Get a task's progress grid: filled cells, linked subtasks and percentage"),
			mcp.WithString(
				"task_id",
				mcp.Required(),
				mcp.Description("The ID of the task"),
			),
		),
		s.handleGetTaskProgress,
	)

	s.server.AddTool(
		mcp.NewTool(
			"get_task_history",
			mcp.WithDescription("Get recorded focus and break sessions for a specific task"),
			mcp.WithString(
				"task_id",
				mcp.Required(),
				mcp.Description("The ID of the task to get history for"),
			),
		),
		s.handleGetTaskHistory,
	)

	s.server.AddTool(
		mcp.NewTool(
			"get_recent_sessions",
			mcp.WithDescription("Get sessions recorded in the last seven days, newest first"),
			mcp.WithNumber(
				"limit",
				mcp.Description("Maximum number of sessions to return (default: 20)"),
			),
		),
		s.handleGetRecentSessions,
	)

	s.server.AddTool(
		mcp.NewTool(
			"toggle_cell",
			mcp.WithDescription("Toggle one progress grid cell. Cells linked to a subtask change only through that subtask"),
			mcp.WithString(
				"task_id",
				mcp.Required(),
				mcp.Description("The ID of the task"),
			),
			mcp.WithNumber(
				"index",
				mcp.Required(),
				mcp.Description("Zero-based cell index"),
			),
		),
		s.handleToggleCell,
	)

	s.server.AddTool(
		mcp.NewTool(
			"complete_subtask",
			mcp.WithDescription("Mark a subtask completed, filling its linked grid cell"),
			mcp.WithString("task_id", mcp.Required(), mcp.Description("The ID of the task")),
			mcp.WithString("subtask_id", mcp.Required(), mcp.Description("The ID of the subtask")),
		),
		s.handleSetSubtask(true),
	)

	s.server.AddTool(
		mcp.NewTool(
			"uncomplete_subtask",
			mcp.WithDescription("Mark a subtask not completed, clearing its linked grid cell"),
			mcp.WithString("task_id", mcp.Required(), mcp.Description("The ID of the task")),
			mcp.WithString("subtask_id", mcp.Required(), mcp.Description("The ID of the subtask")),
		),
		s.handleSetSubtask(false),
	)

	s.server.AddTool(
		mcp.NewTool(
			"describe_session",
			mcp.WithDescription("Attach a free-form description to a recorded session"),
			mcp.WithString(
				"session_id",
				mcp.Required(),
				mcp.Description("The ID of the session"),
			),
			mcp.WithString(
				"description",
				mcp.Required(),
				mcp.Description("What was done during the session"),
			),
		),
		s.handleDescribeSession,
	)
}

// Start begins serving MCP requests via stdio.
func (s *Server) Start(ctx context.Context) error {
	s.ctx, s.cancel = context.WithCancel(ctx)
	return server.ServeStdio(s.server)
}

// Stop gracefully shuts down the server.
func (s *Server) Stop() error {
	if s.cancel != nil {
		s.cancel()
	}
	return nil
}

// IsRunning returns true if the server is active.
func (s *Server) IsRunning() bool {
	if s.ctx == nil {
		return false
	}
	return s.ctx.Err() == nil
}

// Ensure Server implements ports.MCPHandler.
var _ ports.MCPHandler = (*Server)(nil)

func (s *Server) handleGetTimerState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	state, task, err := s.stateProvider.GetTimerState(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get timer state: %w", err)
	}

	result := map[string]interface{}{
		"timer":       nil,
		"active_task": nil,
	}
	if state != nil {
		timer := map[string]interface{}{
			"phase":        string(state.Phase),
			"phase_label":  state.Phase.Label(),
			"seconds":      state.Seconds,
			"break_bonus":  state.BreakBonus,
			"session_open": state.HasOpenSession(),
		}
		if state.HasOpenSession() {
			timer["session_started_at"] = state.CurrentSessionStartTime.Format(timeLayout)
			timer["session_start_phase"] = string(state.SessionStartPhase)
			timer["session_start_progress"] = state.SessionStartProgress
			timer["elapsed_seconds"] = state.ElapsedSeconds()
		}
		result["timer"] = timer
	}
	if task != nil {
		result["active_task"] = taskSummary(task)
	}

	return jsonResult(result)
}

func (s *Server) handleListTasks(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	includeCompleted := request.GetBool("include_completed", false)

	tasks, err := s.stateProvider.ListTasks(ctx, includeCompleted)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	list := make([]map[string]interface{}, 0, len(tasks))
	for _, task := range tasks {
		list = append(list, taskSummary(task))
	}

	return jsonResult(map[string]interface{}{
		"tasks":       list,
		"total_count": len(list),
	})
}

func (s *Server) handleGetTaskProgress(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	taskID, err := request.RequireString("task_id")
	if err != nil {
		return mcp.NewToolResultError("task_id is required: " + err.Error()), nil
	}

	progress, err := s.stateProvider.GetTaskProgress(ctx, taskID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to get task progress: %v", err)), nil
	}
	return jsonResult(progressData(progress))
}

func (s *Server) handleGetTaskHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	taskID, err := request.RequireString("task_id")
	if err != nil {
		return mcp.NewToolResultError("task_id is required: " + err.Error()), nil
	}

	sessions, err := s.stateProvider.GetTaskHistory(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to get task history: %w", err)
	}

	list := make([]map[string]interface{}, 0, len(sessions))
	var focus time.Duration
	for _, session := range sessions {
		list = append(list, sessionData(session))
		if session.IsFocus() {
			focus += session.DurationValue()
		}
	}

	return jsonResult(map[string]interface{}{
		"task_id":          taskID,
		"sessions":         list,
		"total_sessions":   len(list),
		"total_focus_time": focus.Round(time.Second).String(),
	})
}

func (s *Server) handleGetRecentSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := int(request.GetFloat("limit", 20))
	if limit <= 0 {
		limit = 20
	}

	sessions, err := s.stateProvider.GetRecentSessions(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent sessions: %w", err)
	}

	list := make([]map[string]interface{}, 0, len(sessions))
	for _, session := range sessions {
		list = append(list, sessionData(session))
	}
	return jsonResult(map[string]interface{}{
		"sessions":    list,
		"total_count": len(list),
	})
}

func (s *Server) handleToggleCell(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	taskID, err := request.RequireString("task_id")
	if err != nil {
		return mcp.NewToolResultError("task_id is required: " + err.Error()), nil
	}
	index, err := request.RequireFloat("index")
	if err != nil {
		return mcp.NewToolResultError("index is required: " + err.Error()), nil
	}

	progress, linked, err := s.stateProvider.ToggleCell(ctx, taskID, int(index))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to toggle cell: %v", err)), nil
	}
	if linked != nil {
		return mcp.NewToolResultError(fmt.Sprintf(
			"cell %d is linked to subtask %q (%s); use complete_subtask or uncomplete_subtask",
			int(index), linked.Title, linked.ID)), nil
	}
	return jsonResult(progressData(progress))
}

func (s *Server) handleSetSubtask(completed bool) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		taskID, err := request.RequireString("task_id")
		if err != nil {
			return mcp.NewToolResultError("task_id is required: " + err.Error()), nil
		}
		subtaskID, err := request.RequireString("subtask_id")
		if err != nil {
			return mcp.NewToolResultError("subtask_id is required: " + err.Error()), nil
		}

		progress, err := s.stateProvider.SetSubtaskCompleted(ctx, taskID, subtaskID, completed)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to update subtask: %v", err)), nil
		}
		return jsonResult(progressData(progress))
	}
}

func (s *Server) handleDescribeSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError("session_id is required: " + err.Error()), nil
	}
	description, err := request.RequireString("description")
	if err != nil {
		return mcp.NewToolResultError("description is required: " + err.Error()), nil
	}

	session, err := s.stateProvider.DescribeSession(ctx, sessionID, description)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to describe session: %v", err)), nil
	}
	return jsonResult(sessionData(session))
}

func taskSummary(task *domain.Task) map[string]interface{} {
	return map[string]interface{}{
		"id":                task.ID,
		"name":              task.Name,
		"estimated_minutes": task.EstimatedMinutes,
		"spent_minutes":     task.SpentMinutes,
		"grid_size":         task.ProgressGridSize,
		"grid_filled":       task.ProgressGridFilled,
		"subtasks":          len(task.Subtasks),
		"completed":         task.Completed,
		"created_at":        task.CreatedAt.Format(timeLayout),
	}
}

func progressData(p *ports.TaskProgress) map[string]interface{} {
	subtasks := make([]map[string]interface{}, 0, len(p.Task.Subtasks))
	for _, st := range p.Task.Subtasks {
		entry := map[string]interface{}{
			"id":        st.ID,
			"title":     st.Title,
			"completed": st.Completed,
		}
		if st.Linked() {
			entry["grid_index"] = *st.ProgressGridIndex
		}
		subtasks = append(subtasks, entry)
	}

	data := taskSummary(p.Task)
	data["filled_indices"] = p.FilledIndices
	data["percentage"] = p.Percentage
	data["subtasks"] = subtasks
	return data
}

func sessionData(session *domain.Session) map[string]interface{} {
	data := map[string]interface{}{
		"id":                  session.ID,
		"task_id":             session.TaskID,
		"task_name":           session.TaskName,
		"phase":               string(session.Phase),
		"duration_minutes":    session.Duration,
		"ended_at":            session.DateEnded.Format(timeLayout),
		"progress_grid_start": session.ProgressGridStart,
		"progress_grid_end":   session.ProgressGridEnd,
		"progress_grid_size":  session.ProgressGridSize,
	}
	if session.Description != "" {
		data["description"] = session.Description
	}
	if session.GitBranch != "" {
		data["git_branch"] = session.GitBranch
	}
	if session.GitCommit != "" {
		data["git_commit"] = session.GitCommit
	}
	return data
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}
