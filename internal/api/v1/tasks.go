package v1

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/tasklift/tasklift/internal/domain"
	"github.com/tasklift/tasklift/internal/server/middleware"
)

type CreateTaskInput struct {
	IdempotencyKey string `header:"Idempotency-Key" doc:"Optional key making the create idempotent; repeats return the original response"`
	Body           struct {
		Title    string `json:"title" minLength:"1" maxLength:"500" doc:"Task title"`
		Priority string `json:"priority,omitempty" doc:"Task priority: low, medium or high (default medium)"`
	}
}

// MutationOutput is the response of every state-changing operation.
type MutationOutput struct {
	Body *domain.TaskRevision
}

type AssignTaskInput struct {
	ID   uuid.UUID `path:"id" doc:"Task ID"`
	Body struct {
		AssigneeID      string `json:"assignee_id" minLength:"1" doc:"Actor to assign the task to"`
		ExpectedVersion int64  `json:"expected_version" doc:"Version observed by the caller; the write fails on mismatch"`
	}
}

type TransitionTaskInput struct {
	ID   uuid.UUID `path:"id" doc:"Task ID"`
	Body struct {
		State           string `json:"state" minLength:"1" doc:"Target state"`
		ExpectedVersion int64  `json:"expected_version" doc:"Version observed by the caller; the write fails on mismatch"`
	}
}

type GetTaskInput struct {
	ID uuid.UUID `path:"id" doc:"Task ID"`
}

type GetTaskOutput struct {
	Body struct {
		Task     *domain.Task    `json:"task"`
		Timeline []*domain.Event `json:"timeline"`
	}
}

type ListTasksInput struct {
	State      string    `query:"state" doc:"Filter by state"`
	AssigneeID string    `query:"assignee_id" doc:"Filter by assignee"`
	Limit      int       `query:"limit" doc:"Page size (default 20)"`
	Before     time.Time `query:"before" doc:"Keyset cursor: only tasks created strictly before this time"`
}

type ListTasksOutput struct {
	Body []*domain.Task
}

// RegisterTaskMutationRoutes exposes the state-changing task operations.
// They are mounted behind the role gate: only callers with a known role ever
// reach these handlers.
func RegisterTaskMutationRoutes(api huma.API, engine Lifecycle) {
	huma.Register(api, huma.Operation{
		OperationID: "create-task",
		Method:      http.MethodPost,
		Path:        "/tasks",
		Summary:     "Create a new task",
		Tags:        []string{"Tasks"},
	}, func(ctx context.Context, input *CreateTaskInput) (*MutationOutput, error) {
		tenantID, workspaceID, err := scopeFromContext(ctx)
		if err != nil {
			return nil, err
		}

		priority := domain.Priority(input.Body.Priority)
		if priority != "" && !priority.Valid() {
			return nil, huma.Error400BadRequest("unknown priority: " + input.Body.Priority)
		}

		rev, err := engine.Create(ctx, tenantID, workspaceID, input.Body.Title, priority, input.IdempotencyKey)
		if err != nil {
			return nil, lifecycleError(err, "failed to create task")
		}

		return &MutationOutput{Body: rev}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "assign-task",
		Method:      http.MethodPost,
		Path:        "/tasks/{id}/assign",
		Summary:     "Assign a task to an actor",
		Tags:        []string{"Tasks"},
	}, func(ctx context.Context, input *AssignTaskInput) (*MutationOutput, error) {
		tenantID, workspaceID, err := scopeFromContext(ctx)
		if err != nil {
			return nil, err
		}
		role, ok := middleware.RoleFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing caller role")
		}

		rev, err := engine.Assign(ctx, tenantID, workspaceID, input.ID, role, input.Body.AssigneeID, input.Body.ExpectedVersion)
		if err != nil {
			return nil, lifecycleError(err, "failed to assign task")
		}

		return &MutationOutput{Body: rev}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "transition-task",
		Method:      http.MethodPost,
		Path:        "/tasks/{id}/transition",
		Summary:     "Transition a task to a new state",
		Tags:        []string{"Tasks"},
	}, func(ctx context.Context, input *TransitionTaskInput) (*MutationOutput, error) {
		tenantID, workspaceID, err := scopeFromContext(ctx)
		if err != nil {
			return nil, err
		}
		role, ok := middleware.RoleFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing caller role")
		}
		actorID, ok := middleware.ActorIDFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing caller identity")
		}

		target := domain.TaskState(input.Body.State)
		switch target {
		case domain.TaskStateNew, domain.TaskStateInProgress, domain.TaskStateDone, domain.TaskStateCancelled:
			// valid
		default:
			return nil, huma.Error400BadRequest("unknown task state: " + input.Body.State)
		}

		rev, err := engine.Transition(ctx, tenantID, workspaceID, input.ID, role, actorID, target, input.Body.ExpectedVersion)
		if err != nil {
			return nil, lifecycleError(err, "failed to transition task")
		}

		return &MutationOutput{Body: rev}, nil
	})
}

// RegisterTaskQueryRoutes exposes the read-only task operations. Reads need
// tenant and workspace scope but no role.
func RegisterTaskQueryRoutes(api huma.API, engine Lifecycle) {
	huma.Register(api, huma.Operation{
		OperationID: "get-task",
		Method:      http.MethodGet,
		Path:        "/tasks/{id}",
		Summary:     "Get a task with its recent event timeline",
		Tags:        []string{"Tasks"},
	}, func(ctx context.Context, input *GetTaskInput) (*GetTaskOutput, error) {
		tenantID, workspaceID, err := scopeFromContext(ctx)
		if err != nil {
			return nil, err
		}

		task, timeline, err := engine.Get(ctx, tenantID, workspaceID, input.ID)
		if err != nil {
			return nil, lifecycleError(err, "failed to get task")
		}

		out := &GetTaskOutput{}
		out.Body.Task = task
		out.Body.Timeline = timeline
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-tasks",
		Method:      http.MethodGet,
		Path:        "/tasks",
		Summary:     "List tasks in the workspace",
		Tags:        []string{"Tasks"},
	}, func(ctx context.Context, input *ListTasksInput) (*ListTasksOutput, error) {
		tenantID, workspaceID, err := scopeFromContext(ctx)
		if err != nil {
			return nil, err
		}

		filter := domain.TaskFilter{Limit: input.Limit}
		if input.State != "" {
			state := domain.TaskState(input.State)
			switch state {
			case domain.TaskStateNew, domain.TaskStateInProgress, domain.TaskStateDone, domain.TaskStateCancelled:
				filter.State = &state
			default:
				return nil, huma.Error400BadRequest("unknown task state: " + input.State)
			}
		}
		if input.AssigneeID != "" {
			filter.AssigneeID = &input.AssigneeID
		}
		if !input.Before.IsZero() {
			before := input.Before
			filter.Before = &before
		}

		tasks, err := engine.List(ctx, tenantID, workspaceID, filter)
		if err != nil {
			return nil, lifecycleError(err, "failed to list tasks")
		}

		return &ListTasksOutput{Body: tasks}, nil
	})
}

// scopeFromContext pulls the tenant and workspace scope the Identity
// middleware placed in the request context.
func scopeFromContext(ctx context.Context) (tenantID, workspaceID string, err error) {
	tenantID, ok := middleware.TenantIDFromContext(ctx)
	if !ok {
		return "", "", huma.Error403Forbidden("missing tenant context")
	}
	workspaceID, ok = middleware.WorkspaceIDFromContext(ctx)
	if !ok {
		return "", "", huma.Error403Forbidden("missing workspace context")
	}
	return tenantID, workspaceID, nil
}

// lifecycleError maps domain sentinel errors to HTTP responses. Only
// VersionMismatch is retryable by the caller; everything else is permanent.
func lifecycleError(err error, msg string) error {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return huma.Error404NotFound("task not found")
	case errors.Is(err, domain.ErrVersionMismatch):
		return huma.Error409Conflict("version mismatch; re-read and retry with the fresh version")
	case errors.Is(err, domain.ErrInvalidState):
		return huma.Error409Conflict("task is in a terminal state")
	case errors.Is(err, domain.ErrInvalidTransition):
		return huma.Error422UnprocessableEntity("invalid state transition")
	case errors.Is(err, domain.ErrForbidden):
		return huma.Error403Forbidden("role not allowed for this operation")
	case errors.Is(err, domain.ErrConflict):
		return huma.Error409Conflict("conflicting request")
	default:
		return huma.Error500InternalServerError(msg, err)
	}
}
