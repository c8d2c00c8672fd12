package v1

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/tasklift/tasklift/internal/domain"
	"github.com/tasklift/tasklift/internal/server/middleware"
)

type ListEventsInput struct {
	Limit int `query:"limit" doc:"Maximum number of events to return (default 50)"`
}

type ListEventsOutput struct {
	Body []*domain.Event
}

// RegisterEventRoutes exposes the outbox for external inspection. The log is
// the durable record of what happened, independent of current task state.
func RegisterEventRoutes(api huma.API, engine Lifecycle) {
	huma.Register(api, huma.Operation{
		OperationID: "list-events",
		Method:      http.MethodGet,
		Path:        "/events",
		Summary:     "List recent task events",
		Tags:        []string{"Events"},
	}, func(ctx context.Context, input *ListEventsInput) (*ListEventsOutput, error) {
		tenantID, ok := middleware.TenantIDFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing tenant context")
		}

		events, err := engine.ListEvents(ctx, tenantID, input.Limit)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list events", err)
		}

		return &ListEventsOutput{Body: events}, nil
	})
}
