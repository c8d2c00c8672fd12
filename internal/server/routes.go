package server

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"

	v1 "github.com/tasklift/tasklift/internal/api/v1"
	"github.com/tasklift/tasklift/internal/api/ws"
)

func registerTaskMutationRoutes(api huma.API, engine v1.Lifecycle) {
	v1.RegisterTaskMutationRoutes(api, engine)
}

func registerTaskQueryRoutes(api huma.API, engine v1.Lifecycle) {
	v1.RegisterTaskQueryRoutes(api, engine)
}

func registerEventRoutes(api huma.API, engine v1.Lifecycle) {
	v1.RegisterEventRoutes(api, engine)
}

func registerWSRoutes(r chi.Router, hub *ws.Hub) {
	r.Get("/workspace/{workspaceID}", hub.ServeWorkspace)
}
