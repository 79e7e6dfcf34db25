package handlers

import (
	"log/slog"
	"net/http"

	"github.com/corvus-faas/control-plane/catalog"
)

// ListHandler exposes a user's registered functions.
type ListHandler struct {
	catalogStore catalog.Store
	logger       *slog.Logger
}

// NewListHandler constructs a ListHandler.
func NewListHandler(catalogStore catalog.Store, logger *slog.Logger) *ListHandler {
	return &ListHandler{catalogStore: catalogStore, logger: logger}
}

type functionListItem struct {
	UUID    string `json:"uuid"`
	Name    string `json:"name"`
	Runtime string `json:"runtime"`
}

// List handles GET /list, returning every function owned by the
// authenticated caller.
func (handler *ListHandler) List(responseWriter http.ResponseWriter, request *http.Request) {
	userUUID := userUUIDFromContext(request.Context())

	functions, err := handler.catalogStore.FindByUser(userUUID)
	if err != nil {
		writeErrorJsonAndLogIt(responseWriter, http.StatusInternalServerError, "failed to list functions", handler.logger)
		return
	}

	items := make([]functionListItem, 0, len(functions))
	for _, function := range functions {
		items = append(items, functionListItem{
			UUID:    function.UUID,
			Name:    function.Name,
			Runtime: function.Runtime,
		})
	}

	writeJsonAndRespond(responseWriter, http.StatusOK, items)
}
