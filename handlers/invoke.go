package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/corvus-faas/control-plane/invoke"
	"github.com/corvus-faas/control-plane/proxy"
)

// InvokeHandler exposes the invocation path: resolve a running
// instance for a (namespace, name) pair, then forward the inbound
// request to it. Deliberately unauthenticated: knowledge of the
// namespace UUID is the only access control here.
type InvokeHandler struct {
	scheduler *invoke.Scheduler
	proxy     *proxy.Proxy
	logger    *slog.Logger
}

// NewInvokeHandler constructs an InvokeHandler.
func NewInvokeHandler(scheduler *invoke.Scheduler, forwarder *proxy.Proxy, logger *slog.Logger) *InvokeHandler {
	return &InvokeHandler{scheduler: scheduler, proxy: forwarder, logger: logger}
}

// Invoke handles ANY /invoke/{namespace}/{name}.
func (handler *InvokeHandler) Invoke(responseWriter http.ResponseWriter, request *http.Request) {
	namespace := chi.URLParam(request, "namespace")
	name := chi.URLParam(request, "name")

	addr, err := handler.scheduler.EnsureRunning(request.Context(), namespace, name)
	if err != nil {
		switch {
		case errors.Is(err, invoke.ErrFunctionNotRegistered):
			writeErrorJsonAndLogIt(responseWriter, http.StatusNotFound, "Function not found: "+name, handler.logger)
		case errors.Is(err, invoke.ErrFunctionFailedToStart):
			writeErrorJsonAndLogIt(responseWriter, http.StatusInternalServerError, "Failed to start function: "+name, handler.logger)
		default:
			handler.logger.Error("failed to resolve function instance", "name", name, "error", err)
			writeErrorJsonAndLogIt(responseWriter, http.StatusInternalServerError, "This is on us and we are working on it", handler.logger)
		}
		return
	}

	result := handler.proxy.Forward(
		request.Context(),
		addr,
		name,
		request.URL.Query(),
		request.Header,
		request.Method,
		request.Body,
	)

	for headerName, headerValues := range result.Header {
		for _, headerValue := range headerValues {
			responseWriter.Header().Add(headerName, headerValue)
		}
	}
	responseWriter.WriteHeader(result.StatusCode)
	responseWriter.Write(result.Body)
}
