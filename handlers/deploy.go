package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/corvus-faas/control-plane/deploy"
	"github.com/corvus-faas/control-plane/models"
)

// DeployHandler exposes the deployment pipeline over HTTP.
type DeployHandler struct {
	pipeline        *deploy.Pipeline
	logger          *slog.Logger
	maxFunctionSize int64
}

// NewDeployHandler constructs a DeployHandler.
func NewDeployHandler(pipeline *deploy.Pipeline, logger *slog.Logger, maxFunctionSize int64) *DeployHandler {
	return &DeployHandler{pipeline: pipeline, logger: logger, maxFunctionSize: maxFunctionSize}
}

// Deploy handles POST /deploy: a multipart request carrying exactly one
// file field whose filename ends in ".zip". The part is read in bounded
// chunks so an oversized upload is rejected before the whole bundle is
// buffered in memory.
func (handler *DeployHandler) Deploy(responseWriter http.ResponseWriter, request *http.Request) {
	userUUID := userUUIDFromContext(request.Context())

	multipartReader, err := request.MultipartReader()
	if err != nil {
		writeErrorJsonAndLogIt(responseWriter, http.StatusBadRequest, "expected a multipart request", handler.logger)
		return
	}

	var bundleName string
	var bundleContent []byte
	foundZipField := false

	for {
		part, err := multipartReader.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			writeErrorJsonAndLogIt(responseWriter, http.StatusBadRequest, "malformed multipart body", handler.logger)
			return
		}

		filename := part.FileName()
		if filename == "" || !strings.HasSuffix(strings.ToLower(filename), ".zip") {
			part.Close()
			continue
		}

		limitedReader := io.LimitReader(part, handler.maxFunctionSize+1)
		content, err := io.ReadAll(limitedReader)
		part.Close()
		if err != nil {
			writeErrorJsonAndLogIt(responseWriter, http.StatusBadRequest, "failed to read uploaded bundle", handler.logger)
			return
		}
		if int64(len(content)) > handler.maxFunctionSize {
			// oversized uploads surface as a deploy failure, not a client
			// validation error: the bound is a platform limit, not a
			// malformed request.
			writeErrorJsonAndLogIt(responseWriter, http.StatusInternalServerError, "bundle exceeds maximum allowed size", handler.logger)
			return
		}

		bundleName = strings.TrimSuffix(filename, ".zip")
		bundleContent = content
		foundZipField = true
		break
	}

	if !foundZipField {
		writeErrorJsonAndLogIt(responseWriter, http.StatusBadRequest, "no .zip file field found in request", handler.logger)
		return
	}

	bundle := models.DeployableBundle{
		Name:     bundleName,
		Content:  bundleContent,
		UserUUID: userUUID,
	}

	message, err := handler.pipeline.Deploy(request.Context(), bundle)
	if err != nil {
		var badFunction *deploy.BadFunctionError
		if errors.As(err, &badFunction) {
			writeErrorJsonAndLogIt(responseWriter, http.StatusBadRequest, badFunction.Reason, handler.logger)
			return
		}
		handler.logger.Error("deployment failed", "name", bundleName, "error", err)
		writeErrorJsonAndLogIt(responseWriter, http.StatusInternalServerError, "This is on us and we are working on it", handler.logger)
		return
	}

	writeJsonAndRespond(responseWriter, http.StatusOK, map[string]string{"message": message})
}
