package deploy

import (
	"fmt"
	"os"
	"path/filepath"
)

// mainTemplate is the generated entrypoint for a Go function: a
// minimal HTTP server with graceful shutdown, registering a single
// route at the function's name handled by the derived handler. The
// bundle's own files are extracted over this, so a bundle that ships
// its own main.go silently wins on ExtractZip's overwrite. Expected,
// since the template is only a scaffold for bundles that don't supply
// one.
const mainTemplate = `package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/%s", %s)

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  15 * time.Second,
	}

	go func() {
		log.Printf("function listening on port %%s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("could not listen: %%v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = server.Shutdown(ctx)
}
`

// handlerTemplate is the generated handler body.
const handlerTemplate = `package main

import "net/http"

func %s(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Hello World!"))
}
`

// dockerfileTemplate builds a function's Go binary in one stage and
// runs it in a slim stage. %s is substituted with the rendered ENV
// block.
const dockerfileTemplate = `FROM golang:1.23 AS builder
WORKDIR /app
COPY . .
RUN go mod init serverless-function || true
RUN go mod tidy || true
RUN CGO_ENABLED=0 GOOS=linux go build -o main .

FROM alpine:latest
WORKDIR /app
COPY --from=builder /app/main .
EXPOSE 8080
%s
CMD ["./main"]
`

// writeEntrypoint writes the generated main.go and routes handler file
// into workspace, substituting the function's route name and the
// derived handler name.
func writeEntrypoint(workspace, name, handlerName string) error {
	mainPath := filepath.Join(workspace, "main.go")
	mainContent := fmt.Sprintf(mainTemplate, name, handlerName)
	if err := os.WriteFile(mainPath, []byte(mainContent), 0o644); err != nil {
		return err
	}

	routesPath := filepath.Join(workspace, "routes.go")
	routesContent := fmt.Sprintf(handlerTemplate, handlerName)
	return os.WriteFile(routesPath, []byte(routesContent), 0o644)
}
