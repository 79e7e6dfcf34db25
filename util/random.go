package util

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/google/uuid"
)

// RandomBindPort picks a port in [8000, 9000), a range clear of common
// dev-tool defaults (3000, 5432, 6379, 8080). A collision on the host
// surfaces as a container start failure at the caller.
func RandomBindPort() int {
	return 8000 + rand.IntN(1000)
}

// RandomContainerName returns a random Docker container name for a
// single function instance: the function key plus the first 8 hex
// characters of a fresh random UUID. There is no retry loop; a name
// collision surfaces as a container create failure at the caller.
func RandomContainerName(functionKey string) string {
	return "fn-" + functionKey + "-" + uuid.New().String()[:8]
}

// ToCamelCaseHandler derives the handler function name from a function
// name: split on '-', uppercase the first character of each segment
// (and the very first character regardless of position), append
// "Handler". "hello-world" -> "HelloWorldHandler".
func ToCamelCaseHandler(name string) string {
	var result strings.Builder
	capitalizeNext := true

	for _, r := range name {
		if r == '-' {
			capitalizeNext = true
			continue
		}
		if capitalizeNext {
			result.WriteRune(upperRune(r))
			capitalizeNext = false
		} else {
			result.WriteRune(r)
		}
	}

	result.WriteString("Handler")
	return result.String()
}

func upperRune(r rune) rune {
	if r >= 'a' && r <= 'z' {
		return r - ('a' - 'A')
	}
	return r
}

// EnvToDockerfileLines renders a map of environment variables as one
// ENV k="v" line per entry, the format the Dockerfile template expects.
// Ordering is not significant to the image build, so map iteration
// order is used as-is rather than sorted.
func EnvToDockerfileLines(env map[string]string) string {
	var builder strings.Builder
	for key, value := range env {
		builder.WriteString(fmt.Sprintf("ENV %s=%q\n", key, value))
	}
	return builder.String()
}
