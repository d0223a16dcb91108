// Package logging contains the structured logger shared by the udpt client
// and server binaries.
package logging

import (
	golog "log"
	"net/http"
	"os"

	"github.com/apex/log"
	"github.com/apex/log/handlers/json"
	"github.com/gorilla/handlers"
)

// Logger logs structured JSON messages on the standard error, which keeps
// the output machine-parseable and plays well with containerised
// deployments.
var Logger = log.Logger{
	Handler: json.New(os.Stderr),
	Level:   log.DebugLevel,
}

// MakeAccessLogHandler wraps handler with standard-format access logging on
// the standard output. Access logs keep their traditional format rather
// than JSON because that is what existing tooling expects to scrape.
func MakeAccessLogHandler(handler http.Handler) http.Handler {
	return handlers.LoggingHandler(golog.Writer(), handler)
}
