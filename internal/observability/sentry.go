package observability

import (
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
)

type SentryOptions struct {
	DSN         string
	Environment string
	Release     string
}

func InitSentry(options SentryOptions) error {
	if options.DSN == "" {
		return nil
	}

	return sentry.Init(sentry.ClientOptions{
		Dsn:              options.DSN,
		Environment:      options.Environment,
		Release:          options.Release,
		AttachStacktrace: true,
		SendDefaultPII:   false,
		BeforeSend:       scrubCredentials,
	})
}

// scrubCredentials strips bearer tokens and cookies before an event leaves the process.
func scrubCredentials(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
	if event == nil || event.Request == nil {
		return event
	}

	event.Request.Cookies = ""
	for name := range event.Request.Headers {
		switch http.CanonicalHeaderKey(name) {
		case "Authorization", "Cookie", "Set-Cookie":
			delete(event.Request.Headers, name)
		}
	}
	return event
}

func FlushSentry(timeout time.Duration) {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	sentry.Flush(timeout)
}
