package logging

import (
	"log/slog"
	"regexp"

	"github.com/m-mizutani/masq"
)

// sensitiveFields are attribute keys whose values never reach a log sink.
// The remote quote source may be configured with credentials, and request
// headers are logged on client failures.
var sensitiveFields = []string{
	"password",
	"token",
	"api_key",
	"apiKey",
	"access_token",
	"refresh_token",
	"authorization",
	"cookie",
	"set_cookie",
	"credentials",
}

// sensitivePrefixes catch families such as secret_key or private_key.
var sensitivePrefixes = []string{"secret", "private"}

var sensitiveValues = []*regexp.Regexp{
	// JWT
	regexp.MustCompile(`^eyJ[A-Za-z0-9_-]*\.eyJ[A-Za-z0-9_-]*\.[A-Za-z0-9_-]*$`),
	// Authorization header values
	regexp.MustCompile(`(?i)^(bearer|basic)\s+.+$`),
	// URLs carrying user info, e.g. a services.quote.base_url with credentials
	regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*://[^/@\s]+:[^/@\s]+@`),
}

// DefaultRedactOptions returns the masq options applied to every handler.
// Session ids are not redacted; they are needed to correlate a session's
// views across log lines.
func DefaultRedactOptions() []masq.Option {
	opts := make([]masq.Option, 0, len(sensitiveFields)+len(sensitivePrefixes)+len(sensitiveValues))

	for _, name := range sensitiveFields {
		opts = append(opts, masq.WithFieldName(name))
	}

	for _, prefix := range sensitivePrefixes {
		opts = append(opts, masq.WithFieldPrefix(prefix))
	}

	for _, re := range sensitiveValues {
		opts = append(opts, masq.WithRegex(re))
	}

	return opts
}

// NewReplaceAttr returns a slog ReplaceAttr that redacts secrets.
// Extra options extend DefaultRedactOptions.
func NewReplaceAttr(opts ...masq.Option) func(groups []string, a slog.Attr) slog.Attr {
	return masq.New(append(DefaultRedactOptions(), opts...)...)
}
