package debug

import (
	"log/slog"
	"regexp"
	"strings"
)

// DefaultRedaction replaces redacted values.
const DefaultRedaction = "***"

// DefaultSensitiveFields are attribute keys whose values never reach a log.
var DefaultSensitiveFields = []string{"authorization", "password", "email", "ssn", "phone"}

// messageSeparator ends a field=value run inside a log message.
const messageSeparator = " "

// Redactor hides the values of sensitive fields in log records.
type Redactor struct {
	fields      map[string]bool
	redaction   string
	message     *regexp.Regexp // nil when there are no fields
	replacement string
}

// NewRedactor creates a redactor for the given field names. Matching is
// case-insensitive.
func NewRedactor(fields []string, redaction string) *Redactor {
	r := &Redactor{
		fields:      make(map[string]bool, len(fields)),
		redaction:   redaction,
		message:     fieldPattern(fields, messageSeparator),
		replacement: replacement(redaction),
	}
	for _, f := range fields {
		r.fields[strings.ToLower(f)] = true
	}
	return r
}

// DefaultRedactor redacts DefaultSensitiveFields with DefaultRedaction.
func DefaultRedactor() *Redactor {
	return NewRedactor(DefaultSensitiveFields, DefaultRedaction)
}

// ReplaceAttr is a slog.HandlerOptions.ReplaceAttr hook. Attributes keyed by
// a sensitive field are replaced; the message is scanned for field=value runs.
func (r *Redactor) ReplaceAttr(groups []string, a slog.Attr) slog.Attr {
	if len(groups) == 0 && a.Key == slog.MessageKey {
		return slog.String(a.Key, r.redactMessage(a.Value.String()))
	}
	if r.fields[strings.ToLower(a.Key)] {
		return slog.String(a.Key, r.redaction)
	}
	return a
}

func (r *Redactor) redactMessage(msg string) string {
	if r.message == nil || !strings.Contains(msg, "=") {
		return msg
	}
	return r.message.ReplaceAllString(msg, r.replacement)
}

// RedactFields replaces the value of every field=value occurrence in message
// with redaction. A value runs until the next separator. The pattern is
// compiled per call; loggers use a Redactor instead.
func RedactFields(fields []string, redaction, message, separator string) string {
	re := fieldPattern(fields, separator)
	if re == nil {
		return message
	}
	return re.ReplaceAllString(message, replacement(redaction))
}

// fieldPattern matches field=value runs for any of fields, case-insensitively.
// It returns nil when there is nothing to match.
func fieldPattern(fields []string, separator string) *regexp.Regexp {
	if len(fields) == 0 || separator == "" {
		return nil
	}
	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = regexp.QuoteMeta(f)
	}
	sep := regexp.QuoteMeta(separator)
	return regexp.MustCompile(`(?i)(` + strings.Join(quoted, "|") + `)=(?:[^` + sep + `])+`)
}

func replacement(redaction string) string {
	return "${1}=" + strings.ReplaceAll(redaction, "$", "$$")
}
