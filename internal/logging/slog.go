package logging

import (
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
)

// Common log attribute keys for consistent naming across the codebase.
const (
	KeyOperation    = "operation"
	KeyVerb         = "verb"
	KeyCommand      = "command"
	KeyCode         = "code"
	KeyNamespace    = "namespace"
	KeyResourceType = "resource_type"
	KeyResourceName = "resource_name"
	KeyCluster      = "cluster"
	KeyRequestID    = "request_id"
	KeyDuration     = "duration"
	KeyStatus       = "status"
	KeyError        = "error"
	KeyHost         = "host"
	KeyTool         = "tool"
	KeyTransport    = "transport"
)

// Status values for consistent logging.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Supported output formats for New.
const (
	FormatJSON = "json"
	FormatText = "text"
)

// redactedValue replaces secret material in logged commands.
const redactedValue = "<redacted>"

// ipv4Regex matches IPv4 addresses for sanitization.
var ipv4Regex = regexp.MustCompile(`\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}`)

// ipv6Regex matches full, compressed and bracketed IPv6 addresses.
var ipv6Regex = regexp.MustCompile(`\[?([0-9a-fA-F]{0,4}:){2,7}[0-9a-fA-F]{0,4}\]?`)

// New builds a logger writing to w. Level accepts the slog level names
// (debug, info, warn, error); format is either "json" or "text".
func New(level, format string, w io.Writer) (*slog.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}

	opts := &slog.HandlerOptions{Level: lvl}

	switch strings.ToLower(format) {
	case "", FormatText:
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case FormatJSON:
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("unsupported log format %q (expected %q or %q)", format, FormatText, FormatJSON)
	}
}

// ParseLevel converts a level name into a slog.Level. An empty name is info.
func ParseLevel(level string) (slog.Level, error) {
	if level == "" {
		return slog.LevelInfo, nil
	}

	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return lvl, nil
}

// WithOperation returns a logger with the operation attribute set.
func WithOperation(logger *slog.Logger, operation string) *slog.Logger {
	return logger.With(slog.String(KeyOperation, operation))
}

// WithTool returns a logger with the tool attribute set.
func WithTool(logger *slog.Logger, tool string) *slog.Logger {
	return logger.With(slog.String(KeyTool, tool))
}

// WithTransport returns a logger with the transport attribute set.
func WithTransport(logger *slog.Logger, transport string) *slog.Logger {
	return logger.With(slog.String(KeyTransport, transport))
}

// Operation returns a slog attribute for the operation name.
func Operation(op string) slog.Attr {
	return slog.String(KeyOperation, op)
}

// Verb returns a slog attribute for the kubectl verb.
func Verb(verb string) slog.Attr {
	return slog.String(KeyVerb, verb)
}

// Command returns a slog attribute for a raw command with secrets masked.
func Command(raw string) slog.Attr {
	return slog.String(KeyCommand, SanitizeCommand(raw))
}

// Code returns a slog attribute for an error code.
func Code(code string) slog.Attr {
	return slog.String(KeyCode, code)
}

// Namespace returns a slog attribute for the namespace.
func Namespace(ns string) slog.Attr {
	return slog.String(KeyNamespace, ns)
}

// ResourceType returns a slog attribute for the resource type.
func ResourceType(rt string) slog.Attr {
	return slog.String(KeyResourceType, rt)
}

// ResourceName returns a slog attribute for the resource name.
func ResourceName(name string) slog.Attr {
	return slog.String(KeyResourceName, name)
}

// Cluster returns a slog attribute for the cluster context name.
func Cluster(name string) slog.Attr {
	return slog.String(KeyCluster, name)
}

// RequestID returns a slog attribute for the request id.
func RequestID(id string) slog.Attr {
	return slog.String(KeyRequestID, id)
}

// Status returns a slog attribute for the status.
func Status(status string) slog.Attr {
	return slog.String(KeyStatus, status)
}

// Err returns a slog attribute for an error.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}

// SanitizedErr returns a slog attribute for an error with IP addresses redacted.
// API server errors frequently embed the server URL.
func SanitizedErr(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, SanitizeHost(err.Error()))
}

// Host returns a slog attribute for a host with IP addresses sanitized.
func Host(host string) slog.Attr {
	return slog.String(KeyHost, SanitizeHost(host))
}

// SanitizeHost returns a version of host with IPv4 and IPv6 addresses
// replaced by "<redacted-ip>". Hostnames are kept as they are.
//
// Examples:
//   - "https://192.168.1.100:6443" -> "https://<redacted-ip>:6443"
//   - "https://api.cluster.example.com:6443" -> unchanged
//   - "https://[2001:db8::1]:6443" -> "https://<redacted-ip>:6443"
//   - "" -> "<empty>"
func SanitizeHost(host string) string {
	if host == "" {
		return "<empty>"
	}

	redactIPs := func(s string) string {
		result := ipv4Regex.ReplaceAllString(s, "<redacted-ip>")
		return ipv6Regex.ReplaceAllString(result, "<redacted-ip>")
	}

	if !strings.Contains(host, "://") {
		return redactIPs(host)
	}

	parsed, err := url.Parse(host)
	if err != nil {
		return redactIPs(host)
	}

	if ipv4Regex.MatchString(parsed.Host) || ipv6Regex.MatchString(parsed.Host) {
		parsed.Host = redactIPs(parsed.Host)
		return parsed.String()
	}

	return host
}

// SanitizeCommand masks the parts of a kubectl command that commonly carry
// secrets: values of KEY=VALUE pairs and patch bodies. Flags written as
// --flag=value keep their value, except --patch. Whitespace is normalised
// to single spaces.
//
//	SanitizeCommand("kubectl set env deployment/api TOKEN=abc")
//	// "kubectl set env deployment/api TOKEN=<redacted>"
func SanitizeCommand(raw string) string {
	tokens := strings.Fields(raw)
	out := make([]string, 0, len(tokens))

	maskNext := false
	for _, token := range tokens {
		switch {
		case maskNext:
			out = append(out, redactedValue)
			maskNext = false
		case token == "--patch":
			out = append(out, token)
			maskNext = true
		case strings.HasPrefix(token, "--patch="):
			out = append(out, "--patch="+redactedValue)
		case strings.HasPrefix(token, "-"):
			out = append(out, token)
		case strings.Contains(token, "="):
			key, _, _ := strings.Cut(token, "=")
			out = append(out, key+"="+redactedValue)
		default:
			out = append(out, token)
		}
	}

	return strings.Join(out, " ")
}
