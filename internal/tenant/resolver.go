package tenant

import (
	"errors"
	"net"
	"strings"
)

// ErrUnknownHost is returned when a request host maps to no configured schema.
var ErrUnknownHost = errors.New("no schema configured for host")

// Resolver maps the hostname a request arrived on to the tenant schema
// discriminator sent to the loyalty backend. Every deployment serves one or
// more customer organizations, each behind its own hostname.
type Resolver struct {
	schemas       map[string]string
	defaultSchema string
}

func NewResolver(schemas map[string]string, defaultSchema string) *Resolver {
	normalized := make(map[string]string, len(schemas))
	for host, schema := range schemas {
		normalized[strings.ToLower(host)] = schema
	}
	return &Resolver{schemas: normalized, defaultSchema: defaultSchema}
}

// Resolve returns the schema for a request Host header. The port is ignored.
func (r *Resolver) Resolve(host string) (string, error) {
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.ToLower(strings.TrimSuffix(host, "."))

	if schema, ok := r.schemas[host]; ok {
		return schema, nil
	}
	if r.defaultSchema != "" {
		return r.defaultSchema, nil
	}
	return "", ErrUnknownHost
}
