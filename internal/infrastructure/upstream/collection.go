package upstream

import (
	"bytes"
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/people-admin/console/internal/core/domain"
	"github.com/people-admin/console/internal/pkg/metrics"
)

// decodeCollection fails open: anything that is not a JSON array of T is
// logged and replaced by an empty, non-nil slice.
func decodeCollection[T any](raw []byte, resource string, log zerolog.Logger) []T {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		malformed(resource, log, nil)
		return []T{}
	}
	var out []T
	if err := json.Unmarshal(trimmed, &out); err != nil {
		malformed(resource, log, err)
		return []T{}
	}
	if out == nil {
		out = []T{}
	}
	return out
}

func malformed(resource string, log zerolog.Logger, cause error) {
	metrics.MalformedCollectionsTotal.WithLabelValues(resource).Inc()
	evt := log.Error().Err(domain.ErrMalformedCollection).Str("resource", resource)
	if cause != nil {
		evt = evt.AnErr("cause", cause)
	}
	evt.Msg("list response is not an array, using empty collection")
}
