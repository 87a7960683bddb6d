// infrastructure/recordstore/query.go
package recordstore

import (
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/vitovidale/video-publisher-service/domain"
)

// envelope keys are owned by the store and never taken from caller payloads.
var envelopeKeys = []string{"id", "uuid", "version", "date_created", "date_updated"}

// BuildQueryString renders QueryOptions in the record service's filter syntax:
// where=k.eq.v,k2.eq.v2&orderBy=..&limit=..&offset=..
func BuildQueryString(opts domain.QueryOptions) string {
	var params []string

	if len(opts.Where) > 0 {
		conditions := make([]string, 0, len(opts.Where))
		for _, key := range sortedKeys(opts.Where) {
			value := opts.Where[key]
			if s, ok := value.(string); ok {
				conditions = append(conditions, fmt.Sprintf("%s.eq.%s", key, url.QueryEscape(s)))
				continue
			}
			conditions = append(conditions, fmt.Sprintf("%s.eq.%v", key, value))
		}
		params = append(params, "where="+strings.Join(conditions, ","))
	}
	if opts.OrderBy != "" {
		params = append(params, "orderBy="+opts.OrderBy)
	}
	if opts.Limit > 0 {
		params = append(params, fmt.Sprintf("limit=%d", opts.Limit))
	}
	if opts.Offset > 0 {
		params = append(params, fmt.Sprintf("offset=%d", opts.Offset))
	}

	if len(params) == 0 {
		return ""
	}
	return "?" + strings.Join(params, "&")
}

// parseOrderBy splits "field" / "field.desc" into its parts.
func parseOrderBy(orderBy string) (field string, desc bool) {
	if strings.HasSuffix(orderBy, ".desc") {
		return strings.TrimSuffix(orderBy, ".desc"), true
	}
	return strings.TrimSuffix(orderBy, ".asc"), false
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// toMap flattens any JSON-encodable payload into a field map.
func toMap(data any) (map[string]any, error) {
	if m, ok := data.(map[string]any); ok {
		out := make(map[string]any, len(m))
		for k, v := range m {
			out[k] = v
		}
		return normalize(out)
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	out := map[string]any{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("payload is not an object: %w", err)
	}
	return out, nil
}

// normalize round-trips values through JSON so maps built by callers compare
// the same way as decoded rows.
func normalize(m map[string]any) (map[string]any, error) {
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	out := map[string]any{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func stripEnvelope(m map[string]any) {
	for _, k := range envelopeKeys {
		delete(m, k)
	}
}

// decode copies a JSON-shaped value into out. A nil out is a no-op.
func decode(src any, out any) error {
	if out == nil {
		return nil
	}
	raw, err := json.Marshal(src)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func matches(row map[string]any, where map[string]any) bool {
	for k, want := range where {
		got, ok := row[k]
		if !ok || fmt.Sprint(got) != fmt.Sprint(want) {
			return false
		}
	}
	return true
}
