package todo

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// normalizeID converts a decoded JSON id into its string form.
// json-server databases created by hand often use numeric ids.
func normalizeID(v any) (string, error) {
	switch id := v.(type) {
	case nil:
		return "", nil
	case string:
		return id, nil
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64), nil
	case json.Number:
		return id.String(), nil
	default:
		return "", fmt.Errorf("unsupported id type %T", v)
	}
}
