package templating

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Stringify converts a JSON-decoded value into the text that replaces a
// placeholder. Strings are used verbatim, numbers keep their literal form when
// decoded as json.Number, nil becomes the empty string, and arrays or objects
// are written back as compact JSON.
func Stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	case fmt.Stringer:
		return val.String()
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(data)
	}
}

// StringifyAll applies Stringify to every value of vars.
func StringifyAll(vars map[string]any) map[string]string {
	out := make(map[string]string, len(vars))
	for k, v := range vars {
		out[k] = Stringify(v)
	}
	return out
}
