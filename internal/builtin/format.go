package builtin

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// encodeAs writes v to w in the requested structured format. Commands
// handle their own text layout and only reach here for json or yaml.
func encodeAs(w io.Writer, format string, v any) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		return enc.Encode(v)
	default:
		return fmt.Errorf("unknown output format: %s", format)
	}
}

// textFormat reports whether format selects the default text layout.
func textFormat(format string) bool {
	return format == "" || format == "text"
}
