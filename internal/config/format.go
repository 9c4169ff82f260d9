package config

import (
	"fmt"
	"strings"
)

const (
	FormatJSON  = "json"
	FormatTable = "table"
	FormatCBOR  = "cbor"
)

// NormalizeFormat resolves a user-supplied output format name.
// An empty value selects JSON.
func NormalizeFormat(raw string) (string, error) {
	format := strings.ToLower(strings.TrimSpace(raw))
	if format == "" {
		format = FormatJSON
	}
	switch format {
	case FormatJSON, FormatTable, FormatCBOR:
		return format, nil
	case "text", "txt":
		return FormatTable, nil
	default:
		return "", fmt.Errorf(
			"invalid format %q (expected %s|%s|%s)",
			raw,
			FormatJSON,
			FormatTable,
			FormatCBOR,
		)
	}
}
