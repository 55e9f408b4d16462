package constants

import "strings"

// FileFormat is the encoding of a receipt file on disk.
type FileFormat string

const (
	FormatJSON FileFormat = "JSON"
	FormatYAML FileFormat = "YAML"
)

// AllowedExtensions maps the receipt file extensions accepted by ingestion to their format.
var AllowedExtensions = map[string]FileFormat{
	"json": FormatJSON,
	"yaml": FormatYAML,
	"yml":  FormatYAML,
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// FormatForExt returns the format for ext and whether it is accepted.
func FormatForExt(ext string) (FileFormat, bool) {
	f, ok := AllowedExtensions[NormalizeExt(ext)]
	return f, ok
}
