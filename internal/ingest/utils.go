package ingest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/joseph-ayodele/receipt-processor/constants"
	"github.com/joseph-ayodele/receipt-processor/internal/entity"
)

// AllowedExt checks if a file extension is one ingestion understands.
func AllowedExt(ext string) bool {
	_, ok := constants.FormatForExt(ext)
	return ok
}

// IsHidden checks if a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".") && base != "." && base != ".."
}

// toJSONPayload converts raw file content to the JSON the receipt service
// accepts. YAML is decoded strictly, so unknown keys are rejected.
func toJSONPayload(format constants.FileFormat, raw []byte) ([]byte, error) {
	if format != constants.FormatYAML {
		return raw, nil
	}

	var r entity.Receipt
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&r); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	return json.Marshal(r)
}

// ReadReceiptFile decodes a .json, .yaml or .yml receipt file without
// validating it.
func ReadReceiptFile(path string) (entity.Receipt, error) {
	var r entity.Receipt
	format, ok := constants.FormatForExt(filepath.Ext(path))
	if !ok {
		return r, fmt.Errorf("unsupported or missing extension %q", filepath.Ext(path))
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return r, err
	}
	payload, err := toJSONPayload(format, raw)
	if err != nil {
		return r, err
	}
	if err := json.Unmarshal(payload, &r); err != nil {
		return r, fmt.Errorf("decode json: %w", err)
	}
	return r, nil
}
