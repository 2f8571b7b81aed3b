package tagver

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidLabels is returned when a label configuration has no clean marker
var ErrInvalidLabels = errors.New("labels must be of the form \"<label>,<cleanMarker>\"")

// ParseLabelConfig parses a "<label>,<cleanMarker>" string. An empty string
// yields a nil config. Fields after the second are ignored.
func ParseLabelConfig(config string) (*LabelConfig, error) {
	if config == "" {
		return nil, nil
	}

	fields := strings.Split(config, ",")
	if len(fields) < 2 {
		return nil, fmt.Errorf("parsing labels %q: %w", config, ErrInvalidLabels)
	}

	return &LabelConfig{
		Label:       strings.TrimSpace(fields[0]),
		CleanMarker: strings.TrimSpace(fields[1]),
	}, nil
}
