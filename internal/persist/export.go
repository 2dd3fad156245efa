package persist

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/todo/pkg/types"
)

// Export formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatTOML = "toml"
)

// ErrUnknownFormat is returned by Encode for unsupported formats.
var ErrUnknownFormat = errors.New("unsupported export format")

// Formats lists the supported export formats.
var Formats = []string{FormatJSON, FormatYAML, FormatTOML}

// Encode renders tasks in the given format. JSON output is identical to the
// task file.
func Encode(tasks []types.Task, format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case FormatJSON, "":
		return encodeTasks(tasks)
	case FormatYAML, "yml":
		return yaml.Marshal(toRecords(tasks))
	case FormatTOML:
		buf := new(bytes.Buffer)
		doc := struct {
			Tasks []taskJSON `toml:"tasks"`
		}{Tasks: toRecords(tasks)}
		if err := toml.NewEncoder(buf).Encode(doc); err != nil {
			return nil, fmt.Errorf("marshal TOML: %w", err)
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("%w: %s (supported: %s)", ErrUnknownFormat, format, strings.Join(Formats, ", "))
	}
}
