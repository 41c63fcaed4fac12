package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

// Line ending modes accepted by the line_endings setting.
const (
	LineEndingsNormalize = "normalize"
	LineEndingsPreserve  = "preserve"
)

const (
	defaultFileMode = "0644"
	defaultTokenEnv = "GITHUB_TOKEN"
)

// settingsSchema describes the accepted shape of the settings file.
const settingsSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "line_endings": {"type": "string", "enum": ["normalize", "preserve"]},
    "file_mode": {"type": "string", "pattern": "^0?[0-7]{3}$"},
    "github": {
      "type": "object",
      "properties": {
        "repo": {"type": "string", "pattern": "^[^/\\s]+/[^/\\s]+$"},
        "token_env": {"type": "string", "minLength": 1},
        "api_url": {"type": "string", "minLength": 1}
      },
      "additionalProperties": false
    }
  },
  "additionalProperties": false
}`

// Settings holds values read from the optional YAML settings file.
type Settings struct {
	LineEndings string `yaml:"line_endings" json:"line_endings"`
	FileMode    string `yaml:"file_mode" json:"file_mode"`
	// FileModeSet is true when file_mode came from a settings file; only then
	// are the permissions of an existing output file changed.
	FileModeSet bool           `yaml:"-" json:"-"`
	GitHub      GitHubSettings `yaml:"github" json:"github"`
}

// GitHubSettings configures release publishing.
type GitHubSettings struct {
	Repo     string `yaml:"repo" json:"repo,omitempty"`
	TokenEnv string `yaml:"token_env" json:"token_env"`
	APIURL   string `yaml:"api_url" json:"api_url,omitempty"`
}

// SettingsError reports a settings file that does not match the schema.
type SettingsError struct {
	Path     string
	Problems []string
}

func (e *SettingsError) Error() string {
	return fmt.Sprintf("invalid settings in %s: %s", e.Path, strings.Join(e.Problems, "; "))
}

// DefaultSettings returns the settings used when no file is present.
func DefaultSettings() Settings {
	return Settings{
		LineEndings: LineEndingsNormalize,
		FileMode:    defaultFileMode,
		GitHub: GitHubSettings{
			TokenEnv: defaultTokenEnv,
		},
	}
}

// LoadSettings reads, validates and decodes a settings file. Missing keys keep
// their defaults.
func LoadSettings(path string) (Settings, error) {
	// #nosec G304 -- settings path provided via command flag
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read settings: %w", err)
	}
	return ParseSettings(path, data)
}

// ParseSettings validates raw YAML against the settings schema and decodes it.
func ParseSettings(path string, data []byte) (Settings, error) {
	raw := map[string]interface{}{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Settings{}, &SettingsError{Path: path, Problems: []string{err.Error()}}
	}
	if raw == nil {
		raw = map[string]interface{}{}
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(settingsSchema),
		gojsonschema.NewGoLoader(raw),
	)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to validate settings: %w", err)
	}
	if !result.Valid() {
		problems := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			problems = append(problems, desc.String())
		}
		return Settings{}, &SettingsError{Path: path, Problems: problems}
	}

	settings := DefaultSettings()
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return Settings{}, &SettingsError{Path: path, Problems: []string{err.Error()}}
	}
	_, settings.FileModeSet = raw["file_mode"]
	if settings.GitHub.TokenEnv == "" {
		settings.GitHub.TokenEnv = defaultTokenEnv
	}
	return settings, nil
}

// FileModeValue parses the octal file_mode setting.
func (s Settings) FileModeValue() (os.FileMode, error) {
	mode := s.FileMode
	if mode == "" {
		mode = defaultFileMode
	}
	v, err := strconv.ParseUint(mode, 8, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid file mode %q: %w", s.FileMode, err)
	}
	return os.FileMode(v), nil
}

// ValidLineEndings reports whether mode is an accepted line_endings value.
func ValidLineEndings(mode string) bool {
	return mode == LineEndingsNormalize || mode == LineEndingsPreserve
}
