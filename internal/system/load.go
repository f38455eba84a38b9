package system

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

//go:embed vocational.yaml
var vocationalDefinition []byte

// Load reads a definition file in any format viper understands (yaml, json,
// toml, ...). An empty path selects the built-in vocational system.
func Load(path string) (*Definition, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Default()
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading system definition %q: %w", path, err)
	}

	def, err := Decode(v.AllSettings())
	if err != nil {
		return nil, fmt.Errorf("decoding system definition %q: %w", path, err)
	}
	return def, nil
}

// Default returns the built-in vocational guidance system: five skills and
// five interests rated 0..5 scored against five career families.
func Default() (*Definition, error) {
	return parse(vocationalDefinition, "yaml")
}

func parse(data []byte, format string) (*Definition, error) {
	v := viper.New()
	v.SetConfigType(format)
	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("reading %s system definition: %w", format, err)
	}
	return Decode(v.AllSettings())
}
