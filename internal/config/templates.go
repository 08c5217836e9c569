package config

import (
	"fmt"
	"os"
	"strings"
)

func Template(format string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "toml", "":
		return tomlTemplate, nil
	case "yaml", "yml":
		return yamlTemplate, nil
	default:
		return "", fmt.Errorf("unknown template format: %s", format)
	}
}

// WriteTemplate writes a sample document, YAML when path ends in .yaml or
// .yml and TOML otherwise.
func WriteTemplate(path string, overwrite bool) error {
	format := "toml"
	if isYAML(path) {
		format = "yaml"
	}
	template, err := Template(format)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

const tomlTemplate = `name = "Point"

[[fields]]
name = "x"
type = "f64"
value = 1.5

[[fields]]
name = "y"
type = "f64"
value = 2.5

[[fields]]
name = "label"
type = "string"
value = "origin offset"

# i128/u128 values are decimal strings. bytes values are quoted hex
# strings such as "0x0102"; an unquoted 0x0102 parses as an integer.
[[fields]]
name = "id"
type = "u128"
value = "340282366920938463463374607431768211455"
`

const yamlTemplate = `name: Point
fields:
  - name: x
    type: f64
    value: 1.5
  - name: y
    type: f64
    value: 2.5
  - name: label
    type: string
    value: origin offset
  # i128/u128 values are decimal strings. bytes values are quoted hex
  # strings such as "0x0102"; an unquoted 0x0102 parses as an integer.
  - name: id
    type: u128
    value: "340282366920938463463374607431768211455"
`
