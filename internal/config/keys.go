package config

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrUnknownKey is returned for dotted keys that do not name a setting.
var ErrUnknownKey = errors.New("unknown configuration key")

// secretKeys are masked by List.
//
//nolint:gochecknoglobals // Compile-time constant lookup table.
var secretKeys = map[string]bool{
	"api.api_key":          true,
	"api.secret_key":       true,
	"cache.redis_password": true,
}

// Get returns the value at a dotted key such as "batch.max_concurrent".
// Sections are returned as YAML.
func (c *Config) Get(key string) (string, error) {
	tree, err := c.tree()
	if err != nil {
		return "", err
	}

	value, ok := lookup(tree, key)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	return formatValue(value)
}

// Set assigns a dotted key from its string form. The value is parsed
// according to the type of the current value.
func (c *Config) Set(key, value string) error {
	tree, err := c.tree()
	if err != nil {
		return err
	}

	parts := strings.Split(key, ".")
	if len(parts) != 2 {
		return fmt.Errorf("%w: %s (expected section.field)", ErrUnknownKey, key)
	}
	section, ok := tree[parts[0]].(map[string]any)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	current, ok := section[parts[1]]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}

	parsed, err := parseValue(current, value)
	if err != nil {
		return fmt.Errorf("setting %s: %w", key, err)
	}
	section[parts[1]] = parsed

	data, err := yaml.Marshal(tree)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}

	updated := Config{configPath: c.configPath}
	if err := yaml.Unmarshal(data, &updated); err != nil {
		return fmt.Errorf("setting %s: %w", key, err)
	}
	*c = updated
	return nil
}

// List returns every dotted key with its value, sorted by key. Secrets are masked.
func (c *Config) List() ([][2]string, error) {
	tree, err := c.tree()
	if err != nil {
		return nil, err
	}

	var out [][2]string
	for sectionName, raw := range tree {
		section, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		for field, value := range section {
			key := sectionName + "." + field
			formatted, fmtErr := formatValue(value)
			if fmtErr != nil {
				return nil, fmtErr
			}
			if secretKeys[key] {
				formatted = MaskSecret(formatted)
			}
			out = append(out, [2]string{key, formatted})
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i][0] < out[j][0] })
	return out, nil
}

// MaskSecret keeps the last four characters of s.
func MaskSecret(s string) string {
	const visible = 4
	if s == "" {
		return ""
	}
	if len(s) <= visible {
		return strings.Repeat("*", len(s))
	}
	return strings.Repeat("*", len(s)-visible) + s[len(s)-visible:]
}

func (c *Config) tree() (map[string]any, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshalling config: %w", err)
	}
	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("reading config tree: %w", err)
	}
	return tree, nil
}

func lookup(tree map[string]any, key string) (any, bool) {
	var cur any = tree
	for _, part := range strings.Split(key, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

func formatValue(v any) (string, error) {
	switch val := v.(type) {
	case nil:
		return "", nil
	case string:
		return val, nil
	case map[string]any, []any:
		data, err := yaml.Marshal(val)
		if err != nil {
			return "", err
		}
		return strings.TrimRight(string(data), "\n"), nil
	default:
		return fmt.Sprint(val), nil
	}
}

func parseValue(current any, value string) (any, error) {
	switch current.(type) {
	case bool:
		return strconv.ParseBool(value)
	case int:
		// Whole floats such as requests_per_second: 2 also decode as int.
		if n, err := strconv.Atoi(value); err == nil {
			return n, nil
		}
		return strconv.ParseFloat(value, 64)
	case float64:
		return strconv.ParseFloat(value, 64)
	case []any:
		var items []any
		for _, item := range strings.Split(value, ",") {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
		return items, nil
	default:
		return value, nil
	}
}
