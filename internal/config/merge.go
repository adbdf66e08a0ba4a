package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Top-level YAML config key names used for shallow merge.
const (
	keyAPI     = "api"
	keyBatch   = "batch"
	keyCache   = "cache"
	keyExport  = "export"
	keyLogging = "logging"
	keyOutput  = "output"
)

// ShallowMergeYAML loads a YAML file and merges its top-level sections onto
// target. A section present in the overlay replaces the whole section in
// target; absent sections and unknown keys are left alone.
func ShallowMergeYAML(target *Config, overlayPath string) error {
	if target == nil {
		return errors.New("nil target *Config in ShallowMergeYAML")
	}

	data, err := os.ReadFile(overlayPath)
	if err != nil {
		return fmt.Errorf("reading overlay file %s: %w", overlayPath, err)
	}

	var overlay map[string]yaml.Node
	if err = yaml.Unmarshal(data, &overlay); err != nil {
		return fmt.Errorf("parsing overlay YAML from %s: %w", overlayPath, err)
	}

	for key, node := range overlay {
		if err = decodeSection(target, key, &node); err != nil {
			return fmt.Errorf("applying overlay section %q: %w", key, err)
		}
	}
	return nil
}

// decodeSection decodes node into a zero value of the section's type so the
// overlay replaces the section instead of merging into it.
func decodeSection(target *Config, key string, node *yaml.Node) error {
	switch key {
	case keyAPI:
		return replaceWith(node, &target.API)
	case keyBatch:
		return replaceWith(node, &target.Batch)
	case keyCache:
		return replaceWith(node, &target.Cache)
	case keyExport:
		return replaceWith(node, &target.Export)
	case keyLogging:
		return replaceWith(node, &target.Logging)
	case keyOutput:
		return replaceWith(node, &target.Output)
	default:
		return nil
	}
}

func replaceWith[S any](node *yaml.Node, dst *S) error {
	var v S
	if err := node.Decode(&v); err != nil {
		return err
	}
	*dst = v
	return nil
}
