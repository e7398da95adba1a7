// Package config provides layered configuration resolution for customer
// deployments. Configuration is loaded from three file-backed layers
// (defaults, customer base, environment override), validated per layer
// against CUE schemas, and composed by pure recursive merge into one
// effective configuration.
package config

import (
	"fmt"
)

// Layer is one immutable configuration tree loaded from a single source.
// Values are the YAML value universe: scalars, []any lists, and
// map[string]any maps. A layer is never mutated after load; re-loading
// produces a new layer.
type Layer = map[string]any

// Merge deep-merges two trees, override winning at every recursion level.
// Paths that are maps in both trees are merged key by key; everything else is
// replaced wholesale. The result shares no mutable structure with either
// input, so mutating it can never corrupt a loaded layer.
func Merge(base, override Layer) Layer {
	result := make(Layer, len(base)+len(override))
	for key, value := range base {
		result[key] = cloneValue(value)
	}
	for key, value := range override {
		baseMap, baseIsMap := result[key].(map[string]any)
		overrideMap, overrideIsMap := value.(map[string]any)
		if baseIsMap && overrideIsMap {
			result[key] = Merge(baseMap, overrideMap)
			continue
		}
		result[key] = cloneValue(value)
	}
	return result
}

// MergeAll left-folds any number of trees through Merge.
func MergeAll(layers ...Layer) Layer {
	result := Layer{}
	for _, layer := range layers {
		if layer != nil {
			result = Merge(result, layer)
		}
	}
	return result
}

// cloneValue deep-copies one tree value. The switch is exhaustive over the
// value universe: maps and lists recurse, every other value is a scalar.
func cloneValue(value any) any {
	switch v := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[key] = cloneValue(item)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}

// MergeTags merges string tag maps, later maps winning on key collision.
func MergeTags(tagMaps ...map[string]string) map[string]string {
	merged := map[string]string{}
	for _, tags := range tagMaps {
		for key, value := range tags {
			merged[key] = value
		}
	}
	return merged
}

// subMap returns the map at a key, or nil when absent or not a map.
func subMap(tree map[string]any, key string) map[string]any {
	m, _ := tree[key].(map[string]any)
	return m
}

// stringAt returns the string at a key, or empty when absent or not a string.
func stringAt(tree map[string]any, key string) string {
	s, _ := tree[key].(string)
	return s
}

// stringTags converts a loosely typed tag map into string tags. Non-scalar
// values are formatted; nested structures are not expected in tag maps.
func stringTags(tree map[string]any) map[string]string {
	if len(tree) == 0 {
		return nil
	}
	tags := make(map[string]string, len(tree))
	for key, value := range tree {
		tags[key] = fmt.Sprintf("%v", value)
	}
	return tags
}
