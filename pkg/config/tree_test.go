package config

import (
	"reflect"
	"testing"
)

func TestMergeOverrideWinsAtDepth(t *testing.T) {
	base := Layer{
		"capacity": map[string]any{
			"settings": map[string]any{
				"sku":   "F2",
				"pause": true,
			},
		},
		"kept": "base",
	}
	override := Layer{
		"capacity": map[string]any{
			"settings": map[string]any{
				"sku": "F64",
			},
		},
	}

	result := Merge(base, override)

	settings := result["capacity"].(map[string]any)["settings"].(map[string]any)
	if settings["sku"] != "F64" {
		t.Errorf("expected override to win at depth, got sku=%v", settings["sku"])
	}
	if settings["pause"] != true {
		t.Errorf("expected sibling key preserved through nested merge, got pause=%v", settings["pause"])
	}
	if result["kept"] != "base" {
		t.Errorf("expected base-only key preserved, got %v", result["kept"])
	}
}

func TestMergeReplacesNonMapValuesWholesale(t *testing.T) {
	base := Layer{"list": []any{"a", "b"}, "scalar": map[string]any{"x": 1}}
	override := Layer{"list": []any{"c"}, "scalar": "replaced"}

	result := Merge(base, override)

	if !reflect.DeepEqual(result["list"], []any{"c"}) {
		t.Errorf("expected list replaced wholesale, got %v", result["list"])
	}
	if result["scalar"] != "replaced" {
		t.Errorf("expected map replaced by scalar, got %v", result["scalar"])
	}
}

func TestMergeIsPure(t *testing.T) {
	base := Layer{"nested": map[string]any{"keep": "original"}, "list": []any{"a"}}
	override := Layer{"nested": map[string]any{"add": "new"}}

	result := Merge(base, override)

	result["nested"].(map[string]any)["keep"] = "mutated"
	result["list"].([]any)[0] = "mutated"
	result["nested"].(map[string]any)["add"] = "mutated"

	if base["nested"].(map[string]any)["keep"] != "original" {
		t.Error("mutating the result corrupted the base layer")
	}
	if base["list"].([]any)[0] != "a" {
		t.Error("mutating a result list corrupted the base layer")
	}
	if override["nested"].(map[string]any)["add"] != "new" {
		t.Error("mutating the result corrupted the override layer")
	}
}

func TestMergeAllFoldOrder(t *testing.T) {
	defaults := Layer{"setting": "defaults", "only_defaults": true}
	customer := Layer{"setting": "customer", "only_customer": true}
	environment := Layer{"setting": "environment"}

	result := MergeAll(defaults, customer, environment)

	if result["setting"] != "environment" {
		t.Errorf("expected the last layer to win on overlap, got %v", result["setting"])
	}
	if result["only_defaults"] != true || result["only_customer"] != true {
		t.Error("expected non-overlapping keys from every layer")
	}
}

func TestMergeAllSkipsNilLayers(t *testing.T) {
	result := MergeAll(nil, Layer{"a": 1}, nil)
	if result["a"] != 1 {
		t.Errorf("expected nil layers skipped, got %v", result)
	}
}

func TestMergeTags(t *testing.T) {
	tests := []struct {
		name     string
		customer map[string]string
		env      map[string]string
		want     map[string]string
	}{
		{
			name:     "environment wins on collision",
			customer: map[string]string{"team": "data", "cost": "cc-1"},
			env:      map[string]string{"cost": "cc-2"},
			want:     map[string]string{"team": "data", "cost": "cc-2"},
		},
		{
			name: "nil maps tolerated",
			env:  map[string]string{"env": "dev"},
			want: map[string]string{"env": "dev"},
		},
		{
			name: "all empty",
			want: map[string]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MergeTags(tt.customer, tt.env)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("MergeTags() = %v, want %v", got, tt.want)
			}
		})
	}
}
