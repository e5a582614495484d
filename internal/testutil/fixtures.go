package testutil

import (
	"encoding/json"
	"testing"
)

// Definitions is the shape of the JSON definition fixtures in testdata/.
type Definitions struct {
	Models     []map[string]any `json:"models"`
	Components []map[string]any `json:"components"`
}

// LoadDefinitions decodes a definitions fixture relative to the project root.
func LoadDefinitions(t *testing.T, relativePath string) Definitions {
	t.Helper()

	var defs Definitions
	if err := json.Unmarshal([]byte(Fixture(t, relativePath)), &defs); err != nil {
		t.Fatalf("failed to decode fixture %s: %v", relativePath, err)
	}
	return defs
}
