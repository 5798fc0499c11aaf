package dataset

import (
	"context"
	"path/filepath"
	"testing"
)

// GetFixturePath returns the absolute path to a fixture in the "testdata" directory relative to the project's root.
func GetFixturePath(t *testing.T, fixturePath string) string {
	t.Helper()

	absPath, err := filepath.Abs(filepath.Join("..", "..", "testdata", fixturePath))
	if err != nil {
		t.Fatalf("Failed to get absolute path to testdata/%s: %v", fixturePath, err)
	}

	return absPath
}

// LoadFixture loads the sample dataset shipped in testdata/dataset.
func LoadFixture(t *testing.T) *Dataset {
	t.Helper()

	ds, err := Load(context.Background(), DirSource{Dir: GetFixturePath(t, "dataset")})
	if err != nil {
		t.Fatalf("Failed to load fixture dataset: %v", err)
	}
	return ds
}
