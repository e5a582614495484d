// Package testutil provides test helpers for eavforge.
//
// This package includes:
//   - SQLite setup for definition-source tests, plus an opt-in PostgreSQL setup
//   - Error assertion helpers for checking alerr codes
//   - Golden file testing support
//   - Fixture loading from the project testdata/ directory
//
// # Build Tags
//
// PostgreSQL tests need a running server and the integration tag:
//
//	POSTGRES_URL=postgres://... go test ./... -tags=integration
//
// # Golden Files
//
// Golden files are stored in testdata/ next to the test. Update them with:
//
//	go test ./... -update-golden
//
// # Example Usage
//
//	func TestReadDefinitions(t *testing.T) {
//	    db, url := testutil.SetupSQLite(t)
//	    testutil.SeedDefinitions(t, db, sqlgen.SQLite, "models", testutil.Row{ID: 1, Slug: "tag", Definition: `{...}`})
//
//	    r, err := source.Open(url, "models", "")
//	    ...
//	}
package testutil
