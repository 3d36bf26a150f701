package ptcorm

// Index declares a secondary index that can't be expressed with a
// single struct tag, most often because it spans multiple columns
// (grounded on the teacher's orm/index.go Index/UniqueIndex helpers).
type Index struct {
	Fields []string
	Unique bool
}

// MigrationStep is one versioned, ordered set of DDL statements
// applied to a table (spec §4.5, §3 "migrations").
type MigrationStep struct {
	Version    int
	Statements []string
}

// Options customizes how a record type is turned into a Descriptor
// (spec §4.2's @TableName marker lives here, per SPEC_FULL §4.2a,
// because table naming is a per-registration decision).
type Options struct {
	// Table overrides the derived table name (@TableName value).
	Table string
	// Schema qualifies the table for backends that support schemas
	// (@TableName schema=, PostgreSQL only).
	Schema string
	// Indexes declares additional secondary indexes.
	Indexes []*Index
	// Migrations lists ordered, versioned ALTER steps applied after
	// the initial CREATE TABLE (spec §4.5).
	Migrations []MigrationStep
	// ManualDDL, if non-empty, is executed verbatim instead of the
	// inferred CREATE TABLE statement (spec §4.5 "manual-DDL override").
	ManualDDL string
}
