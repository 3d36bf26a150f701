package ptcorm

// Result is the database result of a single write statement. RawUpdate
// and RawDelete return it; the typed CRUD operations return only an
// error.
type Result interface {
	LastInsertId() (int64, error)
	RowsAffected() (int64, error)
}

// BundleMap is the untyped row shape produced by Join...Execute, keyed
// by the alias assigned in SelectAs/Rows (spec §4.7 "Join" group, §8
// invariant 10, GLOSSARY "BundleMap").
type BundleMap map[string]any
