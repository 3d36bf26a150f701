package ptcorm

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/FxRayHughes/ptcorm/dialect"
)

// setup creates the descriptor's table (or runs its manual-DDL
// override), its child tables, the shared _ptc_meta registry, and
// then applies pending migrations (spec §3 "Lifecycle", §4.5). It runs
// on every NewMapper call and recurses into each link target; nothing
// records that it already ran, so its statements are executed again
// each time, while migration steps at or below the stored version are
// skipped.
func (ds *DataSource) setup(ctx context.Context, d *Descriptor) error {
	db := ds.db
	if _, err := db.ExecContext(ctx, metaTableSQL(ds.dialect)); err != nil {
		ds.logger.Errorf("ptcorm: create %s failed: %v", metaTableName, err)
		return fmt.Errorf("ptcorm: create %s: %w", metaTableName, err)
	}

	if err := ds.setupTable(ctx, d); err != nil {
		return err
	}
	for _, lf := range d.LinkFields {
		if err := ds.setup(ctx, lf.Target); err != nil {
			return err
		}
	}
	return nil
}

func (ds *DataSource) setupTable(ctx context.Context, d *Descriptor) error {
	db := ds.db
	if d.ManualDDL != "" {
		ds.logger.Debugf("ptcorm: applying manual DDL for %s", d.Table)
		if _, err := db.ExecContext(ctx, d.ManualDDL); err != nil {
			ds.logger.Errorf("ptcorm: manual DDL for %s failed: %v", d.Table, err)
			return fmt.Errorf("ptcorm: manual DDL for %s: %w", d.Table, err)
		}
	} else {
		ds.logger.Debugf("ptcorm: creating table %s", d.Table)
		if _, err := db.ExecContext(ctx, createTableSQL(ds.dialect, d)); err != nil {
			ds.logger.Errorf("ptcorm: create table %s failed: %v", d.Table, err)
			return fmt.Errorf("ptcorm: create table %s: %w", d.Table, err)
		}
	}
	for _, stmt := range indexDDL(ds.dialect, d) {
		ds.logger.Debugf("ptcorm: creating index on %s", d.Table)
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			ds.logger.Errorf("ptcorm: create index on %s failed: %v", d.Table, err)
			return fmt.Errorf("ptcorm: create index on %s: %w", d.Table, err)
		}
	}
	for _, cf := range d.CollectionFields {
		if cf.Flatten != nil {
			continue
		}
		ds.logger.Debugf("ptcorm: creating child table %s", cf.ChildTable)
		if _, err := db.ExecContext(ctx, childTableSQL(ds.dialect, d, cf)); err != nil {
			ds.logger.Errorf("ptcorm: create child table %s failed: %v", cf.ChildTable, err)
			return fmt.Errorf("ptcorm: create child table %s: %w", cf.ChildTable, err)
		}
	}
	return ds.runMigrations(ctx, d)
}

func (ds *DataSource) readVersion(ctx context.Context, table string) (int, error) {
	row := ds.db.QueryRowContext(ctx, fmt.Sprintf("SELECT version FROM %s WHERE table_name = %s", ds.dialect.Quote(metaTableName), ds.dialect.Placeholder(1)), table)
	var v int
	err := row.Scan(&v)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return v, nil
}

func (ds *DataSource) writeVersion(ctx context.Context, tx *sql.Tx, table string, version int) error {
	dial := ds.dialect
	var q string
	switch dial.Name() {
	case dialect.SQLite:
		q = fmt.Sprintf("INSERT INTO %s (table_name, version) VALUES (?, ?) ON CONFLICT(table_name) DO UPDATE SET version = excluded.version", dial.Quote(metaTableName))
	case dialect.PostgreSQL:
		q = fmt.Sprintf("INSERT INTO %s (table_name, version) VALUES ($1, $2) ON CONFLICT (table_name) DO UPDATE SET version = excluded.version", dial.Quote(metaTableName))
	case dialect.MySQL:
		q = fmt.Sprintf("INSERT INTO %s (table_name, version) VALUES (?, ?) ON DUPLICATE KEY UPDATE version = VALUES(version)", dial.Quote(metaTableName))
	}
	_, err := tx.ExecContext(ctx, q, table, version)
	return err
}

// runMigrations applies every step whose version exceeds the stored
// version, in ascending order, each inside its own transaction (spec
// §4.5 step 3). A failed step returns ErrMigrationFailed wrapping the
// underlying error; the
// version is not advanced, so a fixed retry resumes from the same step.
func (ds *DataSource) runMigrations(ctx context.Context, d *Descriptor) error {
	if len(d.Migrations) == 0 {
		return nil
	}
	stored, err := ds.readVersion(ctx, d.Table)
	if err != nil {
		return err
	}
	steps := append([]MigrationStep(nil), d.Migrations...)
	sort.Slice(steps, func(i, j int) bool { return steps[i].Version < steps[j].Version })

	for _, step := range steps {
		if step.Version <= stored {
			continue
		}
		ds.logger.Debugf("ptcorm: running migration step %s version %d", d.Table, step.Version)
		if err := ds.runMigrationStep(ctx, d.Table, step); err != nil {
			ds.logger.Errorf("ptcorm: migration step %s version %d failed: %v", d.Table, step.Version, err)
			return fmt.Errorf("%w: table %s version %d: %w", ErrMigrationFailed, d.Table, step.Version, err)
		}
	}
	return nil
}

func (ds *DataSource) runMigrationStep(ctx context.Context, table string, step MigrationStep) error {
	tx, err := ds.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for _, stmt := range step.Statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			tx.Rollback()
			return err
		}
	}
	if err := ds.writeVersion(ctx, tx, table, step.Version); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}
