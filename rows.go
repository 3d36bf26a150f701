package ptcorm

import "database/sql"

var errNoRowsSQL = sql.ErrNoRows

// scanNamed reads a single *sql.Row into a column-name-keyed map,
// which assembleRow then walks using the descriptor's link-namespaced
// column names.
func scanNamed(row *sql.Row, cols []string) (map[string]any, error) {
	dest := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range dest {
		ptrs[i] = &dest[i]
	}
	if err := row.Scan(ptrs...); err != nil {
		return nil, err
	}
	values := make(map[string]any, len(cols))
	for i, c := range cols {
		values[c] = dest[i]
	}
	return values, nil
}

func scanNamedRows(rows *sql.Rows, cols []string) (map[string]any, error) {
	dest := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range dest {
		ptrs[i] = &dest[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, err
	}
	values := make(map[string]any, len(cols))
	for i, c := range cols {
		values[c] = dest[i]
	}
	return values, nil
}
