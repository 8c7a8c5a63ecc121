package persist

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Change is one row-level write against a single table. Values holds the
// columns to write; for Update/Delete, Where holds the match columns
// (typically the primary key). Table and column names are written into the
// SQL text as given; only values are passed as query parameters.
type Change struct {
	Table  string
	Values map[string]any
	Where  map[string]any
}

// ChangeSet batches the durable writes one logical operation produces (spec
// "calculateMaccaPayment"/"updateItems"-style entry points emit inserts,
// updates, and deletes together). ProcessChangeSet applies all of them in a
// single transaction, grounded on WALRepo.WriteWAL's transaction-per-batch
// shape.
type ChangeSet struct {
	Inserts []Change
	Updates []Change
	Deletes []Change
}

func (c *ChangeSet) AddInsert(table string, values map[string]any) {
	c.Inserts = append(c.Inserts, Change{Table: table, Values: values})
}

func (c *ChangeSet) AddUpdate(table string, values, where map[string]any) {
	c.Updates = append(c.Updates, Change{Table: table, Values: values, Where: where})
}

func (c *ChangeSet) AddDelete(table string, where map[string]any) {
	c.Deletes = append(c.Deletes, Change{Table: table, Where: where})
}

// ProcessChangeSet applies every insert, then update, then delete inside one
// transaction, rolling back entirely if any entry fails (spec.md §7 "roll
// back any already-applied lobby-side effects").
func (db *DB) ProcessChangeSet(ctx context.Context, cs *ChangeSet) error {
	if cs == nil || (len(cs.Inserts)+len(cs.Updates)+len(cs.Deletes) == 0) {
		return nil
	}

	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("changeset begin: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, c := range cs.Inserts {
		sql, args := buildInsert(c)
		if _, err := tx.Exec(ctx, sql, args...); err != nil {
			return fmt.Errorf("changeset insert %s: %w", c.Table, err)
		}
	}
	for _, c := range cs.Updates {
		sql, args := buildUpdate(c)
		if _, err := tx.Exec(ctx, sql, args...); err != nil {
			return fmt.Errorf("changeset update %s: %w", c.Table, err)
		}
	}
	for _, c := range cs.Deletes {
		sql, args := buildDelete(c)
		if _, err := tx.Exec(ctx, sql, args...); err != nil {
			return fmt.Errorf("changeset delete %s: %w", c.Table, err)
		}
	}

	return tx.Commit(ctx)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func buildInsert(c Change) (string, []any) {
	cols := sortedKeys(c.Values)
	placeholders := make([]string, len(cols))
	args := make([]any, len(cols))
	for i, col := range cols {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = c.Values[col]
	}
	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		c.Table, strings.Join(cols, ", "), strings.Join(placeholders, ", "))
	return sql, args
}

func buildUpdate(c Change) (string, []any) {
	setCols := sortedKeys(c.Values)
	whereCols := sortedKeys(c.Where)
	args := make([]any, 0, len(setCols)+len(whereCols))

	sets := make([]string, len(setCols))
	for i, col := range setCols {
		sets[i] = fmt.Sprintf("%s = $%d", col, i+1)
		args = append(args, c.Values[col])
	}
	wheres := make([]string, len(whereCols))
	for i, col := range whereCols {
		wheres[i] = fmt.Sprintf("%s = $%d", col, len(setCols)+i+1)
		args = append(args, c.Where[col])
	}

	sql := fmt.Sprintf("UPDATE %s SET %s WHERE %s",
		c.Table, strings.Join(sets, ", "), strings.Join(wheres, " AND "))
	return sql, args
}

func buildDelete(c Change) (string, []any) {
	whereCols := sortedKeys(c.Where)
	args := make([]any, len(whereCols))
	wheres := make([]string, len(whereCols))
	for i, col := range whereCols {
		wheres[i] = fmt.Sprintf("%s = $%d", col, i+1)
		args[i] = c.Where[col]
	}
	sql := fmt.Sprintf("DELETE FROM %s WHERE %s", c.Table, strings.Join(wheres, " AND "))
	return sql, args
}
