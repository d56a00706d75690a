package datarecording

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"reflect"

	"github.com/pkg/errors"
)

// A Filter selects and orders the rows of a query.
type Filter struct {
	// Where is a condition without the WHERE keyword, e.g. "Match = ?".
	Where string
	Args  []any

	// OrderBy is a column list without the ORDER BY keywords.
	OrderBy string

	// Limit of 0 returns every row.
	Limit  int
	Offset int
}

func (f Filter) where() string {
	if f.Where == "" {
		return ""
	}

	return " WHERE " + f.Where
}

func (f Filter) tail() string {
	s := ""
	if f.OrderBy != "" {
		s += " ORDER BY " + f.OrderBy
	}

	if f.Limit > 0 {
		s += fmt.Sprintf(" LIMIT %d OFFSET %d", f.Limit, f.Offset)
	}

	return s
}

// A Reader reads a recording back.
type Reader struct {
	db *sql.DB
}

// Open opens an existing recording file.
func Open(file string) (*Reader, error) {
	if _, err := os.Stat(file); err != nil {
		return nil, errors.Wrapf(err, "opening %s", file)
	}

	db, err := sql.Open("sqlite3", file)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", file)
	}

	return NewReaderWithDB(db), nil
}

// NewReaderWithDB creates a reader on an open database.
func NewReaderWithDB(db *sql.DB) *Reader {
	return &Reader{db: db}
}

// Close closes the database.
func (r *Reader) Close() error {
	return r.db.Close()
}

// Tables returns the names of the tables in the recording, sorted.
func (r *Reader) Tables(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' ORDER BY name`)
	if err != nil {
		return nil, errors.Wrap(err, "listing tables")
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, errors.Wrap(err, "listing tables")
		}

		tables = append(tables, name)
	}

	return tables, errors.Wrap(rows.Err(), "listing tables")
}

func (r *Reader) mustHaveTable(ctx context.Context, table string) error {
	var n int

	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`,
		table).Scan(&n)
	if err != nil {
		return errors.Wrapf(err, "looking up %s", table)
	}

	if n == 0 {
		return errors.Wrapf(ErrNoTable, "%s", table)
	}

	return nil
}

// Query reads the rows of a table that pass the filter. Columns are matched
// to the fields of T by name. The count is the number of rows matching the
// Where condition, regardless of Limit and Offset.
func Query[T any](
	ctx context.Context,
	r *Reader,
	table string,
	f Filter,
) ([]T, int, error) {
	structType := reflect.TypeOf((*T)(nil)).Elem()
	if structType.Kind() != reflect.Struct {
		return nil, 0, errors.Wrapf(ErrInvalidEntry, "%s is not a struct",
			structType)
	}

	if err := r.mustHaveTable(ctx, table); err != nil {
		return nil, 0, err
	}

	var total int

	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM "+table+f.where(), f.Args...).Scan(&total)
	if err != nil {
		return nil, 0, errors.Wrapf(err, "counting %s", table)
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT * FROM "+table+f.where()+f.tail(), f.Args...)
	if err != nil {
		return nil, 0, errors.Wrapf(err, "querying %s", table)
	}
	defer rows.Close()

	var results []T
	for rows.Next() {
		var entry T
		if err := scanInto(rows, reflect.ValueOf(&entry).Elem()); err != nil {
			return nil, 0, errors.Wrapf(err, "reading %s", table)
		}

		results = append(results, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, errors.Wrapf(err, "reading %s", table)
	}

	return results, total, nil
}

// scanInto scans the current row into a struct. Unsigned fields are read
// back from their signed storage. Columns without a field are skipped.
func scanInto(rows *sql.Rows, v reflect.Value) error {
	columns, err := rows.Columns()
	if err != nil {
		return err
	}

	targets := make([]any, len(columns))
	unsigned := make(map[string]*int64)

	for i, name := range columns {
		field := v.FieldByName(name)

		switch {
		case !field.IsValid():
			targets[i] = new(any)
		case isUnsigned(field.Kind()):
			tmp := new(int64)
			unsigned[name] = tmp
			targets[i] = tmp
		default:
			targets[i] = field.Addr().Interface()
		}
	}

	if err := rows.Scan(targets...); err != nil {
		return err
	}

	for name, tmp := range unsigned {
		v.FieldByName(name).SetUint(uint64(*tmp))
	}

	return nil
}

func isUnsigned(k reflect.Kind) bool {
	switch k {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32,
		reflect.Uint64:
		return true
	default:
		return false
	}
}

// ExecInfo returns the run properties in the order they were recorded.
func (r *Reader) ExecInfo(ctx context.Context) ([]ExecInfo, error) {
	info, _, err := Query[ExecInfo](ctx, r, ExecInfoTable,
		Filter{OrderBy: "rowid"})

	return info, err
}

// A CheckerSummary counts the recorded comparisons of one checker.
type CheckerSummary struct {
	Checker string
	Checked int
	Errors  int
}

// CheckSummary counts the recorded comparisons per checker, sorted by
// checker name.
func (r *Reader) CheckSummary(ctx context.Context) ([]CheckerSummary, error) {
	if err := r.mustHaveTable(ctx, CheckTable); err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `SELECT Checker, COUNT(*),
		SUM(CASE WHEN Match THEN 0 ELSE 1 END)
		FROM `+CheckTable+` GROUP BY Checker ORDER BY Checker`)
	if err != nil {
		return nil, errors.Wrap(err, "summarizing checks")
	}
	defer rows.Close()

	var summary []CheckerSummary
	for rows.Next() {
		var s CheckerSummary
		if err := rows.Scan(&s.Checker, &s.Checked, &s.Errors); err != nil {
			return nil, errors.Wrap(err, "summarizing checks")
		}

		summary = append(summary, s)
	}

	return summary, errors.Wrap(rows.Err(), "summarizing checks")
}

// Mismatches returns the failed comparisons in simulation time order, at
// most limit of them if limit is positive, and how many there are in total.
func (r *Reader) Mismatches(
	ctx context.Context,
	limit int,
) ([]CheckEntry, int, error) {
	return Query[CheckEntry](ctx, r, CheckTable, Filter{
		Where:   "Match = ?",
		Args:    []any{false},
		OrderBy: "Time, rowid",
		Limit:   limit,
	})
}
