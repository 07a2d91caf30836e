package repo

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"bookshelf/internal/resource"
	"bookshelf/internal/utils"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
)

// TableStore implements resource.Store on a Postgres table.
type TableStore struct {
	db    *pgxpool.Pool
	table Table
}

func NewTableStore(db *pgxpool.Pool, t Table) *TableStore {
	return &TableStore{db: db, table: t}
}

func (r *TableStore) Insert(ctx context.Context, attrs resource.Attrs) (resource.Attrs, error) {
	cols, args := r.assignments(attrs)
	var query string
	if len(cols) == 0 {
		query = fmt.Sprintf(`INSERT INTO %s DEFAULT VALUES RETURNING %s`, r.table.Name, r.selectList())
	} else {
		marks := make([]string, len(cols))
		for i := range cols {
			marks[i] = "$" + strconv.Itoa(i+1)
		}
		query = fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s) RETURNING %s`,
			r.table.Name, strings.Join(cols, ", "), strings.Join(marks, ", "), r.selectList())
	}
	out, err := r.scan(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, r.translate(err, "insert")
	}
	return out, nil
}

func (r *TableStore) Get(ctx context.Context, id int64) (resource.Attrs, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1%s`, r.selectList(), r.table.Name, r.liveClause())
	out, err := r.scan(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, r.translate(err, "get")
	}
	return out, nil
}

func (r *TableStore) Update(ctx context.Context, id int64, attrs resource.Attrs) (resource.Attrs, error) {
	cols, args := r.assignments(attrs)
	if len(cols) == 0 {
		return r.Get(ctx, id)
	}
	sets := make([]string, len(cols))
	for i, c := range cols {
		sets[i] = fmt.Sprintf("%s = $%d", c, i+2)
	}
	query := fmt.Sprintf(`UPDATE %s SET %s WHERE id = $1%s RETURNING %s`,
		r.table.Name, strings.Join(sets, ", "), r.liveClause(), r.selectList())
	out, err := r.scan(r.db.QueryRow(ctx, query, append([]any{id}, args...)...))
	if err != nil {
		return nil, r.translate(err, "update")
	}
	return out, nil
}

func (r *TableStore) Delete(ctx context.Context, id int64) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1%s`, r.table.Name, r.liveClause())
	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return r.translate(err, "delete")
	}
	if tag.RowsAffected() == 0 {
		return resource.ErrNotFound
	}
	return nil
}

func (r *TableStore) List(ctx context.Context, q resource.Query) ([]resource.Attrs, int, error) {
	var (
		conds []string
		args  []any
	)
	if !q.IncludeDeleted && r.table.SoftDelete != "" {
		col, _ := r.table.lookup(r.table.SoftDelete)
		conds = append(conds, "NOT "+col.column())
	}
	for field, v := range q.Filters {
		col, ok := r.table.lookup(field)
		if !ok {
			return nil, 0, errors.Errorf("%s: unknown filter field %q", r.table.Name, field)
		}
		args = append(args, v)
		if col.Array {
			conds = append(conds, fmt.Sprintf("$%d = ANY(%s)", len(args), col.column()))
		} else {
			conds = append(conds, fmt.Sprintf("%s = $%d", col.column(), len(args)))
		}
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM `+r.table.Name+where, args...).Scan(&total); err != nil {
		return nil, 0, r.translate(err, "count")
	}

	order := make([]string, 0, len(q.Ordering)+1)
	for _, o := range q.Ordering {
		col, ok := r.table.lookup(o.Field)
		if !ok {
			return nil, 0, errors.Errorf("%s: unknown ordering field %q", r.table.Name, o.Field)
		}
		term := col.column()
		if o.Desc {
			term += " DESC"
		}
		order = append(order, term)
	}
	order = append(order, "id")

	query := fmt.Sprintf(`SELECT %s FROM %s%s ORDER BY %s`, r.selectList(), r.table.Name, where, strings.Join(order, ", "))
	if q.Limit > 0 {
		args = append(args, q.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if q.Offset > 0 {
		args = append(args, q.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, r.translate(err, "list")
	}
	defer rows.Close()
	var list []resource.Attrs
	for rows.Next() {
		a, err := r.scan(rows)
		if err != nil {
			return nil, 0, r.translate(err, "list")
		}
		list = append(list, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, r.translate(err, "list")
	}
	return list, total, nil
}

func (r *TableStore) Exists(ctx context.Context, field string, value any, excludeID int64) (bool, error) {
	col, ok := r.table.lookup(field)
	if !ok {
		return false, errors.Errorf("%s: unknown field %q", r.table.Name, field)
	}
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE %s = $1 AND id <> $2)`, r.table.Name, col.column())
	var exists bool
	if err := r.db.QueryRow(ctx, query, value, excludeID).Scan(&exists); err != nil {
		return false, r.translate(err, "exists")
	}
	return exists, nil
}

func (r *TableStore) selectList() string {
	cols := make([]string, 0, len(r.table.Columns)+1)
	cols = append(cols, "id")
	for _, c := range r.table.Columns {
		cols = append(cols, c.column())
	}
	return strings.Join(cols, ", ")
}

func (r *TableStore) liveClause() string {
	if r.table.SoftDelete == "" {
		return ""
	}
	col, _ := r.table.lookup(r.table.SoftDelete)
	return " AND NOT " + col.column()
}

// assignments returns the known columns present in attrs, in table order.
func (r *TableStore) assignments(attrs resource.Attrs) ([]string, []any) {
	var (
		cols []string
		args []any
	)
	for _, c := range r.table.Columns {
		if v, ok := attrs[c.Field]; ok {
			cols = append(cols, c.column())
			args = append(args, v)
		}
	}
	return cols, args
}

func (r *TableStore) scan(row pgx.Row) (resource.Attrs, error) {
	values := make([]any, len(r.table.Columns)+1)
	dest := make([]any, len(values))
	for i := range values {
		dest[i] = &values[i]
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	out := make(resource.Attrs, len(values))
	out["id"] = values[0]
	for i, c := range r.table.Columns {
		out[c.Field] = values[i+1]
	}
	return normalize(out), nil
}

// translate maps driver errors onto the store contract: a missing row or a
// dangling foreign key is ErrNotFound, a unique violation ErrConflict.
func (r *TableStore) translate(err error, op string) error {
	if errors.Is(err, pgx.ErrNoRows) || utils.IsPGForeignKeyViolation(err) {
		return errors.Wrapf(resource.ErrNotFound, "%s %s", r.table.Name, op)
	}
	if utils.IsPGUniqueViolation(err) {
		return errors.Wrapf(resource.ErrConflict, "%s %s: %v", r.table.Name, op, err)
	}
	return errors.Wrapf(err, "%s %s", r.table.Name, op)
}
