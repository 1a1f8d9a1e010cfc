package tasks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/user/taskmanager-go/db"
)

const taskColumns = `id, user_id, title, description, category, priority, due_date, completed, created_at, updated_at`

// PostgresRepository stores tasks in the `tasks` table.
type PostgresRepository struct {
	db db.DBTX
}

// NewPostgresRepository creates a PostgresRepository on top of conn.
func NewPostgresRepository(conn db.DBTX) *PostgresRepository {
	return &PostgresRepository{db: conn}
}

func (r *PostgresRepository) Create(ctx context.Context, t *Task) error {
	query := `INSERT INTO tasks (` + taskColumns + `)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.db.ExecContext(ctx, query,
		t.ID, t.UserID, t.Title, t.Description, t.Category, t.Priority,
		t.DueDate, t.Completed, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, ownerID, id string) (*Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE user_id = $1 AND id = $2`
	return scanTask(r.db.QueryRowContext(ctx, query, ownerID, id))
}

// Update applies c in a single statement and returns the stored row.
func (r *PostgresRepository) Update(ctx context.Context, ownerID, id string, c Changes, updatedAt time.Time) (*Task, error) {
	sets := []string{"updated_at = $1"}
	args := []any{updatedAt}
	set := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if c.Title != nil {
		set("title", *c.Title)
	}
	if c.Description.Set {
		set("description", c.Description.Ptr())
	}
	if c.Category.Set {
		set("category", c.Category.Ptr())
	}
	if c.Priority != nil {
		set("priority", *c.Priority)
	}
	if c.DueDate.Set {
		set("due_date", c.DueDate.Ptr())
	}
	if c.Completed != nil {
		set("completed", *c.Completed)
	}

	args = append(args, ownerID, id)
	query := fmt.Sprintf(`UPDATE tasks SET %s WHERE user_id = $%d AND id = $%d RETURNING `+taskColumns,
		strings.Join(sets, ", "), len(args)-1, len(args))
	return scanTask(r.db.QueryRowContext(ctx, query, args...))
}

func (r *PostgresRepository) Delete(ctx context.Context, ownerID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE user_id = $1 AND id = $2`, ownerID, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if n == 0 {
		return db.ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) List(ctx context.Context, f Filter, offset, limit int) ([]Task, error) {
	where, args := buildTaskFilter(f)
	args = append(args, limit, offset)
	query := fmt.Sprintf(`SELECT `+taskColumns+` FROM tasks WHERE %s
              ORDER BY created_at ASC, id ASC
              LIMIT $%d OFFSET $%d`, where, len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	result := make([]Task, 0, limit)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) Count(ctx context.Context, f Filter) (int64, error) {
	where, args := buildTaskFilter(f)
	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tasks WHERE `+where, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count tasks: %w", err)
	}
	return total, nil
}

// buildTaskFilter renders f as a WHERE clause with positional arguments
// starting at $1. The owner condition is always present.
func buildTaskFilter(f Filter) (string, []any) {
	conds := []string{"user_id = $1"}
	args := []any{f.OwnerID}
	add := func(column string, value any) {
		args = append(args, value)
		conds = append(conds, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if f.Category != nil {
		add("category", *f.Category)
	}
	if f.Priority != nil {
		add("priority", *f.Priority)
	}
	if f.Completed != nil {
		add("completed", *f.Completed)
	}
	if f.DueDate != nil {
		add("due_date", *f.DueDate)
	}
	return strings.Join(conds, " AND "), args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*Task, error) {
	var t Task
	err := row.Scan(&t.ID, &t.UserID, &t.Title, &t.Description, &t.Category, &t.Priority,
		&t.DueDate, &t.Completed, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, db.ErrNotFound
		}
		return nil, fmt.Errorf("scan task: %w", err)
	}
	return &t, nil
}
