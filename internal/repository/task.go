package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/taskdeck/taskdeck/internal/model"
)

const taskColumns = `id, user_id, title, description, status, created_at, updated_at`

// ListTasks returns one page of the owner's tasks and the total number of
// matching rows.
func (r *Repository) ListTasks(ctx context.Context, ownerID string, q model.TaskQuery) ([]*model.Task, int, error) {
	where := ` WHERE user_id = $1`
	args := []any{ownerID}
	argIndex := 2

	if status := q.Status().Status(); status != "" {
		where += fmt.Sprintf(" AND status = $%d", argIndex)
		args = append(args, string(status))
		argIndex++
	}

	if search := q.Search(); search != "" {
		where += fmt.Sprintf(` AND (title ILIKE $%d ESCAPE '\' OR description ILIKE $%d ESCAPE '\')`, argIndex, argIndex)
		args = append(args, "%"+escapeLike(search)+"%")
		argIndex++
	}

	var (
		tasks []*model.Task
		total int
	)
	err := r.withOwner(ctx, ownerID, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, `SELECT count(*) FROM tasks`+where, args...).Scan(&total); err != nil {
			return fmt.Errorf("count: %w", err)
		}
		if total == 0 || q.Offset() >= total {
			return nil
		}

		query := `SELECT ` + taskColumns + ` FROM tasks` + where +
			fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
		rows, err := tx.Query(ctx, query, append(args, q.PageSize(), q.Offset())...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			task, err := scanTask(rows)
			if err != nil {
				return fmt.Errorf("scan: %w", err)
			}
			tasks = append(tasks, task)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, 0, storeErr("list tasks", err)
	}

	return tasks, total, nil
}

// CountTasksByStatus tallies the owner's tasks in one grouped query.
func (r *Repository) CountTasksByStatus(ctx context.Context, ownerID string) (model.StatusCounts, error) {
	var counts model.StatusCounts
	err := r.withOwner(ctx, ownerID, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `SELECT status, count(*) FROM tasks WHERE user_id = $1 GROUP BY status`, ownerID)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var (
				status string
				n      int
			)
			if err := rows.Scan(&status, &n); err != nil {
				return err
			}
			counts.Add(model.TaskStatus(status), n)
		}
		return rows.Err()
	})
	if err != nil {
		return model.StatusCounts{}, storeErr("count tasks", err)
	}
	return counts, nil
}

// GetTask retrieves one of the owner's tasks.
func (r *Repository) GetTask(ctx context.Context, ownerID, id string) (*model.Task, error) {
	var task *model.Task
	err := r.withOwner(ctx, ownerID, func(tx pgx.Tx) error {
		var err error
		task, err = scanTask(tx.QueryRow(ctx,
			`SELECT `+taskColumns+` FROM tasks WHERE id = $1 AND user_id = $2`, id, ownerID))
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrTaskNotFound
		}
		return nil, storeErr("get task", err)
	}
	return task, nil
}

// InsertTask stores task on behalf of ownerID. The row-level policy rejects
// rows whose owner differs from ownerID. ID and timestamps are filled in
// from the database.
func (r *Repository) InsertTask(ctx context.Context, ownerID string, task *model.Task) error {
	query := `
		INSERT INTO tasks (user_id, title, description, status)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + taskColumns

	err := r.withOwner(ctx, ownerID, func(tx pgx.Tx) error {
		created, err := scanTask(tx.QueryRow(ctx, query,
			task.OwnerID,
			task.Title,
			task.Description,
			string(task.Status),
		))
		if err != nil {
			return err
		}
		*task = *created
		return nil
	})
	if err != nil {
		if isPolicyViolation(err) {
			return model.ErrOwnerMismatch
		}
		return storeErr("create task", err)
	}
	return nil
}

// UpdateTask applies patch to one of the owner's tasks and returns the
// stored row. updated_at is set by the database trigger.
func (r *Repository) UpdateTask(ctx context.Context, ownerID, id string, patch model.TaskPatch) (*model.Task, error) {
	var (
		sets     []string
		args     = []any{id, ownerID}
		argIndex = 3
	)

	if patch.Title != nil {
		sets = append(sets, fmt.Sprintf("title = $%d", argIndex))
		args = append(args, *patch.Title)
		argIndex++
	}
	if patch.ClearDescription {
		sets = append(sets, "description = NULL")
	} else if patch.Description != nil {
		sets = append(sets, fmt.Sprintf("description = $%d", argIndex))
		args = append(args, *patch.Description)
		argIndex++
	}
	if patch.Status != nil {
		sets = append(sets, fmt.Sprintf("status = $%d", argIndex))
		args = append(args, string(*patch.Status))
	}
	if len(sets) == 0 {
		return nil, model.ErrEmptyPatch
	}

	query := `UPDATE tasks SET ` + strings.Join(sets, ", ") +
		` WHERE id = $1 AND user_id = $2 RETURNING ` + taskColumns

	var task *model.Task
	err := r.withOwner(ctx, ownerID, func(tx pgx.Tx) error {
		var err error
		task, err = scanTask(tx.QueryRow(ctx, query, args...))
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrTaskNotFound
		}
		return nil, storeErr("update task", err)
	}
	return task, nil
}

// DeleteTask removes one of the owner's tasks.
func (r *Repository) DeleteTask(ctx context.Context, ownerID, id string) error {
	var affected int64
	err := r.withOwner(ctx, ownerID, func(tx pgx.Tx) error {
		result, err := tx.Exec(ctx, `DELETE FROM tasks WHERE id = $1 AND user_id = $2`, id, ownerID)
		if err != nil {
			return err
		}
		affected = result.RowsAffected()
		return nil
	})
	if err != nil {
		return storeErr("delete task", err)
	}

	if affected == 0 {
		return model.ErrTaskNotFound
	}
	return nil
}

// scanTask scans a single row into a Task model.
func scanTask(row pgx.Row) (*model.Task, error) {
	var (
		task   model.Task
		status string
	)
	err := row.Scan(
		&task.ID,
		&task.OwnerID,
		&task.Title,
		&task.Description,
		&status,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	task.Status = model.TaskStatus(status)
	return &task, nil
}

// escapeLike quotes LIKE wildcards so the search text matches literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
