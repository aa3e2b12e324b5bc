package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/taskhub/internal/domain/entity"
	"github.com/oksasatya/taskhub/internal/domain/repository"
)

const defaultActivityLimit = 50

type ActivityRepository struct {
	pool *pgxpool.Pool
}

func NewActivityRepository(pool *pgxpool.Pool) *ActivityRepository {
	return &ActivityRepository{pool: pool}
}

func (r *ActivityRepository) Insert(ctx context.Context, a *entity.Activity) error {
	var meta []byte
	if len(a.Metadata) > 0 {
		b, err := json.Marshal(a.Metadata)
		if err != nil {
			return fmt.Errorf("encode metadata: %w", err)
		}
		meta = b
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO activities (actor_id, project_id, task_id, action, message, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, a.ActorID, a.ProjectID, a.TaskID, a.Action, a.Message, meta, a.CreatedAt)
	return row.Scan(&a.ID)
}

// buildActivityQuery renders the WHERE clause and positional args for f.
func buildActivityQuery(f repository.ActivityFilter) (string, []any) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if f.ProjectID != "" {
		where = append(where, "project_id = "+arg(f.ProjectID))
	}
	if f.TaskID != "" {
		where = append(where, "task_id = "+arg(f.TaskID))
	}
	switch {
	case len(f.ProjectIDs) > 0 && f.ActorID != "":
		where = append(where, fmt.Sprintf("(project_id = ANY(%s) OR actor_id = %s)", arg(f.ProjectIDs), arg(f.ActorID)))
	case len(f.ProjectIDs) > 0:
		where = append(where, "project_id = ANY("+arg(f.ProjectIDs)+")")
	case f.ActorID != "":
		where = append(where, "actor_id = "+arg(f.ActorID))
	}

	limit := f.Limit
	if limit <= 0 {
		limit = defaultActivityLimit
	}
	q := "SELECT id, actor_id, project_id, task_id, action, message, metadata, created_at FROM activities"
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY created_at DESC, id DESC LIMIT " + arg(limit)
	return q, args
}

// List returns the newest entries first.
func (r *ActivityRepository) List(ctx context.Context, f repository.ActivityFilter) ([]*entity.Activity, error) {
	q, args := buildActivityQuery(f)
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := []*entity.Activity{}
	for rows.Next() {
		a := &entity.Activity{}
		var meta []byte
		if err := rows.Scan(&a.ID, &a.ActorID, &a.ProjectID, &a.TaskID, &a.Action, &a.Message, &meta, &a.CreatedAt); err != nil {
			return nil, err
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &a.Metadata); err != nil {
				return nil, fmt.Errorf("decode metadata: %w", err)
			}
		}
		res = append(res, a)
	}
	return res, rows.Err()
}

var _ repository.ActivityRepository = (*ActivityRepository)(nil)
