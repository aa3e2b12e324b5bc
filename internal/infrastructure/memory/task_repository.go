package memory

import (
	"context"
	"sort"
	"time"

	"github.com/oksasatya/taskhub/internal/domain/entity"
	"github.com/oksasatya/taskhub/internal/domain/repository"
)

type TaskRepository struct {
	db *DB
}

func NewTaskRepository(db *DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Create(ctx context.Context, t *entity.Task) error {
	if err := t.Validate(); err != nil {
		return err
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	now := time.Now().UTC()
	t.ID = newID()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now
	r.db.tasks[t.ID] = cloneTask(t)
	return nil
}

func (r *TaskRepository) GetByID(ctx context.Context, id string) (*entity.Task, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	if t, ok := r.db.tasks[id]; ok {
		return cloneTask(t), nil
	}
	return nil, repository.ErrNotFound
}

func matchTask(t *entity.Task, f repository.TaskFilter) bool {
	if f.ProjectID != "" && t.ProjectID != f.ProjectID {
		return false
	}
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	if f.Priority != "" && t.Priority != f.Priority {
		return false
	}
	if f.AssigneeID != "" && t.AssigneeID != f.AssigneeID {
		return false
	}
	if f.CreatorID != "" && t.CreatorID != f.CreatorID {
		return false
	}
	if f.Query != "" && !containsFold(t.Title, f.Query) && !containsFold(t.Description, f.Query) {
		return false
	}
	if f.DueBefore != nil && (t.DueDate == nil || !t.DueDate.Before(*f.DueBefore)) {
		return false
	}
	if f.ExcludeDone && t.Status == entity.TaskDone {
		return false
	}
	if f.VisibleTo != "" {
		visible := t.CreatorID == f.VisibleTo || t.AssigneeID == f.VisibleTo ||
			(t.ProjectID != "" && contains(f.VisibleProjects, t.ProjectID)) ||
			(t.ProjectID == "" && f.VisibleUnscoped)
		if !visible {
			return false
		}
	}
	return true
}

func sortTasks(tasks []*entity.Task, by repository.TaskSort) {
	switch by {
	case repository.SortDueDate:
		sort.SliceStable(tasks, func(i, j int) bool {
			a, b := tasks[i].DueDate, tasks[j].DueDate
			if a == nil || b == nil {
				return a != nil
			}
			return a.Before(*b)
		})
	case repository.SortPriority:
		sort.SliceStable(tasks, func(i, j int) bool {
			return tasks[i].Priority.Weight() > tasks[j].Priority.Weight()
		})
	default:
		sort.SliceStable(tasks, func(i, j int) bool { return tasks[i].CreatedAt.After(tasks[j].CreatedAt) })
	}
}

func (r *TaskRepository) filter(f repository.TaskFilter) []*entity.Task {
	var res []*entity.Task
	for _, t := range r.db.tasks {
		if matchTask(t, f) {
			res = append(res, cloneTask(t))
		}
	}
	return res
}

func (r *TaskRepository) List(ctx context.Context, f repository.TaskFilter) ([]*entity.Task, int64, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	res := r.filter(f)
	sortTasks(res, f.Sort)
	return page(res, f.Offset, f.Limit), int64(len(res)), nil
}

func (r *TaskRepository) Stats(ctx context.Context, f repository.TaskFilter) (repository.TaskStats, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	st := repository.TaskStats{
		ByStatus:   map[entity.TaskStatus]int64{},
		ByPriority: map[entity.TaskPriority]int64{},
	}
	for _, t := range r.filter(f) {
		st.ByStatus[t.Status]++
		st.ByPriority[t.Priority]++
		st.Total++
	}
	return st, nil
}

func (r *TaskRepository) Update(ctx context.Context, t *entity.Task) error {
	if err := t.Validate(); err != nil {
		return err
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.tasks[t.ID]; !ok {
		return repository.ErrNotFound
	}
	t.UpdatedAt = time.Now().UTC()
	r.db.tasks[t.ID] = cloneTask(t)
	return nil
}

func (r *TaskRepository) Delete(ctx context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.tasks[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.db.tasks, id)
	return nil
}

func (r *TaskRepository) IncrementComments(ctx context.Context, id string, delta int) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	t, ok := r.db.tasks[id]
	if !ok {
		return repository.ErrNotFound
	}
	t.CommentCount += delta
	if t.CommentCount < 0 {
		t.CommentCount = 0
	}
	return nil
}

var _ repository.TaskRepository = (*TaskRepository)(nil)
