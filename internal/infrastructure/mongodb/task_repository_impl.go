package mongodb

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/oksasatya/taskhub/internal/domain/entity"
	"github.com/oksasatya/taskhub/internal/domain/repository"
)

type TaskRepository struct {
	col *mongo.Collection
}

func NewTaskRepository(db *mongo.Database) *TaskRepository {
	return &TaskRepository{col: db.Collection(colTasks)}
}

func (r *TaskRepository) Create(ctx context.Context, t *entity.Task) error {
	if err := t.Validate(); err != nil {
		return err
	}
	now := time.Now().UTC()
	t.ID = newID()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now
	_, err := r.col.InsertOne(ctx, t)
	return mapErr(err)
}

func (r *TaskRepository) GetByID(ctx context.Context, id string) (*entity.Task, error) {
	var t entity.Task
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&t); err != nil {
		return nil, mapErr(err)
	}
	return &t, nil
}

func taskQuery(f repository.TaskFilter) bson.M {
	and := bson.A{}
	if f.ProjectID != "" {
		and = append(and, bson.M{"project_id": f.ProjectID})
	}
	if f.Status != "" {
		and = append(and, bson.M{"status": f.Status})
	}
	if f.Priority != "" {
		and = append(and, bson.M{"priority": f.Priority})
	}
	if f.AssigneeID != "" {
		and = append(and, bson.M{"assignee_id": f.AssigneeID})
	}
	if f.CreatorID != "" {
		and = append(and, bson.M{"creator_id": f.CreatorID})
	}
	if f.Query != "" {
		rx := containsRegex(f.Query)
		and = append(and, bson.M{"$or": bson.A{bson.M{"title": rx}, bson.M{"description": rx}}})
	}
	if f.DueBefore != nil {
		and = append(and, bson.M{"due_date": bson.M{"$lt": *f.DueBefore}})
	}
	if f.ExcludeDone {
		and = append(and, bson.M{"status": bson.M{"$ne": entity.TaskDone}})
	}
	if f.VisibleTo != "" {
		or := bson.A{bson.M{"creator_id": f.VisibleTo}, bson.M{"assignee_id": f.VisibleTo}}
		if len(f.VisibleProjects) > 0 {
			or = append(or, bson.M{"project_id": bson.M{"$in": f.VisibleProjects}})
		}
		if f.VisibleUnscoped {
			or = append(or, bson.M{"project_id": bson.M{"$in": bson.A{nil, ""}}})
		}
		and = append(and, bson.M{"$or": or})
	}
	if len(and) == 0 {
		return bson.M{}
	}
	return bson.M{"$and": and}
}

// prioritySortStage maps priorities to their weight so they sort by urgency
// rather than alphabetically.
func prioritySortStage() bson.D {
	branches := bson.A{}
	for _, p := range []entity.TaskPriority{entity.PriorityLow, entity.PriorityMedium, entity.PriorityHigh, entity.PriorityUrgent} {
		branches = append(branches, bson.M{"case": bson.M{"$eq": bson.A{"$priority", p}}, "then": p.Weight()})
	}
	return bson.D{{Key: "$addFields", Value: bson.M{
		"_weight": bson.M{"$switch": bson.M{"branches": branches, "default": 0}},
	}}}
}

func (r *TaskRepository) List(ctx context.Context, f repository.TaskFilter) ([]*entity.Task, int64, error) {
	filter := taskQuery(f)
	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	pipeline := mongo.Pipeline{{{Key: "$match", Value: filter}}}
	switch f.Sort {
	case repository.SortDueDate:
		// tasks without a due date go last
		pipeline = append(pipeline,
			bson.D{{Key: "$addFields", Value: bson.M{"_nodue": bson.M{"$eq": bson.A{bson.M{"$ifNull": bson.A{"$due_date", nil}}, nil}}}}},
			bson.D{{Key: "$sort", Value: bson.D{{Key: "_nodue", Value: 1}, {Key: "due_date", Value: 1}, {Key: "_id", Value: 1}}}},
		)
	case repository.SortPriority:
		pipeline = append(pipeline,
			prioritySortStage(),
			bson.D{{Key: "$sort", Value: bson.D{{Key: "_weight", Value: -1}, {Key: "created_at", Value: -1}}}},
		)
	default:
		pipeline = append(pipeline, bson.D{{Key: "$sort", Value: bson.D{{Key: "created_at", Value: -1}}}})
	}
	if f.Offset > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$skip", Value: int64(f.Offset)}})
	}
	if f.Limit > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$limit", Value: int64(f.Limit)}})
	}
	pipeline = append(pipeline, bson.D{{Key: "$project", Value: bson.M{"_weight": 0, "_nodue": 0}}})

	cur, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, 0, err
	}
	tasks, err := decodeAll[entity.Task](ctx, cur)
	return tasks, total, err
}

type countBucket struct {
	Key   string `bson:"_id"`
	Count int64  `bson:"n"`
}

func (r *TaskRepository) Stats(ctx context.Context, f repository.TaskFilter) (repository.TaskStats, error) {
	st := repository.TaskStats{
		ByStatus:   map[entity.TaskStatus]int64{},
		ByPriority: map[entity.TaskPriority]int64{},
	}
	group := func(field string) bson.A {
		return bson.A{bson.M{"$group": bson.M{"_id": "$" + field, "n": bson.M{"$sum": 1}}}}
	}
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: taskQuery(f)}},
		{{Key: "$facet", Value: bson.M{"status": group("status"), "priority": group("priority")}}},
	}
	cur, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return st, err
	}
	defer func() { _ = cur.Close(ctx) }()

	var facets []struct {
		Status   []countBucket `bson:"status"`
		Priority []countBucket `bson:"priority"`
	}
	if err := cur.All(ctx, &facets); err != nil {
		return st, err
	}
	if len(facets) == 0 {
		return st, nil
	}
	for _, b := range facets[0].Status {
		st.ByStatus[entity.TaskStatus(b.Key)] = b.Count
		st.Total += b.Count
	}
	for _, b := range facets[0].Priority {
		st.ByPriority[entity.TaskPriority(b.Key)] = b.Count
	}
	return st, nil
}

func (r *TaskRepository) Update(ctx context.Context, t *entity.Task) error {
	if err := t.Validate(); err != nil {
		return err
	}
	t.UpdatedAt = time.Now().UTC()
	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": t.ID}, t)
	if err != nil {
		return mapErr(err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *TaskRepository) Delete(ctx context.Context, id string) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *TaskRepository) IncrementComments(ctx context.Context, id string, delta int) error {
	// pipeline update keeps the counter from going negative
	update := mongo.Pipeline{{{Key: "$set", Value: bson.M{
		"comment_count": bson.M{"$max": bson.A{0, bson.M{"$add": bson.A{bson.M{"$ifNull": bson.A{"$comment_count", 0}}, delta}}}},
	}}}}
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

var _ repository.TaskRepository = (*TaskRepository)(nil)
