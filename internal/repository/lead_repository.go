package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"lead-workflow/internal/models"
)

const leadsCollection = "leads"

// ForwardUpdate is the change one forward makes to a lead. A nil Assignee
// removes the current assignment.
type ForwardUpdate struct {
	Assignee *models.AssignedEmployee
	Status   *string
	Log      models.LogEntry
}

type LeadRepository interface {
	Create(ctx context.Context, lead *models.Lead) error
	GetByID(ctx context.Context, id string) (*models.Lead, error)
	Find(ctx context.Context, filter bson.M) ([]models.Lead, error)
	ApplyForward(ctx context.Context, id primitive.ObjectID, update ForwardUpdate) error
	UpdateDepartment(ctx context.Context, id primitive.ObjectID, dept models.Department, rec models.SubRecord, entry models.LogEntry) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	Clients(ctx context.Context) ([]models.Client, error)
	EnsureIndexes(ctx context.Context) error
}

type leadRepository struct {
	collection *mongo.Collection
}

func NewLeadRepository(db *mongo.Database) LeadRepository {
	return &leadRepository{collection: db.Collection(leadsCollection)}
}

func (r *leadRepository) Create(ctx context.Context, lead *models.Lead) error {
	now := time.Now()
	lead.ID = primitive.NewObjectID()
	lead.CreatedAt = now
	lead.UpdatedAt = now
	if lead.Logs == nil {
		lead.Logs = []models.LogEntry{}
	}
	_, err := r.collection.InsertOne(ctx, lead)
	return handleDatabaseError(err)
}

func (r *leadRepository) GetByID(ctx context.Context, id string) (*models.Lead, error) {
	if models.IDCandidates(id) == nil {
		return nil, models.ErrInvalidID
	}
	var lead models.Lead
	err := r.collection.FindOne(ctx, LeadLookupFilter(id)).Decode(&lead)
	if err != nil {
		return nil, handleDatabaseError(err)
	}
	return &lead, nil
}

func (r *leadRepository) Find(ctx context.Context, filter bson.M) ([]models.Lead, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, handleDatabaseError(err)
	}
	leads := make([]models.Lead, 0)
	if err := cursor.All(ctx, &leads); err != nil {
		return nil, handleDatabaseError(err)
	}
	return leads, nil
}

// ApplyForward writes only the fields a forward touches and pushes the log
// entry, so concurrent forwards never drop each other's log lines.
func (r *leadRepository) ApplyForward(ctx context.Context, id primitive.ObjectID, update ForwardUpdate) error {
	set := bson.M{"updatedAt": time.Now()}
	if update.Assignee != nil {
		set["currentAssignedEmployee"] = update.Assignee
	}
	if update.Status != nil {
		set["currentStatus"] = *update.Status
	}

	doc := bson.M{
		"$set":  set,
		"$push": bson.M{"logs": update.Log},
	}
	if update.Assignee == nil {
		doc["$unset"] = bson.M{"currentAssignedEmployee": ""}
	}

	result, err := r.collection.UpdateByID(ctx, id, doc)
	if err != nil {
		return handleDatabaseError(err)
	}
	if result.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

// UpdateDepartment replaces every business field of the department section,
// file lists included, and appends entry to that section's own logs.
func (r *leadRepository) UpdateDepartment(ctx context.Context, id primitive.ObjectID, dept models.Department, rec models.SubRecord, entry models.LogEntry) error {
	raw, err := bson.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode %s details: %w", dept, err)
	}
	var fields bson.M
	if err := bson.Unmarshal(raw, &fields); err != nil {
		return fmt.Errorf("failed to encode %s details: %w", dept, err)
	}
	delete(fields, "logs")

	set := bson.M{"updatedAt": time.Now()}
	for k, v := range fields {
		set[dept.Field()+"."+k] = v
	}

	result, err := r.collection.UpdateByID(ctx, id, bson.M{
		"$set":  set,
		"$push": bson.M{dept.Field() + ".logs": entry},
	})
	if err != nil {
		return handleDatabaseError(err)
	}
	if result.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *leadRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return handleDatabaseError(err)
	}
	if result.DeletedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *leadRepository) Clients(ctx context.Context) ([]models.Client, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"customerService.marka": bson.M{"$nin": bson.A{"", nil}}}}},
		{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$customerService.marka"},
			{Key: "customerName", Value: bson.M{"$first": "$customerService.customerName"}},
			{Key: "city", Value: bson.M{"$first": "$customerService.city"}},
			{Key: "leadCount", Value: bson.M{"$sum": 1}},
			{Key: "lastLeadAt", Value: bson.M{"$max": "$createdAt"}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "lastLeadAt", Value: -1}}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, handleDatabaseError(err)
	}
	clients := make([]models.Client, 0)
	if err := cursor.All(ctx, &clients); err != nil {
		return nil, handleDatabaseError(err)
	}
	return clients, nil
}

func (r *leadRepository) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "leadId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "currentAssignedEmployee.employeeId", Value: 1}}},
	}
	for _, d := range models.AllDepartments {
		indexes = append(indexes, mongo.IndexModel{Keys: bson.D{{Key: d.Field() + ".employeeId", Value: 1}}})
	}
	_, err := r.collection.Indexes().CreateMany(ctx, indexes)
	return err
}

func handleDatabaseError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.ErrNotFound
	}
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %v", models.ErrDuplicate, err)
	}
	return fmt.Errorf("database error: %w", err)
}
