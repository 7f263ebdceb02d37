package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"lead-workflow/internal/models"
)

const (
	employeesCollection = "employees"
	queryTimeout        = 5 * time.Second
)

type EmployeeFilter struct {
	Department models.Department
	Types      []models.Role
}

type EmployeeRepository interface {
	Create(ctx context.Context, emp *models.Employee) error
	GetByEmpID(ctx context.Context, empID string) (*models.Employee, error)
	List(ctx context.Context, filter EmployeeFilter) ([]models.Employee, error)
	EnsureIndexes(ctx context.Context) error
}

type employeeRepository struct {
	collection *mongo.Collection
}

func NewEmployeeRepository(db *mongo.Database) EmployeeRepository {
	return &employeeRepository{collection: db.Collection(employeesCollection)}
}

func (r *employeeRepository) Create(ctx context.Context, emp *models.Employee) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	now := time.Now()
	emp.ID = primitive.NewObjectID()
	emp.CreatedAt = now
	emp.UpdatedAt = now
	_, err := r.collection.InsertOne(ctx, emp)
	return handleDatabaseError(err)
}

func (r *employeeRepository) GetByEmpID(ctx context.Context, empID string) (*models.Employee, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var emp models.Employee
	err := r.collection.FindOne(ctx, bson.M{"empId": empID}).Decode(&emp)
	if err != nil {
		return nil, handleDatabaseError(err)
	}
	return &emp, nil
}

// List sorts managers before employees, then by name.
func (r *employeeRepository) List(ctx context.Context, filter EmployeeFilter) ([]models.Employee, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := bson.M{}
	if filter.Department != "" {
		query["department"] = filter.Department
	}
	if len(filter.Types) > 0 {
		query["type"] = bson.M{"$in": filter.Types}
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "type", Value: -1}, {Key: "name", Value: 1}}).
		SetProjection(bson.M{"password": 0})
	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, handleDatabaseError(err)
	}
	employees := make([]models.Employee, 0)
	if err := cursor.All(ctx, &employees); err != nil {
		return nil, handleDatabaseError(err)
	}
	return employees, nil
}

func (r *employeeRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "empId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "phone", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "department", Value: 1}, {Key: "type", Value: 1}}},
	})
	return err
}
