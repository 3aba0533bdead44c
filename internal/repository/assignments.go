package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
)

const DefaultAssignmentsCollection = "assignments"

// AssignmentsRepository reads assignment counts owned by the course store.
type AssignmentsRepository struct {
	mongoRepo  *MongoRepository
	collection string
}

func NewAssignmentsRepository(mongoRepo *MongoRepository, collection string) *AssignmentsRepository {
	if collection == "" {
		collection = DefaultAssignmentsCollection
	}
	return &AssignmentsRepository{
		mongoRepo:  mongoRepo,
		collection: collection,
	}
}

func (r *AssignmentsRepository) CountAssignmentsByClassID(ctx context.Context, classID string) (int64, error) {
	filter := bson.M{"classId": classID}

	count, err := r.mongoRepo.CountDocuments(ctx, r.collection, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to count assignments: %w", err)
	}

	return count, nil
}
