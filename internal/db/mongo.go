package db

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore keeps each collection in a MongoDB collection of the same name,
// using the document id as _id.
type MongoStore struct {
	db *mongo.Database
}

// NewMongoStore creates a MongoStore backed by database.
func NewMongoStore(database *mongo.Database) *MongoStore {
	return &MongoStore{db: database}
}

func (s *MongoStore) Upsert(ctx context.Context, collection, id string, doc interface{}) error {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document %s: %w", id, err)
	}
	m := bson.M{}
	if err := bson.Unmarshal(raw, &m); err != nil {
		return fmt.Errorf("failed to convert document %s: %w", id, err)
	}
	m["_id"] = id
	m["id"] = id

	_, err = s.db.Collection(collection).ReplaceOne(ctx, bson.M{"_id": id}, m, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to upsert %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *MongoStore) Get(ctx context.Context, collection, id string, out interface{}) (bool, error) {
	err := s.db.Collection(collection).FindOne(ctx, bson.M{"_id": id}).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to fetch %s/%s: %w", collection, id, err)
	}
	return true, nil
}

func (s *MongoStore) Delete(ctx context.Context, collection, id string) error {
	if _, err := s.db.Collection(collection).DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *MongoStore) Query(ctx context.Context, collection string, q Query, out interface{}) error {
	opts := options.Find()
	if q.OrderBy != "" {
		dir := 1
		if q.Descending {
			dir = -1
		}
		opts.SetSort(bson.D{{Key: q.OrderBy, Value: dir}})
	}
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}

	cur, err := s.db.Collection(collection).Find(ctx, mongoFilter(q), opts)
	if err != nil {
		return fmt.Errorf("failed to query %s: %w", collection, err)
	}
	if err := cur.All(ctx, out); err != nil {
		return fmt.Errorf("failed to decode %s query result: %w", collection, err)
	}
	return nil
}

func mongoFilter(q Query) bson.M {
	filter := bson.M{}
	for _, f := range q.Where {
		filter[f.Field] = f.Value
	}
	if len(q.AnyOf) > 0 {
		or := make(bson.A, 0, len(q.AnyOf))
		for _, f := range q.AnyOf {
			or = append(or, bson.M{f.Field: f.Value})
		}
		filter["$or"] = or
	}
	return filter
}
