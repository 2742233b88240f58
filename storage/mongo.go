package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoCollectionName is the MongoDB collection holding one document per
// stored collection.
const MongoCollectionName = "collections"

// MongoStore keeps each collection as a document {_id: key, records: [...]},
// so the records stay queryable from the mongo shell.
type MongoStore struct {
	coll *mongo.Collection
	// owned is disconnected on Close when the store created the client.
	owned *mongo.Client
}

// NewMongoStore stores documents in coll. The client behind coll is not
// closed by Close.
func NewMongoStore(coll *mongo.Collection) *MongoStore {
	return &MongoStore{coll: coll}
}

type mongoRecords struct {
	Records bson.RawValue `bson:"records"`
}

func (s *MongoStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}

	var doc mongoRecords
	err := s.coll.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find collection document: %w", err)
	}
	if doc.Records.Type == 0 {
		return []byte("[]"), nil
	}

	extJSON, err := bson.MarshalExtJSON(bson.D{{Key: "records", Value: doc.Records}}, false, false)
	if err != nil {
		return nil, fmt.Errorf("failed to convert records to json: %w", err)
	}

	var wrapper struct {
		Records json.RawMessage `json:"records"`
	}
	if err := json.Unmarshal(extJSON, &wrapper); err != nil {
		return nil, fmt.Errorf("failed to convert records to json: %w", err)
	}
	return wrapper.Records, nil
}

func (s *MongoStore) Set(ctx context.Context, key string, data []byte) error {
	if err := validateKey(key); err != nil {
		return err
	}

	wrapped := make([]byte, 0, len(data)+12)
	wrapped = append(wrapped, `{"records":`...)
	wrapped = append(wrapped, data...)
	wrapped = append(wrapped, '}')

	var parsed bson.D
	if err := bson.UnmarshalExtJSON(wrapped, false, &parsed); err != nil {
		return fmt.Errorf("failed to convert records to bson: %w", err)
	}
	var records any = bson.A{}
	for _, elem := range parsed {
		if elem.Key == "records" {
			records = elem.Value
		}
	}

	doc := bson.D{
		{Key: "_id", Value: key},
		{Key: "records", Value: records},
		{Key: "updatedAt", Value: time.Now().UTC()},
	}
	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": key}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to replace collection document: %w", err)
	}
	return nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.coll.Database().Client().Ping(ctx, nil)
}

func (s *MongoStore) Close() error {
	if s.owned == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.owned.Disconnect(ctx)
}
