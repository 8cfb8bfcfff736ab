package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/idaliopessoa/idDigital/config"
	"github.com/idaliopessoa/idDigital/model"
	"github.com/idaliopessoa/idDigital/pkg/sentinel"
)

// DocumentStore is the durable cache of transformed documents, keyed by the
// external document id. Records are created once and never mutated; deletion
// and expiry are operational concerns outside this service.
type DocumentStore interface {
	// Exists reports whether a record is cached. A transient store failure
	// must surface as ErrStoreUnavailable, never as a false negative.
	Exists(ctx context.Context, documentID string) (bool, error)
	// Get returns the cached record or ErrNotFound.
	Get(ctx context.Context, documentID string) (*model.DocumentRecord, error)
	// Save persists a record, stamping CreatedAt at write time.
	Save(ctx context.Context, documentID string, record *model.DocumentRecord) error
}

// MongoDocumentStore persists DocumentRecords in a single Mongo collection
// with the document id as _id.
type MongoDocumentStore struct {
	collection *mongo.Collection
}

func NewMongoDocumentStore(client *mongo.Client, cfg *config.MongoConfig) *MongoDocumentStore {
	return &MongoDocumentStore{
		collection: client.Database(cfg.Database).Collection(cfg.Collection),
	}
}

func (s *MongoDocumentStore) Exists(ctx context.Context, documentID string) (bool, error) {
	count, err := s.collection.CountDocuments(ctx, bson.M{"_id": documentID})
	if err != nil {
		return false, fmt.Errorf("%w: failed to check document %s: %v", sentinel.ErrStoreUnavailable, documentID, err)
	}
	return count > 0, nil
}

func (s *MongoDocumentStore) Get(ctx context.Context, documentID string) (*model.DocumentRecord, error) {
	var record model.DocumentRecord
	err := s.collection.FindOne(ctx, bson.M{"_id": documentID}).Decode(&record)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: document %s", sentinel.ErrNotFound, documentID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get document %s: %v", sentinel.ErrStoreUnavailable, documentID, err)
	}
	return &record, nil
}

func (s *MongoDocumentStore) Save(ctx context.Context, documentID string, record *model.DocumentRecord) error {
	// CreatedAt is store-assigned, exactly once. Callers never supply it.
	stamped := *record
	stamped.ID = documentID
	stamped.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)

	_, err := s.collection.InsertOne(ctx, &stamped)
	if mongo.IsDuplicateKeyError(err) {
		// A concurrent miss for the same id won the write. The record it
		// stored came from the same upstream payload; keeping it preserves
		// write-once semantics.
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: failed to save document %s: %v", sentinel.ErrStoreUnavailable, documentID, err)
	}
	return nil
}
