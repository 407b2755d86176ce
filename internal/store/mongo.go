package store

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoStore keeps each collection as a MongoDB collection with the document
// id in _id.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewMongoClientOptions decodes embedded documents as bson.M so that
// documents marshal to JSON objects.
func NewMongoClientOptions(uri string) *options.ClientOptions {
	return options.Client().
		ApplyURI(uri).
		SetBSONOptions(&options.BSONOptions{DefaultDocumentM: true})
}

func NewMongoStore(client *mongo.Client, database string) *MongoStore {
	return &MongoStore{
		client: client,
		db:     client.Database(database),
	}
}

func (s *MongoStore) Get(ctx context.Context, collection, id string) (*Document, error) {
	var m bson.M
	err := s.db.Collection(collection).FindOne(ctx, bson.M{"_id": id}).Decode(&m)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return mongoDocument(m)
}

func (s *MongoStore) Create(ctx context.Context, collection, id string, fields Fields) error {
	doc := bson.M{"_id": id}
	for k, v := range fields {
		doc[k] = v
	}

	_, err := s.db.Collection(collection).InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	return err
}

func (s *MongoStore) Update(ctx context.Context, collection, id string, fields Fields) error {
	res, err := s.db.Collection(collection).UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M(fields)},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) Query(ctx context.Context, collection string, filter Filter) ([]*Document, error) {
	cur, err := s.db.Collection(collection).Find(ctx, bson.M(filter), options.Find().SetSort(bson.M{"_id": 1}))
	if err != nil {
		return nil, err
	}

	var results []bson.M
	if err := cur.All(ctx, &results); err != nil {
		return nil, err
	}

	docs := make([]*Document, 0, len(results))
	for _, m := range results {
		doc, err := mongoDocument(m)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func mongoDocument(m bson.M) (*Document, error) {
	id, _ := m["_id"].(string)
	delete(m, "_id")

	fields, err := normalize(Fields(m))
	if err != nil {
		return nil, err
	}
	return &Document{ID: id, Fields: fields}, nil
}
