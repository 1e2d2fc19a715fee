package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Mongo implements Store on a MongoDB replica set. Transactions map to
// mongo sessions, which the driver retries on transient errors before
// giving up.
type Mongo struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewMongo connects, pings, and returns a Store backed by the given
// database.
func NewMongo(ctx context.Context, connString, dbName string) (*Mongo, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(connString))
	if err != nil {
		return nil, fmt.Errorf("cannot connect to the db: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("db is not available: %w", err)
	}

	return &Mongo{client: client, db: client.Database(dbName)}, nil
}

// Disconnect releases the underlying client.
func (s *Mongo) Disconnect(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Mongo) RunTransaction(ctx context.Context, fn func(tx Txn) error) error {
	session, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(&mongoTxn{ctx: sc, db: s.db})
	})
	return err
}

func (s *Mongo) Get(ctx context.Context, collection, id string, dest interface{}) error {
	return mongoGet(ctx, s.db, collection, id, dest)
}

func (s *Mongo) Set(ctx context.Context, collection, id string, value interface{}) error {
	return mongoSet(ctx, s.db, collection, id, value)
}

func (s *Mongo) Delete(ctx context.Context, collection, id string) error {
	_, err := s.db.Collection(collection).DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func (s *Mongo) Scan(ctx context.Context, collection string, fn func(id string, decode func(dest interface{}) error) error) error {
	return mongoScan(ctx, s.db, collection, fn)
}

// mongoTxn routes Txn calls through the session context so they join the
// surrounding transaction.
type mongoTxn struct {
	ctx mongo.SessionContext
	db  *mongo.Database
}

func (t *mongoTxn) Get(collection, id string, dest interface{}) error {
	return mongoGet(t.ctx, t.db, collection, id, dest)
}

func (t *mongoTxn) Set(collection, id string, value interface{}) error {
	return mongoSet(t.ctx, t.db, collection, id, value)
}

func (t *mongoTxn) Delete(collection, id string) error {
	_, err := t.db.Collection(collection).DeleteOne(t.ctx, bson.M{"_id": id})
	return err
}

func (t *mongoTxn) Scan(collection string, fn func(id string, decode func(dest interface{}) error) error) error {
	return mongoScan(t.ctx, t.db, collection, fn)
}

func mongoScan(ctx context.Context, db *mongo.Database, collection string, fn func(id string, decode func(dest interface{}) error) error) error {
	cur, err := db.Collection(collection).Find(ctx, bson.D{})
	if err != nil {
		return fmt.Errorf("scan %v: %w", collection, err)
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var idDoc struct {
			Id string `bson:"_id"`
		}
		if err := cur.Decode(&idDoc); err != nil {
			return fmt.Errorf("scan %v: %w", collection, err)
		}
		err := fn(idDoc.Id, cur.Decode)
		if errors.Is(err, ErrStopScan) {
			return nil
		}
		if err != nil {
			return err
		}
	}
	return cur.Err()
}

func mongoGet(ctx context.Context, db *mongo.Database, collection, id string, dest interface{}) error {
	err := db.Collection(collection).FindOne(ctx, bson.M{"_id": id}).Decode(dest)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNoDocument
	}
	return err
}

func mongoSet(ctx context.Context, db *mongo.Database, collection, id string, value interface{}) error {
	_, err := db.Collection(collection).ReplaceOne(
		ctx,
		bson.M{"_id": id},
		value,
		options.Replace().SetUpsert(true))
	return err
}
