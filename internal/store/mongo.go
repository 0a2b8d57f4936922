package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dkeye/Poker/internal/core"
	"github.com/dkeye/Poker/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type roomDocument struct {
	ID        string    `bson:"_id"`
	Config    string    `bson:"config"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

// Mongo stores one document per room, keyed by _id.
type Mongo struct {
	client *mongo.Client
	coll   *mongo.Collection
}

func NewMongo(client *mongo.Client, database, collection string) *Mongo {
	return &Mongo{client: client, coll: client.Database(database).Collection(collection)}
}

// DialMongo connects and pings the deployment at uri.
func DialMongo(ctx context.Context, uri, database, collection string) (*Mongo, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return NewMongo(client, database, collection), nil
}

func (m *Mongo) Create(ctx context.Context, id domain.RoomID, data []byte) error {
	_, err := m.coll.InsertOne(ctx, roomDocument{ID: string(id), Config: string(data), UpdatedAt: time.Now()})
	if mongo.IsDuplicateKeyError(err) {
		return domain.ErrDuplicateRoom
	}
	if err != nil {
		return fmt.Errorf("mongo insert %s: %w", id, err)
	}
	return nil
}

func (m *Mongo) Put(ctx context.Context, id domain.RoomID, data []byte) error {
	doc := roomDocument{ID: string(id), Config: string(data), UpdatedAt: time.Now()}
	_, err := m.coll.ReplaceOne(ctx, bson.M{"_id": string(id)}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("mongo replace %s: %w", id, err)
	}
	return nil
}

func (m *Mongo) Get(ctx context.Context, id domain.RoomID) ([]byte, error) {
	var doc roomDocument
	err := m.coll.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, core.ErrRoomNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("mongo find %s: %w", id, err)
	}
	return []byte(doc.Config), nil
}

func (m *Mongo) Delete(ctx context.Context, id domain.RoomID) error {
	if _, err := m.coll.DeleteOne(ctx, bson.M{"_id": string(id)}); err != nil {
		return fmt.Errorf("mongo delete %s: %w", id, err)
	}
	return nil
}

func (m *Mongo) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}
