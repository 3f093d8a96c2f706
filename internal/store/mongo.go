package store

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"

	"github.com/zhouzirui/persona-chat/backend/internal/model/chat"
)

// MongoConfig locates the sessions collection.
type MongoConfig struct {
	URI        string
	Database   string
	Collection string
}

// MongoStore keeps one document per session, laid out as chat.Record.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// OpenMongo connects, pings and ensures the unique sessionId index.
func OpenMongo(ctx context.Context, cfg MongoConfig) (*MongoStore, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to mongodb")
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(err, "failed to ping mongodb")
	}

	// Put must be durable once acknowledged.
	coll := client.Database(cfg.Database).Collection(
		cfg.Collection,
		options.Collection().SetWriteConcern(writeconcern.Majority()),
	)

	_, err = coll.Indexes().CreateMany(connectCtx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "sessionId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "timestamp", Value: -1}}},
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(err, "failed to create session indexes")
	}

	log.Info().Str("database", cfg.Database).Str("collection", cfg.Collection).Msg("MongoDB session store initialized")
	return &MongoStore{client: client, coll: coll}, nil
}

func (s *MongoStore) Put(ctx context.Context, session chat.Session) error {
	record := session.Record()
	_, err := s.coll.ReplaceOne(ctx,
		bson.M{"sessionId": record.SessionID},
		record,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return errors.Wrapf(err, "save session %s", record.SessionID)
	}
	return nil
}

func (s *MongoStore) Get(ctx context.Context, id string) (chat.Session, error) {
	var record chat.Record
	err := s.coll.FindOne(ctx, bson.M{"sessionId": id}).Decode(&record)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return chat.Session{}, ErrNotFound
	}
	if err != nil {
		return chat.Session{}, errors.Wrapf(err, "load session %s", id)
	}

	normalizeRecordTimes(&record)
	return chat.FromRecord(record)
}

func (s *MongoStore) ListSummaries(ctx context.Context) ([]chat.Summary, error) {
	opts := options.Find().
		SetProjection(bson.M{"sessionId": 1, "timestamp": 1, "firstQuestion": 1, "_id": 0}).
		SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}})

	cursor, err := s.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, errors.Wrap(err, "list sessions")
	}

	summaries := make([]chat.Summary, 0)
	if err := cursor.All(ctx, &summaries); err != nil {
		return nil, errors.Wrap(err, "decode session summaries")
	}
	for i := range summaries {
		summaries[i].CreatedAt = summaries[i].CreatedAt.UTC()
	}
	return summaries, nil
}

func (s *MongoStore) Delete(ctx context.Context, id string) (bool, error) {
	res, err := s.coll.DeleteOne(ctx, bson.M{"sessionId": id})
	if err != nil {
		return false, errors.Wrapf(err, "delete session %s", id)
	}
	return res.DeletedCount > 0, nil
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// BSON dates decode in local time with millisecond precision.
func normalizeRecordTimes(record *chat.Record) {
	record.Timestamp = record.Timestamp.UTC()
	for i := range record.Messages {
		record.Messages[i].CreatedAt = record.Messages[i].CreatedAt.UTC()
	}
}
