package settings

import (
	"context"
	"errors"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/orgchart/pkg/cache"
)

// Mongo defaults.
const (
	DefaultMongoDatabase   = "orgchart"
	DefaultMongoCollection = "settings"
	DefaultMongoDocument   = "display"
)

// MongoConfig selects the database holding the settings document.
type MongoConfig struct {
	URI        string
	Database   string
	Collection string
	// Document is the _id of the settings document.
	Document string
	Timeout  time.Duration
}

func (c MongoConfig) withDefaults() MongoConfig {
	if c.Database == "" {
		c.Database = DefaultMongoDatabase
	}
	if c.Collection == "" {
		c.Collection = DefaultMongoCollection
	}
	if c.Document == "" {
		c.Document = DefaultMongoDocument
	}
	if c.Timeout <= 0 {
		c.Timeout = 5 * time.Second
	}
	return c
}

// MongoStore keeps settings as a single document in MongoDB.
//
// The settings are stored under a "settings" field as plain JSON-shaped
// BSON, and read back through [Decode], so fields missing from an older
// document take their default values.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
	cfg    MongoConfig
}

type mongoDoc struct {
	ID        string    `bson:"_id"`
	Settings  bson.Raw  `bson:"settings"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

// NewMongoStore connects to MongoDB and verifies the connection.
// Connection failures wrap [cache.ErrNetwork].
func NewMongoStore(ctx context.Context, cfg MongoConfig) (*MongoStore, error) {
	cfg = cfg.withDefaults()
	if cfg.URI == "" {
		return nil, errors.New("mongo settings store: empty URI")
	}

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(cfg.Timeout).
		SetServerSelectionTimeout(cfg.Timeout)
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: mongo connect: %v", cache.ErrNetwork, err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("%w: mongo ping: %v", cache.ErrNetwork, err)
	}

	return &MongoStore{
		client: client,
		coll:   client.Database(cfg.Database).Collection(cfg.Collection),
		cfg:    cfg,
	}, nil
}

// Load reads the settings document.
func (s *MongoStore) Load(ctx context.Context) (Settings, error) {
	var doc mongoDoc
	err := s.coll.FindOne(ctx, bson.M{"_id": s.cfg.Document}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Defaults(), nil
	}
	if err != nil {
		return Defaults(), fmt.Errorf("load settings: %w", err)
	}
	if len(doc.Settings) == 0 {
		return Defaults(), nil
	}
	data, err := bson.MarshalExtJSON(doc.Settings, false, false)
	if err != nil {
		return Defaults(), fmt.Errorf("convert settings document: %w", err)
	}
	return Decode(data)
}

// Save upserts the settings document.
func (s *MongoStore) Save(ctx context.Context, st Settings) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	var body bson.D
	if err := bson.UnmarshalExtJSON(data, false, &body); err != nil {
		return fmt.Errorf("convert settings: %w", err)
	}

	update := bson.D{
		{Key: "_id", Value: s.cfg.Document},
		{Key: "settings", Value: body},
		{Key: "updatedAt", Value: time.Now().UTC()},
	}
	_, err = s.coll.ReplaceOne(ctx, bson.M{"_id": s.cfg.Document}, update, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

// Close disconnects the client.
func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Timeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}

var _ Store = (*MongoStore)(nil)
