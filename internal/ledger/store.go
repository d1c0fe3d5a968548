package ledger

import (
	"context"
	"strconv"

	"github.com/agentstation/utc"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/bulkthreads/stocksync/pkg/errors"
)

// Store persists the ledger across runs. Both logical documents (the forward
// item map and the product reverse map) are overwritten wholesale at the end
// of a successful run; there is no incremental upsert.
type Store interface {
	// Load reads the forward map. A missing document yields an empty map.
	Load(ctx context.Context) (map[string]Entry, error)

	// Replace overwrites both documents with the ledger's current state.
	Replace(ctx context.Context, l *Ledger) error
}

// itemsDocument is the forward ledger document.
type itemsDocument struct {
	Items     map[string]Entry `bson:"items"`
	UpdatedAt utc.Time         `bson:"updated_at"`
}

// reverseDocument is the product → variant → identifier document. Mongo
// requires string keys, so numeric ids are encoded in decimal.
type reverseDocument struct {
	Products  map[string]map[string]string `bson:"products"`
	UpdatedAt utc.Time                     `bson:"updated_at"`
}

// MongoStore keeps the ledger in two single-document collections.
type MongoStore struct {
	client   *mongo.Client
	items    *mongo.Collection
	products *mongo.Collection
}

// NewMongoStore connects to the document store at url and returns a store
// over the named database.
func NewMongoStore(ctx context.Context, url, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(url))
	if err != nil {
		return nil, errors.WrapLedger("connect", "", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, errors.WrapLedger("connect", "", err)
	}
	db := client.Database(database)
	return &MongoStore{
		client:   client,
		items:    db.Collection("inventory"),
		products: db.Collection("products"),
	}, nil
}

// Close disconnects from the document store.
func (s *MongoStore) Close(ctx context.Context) error {
	if err := s.client.Disconnect(ctx); err != nil {
		return errors.WrapLedger("disconnect", "", err)
	}
	return nil
}

// Load reads the forward ledger document.
func (s *MongoStore) Load(ctx context.Context) (map[string]Entry, error) {
	var doc itemsDocument
	err := s.items.FindOne(ctx, bson.D{}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return map[string]Entry{}, nil
	}
	if err != nil {
		return nil, errors.WrapLedger("load", "", err)
	}
	if doc.Items == nil {
		doc.Items = map[string]Entry{}
	}
	return doc.Items, nil
}

// Replace overwrites both ledger documents with replace-all semantics.
func (s *MongoStore) Replace(ctx context.Context, l *Ledger) error {
	now := utc.Now()

	if _, err := s.items.DeleteMany(ctx, bson.D{}); err != nil {
		return errors.WrapLedger("persist", "", err)
	}
	if _, err := s.items.InsertOne(ctx, itemsDocument{Items: l.Snapshot(), UpdatedAt: now}); err != nil {
		return errors.WrapLedger("persist", "", err)
	}

	reverse := make(map[string]map[string]string)
	for productID, variants := range l.Reverse() {
		inner := make(map[string]string, len(variants))
		for variantID, identifier := range variants {
			inner[strconv.FormatInt(variantID, 10)] = identifier
		}
		reverse[strconv.FormatInt(productID, 10)] = inner
	}
	if _, err := s.products.DeleteMany(ctx, bson.D{}); err != nil {
		return errors.WrapLedger("persist", "", err)
	}
	if _, err := s.products.InsertOne(ctx, reverseDocument{Products: reverse, UpdatedAt: now}); err != nil {
		return errors.WrapLedger("persist", "", err)
	}
	return nil
}
