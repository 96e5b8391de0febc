package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"bulletin-etl/models"
)

// priceDocument is the stored shape of one record.
type priceDocument struct {
	ID                string     `bson:"_id"`
	Date              *time.Time `bson:"date"`
	DatabaseWriteDate string     `bson:"database_write_date"`
	Location          string     `bson:"location"`
	Page              int        `bson:"page"`
	ItemNames         string     `bson:"item_names"`
	Value             string     `bson:"value"`
	MinValue          int        `bson:"min_value"`
	MaxValue          int        `bson:"max_value"`
}

func toDocument(id string, r models.FinalRecord) priceDocument {
	doc := priceDocument{
		ID:                id,
		DatabaseWriteDate: r.DatabaseWriteDate.String(),
		Location:          r.Location,
		Page:              r.Page,
		ItemNames:         r.ItemName,
		Value:             r.Value,
		MinValue:          r.MinValue,
		MaxValue:          r.MaxValue,
	}
	if r.Date.Valid {
		t := r.Date.Time
		doc.Date = &t
	}
	return doc
}

// MongoWriter upserts every record as its own document.
type MongoWriter struct {
	client *mongo.Client
	prices *mongo.Collection
	newID  func() string
}

func NewMongoWriter(ctx context.Context, uri, database, collection string) (*MongoWriter, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo: connect: %w: %v", models.ErrTransport, err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo: ping: %w: %v", models.ErrTransport, err)
	}

	w := &MongoWriter{
		client: client,
		prices: client.Database(database).Collection(collection),
		newID:  uuid.NewString,
	}

	if err := w.createIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo: create indexes: %w", err)
	}
	return w, nil
}

func (w *MongoWriter) createIndexes(ctx context.Context) error {
	_, err := w.prices.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "date", Value: 1}}},
		{Keys: bson.D{{Key: "item_names", Value: 1}, {Key: "location", Value: 1}}},
	})
	return err
}

func (w *MongoWriter) Write(ctx context.Context, records []models.FinalRecord) error {
	if len(records) == 0 {
		return nil
	}

	writes := make([]mongo.WriteModel, 0, len(records))
	for _, r := range records {
		doc := toDocument(w.newID(), r)
		writes = append(writes, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": doc.ID}).
			SetReplacement(doc).
			SetUpsert(true))
	}

	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	res, err := w.prices.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false))
	if err != nil {
		return fmt.Errorf("mongo: bulk upsert: %w: %v", models.ErrTransport, err)
	}
	if got := res.UpsertedCount + res.MatchedCount; got < int64(len(records)) {
		return fmt.Errorf("mongo: bulk upsert stored %d of %d records", got, len(records))
	}
	return nil
}

func (w *MongoWriter) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return w.client.Disconnect(ctx)
}
