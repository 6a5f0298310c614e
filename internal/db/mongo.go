package db

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"hotlist_spider/internal/config"
	"hotlist_spider/internal/models"
)

type MongoDB struct {
	client   *mongo.Client
	database *mongo.Database
	items    *mongo.Collection
	timeout  time.Duration
	now      func() time.Time
}

func NewMongoDB(ctx context.Context, cfg config.DBConfig) (*MongoDB, error) {
	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.Connection))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("can't ping MongoDB: %w", err)
	}

	database := client.Database(cfg.Database)
	d := &MongoDB{
		client:   client,
		database: database,
		items:    database.Collection(cfg.Collections.Items),
		timeout:  timeout,
		now:      time.Now,
	}

	if err := d.createIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("can't create indexes: %w", err)
	}

	log.Info().Str("database", cfg.Database).Str("collection", cfg.Collections.Items).Msg("connected to MongoDB")
	return d, nil
}

func (d *MongoDB) createIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	_, err := d.items.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: models.FieldQuestionID, Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: models.FieldCreatedTime, Value: -1}},
		},
	})
	return err
}

// upsertUpdate names every non-identity field explicitly so an update never
// touches _id, question_id or created_time of an existing document.
func upsertUpdate(item models.HotListItem, now time.Time) bson.M {
	return bson.M{
		"$set": bson.M{
			models.FieldTitle:         item.Title,
			models.FieldExcerpt:       item.Excerpt,
			models.FieldURL:           item.URL,
			models.FieldHotIndex:      item.HotIndex,
			models.FieldAnswerCount:   item.AnswerCount,
			models.FieldFollowerCount: item.FollowerCount,
			models.FieldUpdatedTime:   now,
		},
		"$setOnInsert": bson.M{
			models.FieldCreatedTime: now,
		},
	}
}

// SaveItems upserts items by question id. A failing item is logged and
// skipped; the returned count covers the items that were written.
func (d *MongoDB) SaveItems(ctx context.Context, items []models.HotListItem) (int, error) {
	opts := options.Update().SetUpsert(true)
	saved := 0

	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return saved, err
		}

		opCtx, cancel := context.WithTimeout(ctx, d.timeout)
		filter := bson.M{models.FieldQuestionID: item.QuestionID}
		_, err := d.items.UpdateOne(opCtx, filter, upsertUpdate(item, d.now()), opts)
		cancel()

		if err != nil {
			log.Error().Err(err).Str("question_id", item.QuestionID).Msg("failed to save item")
			continue
		}
		saved++
	}

	log.Info().Int("saved", saved).Int("total", len(items)).Msg("saved items")
	return saved, nil
}

func (d *MongoDB) RecentItems(ctx context.Context, limit int) ([]models.HotListItem, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: models.FieldCreatedTime, Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := d.items.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find recent items: %w", err)
	}
	defer cursor.Close(ctx)

	items := []models.HotListItem{}
	if err := cursor.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("decode recent items: %w", err)
	}
	return items, nil
}

func (d *MongoDB) DeleteOlderThan(ctx context.Context, days int) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	cutoff := d.now().Add(-time.Duration(days) * 24 * time.Hour)
	res, err := d.items.DeleteMany(ctx, bson.M{
		models.FieldCreatedTime: bson.M{"$lt": cutoff},
	})
	if err != nil {
		return 0, fmt.Errorf("delete items older than %d days: %w", days, err)
	}

	log.Info().Int64("deleted", res.DeletedCount).Int("days", days).Msg("purged old items")
	return res.DeletedCount, nil
}

func (d *MongoDB) Stats(ctx context.Context) (models.Summary, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "total_count", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "avg_hot_index", Value: bson.D{{Key: "$avg", Value: "$" + models.FieldHotIndex}}},
			{Key: "max_hot_index", Value: bson.D{{Key: "$max", Value: "$" + models.FieldHotIndex}}},
			{Key: "min_hot_index", Value: bson.D{{Key: "$min", Value: "$" + models.FieldHotIndex}}},
		}}},
	}

	cursor, err := d.items.Aggregate(ctx, pipeline)
	if err != nil {
		return models.Summary{}, fmt.Errorf("aggregate stats: %w", err)
	}
	defer cursor.Close(ctx)

	var results []models.Summary
	if err := cursor.All(ctx, &results); err != nil {
		return models.Summary{}, fmt.Errorf("decode stats: %w", err)
	}

	summary := models.Summary{}
	if len(results) > 0 {
		summary = results[0]
	}
	summary.Timestamp = d.now()
	return summary, nil
}

func (d *MongoDB) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()
	return d.client.Disconnect(ctx)
}
