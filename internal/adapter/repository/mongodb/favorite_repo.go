package mongodb

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/subleasefinder/sublease-client/internal/platform/logger"
)

var ErrEmptyFavoriteKey = errors.New("database: user id and listing id are required")

type FavoriteRepository struct {
	collection *mongo.Collection
	logger     *logger.Logger
}

func NewFavoriteRepository(db *mongo.Database, log *logger.Logger) *FavoriteRepository {
	return &FavoriteRepository{collection: db.Collection("favorites"), logger: log}
}

func (r *FavoriteRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "listing_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

// Toggle flips the (user, listing) favorite and reports the new state.
func (r *FavoriteRepository) Toggle(ctx context.Context, userID, listingID string) (bool, error) {
	if userID == "" || listingID == "" {
		return false, ErrEmptyFavoriteKey
	}
	filter := bson.M{"user_id": userID, "listing_id": listingID}

	res, err := r.collection.DeleteOne(ctx, filter)
	if err != nil {
		r.logger.Error("FavoriteRepository.Toggle: DeleteOne failed", "user_id", userID, "listing_id", listingID, "error", err)
		return false, err
	}
	if res.DeletedCount > 0 {
		r.logger.Debug("FavoriteRepository.Toggle: favorite removed", "user_id", userID, "listing_id", listingID)
		return false, nil
	}

	doc := favoriteDocument{UserID: userID, ListingID: listingID, CreatedAt: time.Now().UTC()}
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		// a concurrent toggle already added it
		if mongo.IsDuplicateKeyError(err) {
			return true, nil
		}
		r.logger.Error("FavoriteRepository.Toggle: InsertOne failed", "user_id", userID, "listing_id", listingID, "error", err)
		return false, err
	}
	r.logger.Debug("FavoriteRepository.Toggle: favorite added", "user_id", userID, "listing_id", listingID)
	return true, nil
}

func (r *FavoriteRepository) ListingIDs(ctx context.Context, userID string) ([]string, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"user_id": userID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []favoriteDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.ListingID)
	}
	return ids, nil
}
