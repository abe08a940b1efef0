package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/subleasefinder/sublease-client/internal/platform/logger"
)

var ErrUserNotFound = errors.New("database: user not found")

// UserRepository remembers listers' contact details for notifications.
type UserRepository struct {
	collection *mongo.Collection
	logger     *logger.Logger
}

func NewUserRepository(db *mongo.Database, log *logger.Logger) *UserRepository {
	return &UserRepository{collection: db.Collection("users"), logger: log}
}

func (r *UserRepository) Upsert(ctx context.Context, id, email, displayName string) error {
	doc := userDocument{ID: id, Email: email, DisplayName: displayName, UpdatedAt: time.Now().UTC()}
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": id}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		r.logger.Error("UserRepository.Upsert: ReplaceOne failed", "user_id", id, "error", err)
		return fmt.Errorf("upsert user %s: %w", id, err)
	}
	return nil
}

func (r *UserRepository) GetEmailByID(ctx context.Context, userID string) (string, error) {
	var doc userDocument
	err := r.collection.FindOne(ctx, bson.M{"_id": userID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			r.logger.Info("UserRepository.GetEmailByID: user not found", "user_id", userID)
			return "", ErrUserNotFound
		}
		r.logger.Error("UserRepository.GetEmailByID: FindOne failed", "user_id", userID, "error", err)
		return "", err
	}
	return doc.Email, nil
}
