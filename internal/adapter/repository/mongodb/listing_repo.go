package mongodb

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/subleasefinder/sublease-client/internal/listing/domain"
	"github.com/subleasefinder/sublease-client/internal/platform/logger"
)

type ListingRepository struct {
	collection *mongo.Collection
	logger     *logger.Logger
}

func NewListingRepository(db *mongo.Database, log *logger.Logger) *ListingRepository {
	return &ListingRepository{collection: db.Collection("listings"), logger: log}
}

func (r *ListingRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "is_active", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "is_active", Value: 1}, {Key: "price", Value: 1}}},
		{Keys: bson.D{{Key: "property_type", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create listing indexes: %w", err)
	}
	return nil
}

// Seed inserts listings when the collection is empty.
func (r *ListingRepository) Seed(ctx context.Context, listings []domain.Listing) error {
	n, err := r.collection.EstimatedDocumentCount(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		r.logger.Debug("ListingRepository.Seed: collection not empty, skipping", "count", n)
		return nil
	}
	docs := make([]interface{}, 0, len(listings))
	for i := range listings {
		docs = append(docs, toListingDocument(&listings[i]))
	}
	if _, err := r.collection.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("seed listings: %w", err)
	}
	r.logger.Info("ListingRepository.Seed: seeded listings", "count", len(docs))
	return nil
}

func (r *ListingRepository) Search(ctx context.Context, q domain.Query) (*domain.ListingResponse, error) {
	filter := buildSearchFilter(q)

	// Distance ordering needs every match; the page is cut in memory.
	if q.SortBy == domain.SortByDistance && q.BBox != nil {
		all, err := r.find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
		if err != nil {
			return nil, err
		}
		q.SortListings(all)
		return q.Page(all), nil
	}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		r.logger.Error("ListingRepository.Search: CountDocuments failed", "error", err)
		return nil, err
	}
	listings, err := r.find(ctx, filter, searchOptions(q))
	if err != nil {
		return nil, err
	}

	end := q.Offset + len(listings)
	resp := &domain.ListingResponse{Listings: listings, Total: int(total), HasMore: int64(end) < total}
	if resp.HasMore {
		cursor := strconv.Itoa(end)
		resp.NextCursor = &cursor
	}
	return resp, nil
}

func (r *ListingRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]domain.Listing, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		r.logger.Error("ListingRepository.find: Find failed", "error", err)
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []*listingDocument
	if err := cursor.All(ctx, &docs); err != nil {
		r.logger.Error("ListingRepository.find: cursor All failed", "error", err)
		return nil, err
	}
	return toDomainListings(docs), nil
}

func (r *ListingRepository) FindByID(ctx context.Context, id string) (*domain.Listing, error) {
	var doc listingDocument
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrListingNotFound
		}
		return nil, err
	}
	l := toDomainListing(&doc)
	return &l, nil
}

func (r *ListingRepository) Insert(ctx context.Context, l *domain.Listing) error {
	if _, err := r.collection.InsertOne(ctx, toListingDocument(l)); err != nil {
		r.logger.Error("ListingRepository.Insert: InsertOne failed", "listing_id", l.ID, "error", err)
		return err
	}
	return nil
}

func (r *ListingRepository) Update(ctx context.Context, l *domain.Listing) error {
	res, err := r.collection.ReplaceOne(ctx, bson.M{"_id": l.ID}, toListingDocument(l))
	if err != nil {
		r.logger.Error("ListingRepository.Update: ReplaceOne failed", "listing_id", l.ID, "error", err)
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrListingNotFound
	}
	return nil
}

// buildSearchFilter mirrors domain.Query.Matches.
func buildSearchFilter(q domain.Query) bson.M {
	and := bson.A{bson.M{"is_active": true}}

	if q.BBox != nil {
		and = append(and,
			bson.M{"latitude": bson.M{"$gte": q.BBox.South, "$lte": q.BBox.North}},
			bson.M{"longitude": bson.M{"$gte": q.BBox.West, "$lte": q.BBox.East}},
		)
	}
	if q.SearchText != "" {
		re := textPattern(q.SearchText)
		and = append(and, bson.M{"$or": bson.A{
			bson.M{"title": re},
			bson.M{"description": re},
			bson.M{"location": re},
		}})
	}
	if q.PriceMin != nil {
		and = append(and, bson.M{"price": bson.M{"$gte": *q.PriceMin}})
	}
	if q.PriceMax != nil {
		and = append(and, bson.M{"price": bson.M{"$lte": *q.PriceMax}})
	}
	if q.Bedrooms != nil {
		and = append(and, bson.M{"bedrooms": bson.M{"$gte": *q.Bedrooms}})
	}
	if q.PropertyType != "" {
		and = append(and, bson.M{"property_type": string(q.PropertyType)})
	}
	for _, d := range []*time.Time{q.StartDate, q.EndDate} {
		if d == nil {
			continue
		}
		and = append(and,
			bson.M{"start_date": bson.M{"$lte": d.UTC()}},
			bson.M{"end_date": bson.M{"$gte": d.UTC()}},
		)
	}
	return bson.M{"$and": and}
}

func searchOptions(q domain.Query) *options.FindOptions {
	dir := -1
	if q.SortOrder == domain.SortAsc {
		dir = 1
	}
	field := "created_at"
	if q.SortBy == domain.SortByPrice {
		field = "price"
	}
	limit := q.Limit
	if limit <= 0 {
		limit = domain.DefaultSearchLimit
	}
	return options.Find().
		SetSort(bson.D{{Key: field, Value: dir}, {Key: "_id", Value: 1}}).
		SetSkip(int64(q.Offset)).
		SetLimit(int64(limit))
}

func textPattern(text string) bson.M {
	return bson.M{"$regex": regexp.QuoteMeta(text), "$options": "i"}
}
