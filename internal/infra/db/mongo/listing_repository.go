package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"homestay/internal/domain/listings"
)

type ListingRepository struct {
	col *mongo.Collection
}

func NewListingRepository(db *mongo.Database) *ListingRepository {
	return &ListingRepository{col: db.Collection("agg_listing")}
}

func (r *ListingRepository) ByID(ctx context.Context, id listings.ListingID) (*listings.Listing, error) {
	var doc listingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, listings.ErrListingNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *ListingRepository) Save(ctx context.Context, l *listings.Listing) error {
	doc := newListingDocument(l)
	opts := options.Update().SetUpsert(true)
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": doc.ID}, bson.M{"$set": doc}, opts)
	return err
}

type listingDocument struct {
	ID               string `bson:"_id"`
	HostID           string `bson:"host_id"`
	Title            string `bson:"title"`
	NightlyRateCents int64  `bson:"nightly_rate_cents"`
	Currency         string `bson:"currency"`
	GuestsLimit      int    `bson:"guests_limit"`
	State            string `bson:"state"`
}

func newListingDocument(l *listings.Listing) listingDocument {
	return listingDocument{
		ID:               string(l.ID),
		HostID:           string(l.Host),
		Title:            l.Title,
		NightlyRateCents: l.NightlyRateCents,
		Currency:         l.Currency,
		GuestsLimit:      l.GuestsLimit,
		State:            string(l.State),
	}
}

func (d listingDocument) toAggregate() *listings.Listing {
	return &listings.Listing{
		ID:               listings.ListingID(d.ID),
		Host:             listings.HostID(d.HostID),
		Title:            d.Title,
		NightlyRateCents: d.NightlyRateCents,
		Currency:         d.Currency,
		GuestsLimit:      d.GuestsLimit,
		State:            listings.ListingState(d.State),
	}
}
