package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainbooking "homestay/internal/domain/booking"
	"homestay/internal/domain/listings"
	domainpricing "homestay/internal/domain/pricing"
	"homestay/internal/domain/shared/daterange"
	"homestay/internal/domain/shared/money"
)

var ErrConcurrentUpdate = errors.New("mongo: concurrent update detected")

type BookingRepository struct {
	col *mongo.Collection
}

func NewBookingRepository(db *mongo.Database) *BookingRepository {
	return &BookingRepository{col: db.Collection("agg_booking")}
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	var doc bookingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainbooking.ErrBookingNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	doc := newBookingDocument(b)
	filter := bson.M{"_id": doc.ID, "version": b.Version}
	doc.Version = b.Version + 1
	update := bson.M{"$set": doc}
	opts := options.Update().SetUpsert(true)
	res, err := r.col.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrConcurrentUpdate
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return ErrConcurrentUpdate
	}
	b.Version = doc.Version
	return nil
}

func (r *BookingRepository) Delete(ctx context.Context, id domainbooking.BookingID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": string(id)})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domainbooking.ErrBookingNotFound
	}
	return nil
}

func (r *BookingRepository) ListByGuest(ctx context.Context, guestID string) ([]*domainbooking.Booking, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.col.Find(ctx, bson.M{"guest_id": guestID}, opts)
	if err != nil {
		return nil, err
	}
	return decodeBookings(ctx, cursor)
}

func (r *BookingRepository) ListByListing(ctx context.Context, listingID listings.ListingID, from, to time.Time, states []domainbooking.State) ([]*domainbooking.Booking, error) {
	filter := bson.M{"listing_id": string(listingID)}
	if len(states) > 0 {
		values := make([]string, 0, len(states))
		for _, s := range states {
			values = append(values, string(s))
		}
		filter["state"] = bson.M{"$in": values}
	}
	// Half-open overlap: checkIn < to && checkOut > from.
	if !to.IsZero() {
		filter["range.check_in"] = bson.M{"$lt": to.UnixMilli()}
	}
	if !from.IsZero() {
		filter["range.check_out"] = bson.M{"$gt": from.UnixMilli()}
	}
	opts := options.Find().SetSort(bson.D{{Key: "range.check_in", Value: 1}})
	cursor, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	return decodeBookings(ctx, cursor)
}

func decodeBookings(ctx context.Context, cursor *mongo.Cursor) ([]*domainbooking.Booking, error) {
	defer cursor.Close(ctx)
	var out []*domainbooking.Booking
	for cursor.Next(ctx) {
		var doc bookingDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toAggregate())
	}
	return out, cursor.Err()
}

type bookingDocument struct {
	ID        string        `bson:"_id"`
	ListingID string        `bson:"listing_id"`
	GuestID   string        `bson:"guest_id"`
	Range     rangeDocument `bson:"range"`
	Guests    int           `bson:"guests"`
	Price     priceDocument `bson:"price"`
	State     string        `bson:"state"`
	Reviewed  bool          `bson:"reviewed"`
	CreatedAt int64         `bson:"created_at"`
	UpdatedAt int64         `bson:"updated_at"`
	Version   int64         `bson:"version"`
}

func newBookingDocument(b *domainbooking.Booking) bookingDocument {
	return bookingDocument{
		ID:        string(b.ID),
		ListingID: string(b.ListingID),
		GuestID:   b.GuestID,
		Range:     rangeDocument{CheckIn: b.Range.CheckIn.UnixMilli(), CheckOut: b.Range.CheckOut.UnixMilli()},
		Guests:    b.Guests,
		Price:     newPriceDocument(b.Price),
		State:     string(b.State),
		Reviewed:  b.Reviewed,
		CreatedAt: b.CreatedAt.UnixMilli(),
		UpdatedAt: b.UpdatedAt.UnixMilli(),
		Version:   b.Version,
	}
}

func (d bookingDocument) toAggregate() *domainbooking.Booking {
	dr := daterange.DateRange{CheckIn: timestampToTime(d.Range.CheckIn), CheckOut: timestampToTime(d.Range.CheckOut)}
	return &domainbooking.Booking{
		ID:        domainbooking.BookingID(d.ID),
		ListingID: listings.ListingID(d.ListingID),
		GuestID:   d.GuestID,
		Range:     dr,
		Guests:    d.Guests,
		Price:     d.Price.toBreakdown(),
		State:     domainbooking.State(d.State),
		Reviewed:  d.Reviewed,
		CreatedAt: timestampToTime(d.CreatedAt),
		UpdatedAt: timestampToTime(d.UpdatedAt),
		Version:   d.Version,
	}
}

type rangeDocument struct {
	CheckIn  int64 `bson:"check_in"`
	CheckOut int64 `bson:"check_out"`
}

type priceDocument struct {
	Nights          int    `bson:"nights"`
	Currency        string `bson:"currency"`
	NightlyCents    int64  `bson:"nightly_cents"`
	SubtotalCents   int64  `bson:"subtotal_cents"`
	ServiceFeeCents int64  `bson:"service_fee_cents"`
	TotalCents      int64  `bson:"total_cents"`
}

func newPriceDocument(b domainpricing.Breakdown) priceDocument {
	return priceDocument{
		Nights:          b.Nights,
		Currency:        b.Total.Currency,
		NightlyCents:    b.Nightly.Amount,
		SubtotalCents:   b.Subtotal.Amount,
		ServiceFeeCents: b.ServiceFee.Amount,
		TotalCents:      b.Total.Amount,
	}
}

func (d priceDocument) toBreakdown() domainpricing.Breakdown {
	return domainpricing.Breakdown{
		Nights:     d.Nights,
		Nightly:    money.Money{Amount: d.NightlyCents, Currency: d.Currency},
		Subtotal:   money.Money{Amount: d.SubtotalCents, Currency: d.Currency},
		ServiceFee: money.Money{Amount: d.ServiceFeeCents, Currency: d.Currency},
		Total:      money.Money{Amount: d.TotalCents, Currency: d.Currency},
	}
}

func timestampToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
