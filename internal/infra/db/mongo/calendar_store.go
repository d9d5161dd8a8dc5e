package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainavailability "homestay/internal/domain/availability"
	domainbooking "homestay/internal/domain/booking"
	"homestay/internal/domain/listings"
	"homestay/internal/domain/shared/daterange"
)

// CalendarStore keeps two collections: the reservation-day ledger written
// under bookings and the host-entered blocked dates. The ledger's unique
// (listing_id, day) index is what turns a double-booking race into a
// duplicate-key error at commit.
type CalendarStore struct {
	reservedCol *mongo.Collection
	blockedCol  *mongo.Collection
}

func NewCalendarStore(db *mongo.Database) *CalendarStore {
	return &CalendarStore{
		reservedCol: db.Collection("calendar_reserved_days"),
		blockedCol:  db.Collection("calendar_blocked_dates"),
	}
}

// EnsureIndexes creates the ledger's uniqueness guard and the lookup
// indexes. Call once at startup, outside any transaction.
func (s *CalendarStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.reservedCol.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "listing_id", Value: 1}, {Key: "day", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "booking_id", Value: 1}},
		},
	})
	if err != nil {
		return err
	}
	_, err = s.blockedCol.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "listing_id", Value: 1}, {Key: "day", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (s *CalendarStore) ReserveDays(ctx context.Context, listingID listings.ListingID, bookingID domainbooking.BookingID, days []time.Time) error {
	if len(days) == 0 {
		return nil
	}
	docs := make([]any, 0, len(days))
	for _, day := range days {
		docs = append(docs, reservedDayDocument{
			ListingID: string(listingID),
			BookingID: string(bookingID),
			Day:       daterange.Day(day).UnixMilli(),
		})
	}
	_, err := s.reservedCol.InsertMany(ctx, docs, options.InsertMany().SetOrdered(true))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domainavailability.ErrDateConflict
		}
		return err
	}
	return nil
}

func (s *CalendarStore) ReleaseDays(ctx context.Context, bookingID domainbooking.BookingID) error {
	_, err := s.reservedCol.DeleteMany(ctx, bson.M{"booking_id": string(bookingID)})
	return err
}

func (s *CalendarStore) BlockDate(ctx context.Context, listingID listings.ListingID, day time.Time) error {
	doc := blockedDateDocument{ListingID: string(listingID), Day: daterange.Day(day).UnixMilli()}
	filter := bson.M{"listing_id": doc.ListingID, "day": doc.Day}
	opts := options.Update().SetUpsert(true)
	_, err := s.blockedCol.UpdateOne(ctx, filter, bson.M{"$set": doc}, opts)
	if mongo.IsDuplicateKeyError(err) {
		return nil
	}
	return err
}

func (s *CalendarStore) UnblockDate(ctx context.Context, listingID listings.ListingID, day time.Time) error {
	filter := bson.M{"listing_id": string(listingID), "day": daterange.Day(day).UnixMilli()}
	_, err := s.blockedCol.DeleteMany(ctx, filter)
	return err
}

func (s *CalendarStore) BlockedDates(ctx context.Context, listingID listings.ListingID, from, to time.Time) ([]time.Time, error) {
	filter := bson.M{"listing_id": string(listingID)}
	bounds := bson.M{}
	if !from.IsZero() {
		bounds["$gte"] = daterange.Day(from).UnixMilli()
	}
	if !to.IsZero() {
		bounds["$lt"] = daterange.Day(to).UnixMilli()
	}
	if len(bounds) > 0 {
		filter["day"] = bounds
	}
	opts := options.Find().SetSort(bson.D{{Key: "day", Value: 1}})
	cursor, err := s.blockedCol.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var out []time.Time
	for cursor.Next(ctx) {
		var doc blockedDateDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, timestampToTime(doc.Day))
	}
	return out, cursor.Err()
}

type reservedDayDocument struct {
	ListingID string `bson:"listing_id"`
	BookingID string `bson:"booking_id"`
	Day       int64  `bson:"day"`
}

type blockedDateDocument struct {
	ListingID string `bson:"listing_id"`
	Day       int64  `bson:"day"`
}

var _ domainavailability.CalendarStore = (*CalendarStore)(nil)
