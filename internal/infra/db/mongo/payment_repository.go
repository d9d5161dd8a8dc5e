package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainbooking "homestay/internal/domain/booking"
	domainpayments "homestay/internal/domain/payments"
)

type PaymentRepository struct {
	col *mongo.Collection
}

func NewPaymentRepository(db *mongo.Database) *PaymentRepository {
	return &PaymentRepository{col: db.Collection("agg_payment")}
}

func (r *PaymentRepository) ByBookingID(ctx context.Context, id domainbooking.BookingID) (*domainpayments.Payment, error) {
	return r.findOne(ctx, bson.M{"booking_id": string(id)})
}

func (r *PaymentRepository) BySessionID(ctx context.Context, sessionID string) (*domainpayments.Payment, error) {
	return r.findOne(ctx, bson.M{"session_id": sessionID})
}

func (r *PaymentRepository) ByPaymentIntentID(ctx context.Context, intentID string) (*domainpayments.Payment, error) {
	return r.findOne(ctx, bson.M{"payment_intent_id": intentID})
}

func (r *PaymentRepository) findOne(ctx context.Context, filter bson.M) (*domainpayments.Payment, error) {
	var doc paymentDocument
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainpayments.ErrPaymentNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *PaymentRepository) Save(ctx context.Context, p *domainpayments.Payment) error {
	doc := newPaymentDocument(p)
	opts := options.Update().SetUpsert(true)
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": doc.ID}, bson.M{"$set": doc}, opts)
	return err
}

func (r *PaymentRepository) DeleteByBookingID(ctx context.Context, id domainbooking.BookingID) error {
	_, err := r.col.DeleteMany(ctx, bson.M{"booking_id": string(id)})
	return err
}

type paymentDocument struct {
	ID              string `bson:"_id"`
	BookingID       string `bson:"booking_id"`
	SessionID       string `bson:"session_id"`
	PaymentIntentID string `bson:"payment_intent_id"`
	Status          string `bson:"status"`
	AmountCents     int64  `bson:"amount_cents"`
	Currency        string `bson:"currency"`
	CreatedAt       int64  `bson:"created_at"`
	UpdatedAt       int64  `bson:"updated_at"`
}

func newPaymentDocument(p *domainpayments.Payment) paymentDocument {
	return paymentDocument{
		ID:              string(p.ID),
		BookingID:       string(p.BookingID),
		SessionID:       p.SessionID,
		PaymentIntentID: p.PaymentIntentID,
		Status:          string(p.Status),
		AmountCents:     p.AmountCents,
		Currency:        p.Currency,
		CreatedAt:       p.CreatedAt.UnixMilli(),
		UpdatedAt:       p.UpdatedAt.UnixMilli(),
	}
}

func (d paymentDocument) toAggregate() *domainpayments.Payment {
	return &domainpayments.Payment{
		ID:              domainpayments.PaymentID(d.ID),
		BookingID:       domainbooking.BookingID(d.BookingID),
		SessionID:       d.SessionID,
		PaymentIntentID: d.PaymentIntentID,
		Status:          domainpayments.Status(d.Status),
		AmountCents:     d.AmountCents,
		Currency:        d.Currency,
		CreatedAt:       timestampToTime(d.CreatedAt),
		UpdatedAt:       timestampToTime(d.UpdatedAt),
	}
}
