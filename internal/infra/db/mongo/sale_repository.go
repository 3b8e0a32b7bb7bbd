package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"haulshare/internal/domain/lifecycle"
	domainsale "haulshare/internal/domain/sale"
	"haulshare/internal/domain/shared/money"
)

type SaleRepository struct {
	col *mongo.Collection
}

func NewSaleRepository(db *mongo.Database) *SaleRepository {
	col := db.Collection("agg_sale")
	idx := mongo.IndexModel{Keys: bson.D{{Key: "asset_id", Value: 1}, {Key: "state", Value: 1}}}
	_, _ = col.Indexes().CreateOne(context.Background(), idx)
	return &SaleRepository{col: col}
}

func (r *SaleRepository) ByID(ctx context.Context, id domainsale.SaleID) (*domainsale.Sale, error) {
	var doc saleDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainsale.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *SaleRepository) Create(ctx context.Context, s *domainsale.Sale) error {
	if s.Version == 0 {
		s.Version = 1
	}
	_, err := r.col.InsertOne(ctx, newSaleDocument(s))
	return err
}

func (r *SaleRepository) Save(ctx context.Context, s *domainsale.Sale) error {
	doc := newSaleDocument(s)
	filter := bson.M{"_id": doc.ID, "version": s.Version}
	doc.Version = s.Version + 1
	result, err := r.col.UpdateOne(ctx, filter, bson.M{"$set": doc}, options.Update())
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return domainsale.ErrConcurrentUpdate
	}
	s.Version = doc.Version
	return nil
}

func (r *SaleRepository) ListByAsset(ctx context.Context, assetID string) ([]*domainsale.Sale, error) {
	cursor, err := r.col.Find(ctx, bson.M{"asset_id": assetID}, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	out := make([]*domainsale.Sale, 0)
	for cursor.Next(ctx) {
		var doc saleDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toAggregate())
	}
	return out, cursor.Err()
}

type saleDocument struct {
	ID              string                   `bson:"_id"`
	AssetID         string                   `bson:"asset_id"`
	BuyerID         string                   `bson:"buyer_id"`
	SellerID        string                   `bson:"seller_id"`
	AskingPrice     money.Money              `bson:"asking_price"`
	OfferAmount     money.Money              `bson:"offer_amount"`
	State           string                   `bson:"state"`
	History         []lifecycle.HistoryEntry `bson:"history"`
	OfferAcceptedAt int64                    `bson:"offer_accepted_at,omitempty"`
	PaidAt          int64                    `bson:"paid_at,omitempty"`
	CompletedAt     int64                    `bson:"completed_at,omitempty"`
	CancelledAt     int64                    `bson:"cancelled_at,omitempty"`
	CreatedAt       int64                    `bson:"created_at"`
	UpdatedAt       int64                    `bson:"updated_at"`
	Version         int64                    `bson:"version"`
}

func newSaleDocument(s *domainsale.Sale) saleDocument {
	return saleDocument{
		ID:              string(s.ID),
		AssetID:         s.AssetID,
		BuyerID:         s.BuyerID,
		SellerID:        s.SellerID,
		AskingPrice:     s.AskingPrice,
		OfferAmount:     s.OfferAmount,
		State:           string(s.State),
		History:         s.History,
		OfferAcceptedAt: timeToMillis(s.OfferAcceptedAt),
		PaidAt:          timeToMillis(s.PaidAt),
		CompletedAt:     timeToMillis(s.CompletedAt),
		CancelledAt:     timeToMillis(s.CancelledAt),
		CreatedAt:       s.CreatedAt.UnixMilli(),
		UpdatedAt:       s.UpdatedAt.UnixMilli(),
		Version:         s.Version,
	}
}

func (d saleDocument) toAggregate() *domainsale.Sale {
	return &domainsale.Sale{
		ID:              domainsale.SaleID(d.ID),
		AssetID:         d.AssetID,
		BuyerID:         d.BuyerID,
		SellerID:        d.SellerID,
		AskingPrice:     d.AskingPrice,
		OfferAmount:     d.OfferAmount,
		State:           lifecycle.State(d.State),
		History:         d.History,
		OfferAcceptedAt: millisToTime(d.OfferAcceptedAt),
		PaidAt:          millisToTime(d.PaidAt),
		CompletedAt:     millisToTime(d.CompletedAt),
		CancelledAt:     millisToTime(d.CancelledAt),
		CreatedAt:       millisToTime(d.CreatedAt),
		UpdatedAt:       millisToTime(d.UpdatedAt),
		Version:         d.Version,
	}
}

var _ domainsale.Repository = (*SaleRepository)(nil)
