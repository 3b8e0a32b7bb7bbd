package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	domainavailability "haulshare/internal/domain/availability"
	domainschedule "haulshare/internal/domain/schedule"
)

type BlockRepository struct {
	col *mongo.Collection
}

func NewBlockRepository(db *mongo.Database) *BlockRepository {
	col := db.Collection("agg_block")
	idx := mongo.IndexModel{Keys: bson.D{{Key: "asset_id", Value: 1}}}
	_, _ = col.Indexes().CreateOne(context.Background(), idx)
	return &BlockRepository{col: col}
}

func (r *BlockRepository) ByID(ctx context.Context, id string) (*domainavailability.Block, error) {
	var doc blockDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainavailability.ErrBlockNotFound
		}
		return nil, err
	}
	return doc.toBlock()
}

func (r *BlockRepository) Create(ctx context.Context, b *domainavailability.Block) error {
	_, err := r.col.InsertOne(ctx, newBlockDocument(b))
	return err
}

func (r *BlockRepository) Delete(ctx context.Context, id string) error {
	result, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return domainavailability.ErrBlockNotFound
	}
	return nil
}

func (r *BlockRepository) ListByAsset(ctx context.Context, assetID string) ([]*domainavailability.Block, error) {
	cursor, err := r.col.Find(ctx, bson.M{"asset_id": assetID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	out := make([]*domainavailability.Block, 0)
	for cursor.Next(ctx) {
		var doc blockDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		block, err := doc.toBlock()
		if err != nil {
			return nil, err
		}
		out = append(out, block)
	}
	return out, cursor.Err()
}

type blockDocument struct {
	ID        string `bson:"_id"`
	AssetID   string `bson:"asset_id"`
	HostID    string `bson:"host_id"`
	SpanStart int64  `bson:"span_start"`
	SpanEnd   int64  `bson:"span_end"`
	Reason    string `bson:"reason,omitempty"`
	CreatedAt int64  `bson:"created_at"`
}

func newBlockDocument(b *domainavailability.Block) blockDocument {
	return blockDocument{
		ID:        b.ID,
		AssetID:   b.AssetID,
		HostID:    b.HostID,
		SpanStart: b.Span.Start.UnixMilli(),
		SpanEnd:   b.Span.End.UnixMilli(),
		Reason:    b.Reason,
		CreatedAt: b.CreatedAt.UnixMilli(),
	}
}

func (d blockDocument) toBlock() (*domainavailability.Block, error) {
	span, err := domainschedule.NewRanged(millisToTime(d.SpanStart), millisToTime(d.SpanEnd))
	if err != nil {
		return nil, err
	}
	return &domainavailability.Block{
		ID:        d.ID,
		AssetID:   d.AssetID,
		HostID:    d.HostID,
		Span:      span,
		Reason:    d.Reason,
		CreatedAt: millisToTime(d.CreatedAt),
	}, nil
}

var _ domainavailability.BlockRepository = (*BlockRepository)(nil)
