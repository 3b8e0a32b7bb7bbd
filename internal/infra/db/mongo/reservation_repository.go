package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainavailability "haulshare/internal/domain/availability"
	"haulshare/internal/domain/lifecycle"
	domainreservation "haulshare/internal/domain/reservation"
	domainschedule "haulshare/internal/domain/schedule"
	"haulshare/internal/domain/shared/money"
)

// ReservationRepository persists reservations with optimistic versioning.
// Create re-checks the candidate window inside the ambient Mongo transaction,
// so racing inserts for the same asset abort instead of double booking.
type ReservationRepository struct {
	col    *mongo.Collection
	blocks domainavailability.BlockRepository
}

func NewReservationRepository(db *mongo.Database, blocks domainavailability.BlockRepository) *ReservationRepository {
	col := db.Collection("agg_reservation")
	idx := mongo.IndexModel{Keys: bson.D{{Key: "asset_id", Value: 1}, {Key: "state", Value: 1}}}
	_, _ = col.Indexes().CreateOne(context.Background(), idx)
	return &ReservationRepository{col: col, blocks: blocks}
}

func (r *ReservationRepository) ByID(ctx context.Context, id domainreservation.ReservationID) (*domainreservation.Reservation, error) {
	var doc reservationDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainreservation.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate()
}

func (r *ReservationRepository) Create(ctx context.Context, res *domainreservation.Reservation) error {
	existing, err := r.ListByAsset(ctx, res.AssetID)
	if err != nil {
		return err
	}
	var blocks []*domainavailability.Block
	if r.blocks != nil {
		blocks, err = r.blocks.ListByAsset(ctx, res.AssetID)
		if err != nil {
			return err
		}
	}
	if err := domainavailability.Check(existing, blocks, res.Window); err != nil {
		return err
	}
	if res.Version == 0 {
		res.Version = 1
	}
	doc := newReservationDocument(res)
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return err
	}
	return nil
}

func (r *ReservationRepository) Save(ctx context.Context, res *domainreservation.Reservation) error {
	doc := newReservationDocument(res)
	filter := bson.M{"_id": doc.ID, "version": res.Version}
	doc.Version = res.Version + 1
	update := bson.M{"$set": doc}
	result, err := r.col.UpdateOne(ctx, filter, update, options.Update())
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return domainreservation.ErrConcurrentUpdate
	}
	res.Version = doc.Version
	return nil
}

func (r *ReservationRepository) ListByAsset(ctx context.Context, assetID string) ([]*domainreservation.Reservation, error) {
	return r.list(ctx, bson.M{"asset_id": assetID})
}

func (r *ReservationRepository) ListByRenter(ctx context.Context, renterID string) ([]*domainreservation.Reservation, error) {
	return r.list(ctx, bson.M{"renter_id": renterID})
}

func (r *ReservationRepository) list(ctx context.Context, filter bson.M) ([]*domainreservation.Reservation, error) {
	cursor, err := r.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	out := make([]*domainreservation.Reservation, 0)
	for cursor.Next(ctx) {
		var doc reservationDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		agg, err := doc.toAggregate()
		if err != nil {
			return nil, err
		}
		out = append(out, agg)
	}
	return out, cursor.Err()
}

type reservationDocument struct {
	ID           string                                  `bson:"_id"`
	AssetID      string                                  `bson:"asset_id"`
	RenterID     string                                  `bson:"renter_id"`
	HostID       string                                  `bson:"host_id"`
	Granularity  string                                  `bson:"granularity"`
	WindowStart  int64                                   `bson:"window_start"`
	WindowEnd    int64                                   `bson:"window_end"`
	Days         int                                     `bson:"days"`
	Hours        float64                                 `bson:"hours"`
	Pickup       int64                                   `bson:"pickup,omitempty"`
	Return       int64                                   `bson:"return,omitempty"`
	Total        money.Money                             `bson:"total"`
	Notes        string                                  `bson:"notes,omitempty"`
	State        string                                  `bson:"state"`
	History      []lifecycle.HistoryEntry                `bson:"history"`
	Cancellation *domainreservation.CancellationRecord   `bson:"cancellation,omitempty"`
	ApprovedAt   int64                                   `bson:"approved_at,omitempty"`
	PaidAt       int64                                   `bson:"paid_at,omitempty"`
	StartedAt    int64                                   `bson:"started_at,omitempty"`
	ReturnedAt   int64                                   `bson:"returned_at,omitempty"`
	CompletedAt  int64                                   `bson:"completed_at,omitempty"`
	CancelledAt  int64                                   `bson:"cancelled_at,omitempty"`
	CreatedAt    int64                                   `bson:"created_at"`
	UpdatedAt    int64                                   `bson:"updated_at"`
	Version      int64                                   `bson:"version"`
}

func newReservationDocument(res *domainreservation.Reservation) reservationDocument {
	return reservationDocument{
		ID:           string(res.ID),
		AssetID:      res.AssetID,
		RenterID:     res.RenterID,
		HostID:       res.HostID,
		Granularity:  string(res.Window.Granularity),
		WindowStart:  res.Window.Start.UnixMilli(),
		WindowEnd:    res.Window.End.UnixMilli(),
		Days:         res.Days,
		Hours:        res.Hours,
		Pickup:       timeToMillis(res.Pickup),
		Return:       timeToMillis(res.Return),
		Total:        res.Total,
		Notes:        res.Notes,
		State:        string(res.State),
		History:      res.History,
		Cancellation: res.Cancellation,
		ApprovedAt:   timeToMillis(res.ApprovedAt),
		PaidAt:       timeToMillis(res.PaidAt),
		StartedAt:    timeToMillis(res.StartedAt),
		ReturnedAt:   timeToMillis(res.ReturnedAt),
		CompletedAt:  timeToMillis(res.CompletedAt),
		CancelledAt:  timeToMillis(res.CancelledAt),
		CreatedAt:    res.CreatedAt.UnixMilli(),
		UpdatedAt:    res.UpdatedAt.UnixMilli(),
		Version:      res.Version,
	}
}

func (d reservationDocument) toAggregate() (*domainreservation.Reservation, error) {
	window, err := windowFromDocument(d.Granularity, d.WindowStart, d.WindowEnd)
	if err != nil {
		return nil, err
	}
	return &domainreservation.Reservation{
		ID:           domainreservation.ReservationID(d.ID),
		AssetID:      d.AssetID,
		RenterID:     d.RenterID,
		HostID:       d.HostID,
		Window:       window,
		Days:         d.Days,
		Hours:        d.Hours,
		Pickup:       millisToTime(d.Pickup),
		Return:       millisToTime(d.Return),
		Total:        d.Total,
		Notes:        d.Notes,
		State:        lifecycle.State(d.State),
		History:      d.History,
		Cancellation: d.Cancellation,
		ApprovedAt:   millisToTime(d.ApprovedAt),
		PaidAt:       millisToTime(d.PaidAt),
		StartedAt:    millisToTime(d.StartedAt),
		ReturnedAt:   millisToTime(d.ReturnedAt),
		CompletedAt:  millisToTime(d.CompletedAt),
		CancelledAt:  millisToTime(d.CancelledAt),
		CreatedAt:    millisToTime(d.CreatedAt),
		UpdatedAt:    millisToTime(d.UpdatedAt),
		Version:      d.Version,
	}, nil
}

func windowFromDocument(granularity string, startMs, endMs int64) (domainschedule.Interval, error) {
	start := millisToTime(startMs)
	end := millisToTime(endMs)
	switch domainschedule.Granularity(granularity) {
	case domainschedule.GranularityRanged:
		return domainschedule.NewRanged(start, end)
	case domainschedule.GranularityTimed:
		return domainschedule.NewTimed(start, end)
	default:
		return domainschedule.Interval{}, errors.New("mongo: unknown window granularity " + granularity)
	}
}

func timeToMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func millisToTime(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

var _ domainreservation.Repository = (*ReservationRepository)(nil)
