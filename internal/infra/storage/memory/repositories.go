package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	domainavailability "haulshare/internal/domain/availability"
	"haulshare/internal/domain/lifecycle"
	domainreservation "haulshare/internal/domain/reservation"
	domainsale "haulshare/internal/domain/sale"
	"haulshare/internal/domain/shared/events"
)

var (
	// ErrDuplicateID is returned when Create sees an id that already exists.
	ErrDuplicateID = errors.New("memory: id already exists")
)

// ReservationRepository stores reservations in memory. Create re-runs the
// conflict test against current state while holding the write lock, so two
// racing requests for the same window cannot both land.
type ReservationRepository struct {
	mu     sync.RWMutex
	items  map[domainreservation.ReservationID]*domainreservation.Reservation
	blocks *BlockRepository
}

// NewReservationRepository builds an empty repository. blocks may be nil when
// host blocks are not in play.
func NewReservationRepository(blocks *BlockRepository) *ReservationRepository {
	return &ReservationRepository{
		items:  make(map[domainreservation.ReservationID]*domainreservation.Reservation),
		blocks: blocks,
	}
}

func (r *ReservationRepository) ByID(ctx context.Context, id domainreservation.ReservationID) (*domainreservation.Reservation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res, ok := r.items[id]
	if !ok {
		return nil, domainreservation.ErrNotFound
	}
	return cloneReservation(res), nil
}

func (r *ReservationRepository) Create(ctx context.Context, res *domainreservation.Reservation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.items[res.ID]; exists {
		return ErrDuplicateID
	}

	existing := make([]*domainreservation.Reservation, 0)
	for _, other := range r.items {
		if other.AssetID == res.AssetID {
			existing = append(existing, other)
		}
	}
	var blocks []*domainavailability.Block
	if r.blocks != nil {
		listed, err := r.blocks.ListByAsset(ctx, res.AssetID)
		if err != nil {
			return err
		}
		blocks = listed
	}
	if err := domainavailability.Check(existing, blocks, res.Window); err != nil {
		return err
	}

	if res.Version == 0 {
		res.Version = 1
	}
	r.items[res.ID] = cloneReservation(res)
	return nil
}

func (r *ReservationRepository) Save(ctx context.Context, res *domainreservation.Reservation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.items[res.ID]
	if !ok {
		return domainreservation.ErrNotFound
	}
	if stored.Version != res.Version {
		return domainreservation.ErrConcurrentUpdate
	}
	res.Version++
	r.items[res.ID] = cloneReservation(res)
	return nil
}

func (r *ReservationRepository) ListByAsset(ctx context.Context, assetID string) ([]*domainreservation.Reservation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := make([]*domainreservation.Reservation, 0)
	for _, res := range r.items {
		if res.AssetID == assetID {
			matches = append(matches, cloneReservation(res))
		}
	}
	sortReservations(matches)
	return matches, nil
}

func (r *ReservationRepository) ListByRenter(ctx context.Context, renterID string) ([]*domainreservation.Reservation, error) {
	id := strings.TrimSpace(renterID)
	if id == "" {
		return nil, errors.New("memory: renter id required")
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := make([]*domainreservation.Reservation, 0)
	for _, res := range r.items {
		if res.RenterID == id {
			matches = append(matches, cloneReservation(res))
		}
	}
	sortReservations(matches)
	return matches, nil
}

func sortReservations(items []*domainreservation.Reservation) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].ID < items[j].ID
		}
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
}

func cloneReservation(res *domainreservation.Reservation) *domainreservation.Reservation {
	if res == nil {
		return nil
	}
	copied := *res
	copied.History = append([]lifecycle.HistoryEntry(nil), res.History...)
	if res.Cancellation != nil {
		record := *res.Cancellation
		copied.Cancellation = &record
	}
	copied.EventRecorder = events.EventRecorder{}
	return &copied
}

// SaleRepository stores sales in memory with compare-and-set saves.
type SaleRepository struct {
	mu    sync.RWMutex
	items map[domainsale.SaleID]*domainsale.Sale
}

func NewSaleRepository() *SaleRepository {
	return &SaleRepository{items: make(map[domainsale.SaleID]*domainsale.Sale)}
}

func (r *SaleRepository) ByID(ctx context.Context, id domainsale.SaleID) (*domainsale.Sale, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.items[id]
	if !ok {
		return nil, domainsale.ErrNotFound
	}
	return cloneSale(s), nil
}

func (r *SaleRepository) Create(ctx context.Context, s *domainsale.Sale) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.items[s.ID]; exists {
		return ErrDuplicateID
	}
	if s.Version == 0 {
		s.Version = 1
	}
	r.items[s.ID] = cloneSale(s)
	return nil
}

func (r *SaleRepository) Save(ctx context.Context, s *domainsale.Sale) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.items[s.ID]
	if !ok {
		return domainsale.ErrNotFound
	}
	if stored.Version != s.Version {
		return domainsale.ErrConcurrentUpdate
	}
	s.Version++
	r.items[s.ID] = cloneSale(s)
	return nil
}

func (r *SaleRepository) ListByAsset(ctx context.Context, assetID string) ([]*domainsale.Sale, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := make([]*domainsale.Sale, 0)
	for _, s := range r.items {
		if s.AssetID == assetID {
			matches = append(matches, cloneSale(s))
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].CreatedAt.Equal(matches[j].CreatedAt) {
			return matches[i].ID < matches[j].ID
		}
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})
	return matches, nil
}

func cloneSale(s *domainsale.Sale) *domainsale.Sale {
	if s == nil {
		return nil
	}
	copied := *s
	copied.History = append([]lifecycle.HistoryEntry(nil), s.History...)
	copied.EventRecorder = events.EventRecorder{}
	return &copied
}

// BlockRepository stores host calendar blocks in memory.
type BlockRepository struct {
	mu    sync.RWMutex
	items map[string]*domainavailability.Block
}

func NewBlockRepository() *BlockRepository {
	return &BlockRepository{items: make(map[string]*domainavailability.Block)}
}

func (r *BlockRepository) ByID(ctx context.Context, id string) (*domainavailability.Block, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.items[id]
	if !ok {
		return nil, domainavailability.ErrBlockNotFound
	}
	copied := *b
	return &copied, nil
}

func (r *BlockRepository) Create(ctx context.Context, b *domainavailability.Block) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.items[b.ID]; exists {
		return ErrDuplicateID
	}
	copied := *b
	r.items[b.ID] = &copied
	return nil
}

func (r *BlockRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return domainavailability.ErrBlockNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *BlockRepository) ListByAsset(ctx context.Context, assetID string) ([]*domainavailability.Block, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := make([]*domainavailability.Block, 0)
	for _, b := range r.items {
		if b.AssetID == assetID {
			copied := *b
			matches = append(matches, &copied)
		}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].ID < matches[j].ID })
	return matches, nil
}

var (
	_ domainreservation.Repository       = (*ReservationRepository)(nil)
	_ domainsale.Repository              = (*SaleRepository)(nil)
	_ domainavailability.BlockRepository = (*BlockRepository)(nil)
)
