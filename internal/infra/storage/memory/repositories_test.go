package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	domainavailability "haulshare/internal/domain/availability"
	domainreservation "haulshare/internal/domain/reservation"
	domainsale "haulshare/internal/domain/sale"
	"haulshare/internal/domain/schedule"
	"haulshare/internal/domain/shared/money"
)

func rangedWindow(t *testing.T, startDate, endDate string) schedule.Interval {
	t.Helper()
	start, err := time.Parse(time.DateOnly, startDate)
	if err != nil {
		t.Fatal(err)
	}
	end, err := time.Parse(time.DateOnly, endDate)
	if err != nil {
		t.Fatal(err)
	}
	iv, err := schedule.NewRanged(start, end)
	if err != nil {
		t.Fatal(err)
	}
	return iv
}

func storedReservation(id, assetID string, window schedule.Interval, createdAt time.Time) *domainreservation.Reservation {
	return &domainreservation.Reservation{
		ID:        domainreservation.ReservationID(id),
		AssetID:   assetID,
		RenterID:  "renter-1",
		HostID:    "host-1",
		Window:    window,
		Days:      window.Days(),
		Total:     money.Must(10000, "USD"),
		State:     domainreservation.StateRequested,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
}

func TestReservationCreateConflictGuarantee(t *testing.T) {
	ctx := context.Background()
	blocks := NewBlockRepository()
	repo := NewReservationRepository(blocks)

	committed := storedReservation("res-1", "asset-1", rangedWindow(t, "2025-06-10", "2025-06-12"), time.Now())
	committed.State = domainreservation.StatePaid
	if err := repo.Create(ctx, committed); err != nil {
		t.Fatalf("seed create: %v", err)
	}

	t.Run("overlapping window loses at write time", func(t *testing.T) {
		racing := storedReservation("res-2", "asset-1", rangedWindow(t, "2025-06-12", "2025-06-14"), time.Now())
		err := repo.Create(ctx, racing)
		var cerr *domainavailability.ConflictError
		if !errors.As(err, &cerr) {
			t.Fatalf("got %v, want *ConflictError", err)
		}
		if cerr.Kind != domainavailability.ConflictReservation || cerr.BlockingID != "res-1" {
			t.Fatalf("conflict %s/%s, want RESERVATION/res-1", cerr.Kind, cerr.BlockingID)
		}
	})

	t.Run("adjacent window lands", func(t *testing.T) {
		ok := storedReservation("res-3", "asset-1", rangedWindow(t, "2025-06-13", "2025-06-15"), time.Now())
		if err := repo.Create(ctx, ok); err != nil {
			t.Fatalf("create: %v", err)
		}
	})

	t.Run("host block rejects at write time", func(t *testing.T) {
		if err := blocks.Create(ctx, &domainavailability.Block{
			ID: "blk-1", AssetID: "asset-1", HostID: "host-1",
			Span: rangedWindow(t, "2025-07-01", "2025-07-03"),
		}); err != nil {
			t.Fatalf("block create: %v", err)
		}
		blocked := storedReservation("res-4", "asset-1", rangedWindow(t, "2025-07-02", "2025-07-04"), time.Now())
		err := repo.Create(ctx, blocked)
		var cerr *domainavailability.ConflictError
		if !errors.As(err, &cerr) || cerr.Kind != domainavailability.ConflictBlock {
			t.Fatalf("got %v, want BLOCK conflict", err)
		}
	})

	t.Run("other assets are unaffected", func(t *testing.T) {
		other := storedReservation("res-5", "asset-2", rangedWindow(t, "2025-06-10", "2025-06-12"), time.Now())
		if err := other.Apply(domainreservation.StateHostApproved, "", time.Now()); err != nil {
			t.Fatal(err)
		}
		if err := repo.Create(ctx, other); err != nil {
			t.Fatalf("create: %v", err)
		}
	})

	t.Run("duplicate id rejected", func(t *testing.T) {
		dup := storedReservation("res-1", "asset-9", rangedWindow(t, "2025-08-01", "2025-08-02"), time.Now())
		if err := repo.Create(ctx, dup); !errors.Is(err, ErrDuplicateID) {
			t.Fatalf("got %v, want ErrDuplicateID", err)
		}
	})
}

func TestReservationSaveCAS(t *testing.T) {
	ctx := context.Background()
	repo := NewReservationRepository(nil)

	res := storedReservation("res-1", "asset-1", rangedWindow(t, "2025-06-10", "2025-06-12"), time.Now())
	if err := repo.Create(ctx, res); err != nil {
		t.Fatalf("create: %v", err)
	}
	if res.Version != 1 {
		t.Fatalf("Version after create = %d, want 1", res.Version)
	}

	first, err := repo.ByID(ctx, "res-1")
	if err != nil {
		t.Fatalf("ByID: %v", err)
	}
	second, err := repo.ByID(ctx, "res-1")
	if err != nil {
		t.Fatalf("ByID: %v", err)
	}

	if err := first.Apply(domainreservation.StateHostApproved, "", time.Now()); err != nil {
		t.Fatal(err)
	}
	if err := repo.Save(ctx, first); err != nil {
		t.Fatalf("first save: %v", err)
	}
	if first.Version != 2 {
		t.Fatalf("Version after save = %d, want 2", first.Version)
	}

	// The second reader holds version 1, which is now stale.
	if err := second.Cancel("changed my mind", "renter-1", time.Now()); err != nil {
		t.Fatal(err)
	}
	if err := repo.Save(ctx, second); !errors.Is(err, domainreservation.ErrConcurrentUpdate) {
		t.Fatalf("got %v, want ErrConcurrentUpdate", err)
	}

	stored, err := repo.ByID(ctx, "res-1")
	if err != nil {
		t.Fatalf("ByID: %v", err)
	}
	if stored.State != domainreservation.StateHostApproved {
		t.Fatalf("stale write mutated stored state to %s", stored.State)
	}

	t.Run("save of unknown id", func(t *testing.T) {
		ghost := storedReservation("res-ghost", "asset-1", rangedWindow(t, "2025-09-01", "2025-09-02"), time.Now())
		ghost.Version = 1
		if err := repo.Save(ctx, ghost); !errors.Is(err, domainreservation.ErrNotFound) {
			t.Fatalf("got %v, want ErrNotFound", err)
		}
	})
}

func TestReservationCloneIsolation(t *testing.T) {
	ctx := context.Background()
	repo := NewReservationRepository(nil)

	res := storedReservation("res-1", "asset-1", rangedWindow(t, "2025-06-10", "2025-06-12"), time.Now())
	if err := repo.Create(ctx, res); err != nil {
		t.Fatalf("create: %v", err)
	}

	loaded, err := repo.ByID(ctx, "res-1")
	if err != nil {
		t.Fatalf("ByID: %v", err)
	}
	loaded.Notes = "mutated outside the repository"
	loaded.History = append(loaded.History, loaded.History...)

	fresh, err := repo.ByID(ctx, "res-1")
	if err != nil {
		t.Fatalf("ByID: %v", err)
	}
	if fresh.Notes == loaded.Notes {
		t.Fatal("mutating a loaded copy must not leak into the store")
	}
	if len(fresh.History) == len(loaded.History) {
		t.Fatal("history slice must be cloned per read")
	}
}

func TestReservationListOrdering(t *testing.T) {
	ctx := context.Background()
	repo := NewReservationRepository(nil)

	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	r1 := storedReservation("res-a", "asset-1", rangedWindow(t, "2025-06-10", "2025-06-10"), base)
	r2 := storedReservation("res-b", "asset-1", rangedWindow(t, "2025-06-20", "2025-06-20"), base.Add(time.Hour))
	for _, r := range []*domainreservation.Reservation{r1, r2} {
		if err := repo.Create(ctx, r); err != nil {
			t.Fatalf("create %s: %v", r.ID, err)
		}
	}

	byAsset, err := repo.ListByAsset(ctx, "asset-1")
	if err != nil {
		t.Fatalf("ListByAsset: %v", err)
	}
	if len(byAsset) != 2 || byAsset[0].ID != "res-b" {
		t.Fatalf("want newest first, got %v", []domainreservation.ReservationID{byAsset[0].ID, byAsset[1].ID})
	}

	byRenter, err := repo.ListByRenter(ctx, "renter-1")
	if err != nil {
		t.Fatalf("ListByRenter: %v", err)
	}
	if len(byRenter) != 2 {
		t.Fatalf("ListByRenter returned %d items, want 2", len(byRenter))
	}

	if _, err := repo.ListByRenter(ctx, "  "); err == nil {
		t.Fatal("blank renter id must be rejected")
	}
}

func TestSaleSaveCAS(t *testing.T) {
	ctx := context.Background()
	repo := NewSaleRepository()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	sale, err := domainsale.New(domainsale.CreateParams{
		ID: "sale-1", AssetID: "asset-1", BuyerID: "buyer-1", SellerID: "seller-1",
		AskingPrice: money.Must(500000, "USD"), OfferAmount: money.Must(450000, "USD"), Now: now,
	})
	if err != nil {
		t.Fatalf("sale.New: %v", err)
	}
	sale.ClearEvents()
	if err := repo.Create(ctx, sale); err != nil {
		t.Fatalf("create: %v", err)
	}

	first, err := repo.ByID(ctx, "sale-1")
	if err != nil {
		t.Fatalf("ByID: %v", err)
	}
	second, err := repo.ByID(ctx, "sale-1")
	if err != nil {
		t.Fatalf("ByID: %v", err)
	}

	if err := first.Apply(domainsale.StateOfferAccepted, "", now.Add(time.Hour)); err != nil {
		t.Fatal(err)
	}
	if err := repo.Save(ctx, first); err != nil {
		t.Fatalf("first save: %v", err)
	}

	if err := second.Apply(domainsale.StateListed, "declined", now.Add(time.Hour)); err != nil {
		t.Fatal(err)
	}
	if err := repo.Save(ctx, second); !errors.Is(err, domainsale.ErrConcurrentUpdate) {
		t.Fatalf("got %v, want ErrConcurrentUpdate", err)
	}
}

func TestBlockRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewBlockRepository()

	b := &domainavailability.Block{
		ID: "blk-1", AssetID: "asset-1", HostID: "host-1",
		Span: rangedWindow(t, "2025-07-01", "2025-07-03"), Reason: "maintenance",
	}
	if err := repo.Create(ctx, b); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.Create(ctx, b); !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("got %v, want ErrDuplicateID", err)
	}

	got, err := repo.ByID(ctx, "blk-1")
	if err != nil {
		t.Fatalf("ByID: %v", err)
	}
	if got.Reason != "maintenance" {
		t.Fatalf("Reason = %q", got.Reason)
	}

	listed, err := repo.ListByAsset(ctx, "asset-1")
	if err != nil {
		t.Fatalf("ListByAsset: %v", err)
	}
	if len(listed) != 1 {
		t.Fatalf("listed %d blocks, want 1", len(listed))
	}

	if err := repo.Delete(ctx, "blk-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.Delete(ctx, "blk-1"); !errors.Is(err, domainavailability.ErrBlockNotFound) {
		t.Fatalf("got %v, want ErrBlockNotFound", err)
	}
	if _, err := repo.ByID(ctx, "blk-1"); !errors.Is(err, domainavailability.ErrBlockNotFound) {
		t.Fatalf("got %v, want ErrBlockNotFound", err)
	}
}
