package availability

import (
	"context"
	"errors"
	"time"

	"haulshare/internal/app/commands"
	"haulshare/internal/app/dto"
	"haulshare/internal/app/uow"
	"haulshare/internal/domain/asset"
	domainavailability "haulshare/internal/domain/availability"
	domainschedule "haulshare/internal/domain/schedule"
)

const (
	createBlockKey = "availability.block.create"
	removeBlockKey = "availability.block.remove"
)

var ErrNotHost = errors.New("availability: only the asset host may manage blocks")

// CreateBlockCommand imposes a whole-day exclusion on an asset's calendar,
// unrelated to any reservation.
type CreateBlockCommand struct {
	BlockID   string
	AssetID   string
	ActorID   string
	StartDate string
	EndDate   string
	Reason    string
}

func (c CreateBlockCommand) Key() string { return createBlockKey }

type CreateBlockHandler struct {
	UoWFactory  uow.UoWFactory
	AssetConfig asset.ConfigProvider
}

func (h *CreateBlockHandler) Handle(ctx context.Context, cmd CreateBlockCommand) (*dto.BlockDTO, error) {
	unit, ok := uow.FromContext(ctx)
	managed := false
	committed := false
	if !ok {
		if h.UoWFactory == nil {
			return nil, uow.ErrUnitOfWorkMissing
		}
		var err error
		unit, err = h.UoWFactory.Begin(ctx, uow.TxOptions{})
		if err != nil {
			return nil, err
		}
		ctx = uow.ContextWithUnitOfWork(ctx, unit)
		managed = true
	}
	if managed {
		defer func() {
			if !committed {
				_ = unit.Rollback(ctx)
			}
		}()
	}

	cfg, err := h.AssetConfig.Scheduling(ctx, cmd.AssetID)
	if err != nil {
		return nil, err
	}
	if cmd.ActorID != cfg.HostID {
		return nil, ErrNotHost
	}

	start, err := time.ParseInLocation(time.DateOnly, cmd.StartDate, time.UTC)
	if err != nil {
		return nil, &domainschedule.ValidationError{Field: "start_date", Reason: "must be YYYY-MM-DD"}
	}
	endStr := cmd.EndDate
	if endStr == "" {
		endStr = cmd.StartDate
	}
	end, err := time.ParseInLocation(time.DateOnly, endStr, time.UTC)
	if err != nil {
		return nil, &domainschedule.ValidationError{Field: "end_date", Reason: "must be YYYY-MM-DD"}
	}
	span, err := domainschedule.NewRanged(start, end)
	if err != nil {
		return nil, &domainschedule.ValidationError{Field: "end_date", Reason: "must not be before start date"}
	}

	block := &domainavailability.Block{
		ID:        cmd.BlockID,
		AssetID:   cmd.AssetID,
		HostID:    cmd.ActorID,
		Span:      span,
		Reason:    cmd.Reason,
		CreatedAt: time.Now().UTC(),
	}
	if err := unit.Blocks().Create(ctx, block); err != nil {
		return nil, err
	}

	if managed {
		if err := unit.Commit(ctx); err != nil {
			return nil, err
		}
		committed = true
	}

	mapped := dto.MapBlock(block)
	return &mapped, nil
}

// RemoveBlockCommand deletes a host block; blocks never expire on their own.
type RemoveBlockCommand struct {
	BlockID string
	AssetID string
	ActorID string
}

func (c RemoveBlockCommand) Key() string { return removeBlockKey }

type RemoveBlockResult struct {
	BlockID string `json:"block_id"`
}

type RemoveBlockHandler struct {
	UoWFactory  uow.UoWFactory
	AssetConfig asset.ConfigProvider
}

func (h *RemoveBlockHandler) Handle(ctx context.Context, cmd RemoveBlockCommand) (*RemoveBlockResult, error) {
	unit, ok := uow.FromContext(ctx)
	managed := false
	committed := false
	if !ok {
		if h.UoWFactory == nil {
			return nil, uow.ErrUnitOfWorkMissing
		}
		var err error
		unit, err = h.UoWFactory.Begin(ctx, uow.TxOptions{})
		if err != nil {
			return nil, err
		}
		ctx = uow.ContextWithUnitOfWork(ctx, unit)
		managed = true
	}
	if managed {
		defer func() {
			if !committed {
				_ = unit.Rollback(ctx)
			}
		}()
	}

	cfg, err := h.AssetConfig.Scheduling(ctx, cmd.AssetID)
	if err != nil {
		return nil, err
	}
	if cmd.ActorID != cfg.HostID {
		return nil, ErrNotHost
	}

	block, err := unit.Blocks().ByID(ctx, cmd.BlockID)
	if err != nil {
		return nil, err
	}
	if block.AssetID != cmd.AssetID {
		return nil, domainavailability.ErrBlockNotFound
	}
	if err := unit.Blocks().Delete(ctx, cmd.BlockID); err != nil {
		return nil, err
	}

	if managed {
		if err := unit.Commit(ctx); err != nil {
			return nil, err
		}
		committed = true
	}
	return &RemoveBlockResult{BlockID: cmd.BlockID}, nil
}

var _ commands.Handler[CreateBlockCommand, *dto.BlockDTO] = (*CreateBlockHandler)(nil)
var _ commands.Handler[RemoveBlockCommand, *RemoveBlockResult] = (*RemoveBlockHandler)(nil)
