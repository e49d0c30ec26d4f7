package service

import (
	"context"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/joshsssn/marketplace/internal/core/domain"
	"github.com/joshsssn/marketplace/internal/port"
)

type ItemService struct {
	items port.ItemRepository
	log   *zap.SugaredLogger
}

func NewItemService(items port.ItemRepository, log *zap.SugaredLogger) *ItemService {
	return &ItemService{items: items, log: log}
}

type ItemCreateInput struct {
	Name        string
	Description string
	Price       float64
}

// Create lists a new item owned by the caller. Status is always AVAILABLE;
// callers cannot choose it.
func (s *ItemService) Create(ctx context.Context, caller *domain.User, in ItemCreateInput) (*domain.Item, error) {
	if caller == nil {
		return nil, fmt.Errorf("%w: no caller", ErrUnauthorized)
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: item name is required", ErrInvalidArgument)
	}
	if in.Price < 0 {
		return nil, fmt.Errorf("%w: price must be non-negative", ErrInvalidArgument)
	}

	item := &domain.Item{
		Name:        name,
		Description: in.Description,
		Price:       in.Price,
		OwnerID:     caller.ID,
		Status:      domain.ItemStatusAvailable,
	}
	if err := s.items.CreateItem(ctx, item); err != nil {
		return nil, fmt.Errorf("create item: %w", err)
	}
	s.log.Infow("item listed", "item_id", item.ID, "owner_id", caller.ID, "price", item.Price)
	return item, nil
}

// Update applies a partial update. Only the owner or an admin may update.
// Through this path the status may only move between AVAILABLE and REMOVED;
// SOLD is reachable solely via purchase, and a SOLD item stays SOLD.
func (s *ItemService) Update(ctx context.Context, caller *domain.User, id int64, update domain.ItemUpdate) (*domain.Item, error) {
	if caller == nil {
		return nil, fmt.Errorf("%w: no caller", ErrUnauthorized)
	}
	item, err := s.items.GetItemByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	if item == nil {
		return nil, fmt.Errorf("%w: item %d", ErrNotFound, id)
	}
	if item.OwnerID != caller.ID && !caller.IsAdmin() {
		return nil, fmt.Errorf("%w: cannot update item %d", ErrForbidden, id)
	}

	if update.Price != nil && *update.Price < 0 {
		return nil, fmt.Errorf("%w: price must be non-negative", ErrInvalidArgument)
	}
	if update.Name != nil && strings.TrimSpace(*update.Name) == "" {
		return nil, fmt.Errorf("%w: item name cannot be empty", ErrInvalidArgument)
	}
	if update.Status != nil {
		next := *update.Status
		if !next.Valid() {
			return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidArgument, next)
		}
		if next == domain.ItemStatusSold {
			return nil, fmt.Errorf("%w: SOLD is set by purchase only", ErrInvalidArgument)
		}
		if item.Status == domain.ItemStatusSold && next != item.Status {
			return nil, fmt.Errorf("%w: item %d is sold", ErrConflict, id)
		}
	}

	updated, err := s.items.UpdateItem(ctx, id, update)
	if err != nil {
		return nil, fmt.Errorf("update item: %w", err)
	}
	if updated == nil {
		return nil, fmt.Errorf("%w: item %d", ErrNotFound, id)
	}
	return updated, nil
}

// List returns items matching the filter. Unless the filter names statuses
// explicitly only AVAILABLE items are returned.
func (s *ItemService) List(ctx context.Context, filter domain.ItemFilter) ([]domain.Item, error) {
	if filter.MinPrice != nil && *filter.MinPrice < 0 {
		return nil, fmt.Errorf("%w: min_price must be non-negative", ErrInvalidArgument)
	}
	if filter.MaxPrice != nil && *filter.MaxPrice < 0 {
		return nil, fmt.Errorf("%w: max_price must be non-negative", ErrInvalidArgument)
	}
	if filter.MinPrice != nil && filter.MaxPrice != nil && *filter.MinPrice > *filter.MaxPrice {
		return nil, fmt.Errorf("%w: min_price exceeds max_price", ErrInvalidArgument)
	}
	if len(filter.Statuses) == 0 {
		filter.Statuses = []domain.ItemStatus{domain.ItemStatusAvailable}
	}
	items, err := s.items.ListItems(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return items, nil
}

// ListBySeller returns a seller's items. The seller themselves and admins
// see every status; everyone else sees the non-removed ones.
func (s *ItemService) ListBySeller(ctx context.Context, caller *domain.User, sellerID int64) ([]domain.Item, error) {
	statuses := []domain.ItemStatus{domain.ItemStatusAvailable, domain.ItemStatusSold}
	if caller != nil && (caller.ID == sellerID || caller.IsAdmin()) {
		statuses = nil // all
	}
	items, err := s.items.ListItemsBySeller(ctx, sellerID, statuses)
	if err != nil {
		return nil, fmt.Errorf("list items by seller: %w", err)
	}
	return items, nil
}

// SuggestPrice estimates a listing price for a title from comparable items
// already in the catalog: the averages for each title word are combined,
// weighted by how many listings matched the word.
func (s *ItemService) SuggestPrice(ctx context.Context, title string) (float64, int, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return 0, 0, fmt.Errorf("%w: title is required", ErrInvalidArgument)
	}

	var weightedSum float64
	var total int
	for _, word := range strings.Fields(title) {
		if len(word) < 3 {
			continue
		}
		avg, count, err := s.items.AveragePriceForKeyword(ctx, word)
		if err != nil {
			return 0, 0, fmt.Errorf("average price for %q: %w", word, err)
		}
		weightedSum += avg * float64(count)
		total += count
	}
	if total == 0 {
		return 0, 0, fmt.Errorf("%w: no comparable listings for %q", ErrNotFound, title)
	}
	return math.Round(weightedSum/float64(total)*100) / 100, total, nil
}
