package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/joshsssn/marketplace/internal/core/domain"
	"github.com/joshsssn/marketplace/internal/port"
)

type PurchaseService struct {
	items port.ItemRepository
	txs   port.TransactionRepository
	cache port.CacheRepository
	log   *zap.SugaredLogger
}

func NewPurchaseService(items port.ItemRepository, txs port.TransactionRepository, cache port.CacheRepository, log *zap.SugaredLogger) *PurchaseService {
	return &PurchaseService{items: items, txs: txs, cache: cache, log: log}
}

// Purchase moves an AVAILABLE item to SOLD and records the transaction.
// The status flip and the transaction insert happen atomically in the
// storage layer; of any number of concurrent purchases of one item exactly
// one succeeds and the rest fail with ErrConflict. The transaction
// snapshots the seller and price at sale time.
func (s *PurchaseService) Purchase(ctx context.Context, buyerID, itemID int64) (*domain.Transaction, error) {
	idempotencyKey := fmt.Sprintf("purchase:%d:%d", buyerID, itemID)

	ok, err := s.cache.SetIdempotency(ctx, idempotencyKey)
	if err != nil {
		return nil, fmt.Errorf("idempotency check failed: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: purchase already submitted", ErrConflict)
	}

	tx, err := s.purchase(ctx, buyerID, itemID)
	if err != nil {
		// Release the key so the buyer is not locked out after a
		// failed attempt.
		if clearErr := s.cache.ClearIdempotency(ctx, idempotencyKey); clearErr != nil {
			s.log.Errorw("failed to release idempotency key", "key", idempotencyKey, "error", clearErr)
		}
		return nil, err
	}

	s.log.Infow("item purchased",
		"transaction_id", tx.ID, "item_id", itemID, "buyer_id", buyerID, "seller_id", tx.SellerID)
	return tx, nil
}

func (s *PurchaseService) purchase(ctx context.Context, buyerID, itemID int64) (*domain.Transaction, error) {
	item, err := s.items.GetItemByID(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	if item == nil {
		return nil, fmt.Errorf("%w: item %d", ErrNotFound, itemID)
	}
	if item.Status != domain.ItemStatusAvailable {
		return nil, fmt.Errorf("%w: item %d is %s", ErrConflict, itemID, item.Status)
	}
	if item.OwnerID == buyerID {
		return nil, fmt.Errorf("%w: cannot purchase your own item", ErrInvalidArgument)
	}

	tx := &domain.Transaction{
		ItemID:    itemID,
		SellerID:  item.OwnerID,
		BuyerID:   buyerID,
		Price:     item.Price,
		CreatedAt: time.Now(),
	}
	if err := s.txs.CreateTransaction(ctx, tx); err != nil {
		// Lost the race: the status changed between our read and the
		// conditional update, whether sold to someone else or removed
		// by the owner.
		if errors.Is(err, port.ErrItemUnavailable) {
			return nil, fmt.Errorf("%w: item %d is no longer available", ErrConflict, itemID)
		}
		return nil, fmt.Errorf("create transaction: %w", err)
	}
	return tx, nil
}

// GetTransaction loads a transaction. Only a party to the transaction or an
// admin may read it.
func (s *PurchaseService) GetTransaction(ctx context.Context, caller *domain.User, id int64) (*domain.Transaction, error) {
	if caller == nil {
		return nil, fmt.Errorf("%w: no caller", ErrUnauthorized)
	}
	tx, err := s.txs.GetTransactionByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	if tx == nil {
		return nil, fmt.Errorf("%w: transaction %d", ErrNotFound, id)
	}
	if tx.BuyerID != caller.ID && tx.SellerID != caller.ID && !caller.IsAdmin() {
		return nil, fmt.Errorf("%w: not a party to transaction %d", ErrForbidden, id)
	}
	return tx, nil
}
