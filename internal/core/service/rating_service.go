package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/joshsssn/marketplace/internal/core/domain"
	"github.com/joshsssn/marketplace/internal/port"
)

type RatingService struct {
	users port.UserRepository
	txs   port.TransactionRepository
	log   *zap.SugaredLogger
}

func NewRatingService(users port.UserRepository, txs port.TransactionRepository, log *zap.SugaredLogger) *RatingService {
	return &RatingService{users: users, txs: txs, log: log}
}

// Rate records the buyer's score for a transaction and recomputes the
// seller's aggregate. Only the buyer may rate, and only once per
// transaction; the storage-level unique constraint on transaction_id is
// what enforces the once.
func (s *RatingService) Rate(ctx context.Context, callerID, transactionID int64, score int) (*domain.Rating, error) {
	if score < 1 || score > 5 {
		return nil, fmt.Errorf("%w: score must be between 1 and 5", ErrInvalidArgument)
	}

	tx, err := s.txs.GetTransactionByID(ctx, transactionID)
	if err != nil {
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	if tx == nil {
		return nil, fmt.Errorf("%w: transaction %d", ErrNotFound, transactionID)
	}
	if tx.BuyerID != callerID {
		s.log.Warnw("rating rejected, caller is not the buyer",
			"transaction_id", transactionID, "caller_id", callerID)
		return nil, fmt.Errorf("%w: only the buyer may rate transaction %d", ErrForbidden, transactionID)
	}

	rating := &domain.Rating{
		TransactionID: transactionID,
		RaterID:       callerID,
		RatedID:       tx.SellerID,
		Score:         score,
		CreatedAt:     time.Now(),
	}
	if err := s.txs.CreateRating(ctx, rating); err != nil {
		if isDuplicate(err) {
			return nil, fmt.Errorf("%w: transaction %d is already rated", ErrConflict, transactionID)
		}
		return nil, fmt.Errorf("create rating: %w", err)
	}

	// The aggregate is recomputed from all rows on every write.
	avg, count, err := s.txs.SellerAverageScore(ctx, tx.SellerID)
	if err != nil {
		return nil, fmt.Errorf("aggregate seller score: %w", err)
	}
	if count > 0 {
		rounded := math.Round(avg*100) / 100
		if err := s.users.SetUserRating(ctx, tx.SellerID, rounded); err != nil {
			return nil, fmt.Errorf("set seller rating: %w", err)
		}
		s.log.Infow("seller rating recomputed",
			"seller_id", tx.SellerID, "rating", rounded, "count", count)
	}
	return rating, nil
}
