package domain

import "time"

// Transaction binds one buyer to one sold item. SellerID and Price are
// snapshots taken at purchase time; the record is immutable once created.
type Transaction struct {
	ID        int64
	ItemID    int64
	SellerID  int64
	BuyerID   int64
	Price     float64
	CreatedAt time.Time
}

// Rating is the buyer's 1-5 score of a completed transaction. At most one
// rating exists per transaction. RatedID is the seller whose aggregate the
// score feeds into.
type Rating struct {
	ID            int64
	TransactionID int64
	RaterID       int64
	RatedID       int64
	Score         int
	CreatedAt     time.Time
}
