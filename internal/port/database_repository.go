package port

import (
	"context"

	"github.com/joshsssn/marketplace/internal/core/domain"
)

type UserRepository interface {
	// CreateUser inserts the user and fills in the generated id.
	// Returns a duplicate-key error when username or email is taken.
	CreateUser(ctx context.Context, user *domain.User) error

	// GetUserByID returns nil, nil when no user exists.
	GetUserByID(ctx context.Context, id int64) (*domain.User, error)

	// GetUserByUsername returns nil, nil when no user exists.
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)

	ListUsers(ctx context.Context) ([]domain.User, error)

	// UpdateUser applies the non-nil fields and returns the updated row,
	// or nil, nil when the user does not exist.
	UpdateUser(ctx context.Context, id int64, update domain.UserUpdate) (*domain.User, error)

	// DeleteUser returns false when the user does not exist.
	DeleteUser(ctx context.Context, id int64) (bool, error)

	// UserReferenceCount counts non-removed items owned by the user plus
	// transactions the user is party to, on either side.
	UserReferenceCount(ctx context.Context, id int64) (int, error)

	// SetUserRating overwrites the denormalized aggregate rating.
	SetUserRating(ctx context.Context, id int64, rating float64) error
}

type ItemRepository interface {
	// CreateItem inserts the item and fills in the generated id.
	CreateItem(ctx context.Context, item *domain.Item) error

	// GetItemByID returns nil, nil when no item exists.
	GetItemByID(ctx context.Context, id int64) (*domain.Item, error)

	ListItems(ctx context.Context, filter domain.ItemFilter) ([]domain.Item, error)

	ListItemsBySeller(ctx context.Context, sellerID int64, statuses []domain.ItemStatus) ([]domain.Item, error)

	// UpdateItem applies the non-nil fields and returns the updated row,
	// or nil, nil when the item does not exist.
	UpdateItem(ctx context.Context, id int64, update domain.ItemUpdate) (*domain.Item, error)

	// AveragePriceForKeyword averages prices over items whose name or
	// description match the keyword, any status. Count is 0 when nothing
	// matches.
	AveragePriceForKeyword(ctx context.Context, keyword string) (avg float64, count int, err error)
}

type TransactionRepository interface {
	// CreateTransaction atomically flips the item AVAILABLE -> SOLD and
	// inserts the transaction as one storage transaction, filling in the
	// generated id. Returns ErrItemUnavailable when the conditional status
	// update matches no row, so at most one of any set of concurrent
	// purchases of an item can succeed.
	CreateTransaction(ctx context.Context, tx *domain.Transaction) error

	// GetTransactionByID returns nil, nil when no transaction exists.
	GetTransactionByID(ctx context.Context, id int64) (*domain.Transaction, error)

	// CreateRating inserts the rating and fills in the generated id.
	// Returns a duplicate-key error when the transaction is already rated.
	CreateRating(ctx context.Context, rating *domain.Rating) error

	// SellerAverageScore computes the mean score over all ratings against
	// the seller. Count is 0 when the seller has no ratings.
	SellerAverageScore(ctx context.Context, sellerID int64) (avg float64, count int, err error)
}
