package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/joshsssn/marketplace/internal/core/domain"
	"github.com/joshsssn/marketplace/internal/port"
)

func testLogger() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

// mockStore is a mutex-guarded in-memory stand-in for the MySQL adapter.
// CreateTransaction performs the same compare-and-swap on item status the
// real adapter gets from its conditional UPDATE.
type mockStore struct {
	mu      sync.Mutex
	users   map[int64]*domain.User
	items   map[int64]*domain.Item
	txs     map[int64]*domain.Transaction
	ratings map[int64]*domain.Rating
	nextID  int64
}

func newMockStore() *mockStore {
	return &mockStore{
		users:   make(map[int64]*domain.User),
		items:   make(map[int64]*domain.Item),
		txs:     make(map[int64]*domain.Transaction),
		ratings: make(map[int64]*domain.Rating),
	}
}

func (m *mockStore) id() int64 {
	m.nextID++
	return m.nextID
}

// --- seeding helpers ---

func (m *mockStore) addUser(username string, role domain.Role) *domain.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := &domain.User{
		ID:           m.id(),
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "hashed:secret",
		Role:         role,
	}
	m.users[u.ID] = u
	clone := *u
	return &clone
}

func (m *mockStore) addItem(ownerID int64, name, description string, price float64, status domain.ItemStatus) *domain.Item {
	m.mu.Lock()
	defer m.mu.Unlock()
	it := &domain.Item{
		ID:          m.id(),
		Name:        name,
		Description: description,
		Price:       price,
		OwnerID:     ownerID,
		Status:      status,
	}
	m.items[it.ID] = it
	clone := *it
	return &clone
}

// --- port.UserRepository ---

func (m *mockStore) CreateUser(ctx context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == user.Username || u.Email == user.Email {
			return port.ErrDuplicateKey
		}
	}
	user.ID = m.id()
	clone := *user
	m.users[user.ID] = &clone
	return nil
}

func (m *mockStore) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	clone := *u
	return &clone, nil
}

func (m *mockStore) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			clone := *u
			return &clone, nil
		}
	}
	return nil, nil
}

func (m *mockStore) ListUsers(ctx context.Context) ([]domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.User
	for _, u := range m.users {
		out = append(out, *u)
	}
	return out, nil
}

func (m *mockStore) UpdateUser(ctx context.Context, id int64, update domain.UserUpdate) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	if update.Username != nil {
		for otherID, other := range m.users {
			if otherID != id && other.Username == *update.Username {
				return nil, port.ErrDuplicateKey
			}
		}
		u.Username = *update.Username
	}
	if update.FullName != nil {
		u.FullName = *update.FullName
	}
	if update.Email != nil {
		u.Email = *update.Email
	}
	if update.PasswordHash != nil {
		u.PasswordHash = *update.PasswordHash
	}
	clone := *u
	return &clone, nil
}

// DeleteUser drops the user's REMOVED listings with the user row, the way
// the MySQL adapter does; anything else still referencing the user stands
// in for the foreign-key constraint.
func (m *mockStore) DeleteUser(ctx context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return false, nil
	}
	for _, it := range m.items {
		if it.OwnerID == id && it.Status != domain.ItemStatusRemoved {
			return false, port.ErrUserReferenced
		}
	}
	for _, tx := range m.txs {
		if tx.BuyerID == id || tx.SellerID == id {
			return false, port.ErrUserReferenced
		}
	}
	for itemID, it := range m.items {
		if it.OwnerID == id {
			delete(m.items, itemID)
		}
	}
	delete(m.users, id)
	return true, nil
}

func (m *mockStore) UserReferenceCount(ctx context.Context, id int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, it := range m.items {
		if it.OwnerID == id && it.Status != domain.ItemStatusRemoved {
			count++
		}
	}
	for _, tx := range m.txs {
		if tx.BuyerID == id || tx.SellerID == id {
			count++
		}
	}
	return count, nil
}

func (m *mockStore) SetUserRating(ctx context.Context, id int64, rating float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return errors.New("no such user")
	}
	u.Rating = rating
	return nil
}

// --- port.ItemRepository ---

func (m *mockStore) CreateItem(ctx context.Context, item *domain.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	item.ID = m.id()
	clone := *item
	m.items[item.ID] = &clone
	return nil
}

func (m *mockStore) GetItemByID(ctx context.Context, id int64) (*domain.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[id]
	if !ok {
		return nil, nil
	}
	clone := *it
	return &clone, nil
}

func (m *mockStore) ListItems(ctx context.Context, filter domain.ItemFilter) ([]domain.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Item
	for _, it := range m.items {
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, it.Status) {
			continue
		}
		if filter.Keyword != "" {
			kw := strings.ToLower(filter.Keyword)
			if !strings.Contains(strings.ToLower(it.Name), kw) &&
				!strings.Contains(strings.ToLower(it.Description), kw) {
				continue
			}
		}
		if filter.MinPrice != nil && it.Price < *filter.MinPrice {
			continue
		}
		if filter.MaxPrice != nil && it.Price > *filter.MaxPrice {
			continue
		}
		if filter.MinSellerRating != nil {
			owner, ok := m.users[it.OwnerID]
			if !ok || owner.Rating < *filter.MinSellerRating {
				continue
			}
		}
		out = append(out, *it)
	}
	return out, nil
}

func (m *mockStore) ListItemsBySeller(ctx context.Context, sellerID int64, statuses []domain.ItemStatus) ([]domain.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Item
	for _, it := range m.items {
		if it.OwnerID != sellerID {
			continue
		}
		if len(statuses) > 0 && !containsStatus(statuses, it.Status) {
			continue
		}
		out = append(out, *it)
	}
	return out, nil
}

func (m *mockStore) UpdateItem(ctx context.Context, id int64, update domain.ItemUpdate) (*domain.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[id]
	if !ok {
		return nil, nil
	}
	if update.Name != nil {
		it.Name = *update.Name
	}
	if update.Description != nil {
		it.Description = *update.Description
	}
	if update.Price != nil {
		it.Price = *update.Price
	}
	if update.Status != nil {
		it.Status = *update.Status
	}
	clone := *it
	return &clone, nil
}

func (m *mockStore) AveragePriceForKeyword(ctx context.Context, keyword string) (float64, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kw := strings.ToLower(keyword)
	var sum float64
	var count int
	for _, it := range m.items {
		if strings.Contains(strings.ToLower(it.Name), kw) ||
			strings.Contains(strings.ToLower(it.Description), kw) {
			sum += it.Price
			count++
		}
	}
	if count == 0 {
		return 0, 0, nil
	}
	return sum / float64(count), count, nil
}

func containsStatus(statuses []domain.ItemStatus, s domain.ItemStatus) bool {
	for _, candidate := range statuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// --- port.TransactionRepository ---

func (m *mockStore) CreateTransaction(ctx context.Context, txn *domain.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[txn.ItemID]
	if !ok || it.Status != domain.ItemStatusAvailable {
		return port.ErrItemUnavailable
	}
	it.Status = domain.ItemStatusSold
	txn.ID = m.id()
	clone := *txn
	m.txs[txn.ID] = &clone
	return nil
}

func (m *mockStore) GetTransactionByID(ctx context.Context, id int64) (*domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, ok := m.txs[id]
	if !ok {
		return nil, nil
	}
	clone := *tx
	return &clone, nil
}

func (m *mockStore) CreateRating(ctx context.Context, rating *domain.Rating) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.ratings {
		if r.TransactionID == rating.TransactionID {
			return port.ErrDuplicateKey
		}
	}
	rating.ID = m.id()
	clone := *rating
	m.ratings[rating.ID] = &clone
	return nil
}

func (m *mockStore) SellerAverageScore(ctx context.Context, sellerID int64) (float64, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var sum, count int
	for _, r := range m.ratings {
		if r.RatedID == sellerID {
			sum += r.Score
			count++
		}
	}
	if count == 0 {
		return 0, 0, nil
	}
	return float64(sum) / float64(count), count, nil
}

// --- port.CacheRepository ---

type mockCacheRepo struct {
	mu   sync.Mutex
	keys map[string]bool
}

func newMockCacheRepo() *mockCacheRepo {
	return &mockCacheRepo{keys: make(map[string]bool)}
}

func (m *mockCacheRepo) SetIdempotency(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.keys[key] {
		return false, nil
	}
	m.keys[key] = true
	return true, nil
}

func (m *mockCacheRepo) ClearIdempotency(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.keys, key)
	return nil
}

// --- port.AuthProvider ---

type mockAuthProvider struct{}

func (mockAuthProvider) HashPassword(password string) (string, error) {
	return "hashed:" + password, nil
}

func (mockAuthProvider) VerifyPassword(password, hash string) bool {
	return hash == "hashed:"+password
}

func (mockAuthProvider) IssueToken(identity port.Identity) (string, error) {
	return fmt.Sprintf("token:%d", identity.UserID), nil
}

func (mockAuthProvider) ValidateToken(token string) (*port.Identity, error) {
	var userID int64
	if _, err := fmt.Sscanf(token, "token:%d", &userID); err != nil {
		return nil, errors.New("invalid token")
	}
	return &port.Identity{UserID: userID}, nil
}
