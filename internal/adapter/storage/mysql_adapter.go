package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/joshsssn/marketplace/internal/core/domain"
	"github.com/joshsssn/marketplace/internal/port"
)

type MySQLAdapter struct {
	db *sql.DB
}

func NewMySQLAdapter(db *sql.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}

// MySQL error 1062: duplicate entry for a unique key.
func isDuplicateEntry(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1062
}

// MySQL error 1451: cannot delete a parent row, a foreign key still
// references it.
func isForeignKeyViolation(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1451
}

// --- users ---

func (m *MySQLAdapter) CreateUser(ctx context.Context, user *domain.User) error {
	user.CreatedAt = time.Now()
	result, err := m.db.ExecContext(ctx, `
		INSERT INTO users (username, full_name, email, password_hash, role, rating, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		user.Username, user.FullName, user.Email, user.PasswordHash,
		user.Role, user.Rating, user.CreatedAt,
	)
	if err != nil {
		if isDuplicateEntry(err) {
			return fmt.Errorf("insert user: %w", port.ErrDuplicateKey)
		}
		return fmt.Errorf("insert user: %w", err)
	}
	user.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert user id: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	return m.getUser(ctx, `WHERE id = ?`, id)
}

func (m *MySQLAdapter) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	return m.getUser(ctx, `WHERE username = ?`, username)
}

func (m *MySQLAdapter) getUser(ctx context.Context, where string, arg interface{}) (*domain.User, error) {
	var u domain.User
	err := m.db.QueryRowContext(ctx, `
		SELECT id, username, full_name, email, password_hash, role, rating, created_at
		FROM users `+where, arg,
	).Scan(&u.ID, &u.Username, &u.FullName, &u.Email, &u.PasswordHash, &u.Role, &u.Rating, &u.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}
	return &u, nil
}

func (m *MySQLAdapter) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, username, full_name, email, password_hash, role, rating, created_at
		FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.Username, &u.FullName, &u.Email, &u.PasswordHash, &u.Role, &u.Rating, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (m *MySQLAdapter) UpdateUser(ctx context.Context, id int64, update domain.UserUpdate) (*domain.User, error) {
	sets := []string{}
	args := []interface{}{}
	if update.Username != nil {
		sets = append(sets, "username = ?")
		args = append(args, *update.Username)
	}
	if update.FullName != nil {
		sets = append(sets, "full_name = ?")
		args = append(args, *update.FullName)
	}
	if update.Email != nil {
		sets = append(sets, "email = ?")
		args = append(args, *update.Email)
	}
	if update.PasswordHash != nil {
		sets = append(sets, "password_hash = ?")
		args = append(args, *update.PasswordHash)
	}
	if len(sets) > 0 {
		args = append(args, id)
		_, err := m.db.ExecContext(ctx,
			`UPDATE users SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
		if err != nil {
			if isDuplicateEntry(err) {
				return nil, fmt.Errorf("update user: %w", port.ErrDuplicateKey)
			}
			return nil, fmt.Errorf("update user: %w", err)
		}
	}
	return m.GetUserByID(ctx, id)
}

// DeleteUser removes the user row together with their REMOVED listings,
// which nothing references and which would otherwise pin the user row via
// the items foreign key. Any other remaining reference, such as a listing
// relisted after the caller's reference check, trips the constraint and is
// reported as ErrUserReferenced.
func (m *MySQLAdapter) DeleteUser(ctx context.Context, id int64) (bool, error) {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`DELETE FROM items WHERE owner_id = ? AND status = ?`, id, domain.ItemStatusRemoved)
	if err != nil {
		return false, fmt.Errorf("delete removed items: %w", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return false, fmt.Errorf("delete user: %w", port.ErrUserReferenced)
		}
		return false, fmt.Errorf("delete user: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return false, nil
	}
	return true, tx.Commit()
}

func (m *MySQLAdapter) UserReferenceCount(ctx context.Context, id int64) (int, error) {
	var count int
	err := m.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM items WHERE owner_id = ? AND status <> 'REMOVED') +
			(SELECT COUNT(*) FROM transactions WHERE buyer_id = ? OR seller_id = ?)`,
		id, id, id,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count user references: %w", err)
	}
	return count, nil
}

func (m *MySQLAdapter) SetUserRating(ctx context.Context, id int64, rating float64) error {
	_, err := m.db.ExecContext(ctx, `UPDATE users SET rating = ? WHERE id = ?`, rating, id)
	if err != nil {
		return fmt.Errorf("set user rating: %w", err)
	}
	return nil
}

// --- items ---

func (m *MySQLAdapter) CreateItem(ctx context.Context, item *domain.Item) error {
	now := time.Now()
	item.CreatedAt = now
	item.UpdatedAt = now
	result, err := m.db.ExecContext(ctx, `
		INSERT INTO items (name, description, price, owner_id, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		item.Name, item.Description, item.Price, item.OwnerID, item.Status,
		item.CreatedAt, item.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert item: %w", err)
	}
	item.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert item id: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) GetItemByID(ctx context.Context, id int64) (*domain.Item, error) {
	var it domain.Item
	err := m.db.QueryRowContext(ctx, `
		SELECT id, name, description, price, owner_id, status, created_at, updated_at
		FROM items WHERE id = ?`, id,
	).Scan(&it.ID, &it.Name, &it.Description, &it.Price, &it.OwnerID, &it.Status, &it.CreatedAt, &it.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query item: %w", err)
	}
	return &it, nil
}

func (m *MySQLAdapter) ListItems(ctx context.Context, filter domain.ItemFilter) ([]domain.Item, error) {
	query := `
		SELECT i.id, i.name, i.description, i.price, i.owner_id, i.status, i.created_at, i.updated_at
		FROM items i`
	conds := []string{}
	args := []interface{}{}

	if filter.MinSellerRating != nil {
		query += ` JOIN users u ON u.id = i.owner_id`
		conds = append(conds, "u.rating >= ?")
		args = append(args, *filter.MinSellerRating)
	}
	if len(filter.Statuses) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(filter.Statuses)), ",")
		conds = append(conds, "i.status IN ("+placeholders+")")
		for _, s := range filter.Statuses {
			args = append(args, s)
		}
	}
	if filter.Keyword != "" {
		conds = append(conds, "(LOWER(i.name) LIKE ? OR LOWER(i.description) LIKE ?)")
		pattern := "%" + strings.ToLower(filter.Keyword) + "%"
		args = append(args, pattern, pattern)
	}
	if filter.MinPrice != nil {
		conds = append(conds, "i.price >= ?")
		args = append(args, *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		conds = append(conds, "i.price <= ?")
		args = append(args, *filter.MaxPrice)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY i.id"

	return m.queryItems(ctx, query, args...)
}

func (m *MySQLAdapter) ListItemsBySeller(ctx context.Context, sellerID int64, statuses []domain.ItemStatus) ([]domain.Item, error) {
	query := `
		SELECT id, name, description, price, owner_id, status, created_at, updated_at
		FROM items WHERE owner_id = ?`
	args := []interface{}{sellerID}

	if len(statuses) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(statuses)), ",")
		query += " AND status IN (" + placeholders + ")"
		for _, s := range statuses {
			args = append(args, s)
		}
	}
	query += " ORDER BY id"

	return m.queryItems(ctx, query, args...)
}

func (m *MySQLAdapter) queryItems(ctx context.Context, query string, args ...interface{}) ([]domain.Item, error) {
	rows, err := m.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	var items []domain.Item
	for rows.Next() {
		var it domain.Item
		if err := rows.Scan(&it.ID, &it.Name, &it.Description, &it.Price, &it.OwnerID, &it.Status, &it.CreatedAt, &it.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (m *MySQLAdapter) UpdateItem(ctx context.Context, id int64, update domain.ItemUpdate) (*domain.Item, error) {
	sets := []string{}
	args := []interface{}{}
	if update.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *update.Name)
	}
	if update.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *update.Description)
	}
	if update.Price != nil {
		sets = append(sets, "price = ?")
		args = append(args, *update.Price)
	}
	if update.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, *update.Status)
	}
	if len(sets) > 0 {
		sets = append(sets, "updated_at = NOW()")
		args = append(args, id)
		_, err := m.db.ExecContext(ctx,
			`UPDATE items SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
		if err != nil {
			return nil, fmt.Errorf("update item: %w", err)
		}
	}
	return m.GetItemByID(ctx, id)
}

func (m *MySQLAdapter) AveragePriceForKeyword(ctx context.Context, keyword string) (float64, int, error) {
	pattern := "%" + strings.ToLower(keyword) + "%"
	var avg float64
	var count int
	err := m.db.QueryRowContext(ctx, `
		SELECT COALESCE(AVG(price), 0), COUNT(*)
		FROM items
		WHERE LOWER(name) LIKE ? OR LOWER(description) LIKE ?`,
		pattern, pattern,
	).Scan(&avg, &count)
	if err != nil {
		return 0, 0, fmt.Errorf("average price: %w", err)
	}
	return avg, count, nil
}

// --- transactions and ratings ---

// CreateTransaction is the critical section of a purchase. The conditional
// UPDATE only matches while the item is still AVAILABLE, so two concurrent
// purchases cannot both commit; the loser sees zero affected rows.
func (m *MySQLAdapter) CreateTransaction(ctx context.Context, txn *domain.Transaction) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE items
		SET status = ?, updated_at = NOW()
		WHERE id = ? AND status = ?`,
		domain.ItemStatusSold, txn.ItemID, domain.ItemStatusAvailable,
	)
	if err != nil {
		return fmt.Errorf("update item status: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return port.ErrItemUnavailable
	}

	insert, err := tx.ExecContext(ctx, `
		INSERT INTO transactions (item_id, seller_id, buyer_id, price, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		txn.ItemID, txn.SellerID, txn.BuyerID, txn.Price, txn.CreatedAt,
	)
	if err != nil {
		if isDuplicateEntry(err) {
			return port.ErrItemUnavailable
		}
		return fmt.Errorf("insert transaction: %w", err)
	}
	txn.ID, err = insert.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert transaction id: %w", err)
	}

	return tx.Commit()
}

func (m *MySQLAdapter) GetTransactionByID(ctx context.Context, id int64) (*domain.Transaction, error) {
	var t domain.Transaction
	err := m.db.QueryRowContext(ctx, `
		SELECT id, item_id, seller_id, buyer_id, price, created_at
		FROM transactions WHERE id = ?`, id,
	).Scan(&t.ID, &t.ItemID, &t.SellerID, &t.BuyerID, &t.Price, &t.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query transaction: %w", err)
	}
	return &t, nil
}

func (m *MySQLAdapter) CreateRating(ctx context.Context, rating *domain.Rating) error {
	result, err := m.db.ExecContext(ctx, `
		INSERT INTO ratings (transaction_id, rater_id, rated_id, score, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		rating.TransactionID, rating.RaterID, rating.RatedID, rating.Score, rating.CreatedAt,
	)
	if err != nil {
		if isDuplicateEntry(err) {
			return fmt.Errorf("insert rating: %w", port.ErrDuplicateKey)
		}
		return fmt.Errorf("insert rating: %w", err)
	}
	rating.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert rating id: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) SellerAverageScore(ctx context.Context, sellerID int64) (float64, int, error) {
	var avg float64
	var count int
	err := m.db.QueryRowContext(ctx, `
		SELECT COALESCE(AVG(score), 0), COUNT(*)
		FROM ratings WHERE rated_id = ?`, sellerID,
	).Scan(&avg, &count)
	if err != nil {
		return 0, 0, fmt.Errorf("average score: %w", err)
	}
	return avg, count, nil
}
