// Purchase-race checker: hammers one AVAILABLE item with concurrent buyers
// and verifies that exactly one purchase succeeds. Needs a running MySQL
// (schema applied) and Redis.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"sync"
	"sync/atomic"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/joshsssn/marketplace/internal/adapter/storage"
	"github.com/joshsssn/marketplace/internal/core/domain"
	"github.com/joshsssn/marketplace/internal/core/service"
)

const totalBuyers = 50

func main() {
	ctx := context.Background()

	mysqlDSN := os.Getenv("MYSQL_DSN")
	if mysqlDSN == "" {
		mysqlDSN = "root:root@tcp(localhost:3306)/marketplace?parseTime=true"
	}
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}

	db, err := sql.Open("mysql", mysqlDSN)
	if err != nil {
		log.Fatalf("failed to connect mysql: %v", err)
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("failed to ping mysql: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("failed to connect redis: %v", err)
	}
	defer rdb.Close()

	mysqlAdapter := storage.NewMySQLAdapter(db)
	redisAdapter := storage.NewRedisAdapter(rdb)
	svc := service.NewPurchaseService(mysqlAdapter, mysqlAdapter, redisAdapter, zap.NewNop().Sugar())

	// Seed a seller, the contested item, and one user per buyer.
	run := uuid.New().String()[:8]
	seller := &domain.User{
		Username:     "stress-seller-" + run,
		Email:        "stress-seller-" + run + "@example.com",
		PasswordHash: "x",
		Role:         domain.RoleUser,
	}
	if err := mysqlAdapter.CreateUser(ctx, seller); err != nil {
		log.Fatalf("failed to create seller: %v", err)
	}

	item := &domain.Item{
		Name:    "stress-item-" + run,
		Price:   10,
		OwnerID: seller.ID,
		Status:  domain.ItemStatusAvailable,
	}
	if err := mysqlAdapter.CreateItem(ctx, item); err != nil {
		log.Fatalf("failed to create item: %v", err)
	}

	buyerIDs := make([]int64, totalBuyers)
	for i := range buyerIDs {
		buyer := &domain.User{
			Username:     fmt.Sprintf("stress-buyer-%s-%d", run, i),
			Email:        fmt.Sprintf("stress-buyer-%s-%d@example.com", run, i),
			PasswordHash: "x",
			Role:         domain.RoleUser,
		}
		if err := mysqlAdapter.CreateUser(ctx, buyer); err != nil {
			log.Fatalf("failed to create buyer: %v", err)
		}
		buyerIDs[i] = buyer.ID
	}

	// Race
	var successCount atomic.Int32
	var failCount atomic.Int32
	var wg sync.WaitGroup
	start := time.Now()

	for _, buyerID := range buyerIDs {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			if _, err := svc.Purchase(ctx, id, item.ID); err == nil {
				successCount.Add(1)
			} else {
				failCount.Add(1)
			}
		}(buyerID)
	}

	wg.Wait()
	elapsed := time.Since(start)

	success := successCount.Load()
	fail := failCount.Load()

	fmt.Println("========== PURCHASE RACE RESULTS ==========")
	fmt.Printf("Buyers:        %d\n", totalBuyers)
	fmt.Printf("Successful:    %d\n", success)
	fmt.Printf("Failed:        %d\n", fail)
	fmt.Printf("Duration:      %v\n", elapsed)
	fmt.Println("===========================================")

	if success == 1 && fail == int32(totalBuyers-1) {
		fmt.Println("PASS: exactly one purchase succeeded")
	} else {
		fmt.Printf("FAIL: expected 1 success/%d failures, got %d/%d\n",
			totalBuyers-1, success, fail)
	}

	final, err := mysqlAdapter.GetItemByID(ctx, item.ID)
	if err != nil || final == nil {
		log.Fatalf("failed to re-read item: %v", err)
	}
	if final.Status == domain.ItemStatusSold {
		fmt.Println("PASS: item ended SOLD")
	} else {
		fmt.Printf("FAIL: expected SOLD, got %s\n", final.Status)
	}

	var txCount int
	db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions WHERE item_id = ?`, item.ID).Scan(&txCount)
	if txCount == 1 {
		fmt.Println("PASS: exactly one transaction recorded")
	} else {
		fmt.Printf("FAIL: expected 1 transaction, got %d\n", txCount)
	}
}
