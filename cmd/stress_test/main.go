package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nqminh/kitty-market/internal/adapter/random"
	"github.com/nqminh/kitty-market/internal/adapter/storage"
	"github.com/nqminh/kitty-market/internal/core/domain"
	"github.com/nqminh/kitty-market/internal/core/service"
	"github.com/nqminh/kitty-market/internal/port"
)

const (
	redisAddr     = "localhost:6379"
	kittyPrice    = 5000
	kittyCount    = 20
	totalRequests = 50
	queueSize     = 1024

	seller       = domain.AccountID(1)
	firstBuyer   = domain.AccountID(100)
	buyerBalance = kittyPrice
)

func main() {
	ctx := context.Background()

	// Initialize Redis
	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("failed to connect redis: %v", err)
	}
	defer rdb.Close()

	// Fresh ledger state per run
	statePath := filepath.Join(os.TempDir(), fmt.Sprintf("kitty-market-stress-%d.db", time.Now().UnixNano()))
	defer os.Remove(statePath)

	store, err := storage.OpenBolt(statePath)
	if err != nil {
		log.Fatalf("failed to open state store: %v", err)
	}
	defer store.Close()

	currency := storage.NewRedisLedger(rdb)

	registry := service.NewRegistry(store, random.CryptoSource{}, currency, kittyPrice, queueSize)
	defer registry.Close()

	// Drain the notification stream in background
	go func() {
		for range registry.Notifications() {
		}
	}()

	// Seed balances: each buyer can afford exactly one kitty
	if err := currency.SetBalance(ctx, seller, 0); err != nil {
		log.Fatalf("failed to seed seller balance: %v", err)
	}
	for i := 0; i < totalRequests; i++ {
		buyer := firstBuyer + domain.AccountID(i)
		if err := currency.SetBalance(ctx, buyer, buyerBalance); err != nil {
			log.Fatalf("failed to seed buyer balance: %v", err)
		}
	}

	// Create and list the kitties up for grabs
	for i := 0; i < kittyCount; i++ {
		id, err := registry.Create(ctx, seller)
		if err != nil {
			log.Fatalf("failed to create kitty: %v", err)
		}
		if err := registry.Sale(ctx, seller, id); err != nil {
			log.Fatalf("failed to list kitty %d: %v", id, err)
		}
	}

	// Counters
	var successCount atomic.Int32
	var failCount atomic.Int32

	// Spawn concurrent buyers; several race for each kitty, only one wins
	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < totalRequests; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()

			buyer := firstBuyer + domain.AccountID(n)
			err := registry.Buy(ctx, buyer, domain.KittyID(n%kittyCount))
			if err == nil {
				successCount.Add(1)
			} else {
				failCount.Add(1)
				if !errors.Is(err, domain.ErrNotOnSale) && !errors.Is(err, port.ErrInsufficientFunds) {
					log.Printf("unexpected buy failure: %v", err)
				}
			}
		}(i)
	}

	wg.Wait()
	elapsed := time.Since(start)

	// Results
	success := successCount.Load()
	fail := failCount.Load()

	fmt.Println("========== STRESS TEST RESULTS ==========")
	fmt.Printf("Listed Kitties:   %d\n", kittyCount)
	fmt.Printf("Total Buyers:     %d\n", totalRequests)
	fmt.Printf("Successful:       %d\n", success)
	fmt.Printf("Failed:           %d\n", fail)
	fmt.Printf("Duration:         %v\n", elapsed)
	fmt.Println("==========================================")

	// Assertions
	if success == int32(kittyCount) && fail == int32(totalRequests-kittyCount) {
		fmt.Printf("PASS: Exactly %d purchases succeeded, %d failed\n", kittyCount, totalRequests-kittyCount)
	} else {
		fmt.Printf("FAIL: Expected %d success/%d fail, got %d/%d\n",
			kittyCount, totalRequests-kittyCount, success, fail)
	}

	// Verify the seller collected exactly one price per kitty
	sellerBalance, err := currency.Balance(ctx, seller)
	if err != nil {
		log.Fatalf("failed to read seller balance: %v", err)
	}
	fmt.Printf("Final Seller Balance: %d\n", sellerBalance)

	if sellerBalance == uint64(kittyCount)*kittyPrice {
		fmt.Println("PASS: Seller collected one price per kitty")
	} else {
		fmt.Printf("FAIL: Expected balance %d, got %d\n", uint64(kittyCount)*kittyPrice, sellerBalance)
	}

	// Verify no listings remain
	listings, err := registry.Listings(ctx)
	if err != nil {
		log.Fatalf("failed to read listings: %v", err)
	}
	if len(listings) == 0 {
		fmt.Println("PASS: All listings cleared")
	} else {
		fmt.Printf("FAIL: Expected 0 active listings, got %d\n", len(listings))
	}
}
