package storage

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/redis/go-redis/v9"

	"github.com/nqminh/kitty-market/internal/core/domain"
	"github.com/nqminh/kitty-market/internal/port"
)

func getRedisClient(t *testing.T) *redis.Client {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	return client
}

const (
	testPayer = domain.AccountID(9001)
	testPayee = domain.AccountID(9002)
)

func resetBalances(ctx context.Context, client *redis.Client) {
	client.Del(ctx, balanceKey(testPayer))
	client.Del(ctx, balanceKey(testPayee))
}

func TestTransfer_Success(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	ledger := NewRedisLedger(client)

	// Setup
	resetBalances(ctx, client)
	ledger.SetBalance(ctx, testPayer, 10000)
	ledger.SetBalance(ctx, testPayee, 500)

	// Test
	if err := ledger.Transfer(ctx, testPayer, testPayee, 4000); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Verify
	from, _ := ledger.Balance(ctx, testPayer)
	if from != 6000 {
		t.Errorf("expected payer balance 6000, got %d", from)
	}
	to, _ := ledger.Balance(ctx, testPayee)
	if to != 4500 {
		t.Errorf("expected payee balance 4500, got %d", to)
	}
}

func TestTransfer_InsufficientFunds(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	ledger := NewRedisLedger(client)

	// Setup
	resetBalances(ctx, client)
	ledger.SetBalance(ctx, testPayer, 100)
	ledger.SetBalance(ctx, testPayee, 0)

	// Test
	err := ledger.Transfer(ctx, testPayer, testPayee, 101)
	if !errors.Is(err, port.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got: %v", err)
	}

	// Verify: nothing moved
	from, _ := ledger.Balance(ctx, testPayer)
	if from != 100 {
		t.Errorf("expected payer balance 100, got %d", from)
	}
	to, _ := ledger.Balance(ctx, testPayee)
	if to != 0 {
		t.Errorf("expected payee balance 0, got %d", to)
	}
}

func TestTransfer_MissingPayerAccount(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	ledger := NewRedisLedger(client)

	// Setup: payer key absent entirely
	resetBalances(ctx, client)

	// Test
	err := ledger.Transfer(ctx, testPayer, testPayee, 1)
	if !errors.Is(err, port.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got: %v", err)
	}
}

func TestBalance_MissingAccountReadsZero(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	ledger := NewRedisLedger(client)

	resetBalances(ctx, client)

	balance, err := ledger.Balance(ctx, testPayer)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if balance != 0 {
		t.Errorf("expected balance 0, got %d", balance)
	}
}
