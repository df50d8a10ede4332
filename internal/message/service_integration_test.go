package message_test

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/omnidesk/omnidesk/internal/customer"
	"github.com/omnidesk/omnidesk/internal/db/sqlc"
	"github.com/omnidesk/omnidesk/internal/message"
	"github.com/omnidesk/omnidesk/internal/thread"
)

func setupIntegrationTest(t *testing.T) (*message.DBService, *thread.Service, *customer.Service, func()) {
	t.Helper()

	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("skip integration test: TEST_POSTGRES_DSN is not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Skipf("skip integration test: cannot connect to database: %v", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		t.Skipf("skip integration test: database ping failed: %v", err)
	}

	queries := sqlc.New(pool)
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return message.NewService(logger, queries), thread.NewService(logger, queries), customer.NewService(logger, queries), func() { pool.Close() }
}

func newTestThread(t *testing.T, customers *customer.Service, threads *thread.Service) (customer.Customer, thread.Thread) {
	t.Helper()
	ctx := context.Background()
	email := fmt.Sprintf("message_%d@example.com", time.Now().UnixNano())
	cust, err := customers.Resolve(ctx, "email", email, "email", customer.Hints{})
	if err != nil {
		t.Fatalf("resolve customer failed: %v", err)
	}
	th, err := threads.RouteInbound(ctx, cust.ID, "email", "", email)
	if err != nil {
		t.Fatalf("route thread failed: %v", err)
	}
	return cust, th
}

func TestIntegrationPersistAndList(t *testing.T) {
	messages, threads, customers, cleanup := setupIntegrationTest(t)
	defer cleanup()

	ctx := context.Background()
	cust, th := newTestThread(t, customers, threads)

	for i := 0; i < 3; i++ {
		_, err := messages.Persist(ctx, message.PersistInput{
			ThreadID:   th.ID,
			CustomerID: cust.ID,
			Channel:    "email",
			Direction:  message.DirectionInbound,
			Content:    fmt.Sprintf("message %d", i),
			Status:     message.StatusDelivered,
		})
		if err != nil {
			t.Fatalf("persist message %d failed: %v", i, err)
		}
	}

	items, err := messages.List(ctx, th.ID, 10)
	if err != nil {
		t.Fatalf("list messages failed: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(items))
	}
	// Newest first.
	if items[0].Content != "message 2" {
		t.Errorf("expected newest message first, got %q", items[0].Content)
	}

	total, err := messages.Count(ctx, th.ID)
	if err != nil {
		t.Fatalf("count messages failed: %v", err)
	}
	if total != 3 {
		t.Errorf("expected count 3, got %d", total)
	}
}

func TestIntegrationStatusForwardOnly(t *testing.T) {
	messages, threads, customers, cleanup := setupIntegrationTest(t)
	defer cleanup()

	ctx := context.Background()
	cust, th := newTestThread(t, customers, threads)

	msg, err := messages.Persist(ctx, message.PersistInput{
		ThreadID:   th.ID,
		CustomerID: cust.ID,
		Channel:    "email",
		Direction:  message.DirectionOutbound,
		Content:    "reply",
		SenderID:   "op-1",
		Status:     message.StatusPending,
	})
	if err != nil {
		t.Fatalf("persist message failed: %v", err)
	}

	advanced, err := messages.UpdateStatus(ctx, msg.ID, message.StatusSent, "ext-1")
	if err != nil {
		t.Fatalf("advance to sent failed: %v", err)
	}
	if advanced.Status != message.StatusSent {
		t.Fatalf("expected status sent, got %q", advanced.Status)
	}
	if advanced.ExternalMessageID != "ext-1" {
		t.Errorf("expected external message id ext-1, got %q", advanced.ExternalMessageID)
	}

	if _, err := messages.UpdateStatus(ctx, msg.ID, message.StatusDelivered, ""); err != nil {
		t.Fatalf("advance to delivered failed: %v", err)
	}

	_, err = messages.UpdateStatus(ctx, msg.ID, message.StatusPending, "")
	if !errors.Is(err, message.ErrStatusRegression) {
		t.Fatalf("expected ErrStatusRegression, got %v", err)
	}

	// The external id survives a status update that omits it.
	current, err := messages.Get(ctx, msg.ID)
	if err != nil {
		t.Fatalf("get message failed: %v", err)
	}
	if current.ExternalMessageID != "ext-1" {
		t.Errorf("expected external id retained, got %q", current.ExternalMessageID)
	}
}
