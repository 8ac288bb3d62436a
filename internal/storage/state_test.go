package storage

import (
	"context"
	"testing"
)

func TestReturnTargetRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewStateStore(NewInMemoryStore())

	if _, ok, err := store.ReturnTarget(ctx); err != nil || ok {
		t.Fatalf("expected no return target initially, got ok=%v err=%v", ok, err)
	}

	if err := store.SaveReturnTarget(ctx, "/apps/org.a.A"); err != nil {
		t.Fatalf("SaveReturnTarget returned error: %v", err)
	}

	target, ok, err := store.ReturnTarget(ctx)
	if err != nil || !ok {
		t.Fatalf("expected return target, got ok=%v err=%v", ok, err)
	}
	if target != "/apps/org.a.A" {
		t.Fatalf("unexpected return target %q", target)
	}

	if err := store.ClearReturnTarget(ctx); err != nil {
		t.Fatalf("ClearReturnTarget returned error: %v", err)
	}
	if _, ok, _ := store.ReturnTarget(ctx); ok {
		t.Fatal("return target should be gone after clear")
	}
}

func TestPendingTransactionRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewStateStore(NewInMemoryStore())

	if txn, err := store.PendingTransaction(ctx); err != nil || txn != nil {
		t.Fatalf("expected no pending transaction initially, got %+v err=%v", txn, err)
	}

	saved := PendingTransaction{
		RedirectTarget: "http://localhost:5000/",
		AppIDs:         []string{"org.a.A", "org.b.B"},
		MissingAppIDs:  []string{"org.b.B"},
	}
	if err := store.SavePendingTransaction(ctx, saved); err != nil {
		t.Fatalf("SavePendingTransaction returned error: %v", err)
	}

	got, err := store.PendingTransaction(ctx)
	if err != nil {
		t.Fatalf("PendingTransaction returned error: %v", err)
	}
	if got == nil {
		t.Fatal("expected a pending transaction")
	}
	if got.RedirectTarget != saved.RedirectTarget {
		t.Fatalf("unexpected redirect %q", got.RedirectTarget)
	}
	if len(got.AppIDs) != 2 || got.AppIDs[0] != "org.a.A" || got.AppIDs[1] != "org.b.B" {
		t.Fatalf("app ids lost their order or content: %v", got.AppIDs)
	}
	if len(got.MissingAppIDs) != 1 || got.MissingAppIDs[0] != "org.b.B" {
		t.Fatalf("missing app ids corrupted: %v", got.MissingAppIDs)
	}

	if err := store.ClearPendingTransaction(ctx); err != nil {
		t.Fatalf("ClearPendingTransaction returned error: %v", err)
	}
	if txn, _ := store.PendingTransaction(ctx); txn != nil {
		t.Fatal("pending transaction should be gone after clear")
	}
}

func TestPendingTransactionCorruptValueTreatedAsAbsent(t *testing.T) {
	ctx := context.Background()
	kv := NewInMemoryStore()
	store := NewStateStore(kv)

	if err := kv.Set(ctx, "pendingTransaction", "{not json"); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}

	txn, err := store.PendingTransaction(ctx)
	if err != nil {
		t.Fatalf("corrupt record should not be an error, got %v", err)
	}
	if txn != nil {
		t.Fatalf("corrupt record should read as absent, got %+v", txn)
	}
}

func TestLocaleRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewStateStore(NewInMemoryStore())

	if _, ok, _ := store.Locale(ctx); ok {
		t.Fatal("expected no locale initially")
	}
	if err := store.SaveLocale(ctx, "de"); err != nil {
		t.Fatalf("SaveLocale returned error: %v", err)
	}
	locale, ok, err := store.Locale(ctx)
	if err != nil || !ok || locale != "de" {
		t.Fatalf("expected locale de, got %q ok=%v err=%v", locale, ok, err)
	}
}
