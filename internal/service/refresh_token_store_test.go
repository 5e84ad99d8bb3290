package service

import (
	"testing"
	"time"
)

func TestMemoryRefreshTokenStore(t *testing.T) {
	store := NewMemoryRefreshTokenStore()

	if err := store.Store("jti-1", "u1", time.Minute); err != nil {
		t.Fatalf("store: %v", err)
	}
	ok, err := store.Exists("jti-1")
	if err != nil || !ok {
		t.Fatalf("expected stored jti to exist, ok=%v err=%v", ok, err)
	}

	if err := store.Revoke("jti-1"); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	ok, _ = store.Exists("jti-1")
	if ok {
		t.Fatalf("expected revoked jti to be gone")
	}
}

func TestMemoryRefreshTokenStoreExpiry(t *testing.T) {
	store := NewMemoryRefreshTokenStore()

	if err := store.Store("jti-1", "u1", -time.Second); err != nil {
		t.Fatalf("store: %v", err)
	}
	ok, _ := store.Exists("jti-1")
	if ok {
		t.Fatalf("expected expired jti to be rejected")
	}
}

func TestMemoryRefreshTokenStoreEmptyJTI(t *testing.T) {
	store := NewMemoryRefreshTokenStore()

	if err := store.Store("  ", "u1", time.Minute); err != nil {
		t.Fatalf("store: %v", err)
	}
	ok, _ := store.Exists("  ")
	if ok {
		t.Fatalf("blank jti must never be stored")
	}
}
