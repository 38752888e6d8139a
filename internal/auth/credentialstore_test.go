package auth

import (
	"testing"

	"github.com/99designs/keyring"
)

func newTestCredentialStore() *CredentialStore {
	return &CredentialStore{ring: keyring.NewArrayKeyring(nil)}
}

func TestCredentialStore_SetGetDelete(t *testing.T) {
	store := newTestCredentialStore()

	if _, err := store.Get("catalog.unity.token"); err == nil {
		t.Fatal("expected an error reading a credential that was never set")
	}

	if err := store.Set("catalog.unity.token", "secret-token"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := store.Get("catalog.unity.token")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "secret-token" {
		t.Fatalf("got %q, want secret-token", got)
	}

	if err := store.Delete("catalog.unity.token"); err != nil {
		t.Fatalf("unexpected error deleting: %v", err)
	}
	if _, err := store.Get("catalog.unity.token"); err == nil {
		t.Fatal("expected an error reading a credential after deletion")
	}

	if err := store.Delete("never-set"); err != nil {
		t.Fatalf("deleting an unset key should not error: %v", err)
	}
}
