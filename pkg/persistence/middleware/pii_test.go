package middleware_test

import (
	"context"
	"testing"

	"github.com/aretw0/arbor/pkg/adapters/memory"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/persistence/middleware"
)

func TestPIIMiddleware_Masking(t *testing.T) {
	underlyingStore := memory.NewStore()
	mw, err := middleware.NewPIIMiddleware([]string{"password", "ssn"})
	if err != nil {
		t.Fatal(err)
	}
	secureStore := mw(underlyingStore)

	ctx := context.Background()
	sessionID := "pii-session"
	state := domain.NewState(sessionID, "signup")

	state.Values["username"] = "jdoe"
	state.Values["user_password"] = "secret123"
	state.Values["details"] = map[string]any{
		"address":    "123 St",
		"ssn_number": "999-99-9999",
	}
	state.Synced["user_password"] = "secret123"

	if err := secureStore.Save(ctx, sessionID, state); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if state.Values["user_password"] != "secret123" {
		t.Error("Middleware modified original state in memory!")
	}
	if state.Values["details"].(map[string]any)["ssn_number"] != "999-99-9999" {
		t.Error("Middleware modified nested original state in memory!")
	}

	storedState, err := underlyingStore.Load(ctx, sessionID)
	if err != nil {
		t.Fatalf("Underlying load failed: %v", err)
	}

	if storedState.Values["username"] != "jdoe" {
		t.Error("Username shouldn't be masked")
	}
	if storedState.Values["user_password"] != middleware.Mask {
		t.Errorf("Password should be masked, got: %v", storedState.Values["user_password"])
	}
	if storedState.Synced["user_password"] != middleware.Mask {
		t.Errorf("Synced password should be masked, got: %v", storedState.Synced["user_password"])
	}

	details := storedState.Values["details"].(map[string]any)
	if details["ssn_number"] != middleware.Mask {
		t.Errorf("Nested SSN should be masked, got: %v", details["ssn_number"])
	}
	if details["address"] != "123 St" {
		t.Errorf("Address shouldn't be masked, got: %v", details["address"])
	}
}

func TestPIIMiddleware_InvalidPattern(t *testing.T) {
	if _, err := middleware.NewPIIMiddleware([]string{"("}); err == nil {
		t.Error("Expected error for invalid pattern")
	}
}

func TestChain_MasksBeforeEncrypting(t *testing.T) {
	underlyingStore := memory.NewStore()
	pii, err := middleware.NewPIIMiddleware([]string{"^ssn$"})
	if err != nil {
		t.Fatal(err)
	}
	enc, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	if err != nil {
		t.Fatal(err)
	}
	store := middleware.Chain(underlyingStore, pii, enc)

	ctx := context.Background()
	state := domain.NewState("s1", "signup")
	state.Values["ssn"] = "999-99-9999"
	state.Values["name"] = "Ada"
	if err := store.Save(ctx, "s1", state); err != nil {
		t.Fatal(err)
	}

	raw, err := underlyingStore.Load(ctx, "s1")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := raw.Values[middleware.EnvelopeKey]; !ok {
		t.Fatal("Expected the inner store to hold an envelope")
	}

	loaded, err := store.Load(ctx, "s1")
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Values["ssn"] != middleware.Mask || loaded.Values["name"] != "Ada" {
		t.Errorf("unexpected values after chain round trip: %v", loaded.Values)
	}
}

func TestPIIMiddleware_MaskSubmittedOnly(t *testing.T) {
	underlyingStore := memory.NewStore()
	mw, err := middleware.NewPIIMiddleware([]string{"^email$"}, middleware.MaskSubmittedOnly())
	if err != nil {
		t.Fatal(err)
	}
	store := mw(underlyingStore)

	ctx := context.Background()
	state := domain.NewState("s1", "signup")
	state.Values["email"] = "ada@example.com"
	if err := store.Save(ctx, "s1", state); err != nil {
		t.Fatal(err)
	}
	active, _ := underlyingStore.Load(ctx, "s1")
	if active.Values["email"] != "ada@example.com" {
		t.Errorf("active session should keep its values, got %v", active.Values["email"])
	}

	state.Status = domain.StatusSubmitted
	if err := store.Save(ctx, "s1", state); err != nil {
		t.Fatal(err)
	}
	submitted, _ := underlyingStore.Load(ctx, "s1")
	if submitted.Values["email"] != middleware.Mask {
		t.Errorf("submitted session should be masked, got %v", submitted.Values["email"])
	}
}
