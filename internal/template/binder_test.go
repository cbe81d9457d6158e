// internal/template/binder_test.go
//
// Unit-tests for placeholder binding.
//
// The missing-path policy is fail-fast: a template that references an
// absent attribute returns ErrMissingPath, never a partially-bound
// string.  These tests pin that policy.

package template

import (
	"errors"
	"testing"
)

func TestBind_IdentityWithoutBraces(t *testing.T) {
	// The attribute map must never be consulted; nil proves it.
	got, err := Bind("tenant_migrations", nil)
	if err != nil {
		t.Fatalf("Bind error: %v", err)
	}
	if got != "tenant_migrations" {
		t.Fatalf("identity broken: got %q", got)
	}
}

func TestBind_EmptyTemplate(t *testing.T) {
	got, err := Bind("", map[string]any{"id": "42"})
	if err != nil {
		t.Fatalf("Bind error: %v", err)
	}
	if got != "" {
		t.Fatalf("empty template bound to %q", got)
	}
}

func TestBind_SinglePlaceholder(t *testing.T) {
	got, err := Bind("{id}", map[string]any{"id": "42"})
	if err != nil {
		t.Fatalf("Bind error: %v", err)
	}
	if got != "42" {
		t.Fatalf("got %q, want 42", got)
	}
}

func TestBind_MultiplePlaceholdersAndLiterals(t *testing.T) {
	attrs := map[string]any{
		"prefix":              "acme",
		"id":                  "7",
		"entity.address.city": "Oslo",
	}
	got, err := Bind("{prefix}_{id}_in_{entity.address.city}", attrs)
	if err != nil {
		t.Fatalf("Bind error: %v", err)
	}
	if got != "acme_7_in_Oslo" {
		t.Fatalf("got %q", got)
	}
}

func TestBind_NumericValue(t *testing.T) {
	got, err := Bind("{id}_migrations", map[string]any{"id": 7})
	if err != nil {
		t.Fatalf("Bind error: %v", err)
	}
	if got != "7_migrations" {
		t.Fatalf("got %q", got)
	}
}

func TestBind_MissingPathFailsFast(t *testing.T) {
	_, err := Bind("{prefix}_{id}", map[string]any{"prefix": "acme"})
	if !errors.Is(err, ErrMissingPath) {
		t.Fatalf("want ErrMissingPath, got %v", err)
	}
}

func TestBind_UnterminatedPlaceholder(t *testing.T) {
	if _, err := Bind("{id", map[string]any{"id": "42"}); err == nil {
		t.Fatal("expected error for unterminated placeholder")
	}
}
