package storage

import (
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"
)

func TestSignedURLRoundTrip(t *testing.T) {
	signer := NewSigner("test-secret", 15*time.Minute, "http://localhost:8080")
	now := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)

	signed := signer.SignedURL("3f1a7c2e-0000-4000-8000-000000000001", "relatório.pdf", now)
	parsed, err := url.Parse(signed)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !strings.HasPrefix(signed, "http://localhost:8080/files/") {
		t.Errorf("unexpected url %q", signed)
	}

	query := parsed.Query()
	if query.Get("filename") != "relatório.pdf" {
		t.Errorf("filename = %q", query.Get("filename"))
	}

	key := strings.TrimPrefix(parsed.Path, "/files/")
	err = signer.Verify(key, query.Get("expires"), query.Get("signature"), now.Add(10*time.Minute))
	if err != nil {
		t.Errorf("verify: %v", err)
	}
}

func TestVerifyRejectsTampering(t *testing.T) {
	signer := NewSigner("test-secret", 15*time.Minute, "http://localhost:8080")
	now := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)

	signed := signer.SignedURL("3f1a7c2e-0000-4000-8000-000000000001", "", now)
	parsed, err := url.Parse(signed)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	query := parsed.Query()
	key := strings.TrimPrefix(parsed.Path, "/files/")

	// Wrong key for a valid signature.
	err = signer.Verify("3f1a7c2e-0000-4000-8000-000000000002", query.Get("expires"), query.Get("signature"), now)
	if !errors.Is(err, ErrBadSignature) {
		t.Errorf("err = %v, want %v", err, ErrBadSignature)
	}

	// Extended expiry invalidates the signature.
	err = signer.Verify(key, "9999999999", query.Get("signature"), now)
	if !errors.Is(err, ErrBadSignature) {
		t.Errorf("err = %v, want %v", err, ErrBadSignature)
	}

	// Garbage expiry.
	err = signer.Verify(key, "soon", query.Get("signature"), now)
	if !errors.Is(err, ErrBadSignature) {
		t.Errorf("err = %v, want %v", err, ErrBadSignature)
	}
}

func TestVerifyExpiredLink(t *testing.T) {
	signer := NewSigner("test-secret", time.Minute, "http://localhost:8080")
	now := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)

	signed := signer.SignedURL("3f1a7c2e-0000-4000-8000-000000000001", "", now)
	parsed, err := url.Parse(signed)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	query := parsed.Query()
	key := strings.TrimPrefix(parsed.Path, "/files/")

	err = signer.Verify(key, query.Get("expires"), query.Get("signature"), now.Add(2*time.Minute))
	if !errors.Is(err, ErrLinkExpired) {
		t.Errorf("err = %v, want %v", err, ErrLinkExpired)
	}
}

func TestSignersWithDifferentSecretsDisagree(t *testing.T) {
	now := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	first := NewSigner("secret-a", time.Minute, "http://localhost")
	second := NewSigner("secret-b", time.Minute, "http://localhost")

	signed := first.SignedURL("3f1a7c2e-0000-4000-8000-000000000001", "", now)
	parsed, err := url.Parse(signed)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	query := parsed.Query()
	key := strings.TrimPrefix(parsed.Path, "/files/")

	err = second.Verify(key, query.Get("expires"), query.Get("signature"), now)
	if !errors.Is(err, ErrBadSignature) {
		t.Errorf("err = %v, want %v", err, ErrBadSignature)
	}
}
