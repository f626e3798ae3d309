package password

import (
	"strings"
	"testing"
)

func TestHashAndVerify(t *testing.T) {
	encoded, err := Hash("correct-horse")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !strings.HasPrefix(encoded, "$argon2id$v=19$") {
		t.Errorf("unexpected encoding %q", encoded)
	}
	if !Verify("correct-horse", encoded) {
		t.Error("correct password rejected")
	}
	if Verify("wrong-horse", encoded) {
		t.Error("wrong password accepted")
	}
}

func TestHashIsSalted(t *testing.T) {
	first, err := Hash("correct-horse")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	second, err := Hash("correct-horse")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if first == second {
		t.Error("two hashes of the same password should differ")
	}
}

func TestVerifyRejectsMalformedEncodings(t *testing.T) {
	for _, encoded := range []string{
		"",
		"plaintext",
		"$argon2i$v=19$m=65536,t=1,p=4$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=65536,t=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=65536,t=1,p=4$!!!$aGFzaA",
	} {
		if Verify("anything", encoded) {
			t.Errorf("Verify accepted malformed encoding %q", encoded)
		}
	}
}
