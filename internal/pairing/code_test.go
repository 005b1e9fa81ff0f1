package pairing

import (
	"strings"
	"testing"
)

func TestGenerateCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		code, err := GenerateCode()
		if err != nil {
			t.Fatalf("GenerateCode: %v", err)
		}
		if len(code) != codeLength {
			t.Fatalf("code length: got %d, want %d", len(code), codeLength)
		}
		for _, c := range code {
			if !strings.ContainsRune(codeAlphabet, c) {
				t.Fatalf("code %q contains %q outside the alphabet", code, c)
			}
		}
		seen[code] = true
	}
	// With a ~30^6 space, 100 draws colliding down to a handful would
	// mean the generator is broken.
	if len(seen) < 95 {
		t.Errorf("expected near-unique codes, got %d distinct of 100", len(seen))
	}
}

func TestGenerateToken(t *testing.T) {
	a, err := GenerateToken()
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	b, err := GenerateToken()
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if len(a) != tokenBytes*2 {
		t.Errorf("token length: got %d, want %d hex chars", len(a), tokenBytes*2)
	}
	if a == b {
		t.Error("two generated tokens should not collide")
	}
}

func TestHashToken(t *testing.T) {
	h1 := HashToken("secret")
	h2 := HashToken("secret")
	h3 := HashToken("other")

	if h1 != h2 {
		t.Error("hashing must be deterministic")
	}
	if h1 == h3 {
		t.Error("different tokens must hash differently")
	}
	if len(h1) != 64 {
		t.Errorf("hash length: got %d, want 64 hex chars", len(h1))
	}
	if h1 == "secret" {
		t.Error("hash must not equal the raw token")
	}
}
