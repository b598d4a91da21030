package account

import (
	"strings"
	"testing"
)

func TestVerifyRegisteredCredential(t *testing.T) {
	svc := NewService(false)
	if err := svc.RegisterUser("alice", "hunter2"); err != nil {
		t.Fatalf("RegisterUser: %v", err)
	}

	userID, err := svc.Verify("alice:hunter2")
	if err != nil || userID != "alice" {
		t.Fatalf("expected alice, got %q err=%v", userID, err)
	}
	if _, err := svc.Verify("alice:wrong"); err != ErrInvalidToken {
		t.Fatalf("wrong secret must be rejected, got %v", err)
	}
	if _, err := svc.Verify("bob:hunter2"); err != ErrInvalidToken {
		t.Fatalf("unknown user must be rejected, got %v", err)
	}
	if !svc.Exists("alice") || svc.Exists("bob") {
		t.Fatalf("Exists mismatch")
	}
}

func TestGuestTokensMintFreshIdentities(t *testing.T) {
	svc := NewService(true)
	a, err := svc.Verify("guest:")
	if err != nil {
		t.Fatalf("guest verify: %v", err)
	}
	b, err := svc.Verify("guest:")
	if err != nil {
		t.Fatalf("guest verify: %v", err)
	}
	if !strings.HasPrefix(a, "guest-") || a == b {
		t.Fatalf("guest identities must be fresh: %q %q", a, b)
	}

	strict := NewService(false)
	if _, err := strict.Verify("guest:"); err != ErrInvalidToken {
		t.Fatalf("guests must be rejected when disabled, got %v", err)
	}
}

func TestMalformedTokensRejected(t *testing.T) {
	svc := NewService(true)
	for _, token := range []string{"", "justuser", ":secret"} {
		if _, err := svc.Verify(token); err != ErrInvalidToken {
			t.Fatalf("token %q must be rejected, got %v", token, err)
		}
	}
}
