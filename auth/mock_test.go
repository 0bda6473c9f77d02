package auth

import "testing"

func TestMockAuthenticate(t *testing.T) {
	m := NewMock()

	sessionKey, email, err := m.Authenticate("pilot@example.com")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if email != "pilot@example.com" {
		t.Errorf("email = %q, want pilot@example.com", email)
	}
	if sessionKey == "" {
		t.Error("Authenticate should return a non-empty session key")
	}
}

func TestMockValidateSessionKey(t *testing.T) {
	m := NewMock()
	sessionKey, email, err := m.Authenticate("pilot@example.com")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}

	got, err := m.ValidateSessionKey(sessionKey)
	if err != nil {
		t.Fatalf("ValidateSessionKey: %v", err)
	}
	if got != email {
		t.Errorf("ValidateSessionKey() = %q, want %q", got, email)
	}
}

func TestMockValidateUnknownSessionKey(t *testing.T) {
	m := NewMock()
	if _, err := m.ValidateSessionKey("never-issued"); err == nil {
		t.Error("ValidateSessionKey with an unissued key should fail")
	}
}

func TestMockSessionKeysAreDistinctPerCode(t *testing.T) {
	m := NewMock()
	key1, _, _ := m.Authenticate("alice@example.com")
	key2, _, _ := m.Authenticate("bob@example.com")

	if key1 == key2 {
		t.Errorf("distinct codes produced the same session key %q", key1)
	}
}
