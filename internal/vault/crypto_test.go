package vault

import (
	"bytes"
	"testing"
)

func TestSealerRoundTrip(t *testing.T) {
	s, err := newSealer([]byte("password"), nil)
	if err != nil {
		t.Fatalf("newSealer() error: %v", err)
	}
	if len(s.salt) != saltLen {
		t.Errorf("expected %d byte salt, got %d", saltLen, len(s.salt))
	}

	plaintext := []byte("secret data for testing")
	sealed, err := s.seal(plaintext)
	if err != nil {
		t.Fatalf("seal() error: %v", err)
	}
	if bytes.Contains(sealed, plaintext) {
		t.Error("sealed data contains the plaintext")
	}

	opened, err := s.open(sealed)
	if err != nil {
		t.Fatalf("open() error: %v", err)
	}
	if !bytes.Equal(opened, plaintext) {
		t.Errorf("expected %q, got %q", plaintext, opened)
	}
}

func TestSealerSameSaltSameKey(t *testing.T) {
	salt := []byte("fixed-salt-value")
	s1, _ := newSealer([]byte("password"), salt)
	s2, _ := newSealer([]byte("password"), salt)

	sealed, err := s1.seal([]byte("x"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err = s2.open(sealed); err != nil {
		t.Errorf("same password and salt should open: %v", err)
	}
}

func TestSealerWrongPassword(t *testing.T) {
	salt := []byte("fixed-salt-value")
	s1, _ := newSealer([]byte("password1"), salt)
	s2, _ := newSealer([]byte("password2"), salt)

	sealed, _ := s1.seal([]byte("x"))
	if _, err := s2.open(sealed); err == nil {
		t.Error("different password should not open")
	}
}

func TestSealerShortData(t *testing.T) {
	s, _ := newSealer([]byte("p"), nil)
	if _, err := s.open([]byte{1, 2}); err != errShortData {
		t.Errorf("expected errShortData, got %v", err)
	}
}

func TestSealerNonceUnique(t *testing.T) {
	s, _ := newSealer([]byte("p"), nil)
	a, _ := s.seal([]byte("same"))
	b, _ := s.seal([]byte("same"))
	if bytes.Equal(a, b) {
		t.Error("two seals of the same plaintext should differ")
	}
}
