package crypto

import (
	"crypto/rand"
	"encoding/base64"
	"testing"
)

func testKey(t *testing.T) string {
	t.Helper()
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		t.Fatal(err)
	}
	return base64.StdEncoding.EncodeToString(key)
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	enc, err := NewAESEncryptor(testKey(t))
	if err != nil {
		t.Fatalf("new encryptor: %v", err)
	}
	plaintext := []byte("app access token value")
	ciphertext, err := enc.Encrypt(plaintext)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if string(ciphertext) == string(plaintext) {
		t.Fatal("ciphertext equals plaintext")
	}
	got, err := enc.Decrypt(ciphertext)
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if string(got) != string(plaintext) {
		t.Fatalf("got %q, want %q", got, plaintext)
	}
}

func TestEncryptNonDeterministic(t *testing.T) {
	enc, err := NewAESEncryptor(testKey(t))
	if err != nil {
		t.Fatal(err)
	}
	a, _ := enc.Encrypt([]byte("same input"))
	b, _ := enc.Encrypt([]byte("same input"))
	if string(a) == string(b) {
		t.Fatal("two encryptions produced identical ciphertext; nonce reuse?")
	}
}

func TestDecryptWrongKey(t *testing.T) {
	enc1, _ := NewAESEncryptor(testKey(t))
	enc2, _ := NewAESEncryptor(testKey(t))
	ciphertext, err := enc1.Encrypt([]byte("secret"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := enc2.Decrypt(ciphertext); err == nil {
		t.Fatal("expected auth failure with wrong key")
	}
}

func TestDecryptTampered(t *testing.T) {
	enc, _ := NewAESEncryptor(testKey(t))
	ciphertext, err := enc.Encrypt([]byte("secret"))
	if err != nil {
		t.Fatal(err)
	}
	ciphertext[len(ciphertext)-1] ^= 0x01
	if _, err := enc.Decrypt(ciphertext); err == nil {
		t.Fatal("expected auth failure on tampered ciphertext")
	}
}

func TestNewAESEncryptorBadKey(t *testing.T) {
	if _, err := NewAESEncryptor("not base64!!"); err == nil {
		t.Fatal("expected error for invalid base64")
	}
	short := base64.StdEncoding.EncodeToString([]byte("too short"))
	if _, err := NewAESEncryptor(short); err == nil {
		t.Fatal("expected error for short key")
	}
}

func TestEncryptStringEmpty(t *testing.T) {
	enc, _ := NewAESEncryptor(testKey(t))
	out, err := EncryptString(enc, "")
	if err != nil {
		t.Fatalf("encrypt empty: %v", err)
	}
	if out != "" {
		t.Fatalf("got %q, want empty", out)
	}
	back, err := DecryptString(enc, "")
	if err != nil || back != "" {
		t.Fatalf("decrypt empty: %q, %v", back, err)
	}
}

func TestEncryptStringRoundTrip(t *testing.T) {
	enc, _ := NewAESEncryptor(testKey(t))
	out, err := EncryptString(enc, "refresh-token")
	if err != nil {
		t.Fatal(err)
	}
	back, err := DecryptString(enc, out)
	if err != nil {
		t.Fatal(err)
	}
	if back != "refresh-token" {
		t.Fatalf("got %q", back)
	}
}
