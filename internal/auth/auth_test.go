package auth

import "testing"

func TestHashAndCheckPassword(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("correct horse")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "correct horse" {
		t.Fatal("HashPassword returned the plaintext")
	}
	if err := CheckPassword("correct horse", hash); err != nil {
		t.Errorf("CheckPassword with right password: %v", err)
	}
	if err := CheckPassword("wrong", hash); err == nil {
		t.Error("CheckPassword with wrong password: got nil, want error")
	}
}

func TestValidatePassword(t *testing.T) {
	t.Parallel()

	if err := ValidatePassword("abcdef"); err != nil {
		t.Errorf("ValidatePassword(6 chars): %v", err)
	}
	if err := ValidatePassword("abc"); err == nil {
		t.Error("ValidatePassword(3 chars): got nil, want error")
	}
}
