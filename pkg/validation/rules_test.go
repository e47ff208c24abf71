package validation

import (
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
)

func TestPassword(t *testing.T) {
	valid := []string{"StrongPass1!", "A1b2c3d4$", "P@ssword123", "Complex*Password9"}
	for _, pw := range valid {
		if err := Password(pw); err != nil {
			t.Fatalf("expected %q to be valid, got %v", pw, err)
		}
	}

	invalid := map[string]error{
		"short1!":       ErrPasswordTooShort,
		"nouppercase1!": ErrPasswordNoUpper,
		"NOLOWERCASE1!": ErrPasswordNoLower,
		"NoNumber!":     ErrPasswordNoDigit,
		"NoSpecial123":  ErrPasswordNoSpecial,
	}
	for pw, want := range invalid {
		if err := Password(pw); !errors.Is(err, want) {
			t.Fatalf("expected %q to fail with %v, got %v", pw, want, err)
		}
	}
}

func TestNickname(t *testing.T) {
	for _, nick := range []string{"test_user", "test-user", "testuser123", "123test"} {
		if err := Nickname(nick); err != nil {
			t.Fatalf("expected %q to be valid, got %v", nick, err)
		}
	}
	for _, nick := range []string{"test user", "test?user", "", "us"} {
		if err := Nickname(nick); err == nil {
			t.Fatalf("expected %q to be rejected", nick)
		}
	}
}

func TestProfileURL(t *testing.T) {
	valid := []string{
		"http://valid.com/profile.jpg",
		"https://valid.com/profile.png",
		"https://www.linkedin.com/in/jane",
		"https://github.com/jane",
	}
	for _, u := range valid {
		if err := ProfileURL(u); err != nil {
			t.Fatalf("expected %q to be valid, got %v", u, err)
		}
	}
	invalid := []string{"ftp://invalid.com/profile.jpg", "http//invalid", "https//invalid", "https://", "not a url"}
	for _, u := range invalid {
		if err := ProfileURL(u); err == nil {
			t.Fatalf("expected %q to be rejected", u)
		}
	}
}

func TestEmail(t *testing.T) {
	if err := Email("john.doe@example.com"); err != nil {
		t.Fatalf("expected valid email, got %v", err)
	}
	for _, e := range []string{"john.doe.example.com", "", "@example.com"} {
		if err := Email(e); !errors.Is(err, ErrEmailInvalid) {
			t.Fatalf("expected %q to be rejected, got %v", e, err)
		}
	}
	if got := NormalizeEmail("  Jane@Example.COM "); got != "jane@example.com" {
		t.Fatalf("unexpected normalized email %q", got)
	}
}

func TestRegisterTags(t *testing.T) {
	v := validator.New()
	if err := RegisterTags(v); err != nil {
		t.Fatalf("register tags: %v", err)
	}

	type payload struct {
		Nickname *string `validate:"omitnil,nickname"`
		Password string  `validate:"required,strong_password"`
		Picture  *string `validate:"omitnil,profile_url"`
	}

	nick := "jane_doe"
	if err := v.Struct(payload{Nickname: &nick, Password: "StrongPass1!"}); err != nil {
		t.Fatalf("expected payload to pass, got %v", err)
	}

	bad := "ftp://x.com/a.png"
	err := v.Struct(payload{Password: "weak", Picture: &bad})
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected validation errors, got %v", err)
	}
	if len(verrs) != 2 {
		t.Fatalf("expected 2 failures, got %d", len(verrs))
	}
	for _, fe := range verrs {
		msg, ok := Message(fe.Tag(), fe.Value())
		if !ok || msg == "" {
			t.Fatalf("expected message for tag %s", fe.Tag())
		}
	}
}

func TestMessageUnknownTag(t *testing.T) {
	if _, ok := Message("required", ""); ok {
		t.Fatal("builtin tags are not ours")
	}
	if msg, _ := Message(TagPassword, "short1!"); msg != ErrPasswordTooShort.Error() {
		t.Fatalf("unexpected message %q", msg)
	}
}
