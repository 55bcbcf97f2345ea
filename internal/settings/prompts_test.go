package settings

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestPrompter_UsesDefaultsAndKeepsToken(t *testing.T) {
	current := New()
	current.Collection = "https://dev.azure.com/contoso"
	current.Project = "Platform"
	current.PersonalAccessToken = "old-token"

	var out bytes.Buffer
	p := NewPrompter(strings.NewReader("\nPayments\n\n"), &out)
	p.ReadSecret = func() (string, error) { return "", nil }

	got, err := p.Prompt(current)
	if err != nil {
		t.Fatalf("Prompt returned error: %v", err)
	}

	if got.Collection != current.Collection {
		t.Errorf("Expected default collection, got %q", got.Collection)
	}
	if got.Project != "Payments" {
		t.Errorf("Expected project Payments, got %q", got.Project)
	}
	if got.PersonalAccessToken != "old-token" {
		t.Errorf("Expected existing token to be kept, got %q", got.PersonalAccessToken)
	}
	if got.RefreshSeconds != DefaultRefreshSeconds {
		t.Errorf("Expected default refresh, got %d", got.RefreshSeconds)
	}
	if current.Project != "Platform" {
		t.Errorf("Prompt must not modify the current settings")
	}
	if !strings.Contains(out.String(), "leave empty to keep current") {
		t.Errorf("Expected keep-current hint in prompt output")
	}
}

func TestPrompter_ReplacesToken(t *testing.T) {
	p := NewPrompter(strings.NewReader("https://dev.azure.com/fabrikam\nWeb\n20\n"), &bytes.Buffer{})
	p.ReadSecret = func() (string, error) { return " new-token ", nil }

	got, err := p.Prompt(New())
	if err != nil {
		t.Fatalf("Prompt returned error: %v", err)
	}
	if got.PersonalAccessToken != "new-token" {
		t.Errorf("Expected new token, got %q", got.PersonalAccessToken)
	}
	if got.RefreshSeconds != 20 {
		t.Errorf("Expected refresh 20, got %d", got.RefreshSeconds)
	}
	if err := got.Validate(); err != nil {
		t.Errorf("Expected prompted settings to validate, got %v", err)
	}
}

func TestPrompter_Errors(t *testing.T) {
	p := NewPrompter(strings.NewReader("\n\nsoon\n"), &bytes.Buffer{})
	p.ReadSecret = func() (string, error) { return "token", nil }
	if _, err := p.Prompt(New()); err == nil {
		t.Error("Expected error for non-numeric refresh seconds")
	}

	p = NewPrompter(strings.NewReader("\n\n"), &bytes.Buffer{})
	p.ReadSecret = func() (string, error) { return "", errors.New("tty closed") }
	if _, err := p.Prompt(New()); err == nil || !strings.Contains(err.Error(), "tty closed") {
		t.Errorf("Expected secret read error, got %v", err)
	}
}
