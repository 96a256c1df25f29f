package main

import (
	"context"
	"errors"
	"testing"

	"github.com/sgpt-tools/sgpt-setup/pkg/capability"
)

func TestMaskKey(t *testing.T) {
	cases := []struct {
		key  string
		want string
	}{
		{"", "***"},
		{"ab", "ab***"},
		{"abc", "abc***"},
		{"abcdefghi", "abc***"},
		{"abcdefghij", "abcde***ghij"},
		{"sk-abcdefghijklmnopqrstuvwxyz123456", "sk-ab***3456"},
	}
	for _, tc := range cases {
		if got := maskKey(tc.key); got != tc.want {
			t.Errorf("maskKey(%q) = %q, want %q", tc.key, got, tc.want)
		}
	}
}

func TestAcquireCredential_FlagKeyWinsWhenValid(t *testing.T) {
	client := &mockClient{}
	s, store := newTestSession(t, sessionConfig{client: client})
	if err := store.Write("sk-stored-key-12345", capability.FallbackModel); err != nil {
		t.Fatal(err)
	}

	if err := s.AcquireCredential(context.Background(), "sk-flag-key-12345"); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if s.apiKey != "sk-flag-key-12345" {
		t.Errorf("apiKey = %q, want the flag key over the stored one", s.apiKey)
	}
	if client.ValidateCalls != 1 {
		t.Errorf("validate calls = %d, want 1", client.ValidateCalls)
	}
}

func TestAcquireCredential_FallsBackToStoredKey(t *testing.T) {
	s, store := newTestSession(t, sessionConfig{})
	if err := store.Write("sk-stored-key-12345", capability.FallbackModel); err != nil {
		t.Fatal(err)
	}

	if err := s.AcquireCredential(context.Background(), ""); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if s.apiKey != "sk-stored-key-12345" {
		t.Errorf("apiKey = %q, want the stored key", s.apiKey)
	}
}

func TestAcquireCredential_InvalidKeyFallsThroughToPrompt(t *testing.T) {
	client := &mockClient{
		ValidateFunc: func(ctx context.Context, apiKey string) (bool, *capability.Failure) {
			if apiKey == "sk-expired-key-123" {
				return false, &capability.Failure{Kind: capability.FailureInvalidKey}
			}
			return true, nil
		},
	}
	s, _ := newTestSession(t, sessionConfig{
		client: client,
		secret: scriptedSecret("sk-fresh-key-12345"),
	})

	if err := s.AcquireCredential(context.Background(), "sk-expired-key-123"); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if s.apiKey != "sk-fresh-key-12345" {
		t.Errorf("apiKey = %q, want the interactively entered key", s.apiKey)
	}
}

func TestAcquireCredential_ShortEntriesRetryWithoutValidation(t *testing.T) {
	client := &mockClient{}
	s, _ := newTestSession(t, sessionConfig{
		client: client,
		secret: scriptedSecret("short", "tiny", "sk-long-enough-key"),
	})

	if err := s.AcquireCredential(context.Background(), ""); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if s.apiKey != "sk-long-enough-key" {
		t.Errorf("apiKey = %q", s.apiKey)
	}
	if client.ValidateCalls != 1 {
		t.Errorf("validate calls = %d, short entries must be rejected locally", client.ValidateCalls)
	}
}

func TestAcquireCredential_RejectedKeyPromptsAgain(t *testing.T) {
	client := &mockClient{
		ValidateFunc: func(ctx context.Context, apiKey string) (bool, *capability.Failure) {
			if apiKey == "sk-rejected-key-1" {
				return false, &capability.Failure{Kind: capability.FailureInvalidKey}
			}
			return true, nil
		},
	}
	s, _ := newTestSession(t, sessionConfig{
		client: client,
		secret: scriptedSecret("sk-rejected-key-1", "sk-accepted-key-2"),
	})

	if err := s.AcquireCredential(context.Background(), ""); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if s.apiKey != "sk-accepted-key-2" {
		t.Errorf("apiKey = %q", s.apiKey)
	}
	if client.ValidateCalls != 2 {
		t.Errorf("validate calls = %d, want 2", client.ValidateCalls)
	}
}

func TestAcquireCredential_NoInputIsNoCredential(t *testing.T) {
	s, _ := newTestSession(t, sessionConfig{})

	err := s.AcquireCredential(context.Background(), "")
	if !errors.Is(err, errNoCredential) {
		t.Fatalf("err = %v, want errNoCredential", err)
	}
	if s.apiKey != "" {
		t.Errorf("apiKey must stay empty, got %q", s.apiKey)
	}
}

func TestPromptForKey_CancelWordOnlyWhenAllowed(t *testing.T) {
	s, _ := newTestSession(t, sessionConfig{
		secret: scriptedSecret("CANCEL"),
	})

	_, err := s.promptForKey(context.Background(), true)
	if err == nil {
		t.Fatal("expected cancellation")
	}
}

func TestPromptForKey_CancelWordIgnoredWhenNotAllowed(t *testing.T) {
	// Without allowCancel the word is treated as a too-short key and
	// the prompt repeats until input runs out.
	s, _ := newTestSession(t, sessionConfig{
		secret: scriptedSecret("cancel", "sk-actual-key-12345"),
	})

	key, err := s.promptForKey(context.Background(), false)
	if err != nil {
		t.Fatalf("prompt: %v", err)
	}
	if key != "sk-actual-key-12345" {
		t.Errorf("key = %q", key)
	}
}
