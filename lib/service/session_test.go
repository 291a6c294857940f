// Copyright 2026 The Herald Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/herald-project/herald/lib/ref"
	"github.com/herald-project/herald/messaging"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

func newDirectSession(t *testing.T, homeserverURL, userID, token string) *messaging.DirectSession {
	t.Helper()
	client, err := messaging.NewClient(messaging.ClientConfig{
		HomeserverURL: homeserverURL,
		Logger:        testLogger(),
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	session, err := client.SessionFromToken(ref.MustParseUserID(userID), token)
	if err != nil {
		t.Fatalf("SessionFromToken: %v", err)
	}
	t.Cleanup(func() { session.Close() })
	return session
}

func TestSaveLoadSessionRoundTrip(t *testing.T) {
	stateDir := t.TempDir()
	original := newDirectSession(t,
		"https://matrix.example.com", "@herald:example.com", "syt_roundtrip")

	if err := SaveSession(stateDir, "https://matrix.example.com", original); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}

	// The session file holds an access token; it must not be
	// group- or world-readable.
	info, err := os.Stat(filepath.Join(stateDir, "session.json"))
	if err != nil {
		t.Fatalf("stat session.json: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("session.json permissions = %o, want 600", perm)
	}

	_, loaded, err := LoadSession(stateDir, "", testLogger())
	if err != nil {
		t.Fatalf("LoadSession: %v", err)
	}
	defer loaded.Close()

	if got := loaded.UserID().String(); got != "@herald:example.com" {
		t.Errorf("loaded user ID = %q, want @herald:example.com", got)
	}
	if got := loaded.AccessToken(); got != "syt_roundtrip" {
		t.Errorf("loaded access token = %q, want syt_roundtrip", got)
	}
}

func TestLoadSessionOverridesHomeserverURL(t *testing.T) {
	stateDir := t.TempDir()
	original := newDirectSession(t,
		"https://old.example.com", "@herald:example.com", "syt_override")
	if err := SaveSession(stateDir, "https://old.example.com", original); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}

	// A non-empty homeserverURL parameter wins over the stored one.
	client, loaded, err := LoadSession(stateDir, "https://new.example.com", testLogger())
	if err != nil {
		t.Fatalf("LoadSession: %v", err)
	}
	defer loaded.Close()
	_ = client
}

func TestLoadSessionMissingFile(t *testing.T) {
	_, _, err := LoadSession(t.TempDir(), "", testLogger())
	if err == nil {
		t.Fatal("expected error for missing session file")
	}
}

func TestLoadSessionEmptyToken(t *testing.T) {
	stateDir := t.TempDir()
	data, _ := json.Marshal(SessionData{
		HomeserverURL: "https://matrix.example.com",
		UserID:        "@herald:example.com",
	})
	if err := os.WriteFile(filepath.Join(stateDir, "session.json"), data, 0o600); err != nil {
		t.Fatal(err)
	}

	_, _, err := LoadSession(stateDir, "", testLogger())
	if err == nil {
		t.Fatal("expected error for empty access token")
	}
	if !strings.Contains(err.Error(), "access token") {
		t.Errorf("error = %v, want mention of access token", err)
	}
}

func TestLoadSessionMalformedJSON(t *testing.T) {
	stateDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(stateDir, "session.json"), []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}

	_, _, err := LoadSession(stateDir, "", testLogger())
	if err == nil {
		t.Fatal("expected error for malformed session file")
	}
}
