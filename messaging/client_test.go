// Copyright 2026 The Herald Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/herald-project/herald/lib/ref"
	"github.com/herald-project/herald/lib/secret"
)

func testBuffer(t *testing.T, value string) *secret.Buffer {
	t.Helper()
	buffer, err := secret.NewFromBytes([]byte(value))
	if err != nil {
		t.Fatalf("creating secret buffer: %v", err)
	}
	t.Cleanup(func() { buffer.Close() })
	return buffer
}

func TestNewClient(t *testing.T) {
	_, err := NewClient(ClientConfig{})
	if err == nil {
		t.Fatal("expected error for missing HomeserverURL")
	}

	client, err := NewClient(ClientConfig{HomeserverURL: "https://matrix.herald.test/"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if client.baseURL != "https://matrix.herald.test" {
		t.Errorf("baseURL = %q, trailing slash should be stripped", client.baseURL)
	}
}

func TestLogin(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if request.URL.Path != "/_matrix/client/v3/login" {
			t.Errorf("unexpected path %q", request.URL.Path)
		}
		var body LoginRequest
		if err := json.NewDecoder(request.Body).Decode(&body); err != nil {
			t.Fatalf("decoding login request: %v", err)
		}
		if body.Type != "m.login.password" {
			t.Errorf("login type = %q", body.Type)
		}
		if body.Password != "hunter2" {
			t.Errorf("password = %q", body.Password)
		}
		writeJSON(writer, AuthResponse{
			UserID:      ref.MustParseUserID("@herald:herald.test"),
			AccessToken: "syt_token",
			DeviceID:    "HERALDDEV",
		})
	}))
	defer server.Close()

	client, err := NewClient(ClientConfig{HomeserverURL: server.URL})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	session, err := client.Login(context.Background(), "herald", testBuffer(t, "hunter2"))
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	defer session.Close()

	if session.UserID().String() != "@herald:herald.test" {
		t.Errorf("UserID = %q", session.UserID())
	}
	if session.AccessToken() != "syt_token" {
		t.Errorf("AccessToken = %q", session.AccessToken())
	}
	if session.DeviceID() != "HERALDDEV" {
		t.Errorf("DeviceID = %q", session.DeviceID())
	}
}

func TestLoginRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writer.WriteHeader(http.StatusForbidden)
		writeJSON(writer, map[string]string{
			"errcode": "M_FORBIDDEN",
			"error":   "Invalid password",
		})
	}))
	defer server.Close()

	client, err := NewClient(ClientConfig{HomeserverURL: server.URL})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	_, err = client.Login(context.Background(), "herald", testBuffer(t, "wrong"))
	if err == nil {
		t.Fatal("expected login error")
	}
	var matrixErr *MatrixError
	if !errors.As(err, &matrixErr) {
		t.Fatalf("error is %T, want *MatrixError", err)
	}
	if matrixErr.Code != ErrCodeForbidden {
		t.Errorf("Code = %q, want M_FORBIDDEN", matrixErr.Code)
	}
	if matrixErr.StatusCode != http.StatusForbidden {
		t.Errorf("StatusCode = %d, want 403", matrixErr.StatusCode)
	}
}

func TestSessionFromToken(t *testing.T) {
	client, err := NewClient(ClientConfig{HomeserverURL: "https://matrix.herald.test"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	session, err := client.SessionFromToken(ref.MustParseUserID("@herald:herald.test"), "syt_saved")
	if err != nil {
		t.Fatalf("SessionFromToken: %v", err)
	}
	defer session.Close()

	if session.AccessToken() != "syt_saved" {
		t.Errorf("AccessToken = %q", session.AccessToken())
	}
}

func TestIsMatrixError(t *testing.T) {
	err := &MatrixError{Code: ErrCodeNotFound, StatusCode: 404, Message: "not found"}
	if !IsMatrixError(err, ErrCodeNotFound) {
		t.Error("IsMatrixError should match M_NOT_FOUND")
	}
	if IsMatrixError(err, ErrCodeForbidden) {
		t.Error("IsMatrixError should not match a different code")
	}
	if IsMatrixError(errors.New("plain"), ErrCodeNotFound) {
		t.Error("IsMatrixError should not match non-MatrixError")
	}
}

func writeJSON(writer http.ResponseWriter, value any) {
	writer.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(writer).Encode(value)
}
