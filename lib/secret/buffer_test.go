// Copyright 2026 The Herald Authors
// SPDX-License-Identifier: Apache-2.0

package secret_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/herald-project/herald/lib/secret"
)

func TestNewFromBytes(t *testing.T) {
	source := []byte("hunter2-access-token")
	buffer, err := secret.NewFromBytes(source)
	if err != nil {
		t.Fatalf("NewFromBytes: %v", err)
	}
	defer buffer.Close()

	if got := buffer.String(); got != "hunter2-access-token" {
		t.Errorf("String() = %q, want the original secret", got)
	}
	if buffer.Len() != len("hunter2-access-token") {
		t.Errorf("Len() = %d, want %d", buffer.Len(), len("hunter2-access-token"))
	}

	// The caller's slice must have been zeroed.
	for index, b := range source {
		if b != 0 {
			t.Fatalf("source byte %d not zeroed: %d", index, b)
		}
	}
}

func TestNewFromBytesEmpty(t *testing.T) {
	if _, err := secret.NewFromBytes(nil); err == nil {
		t.Error("NewFromBytes(nil) should fail")
	}
}

func TestNewInvalidSize(t *testing.T) {
	if _, err := secret.New(0); err == nil {
		t.Error("New(0) should fail")
	}
	if _, err := secret.New(-1); err == nil {
		t.Error("New(-1) should fail")
	}
}

func TestCloseIdempotent(t *testing.T) {
	buffer, err := secret.NewFromBytes([]byte("token"))
	if err != nil {
		t.Fatalf("NewFromBytes: %v", err)
	}
	if err := buffer.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := buffer.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestAccessAfterClosePanics(t *testing.T) {
	buffer, err := secret.NewFromBytes([]byte("token"))
	if err != nil {
		t.Fatalf("NewFromBytes: %v", err)
	}
	buffer.Close()

	defer func() {
		if recover() == nil {
			t.Error("Bytes() after Close should panic")
		}
	}()
	buffer.Bytes()
}

func TestZero(t *testing.T) {
	data := []byte{1, 2, 3}
	secret.Zero(data)
	if !bytes.Equal(data, []byte{0, 0, 0}) {
		t.Errorf("Zero left %v", data)
	}
}

func TestReadFromPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "password")
	if err := os.WriteFile(path, []byte("  swordfish\n"), 0600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	buffer, err := secret.ReadFromPath(path)
	if err != nil {
		t.Fatalf("ReadFromPath: %v", err)
	}
	defer buffer.Close()

	if got := buffer.String(); got != "swordfish" {
		t.Errorf("secret = %q, want whitespace-trimmed %q", got, "swordfish")
	}
}

func TestReadFromPathEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "password")
	if err := os.WriteFile(path, []byte("  \n"), 0600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := secret.ReadFromPath(path); err == nil {
		t.Error("whitespace-only secret should fail")
	}
}
