// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dikshapatel15/Decentralized-Voting-System/auth"
	"github.com/dikshapatel15/Decentralized-Voting-System/cliparse"
	"github.com/dikshapatel15/Decentralized-Voting-System/db"
	"github.com/dikshapatel15/Decentralized-Voting-System/election"
	"github.com/dikshapatel15/Decentralized-Voting-System/ledger"
)

// Fixed identities and secrets shared by tests.
const (
	TestAdmin        election.Principal = "0xadmin"
	TestElectionName                    = "Test Election"
	TestSecret                          = "test-jwt-secret-0123456789"
)

// SetupTestDB opens a private in-memory SQLite database with the full schema.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := db.Open(context.Background(), db.TypeSQLite, ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:          3318,
		DatabaseURL:   ":memory:",
		DatabaseType:  db.TypeMemory,
		ElectionName:  TestElectionName,
		Administrator: string(TestAdmin),
		JWTSecret:     TestSecret,
		TokenTTL:      time.Hour,
		NotifyBuffer:  16,
		LogLevel:      "error",
		LogFormat:     "text",
	}
}

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// NewLedger opens a ledger for a fresh election administered by TestAdmin.
// A nil store means an in-memory one.
func NewLedger(t *testing.T, store ledger.Store, opts ...ledger.Option) *ledger.Ledger {
	t.Helper()

	if store == nil {
		store = db.NewMemoryStore()
	}
	opts = append([]ledger.Option{ledger.WithLogger(DiscardLogger())}, opts...)
	l, err := ledger.Open(context.Background(), store, ledger.Bootstrap{
		Administrator: TestAdmin,
		Name:          TestElectionName,
	}, opts...)
	if err != nil {
		t.Fatalf("Failed to open ledger: %v", err)
	}
	return l
}

// SetupElection adds candidates and registers voters while in setup.
// Candidate IDs follow the order of names, starting at 1.
func SetupElection(t *testing.T, l *ledger.Ledger, candidates []string, voters ...election.Principal) {
	t.Helper()
	ctx := context.Background()

	for _, name := range candidates {
		if _, err := l.AddCandidate(ctx, TestAdmin, name); err != nil {
			t.Fatalf("Failed to add candidate %q: %v", name, err)
		}
	}
	for _, p := range voters {
		if err := l.RegisterVoter(ctx, TestAdmin, p); err != nil {
			t.Fatalf("Failed to register voter %q: %v", p, err)
		}
	}
}

// OpenElection runs SetupElection and starts voting.
func OpenElection(t *testing.T, l *ledger.Ledger, candidates []string, voters ...election.Principal) {
	t.Helper()

	SetupElection(t, l, candidates, voters...)
	if err := l.StartVoting(context.Background(), TestAdmin); err != nil {
		t.Fatalf("Failed to start voting: %v", err)
	}
}

// NewTokens returns a token service signed with TestSecret.
func NewTokens(t *testing.T) *auth.Tokens {
	t.Helper()

	tokens, err := auth.NewTokens(TestSecret, time.Hour)
	if err != nil {
		t.Fatalf("Failed to create token service: %v", err)
	}
	return tokens
}

// BearerHeader returns an Authorization header for principal.
func BearerHeader(t *testing.T, tokens *auth.Tokens, principal election.Principal) map[string]string {
	t.Helper()

	token, err := tokens.Issue(principal)
	if err != nil {
		t.Fatalf("Failed to issue token for %q: %v", principal, err)
	}
	return map[string]string{"Authorization": "Bearer " + token}
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body any, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
