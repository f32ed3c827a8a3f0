// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/dikshapatel15/Decentralized-Voting-System/auth"
	"github.com/dikshapatel15/Decentralized-Voting-System/db"
	"github.com/dikshapatel15/Decentralized-Voting-System/election"
	"github.com/dikshapatel15/Decentralized-Voting-System/ledger"
	"github.com/dikshapatel15/Decentralized-Voting-System/metrics"
	"github.com/dikshapatel15/Decentralized-Voting-System/router"
)

// Secret signs every token issued during a run.
const Secret = "e2e-jwt-secret-0123456789"

// TestContext holds one scenario's server and the last response.
type TestContext struct {
	server *httptest.Server
	tokens *auth.Tokens

	lastStatus int
	lastBody   []byte
}

func NewTestContext() *TestContext {
	return &TestContext{}
}

// Start serves a fresh election administered by admin.
func (tc *TestContext) Start(ctx context.Context, name string, admin election.Principal) error {
	tc.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tokens, err := auth.NewTokens(Secret, time.Hour)
	if err != nil {
		return err
	}
	m := metrics.New()
	l, err := ledger.Open(ctx, db.NewMemoryStore(), ledger.Bootstrap{Administrator: admin, Name: name},
		ledger.WithLogger(logger),
		ledger.WithMetrics(m),
	)
	if err != nil {
		return err
	}

	tc.tokens = tokens
	tc.server = httptest.NewServer(router.NewRouter(l, tokens, m, logger))
	return nil
}

// Close stops the scenario's server.
func (tc *TestContext) Close() {
	if tc.server != nil {
		tc.server.Close()
		tc.server = nil
	}
	tc.lastStatus = 0
	tc.lastBody = nil
}

// Do sends a request as caller; an empty caller sends no token.
func (tc *TestContext) Do(method, path string, caller election.Principal, body any) error {
	if tc.server == nil {
		return fmt.Errorf("no election is running")
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, tc.server.URL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if caller != "" {
		token, err := tc.tokens.Issue(caller)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := tc.server.Client().Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	tc.lastStatus = resp.StatusCode
	tc.lastBody, err = io.ReadAll(resp.Body)
	return err
}

// Status returns the status code of the last response.
func (tc *TestContext) Status() int {
	return tc.lastStatus
}

// Decode unmarshals the last response body into v.
func (tc *TestContext) Decode(v any) error {
	if err := json.Unmarshal(tc.lastBody, v); err != nil {
		return fmt.Errorf("decode %q: %w", tc.lastBody, err)
	}
	return nil
}

// Body returns the last response body.
func (tc *TestContext) Body() string {
	return string(tc.lastBody)
}
