package main

import (
	"bytes"
	"context"
	"io"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
)

type recordedRequest struct {
	Method        string
	Path          string
	Query         string
	Authorization string
	RequestID     string
	Body          []byte
}

// fakeGateway is an in-process gateway recording every request it receives.
// Routes must be registered before the first request is sent.
type fakeGateway struct {
	*gin.Engine
	server *httptest.Server

	mu       sync.Mutex
	requests []recordedRequest
}

func newFakeGateway(t *testing.T) *fakeGateway {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gateway := &fakeGateway{Engine: gin.New()}
	gateway.Use(func(c *gin.Context) {
		body, _ := io.ReadAll(c.Request.Body)
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
		gateway.mu.Lock()
		gateway.requests = append(gateway.requests, recordedRequest{
			Method:        c.Request.Method,
			Path:          c.Request.URL.Path,
			Query:         c.Request.URL.RawQuery,
			Authorization: c.GetHeader("Authorization"),
			RequestID:     c.GetHeader("X-Request-ID"),
			Body:          body,
		})
		gateway.mu.Unlock()
		c.Next()
	})
	gateway.server = httptest.NewServer(gateway.Engine)
	t.Cleanup(gateway.server.Close)
	return gateway
}

func (g *fakeGateway) URL() string {
	return g.server.URL
}

func (g *fakeGateway) Requests() []recordedRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]recordedRequest(nil), g.requests...)
}

func openTestStore(t *testing.T) *SQLiteSessionStore {
	t.Helper()
	store, err := OpenSessionStore(context.Background(), filepath.Join(t.TempDir(), "session.db"))
	if err != nil {
		t.Fatalf("failed to open session store: %s", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func testConfig(gatewayURL string) Config {
	return Config{
		GatewayURL: gatewayURL,
		AlertPath:  "/alerte/detecte",
		RateLimit:  1000,
		WhatsAppDB: "unused.db",
	}
}

// newTestClient returns a client talking to the gateway. A non-empty token
// is stored in the session beforehand.
func newTestClient(t *testing.T, gateway *fakeGateway, token string) (*MedilaboClient, *SQLiteSessionStore) {
	t.Helper()
	store := openTestStore(t)
	if token != "" {
		if err := store.Set(context.Background(), token); err != nil {
			t.Fatalf("failed to store token: %s", err)
		}
	}
	client, err := NewMedilaboClient(testConfig(gateway.URL()), store)
	if err != nil {
		t.Fatalf("failed to create client: %s", err)
	}
	return client, store
}

func newTestEnvironment(t *testing.T, gateway *fakeGateway, token string) (*environment, *bytes.Buffer) {
	t.Helper()
	client, store := newTestClient(t, gateway, token)
	out := new(bytes.Buffer)
	return &environment{
		ctx:     context.Background(),
		config:  testConfig(gateway.URL()),
		session: store,
		client:  client,
		out:     out,
	}, out
}
