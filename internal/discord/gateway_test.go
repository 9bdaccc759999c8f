package discord

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

func fakeGateway(t *testing.T, rejectSession bool) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			t.Errorf("accept failed: %v", err)
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "")
		ctx := r.Context()

		if err := wsjson.Write(ctx, conn, map[string]any{
			"op": opHello,
			"d":  map[string]any{"heartbeat_interval": 41250},
		}); err != nil {
			return
		}

		var identify struct {
			Op int `json:"op"`
			D  struct {
				Token   string `json:"token"`
				Intents int    `json:"intents"`
			} `json:"d"`
		}
		if err := wsjson.Read(ctx, conn, &identify); err != nil {
			return
		}
		if identify.Op != opIdentify {
			t.Errorf("expected identify op, got %d", identify.Op)
			return
		}
		if rejectSession || identify.D.Token != "good-token" {
			_ = wsjson.Write(ctx, conn, map[string]any{"op": opInvalidSession, "d": false})
			return
		}
		if identify.D.Intents != identifyIntents {
			t.Errorf("unexpected intents: %d", identify.D.Intents)
		}

		ready, _ := json.Marshal(map[string]any{
			"session_id": "sess_1",
			"user":       map[string]string{"username": "snailbot"},
		})
		_ = wsjson.Write(ctx, conn, map[string]any{
			"op": opDispatch,
			"t":  "READY",
			"d":  json.RawMessage(ready),
		})
	}))
}

func TestLoginHandshake(t *testing.T) {
	server := fakeGateway(t, false)
	defer server.Close()

	session, err := Login(context.Background(), server.URL, "good-token")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if session.SessionID != "sess_1" {
		t.Fatalf("expected session id sess_1, got %s", session.SessionID)
	}
	if session.Username != "snailbot" {
		t.Fatalf("expected username snailbot, got %s", session.Username)
	}
}

func TestLoginRejectsBadToken(t *testing.T) {
	server := fakeGateway(t, false)
	defer server.Close()

	if _, err := Login(context.Background(), server.URL, "bad-token"); err == nil {
		t.Fatalf("expected login to fail for a rejected session")
	}
}

func TestLoginRequiresToken(t *testing.T) {
	if _, err := Login(context.Background(), "", "  "); err == nil {
		t.Fatalf("expected error for empty token")
	}
}
