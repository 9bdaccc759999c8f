package discord

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

const defaultGatewayURL = "wss://gateway.discord.gg/?v=10&encoding=json"

// Gateway intents: Guilds, GuildMessages, MessageContent.
const identifyIntents = 1<<0 | 1<<9 | 1<<15

const (
	opDispatch       = 0
	opIdentify       = 2
	opInvalidSession = 9
	opHello          = 10
)

// Session identifies a completed gateway login.
type Session struct {
	SessionID string
	Username  string
}

type gatewayPayload struct {
	Op int             `json:"op"`
	T  string          `json:"t,omitempty"`
	D  json.RawMessage `json:"d,omitempty"`
}

// Login performs the gateway identify handshake once: dial, wait for
// HELLO, send IDENTIFY, wait for READY, then close the socket. It
// exists to validate the bot token at startup; all fetching afterwards
// goes through the REST client.
func Login(ctx context.Context, gatewayURL, token string) (*Session, error) {
	gatewayURL = strings.TrimSpace(gatewayURL)
	if gatewayURL == "" {
		gatewayURL = defaultGatewayURL
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, fmt.Errorf("bot token is required")
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, gatewayURL, nil)
	if err != nil {
		return nil, fmt.Errorf("gateway dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")
	// READY payloads for large bots exceed the default read limit.
	conn.SetReadLimit(1 << 22)

	var hello gatewayPayload
	if err := wsjson.Read(ctx, conn, &hello); err != nil {
		return nil, fmt.Errorf("gateway hello: %w", err)
	}
	if hello.Op != opHello {
		return nil, fmt.Errorf("gateway hello: unexpected op %d", hello.Op)
	}

	identify := map[string]any{
		"op": opIdentify,
		"d": map[string]any{
			"token":   token,
			"intents": identifyIntents,
			"properties": map[string]string{
				"os":      "linux",
				"browser": "disco-snails",
				"device":  "disco-snails",
			},
		},
	}
	if err := wsjson.Write(ctx, conn, identify); err != nil {
		return nil, fmt.Errorf("gateway identify: %w", err)
	}

	for {
		var payload gatewayPayload
		if err := wsjson.Read(ctx, conn, &payload); err != nil {
			return nil, fmt.Errorf("gateway ready: %w", err)
		}
		switch payload.Op {
		case opInvalidSession:
			return nil, fmt.Errorf("gateway rejected the session (bad token or intents)")
		case opDispatch:
			if payload.T != "READY" {
				continue
			}
			var ready struct {
				SessionID string `json:"session_id"`
				User      struct {
					Username string `json:"username"`
				} `json:"user"`
			}
			if err := json.Unmarshal(payload.D, &ready); err != nil {
				return nil, fmt.Errorf("gateway ready payload: %w", err)
			}
			return &Session{
				SessionID: ready.SessionID,
				Username:  ready.User.Username,
			}, nil
		}
	}
}
