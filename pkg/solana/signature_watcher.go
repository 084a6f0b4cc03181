package solana

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

// SignatureWatcher waits for a single signature over the RPC websocket
// using signatureSubscribe.
type SignatureWatcher struct {
	wsEndpoint string
	dialer     *websocket.Dialer
}

func NewSignatureWatcher(wsEndpoint string) *SignatureWatcher {
	return &SignatureWatcher{
		wsEndpoint: wsEndpoint,
		dialer: &websocket.Dialer{
			HandshakeTimeout: 10 * time.Second,
		},
	}
}

type wsMessage struct {
	ID     *int            `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *RPCError       `json:"error"`
	Method string          `json:"method"`
	Params *struct {
		Subscription int `json:"subscription"`
		Result       struct {
			Context struct {
				Slot uint64 `json:"slot"`
			} `json:"context"`
			Value struct {
				Err interface{} `json:"err"`
			} `json:"value"`
		} `json:"result"`
	} `json:"params"`
}

// Wait blocks until the signature notification arrives or ctx is done.
func (w *SignatureWatcher) Wait(ctx context.Context, signature solana.Signature, commitment string) (*Confirmation, error) {
	c, _, err := w.dialer.DialContext(ctx, w.wsEndpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to websocket: %w", err)
	}
	defer c.Close()

	// Unblock ReadJSON when the caller gives up.
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			c.SetReadDeadline(time.Now())
		case <-stop:
		}
	}()

	subscribeMsg := map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "signatureSubscribe",
		"params": []interface{}{
			signature.String(),
			map[string]interface{}{
				"commitment": commitment,
			},
		},
	}
	if err := c.WriteJSON(subscribeMsg); err != nil {
		return nil, fmt.Errorf("failed to send subscription message: %w", err)
	}

	for {
		var msg wsMessage
		if err := c.ReadJSON(&msg); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("failed to read websocket message: %w", err)
		}

		if msg.Error != nil {
			return nil, msg.Error
		}
		if msg.ID != nil {
			log.WithFields(log.Fields{
				"signature":    signature.String(),
				"subscription": string(msg.Result),
			}).Debug("Subscribed to signature")
			continue
		}
		if msg.Method != "signatureNotification" || msg.Params == nil {
			continue
		}

		return &Confirmation{
			Slot: msg.Params.Result.Context.Slot,
			Err:  msg.Params.Result.Value.Err,
		}, nil
	}
}
