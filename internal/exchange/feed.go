package exchange

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"carousel/internal/model"
)

// KrakenStreamer implements the Streamer interface against the Kraken public
// websocket ticker channel.
type KrakenStreamer struct {
	logger *slog.Logger
	wsURL  string
}

// NewKrakenStreamer creates a new KrakenStreamer. An empty url uses the
// public production endpoint.
func NewKrakenStreamer(logger *slog.Logger, wsURL string) *KrakenStreamer {
	if wsURL == "" {
		wsURL = "wss://ws.kraken.com"
	}
	return &KrakenStreamer{logger: logger, wsURL: wsURL}
}

func (k *KrakenStreamer) Name() string {
	return "kraken"
}

// StartStream connects to the websocket API, subscribes the configured pairs
// and streams last-trade prices as ticks. It reconnects with capped
// exponential backoff until the context is cancelled.
func (k *KrakenStreamer) StartStream(ctx context.Context, ticks chan<- model.PriceTick, pairs []model.Pair) error {
	names, canon := krakenPairNames(pairs)
	backoff := time.Second
	for {
		select {
		case <-ctx.Done():
			k.logger.Info("KrakenStreamer: context cancelled, shutting down")
			return nil
		default:
		}

		k.logger.Info("KrakenStreamer: connecting to WebSocket", "url", k.wsURL, "backoff", backoff)
		c, _, err := websocket.DefaultDialer.Dial(k.wsURL, nil)
		if err != nil {
			k.logger.Error("KrakenStreamer: WebSocket connection failed", "error", err)
			if !sleepCtx(ctx, backoff) {
				return nil
			}
			backoff = nextBackoff(backoff)
			continue
		}

		subscription := map[string]interface{}{
			"event": "subscribe",
			"pair":  names,
			"subscription": map[string]string{
				"name": "ticker",
			},
		}
		if err := c.WriteJSON(subscription); err != nil {
			k.logger.Error("KrakenStreamer: failed to send subscription", "error", err)
			c.Close()
			if !sleepCtx(ctx, backoff) {
				return nil
			}
			backoff = nextBackoff(backoff)
			continue
		}
		k.logger.Info("KrakenStreamer: subscription sent", "pairs", names)

		// Reset backoff on successful connection
		backoff = time.Second

		if !k.readLoop(ctx, c, canon, ticks) {
			return nil
		}
		// read loop ended on error, reconnect
	}
}

// readLoop consumes messages until the connection breaks (returns true) or
// the context is cancelled (returns false).
func (k *KrakenStreamer) readLoop(ctx context.Context, c *websocket.Conn, canon map[string]string, ticks chan<- model.PriceTick) bool {
	defer c.Close()
	for {
		select {
		case <-ctx.Done():
			k.logger.Info("KrakenStreamer: context cancelled, closing connection")
			return false
		default:
		}

		_, message, err := c.ReadMessage()
		if err != nil {
			k.logger.Error("KrakenStreamer: failed to read message", "error", err)
			return true
		}

		tick, ok := k.parseTicker(message, canon)
		if !ok {
			continue
		}

		select {
		case ticks <- tick:
			k.logger.Debug("KrakenStreamer: sent price tick", "pair", tick.Pair, "price", tick.Price)
		case <-ctx.Done():
			k.logger.Info("KrakenStreamer: context cancelled while sending price tick")
			return false
		}
	}
}

// parseTicker extracts a price tick from a ticker channel message. Ticker
// payloads are arrays of the form [channelID, data, "ticker", "XBT/USD"];
// event messages (heartbeats, subscription status) are objects and skipped.
func (k *KrakenStreamer) parseTicker(message []byte, canon map[string]string) (model.PriceTick, bool) {
	trimmed := strings.TrimSpace(string(message))
	if !strings.HasPrefix(trimmed, "[") {
		var event map[string]interface{}
		if err := json.Unmarshal(message, &event); err != nil {
			k.logger.Warn("KrakenStreamer: failed to parse message", "error", err)
			return model.PriceTick{}, false
		}
		if ev, ok := event["event"].(string); ok && ev == "subscriptionStatus" {
			k.logger.Info("KrakenStreamer: subscription confirmed", "pair", event["pair"])
		}
		return model.PriceTick{}, false
	}

	var parts []json.RawMessage
	if err := json.Unmarshal(message, &parts); err != nil || len(parts) < 4 {
		return model.PriceTick{}, false
	}

	var data struct {
		C []string `json:"c"` // [last trade price, last lot volume]
	}
	if err := json.Unmarshal(parts[1], &data); err != nil || len(data.C) == 0 {
		return model.PriceTick{}, false
	}
	var pairName string
	if err := json.Unmarshal(parts[3], &pairName); err != nil {
		return model.PriceTick{}, false
	}

	key, ok := canon[pairName]
	if !ok {
		return model.PriceTick{}, false
	}
	price, err := strconv.ParseFloat(data.C[0], 64)
	if err != nil {
		k.logger.Warn("KrakenStreamer: failed to parse last price", "error", err)
		return model.PriceTick{}, false
	}
	return model.PriceTick{Pair: key, Price: price}, true
}

// krakenPairNames maps configured pairs to Kraken's websocket pair names and
// returns the reverse lookup from venue name to canonical key.
func krakenPairNames(pairs []model.Pair) ([]string, map[string]string) {
	names := make([]string, 0, len(pairs))
	canon := make(map[string]string, len(pairs))
	for _, p := range pairs {
		name := krakenSymbol(p.Base) + "/" + krakenSymbol(p.Quote)
		names = append(names, name)
		canon[name] = p.Canon()
	}
	return names, canon
}

func krakenSymbol(s string) string {
	if s == "btc" {
		return "XBT" // Kraken's legacy bitcoin code
	}
	return strings.ToUpper(s)
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}

func nextBackoff(d time.Duration) time.Duration {
	d *= 2
	if d > 16*time.Second {
		d = 16 * time.Second
	}
	return d
}
