package exchange

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"carousel/internal/model"
	"carousel/internal/rates"
)

// PaperClient implements the TradeClient interface against simulated
// holdings. Orders fill at the latest feed price after a configurable delay,
// which keeps the fill-polling path honest without touching a real venue.
type PaperClient struct {
	logger      *slog.Logger
	store       *rates.Store
	instruments *Instruments
	feeRate     float64
	fillDelay   time.Duration

	mu       sync.Mutex
	holdings map[string]float64
	orders   map[string]*paperOrder
}

type paperOrder struct {
	pair      model.Pair
	side      model.Side
	volume    float64
	price     float64
	submitted time.Time
	settled   bool
}

// NewPaperClient creates a PaperClient seeded with the given holdings.
func NewPaperClient(logger *slog.Logger, store *rates.Store, pairs []model.Pair, feeRate float64, fillDelay time.Duration, holdings map[string]float64) *PaperClient {
	h := make(map[string]float64, len(holdings))
	for asset, amount := range holdings {
		h[model.CanonSymbol(asset)] = amount
	}
	return &PaperClient{
		logger:      logger.With("component", "paper_client"),
		store:       store,
		instruments: NewInstruments(pairs),
		feeRate:     feeRate,
		fillDelay:   fillDelay,
		holdings:    h,
		orders:      make(map[string]*paperOrder),
	}
}

func (p *PaperClient) Name() string {
	return "paper"
}

// ResolveInstrument maps a pair to its venue code, with the USD/USDT alias
// fallback.
func (p *PaperClient) ResolveInstrument(pair model.Pair) (string, error) {
	return p.instruments.Resolve(pair)
}

// SubmitMarketOrder reserves the spending currency at the latest feed price
// and returns a new order id. The proceeds land when the order settles.
func (p *PaperClient) SubmitMarketOrder(ctx context.Context, instrument string, side model.Side, volume float64) (string, error) {
	pair, ok := p.instruments.Pair(instrument)
	if !ok {
		return "", fmt.Errorf("unknown instrument %q", instrument)
	}
	price, ok := p.store.Get(pair.Canon())
	if !ok {
		return "", fmt.Errorf("no price for instrument %q", instrument)
	}
	if volume <= 0 {
		return "", fmt.Errorf("non-positive volume %f", volume)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	spendAsset, spendAmount := pair.Quote, volume*price
	if side == model.SideSell {
		spendAsset, spendAmount = pair.Base, volume
	}
	if p.holdings[spendAsset] < spendAmount {
		return "", fmt.Errorf("insufficient %s: have %f, need %f", spendAsset, p.holdings[spendAsset], spendAmount)
	}
	p.holdings[spendAsset] -= spendAmount

	id := uuid.NewString()
	p.orders[id] = &paperOrder{
		pair:      pair,
		side:      side,
		volume:    volume,
		price:     price,
		submitted: time.Now(),
	}
	p.logger.Debug("Order submitted", "orderID", id, "instrument", instrument, "side", side, "volume", volume, "price", price)
	return id, nil
}

// OrderStatus reports open until the fill delay has elapsed, then settles the
// proceeds exactly once and reports filled.
func (p *PaperClient) OrderStatus(ctx context.Context, orderID string) (model.OrderStatus, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	o, ok := p.orders[orderID]
	if !ok {
		return model.OrderError, fmt.Errorf("unknown order %q", orderID)
	}
	if time.Since(o.submitted) < p.fillDelay {
		return model.OrderOpen, nil
	}
	if !o.settled {
		o.settled = true
		if o.side == model.SideBuy {
			p.holdings[o.pair.Base] += o.volume * (1 - p.feeRate)
		} else {
			p.holdings[o.pair.Quote] += o.volume * o.price * (1 - p.feeRate)
		}
		p.logger.Debug("Order filled", "orderID", orderID, "side", o.side, "volume", o.volume)
	}
	return model.OrderFilled, nil
}

// Balances returns a copy of the simulated holdings.
func (p *PaperClient) Balances(ctx context.Context) (map[string]float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string]float64, len(p.holdings))
	for asset, amount := range p.holdings {
		out[asset] = amount
	}
	return out, nil
}
