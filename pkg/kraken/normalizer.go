package kraken

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/cockroachdb/apd/v3"

	"krakenrest/pkg/core"
)

// NormalizedOrder is an open order with parsed amounts.
type NormalizedOrder struct {
	ID        string
	Pair      string
	Side      string
	OrderType string
	Status    string
	UserRef   int64
	Price     apd.Decimal
	Volume    apd.Decimal
	Executed  apd.Decimal
	Remaining apd.Decimal
	Cost      apd.Decimal
	Fee       apd.Decimal
	OpenedAt  time.Time
	Trades    []string
}

// Balance is a single asset balance with a parsed amount.
type Balance struct {
	Asset  string
	Amount apd.Decimal
}

// Normalizer converts Kraken's string amounts into decimals.
type Normalizer struct{}

// NewNormalizer creates a new Kraken normalizer instance.
func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// NormalizeOrder parses a single order record keyed by id.
func (n *Normalizer) NormalizeOrder(id string, data *core.Order) (*NormalizedOrder, error) {
	order := &NormalizedOrder{
		ID:        id,
		Pair:      data.Descr.Pair,
		Side:      data.Descr.Type,
		OrderType: data.Descr.OrderType,
		Status:    data.Status,
		UserRef:   data.UserRef,
		OpenedAt:  parseKrakenTime(data.OpenTime),
		Trades:    slices.Clone(data.Trades),
	}

	// price is 0 for market orders, the limit sits in descr
	price := data.Price
	if isZero(price) {
		price = data.Descr.Price
	}

	fields := []struct {
		name string
		dest *apd.Decimal
		src  string
	}{
		{"price", &order.Price, price},
		{"vol", &order.Volume, data.Vol},
		{"vol_exec", &order.Executed, data.VolExec},
		{"cost", &order.Cost, data.Cost},
		{"fee", &order.Fee, data.Fee},
	}
	for _, f := range fields {
		if err := parseDecimal(f.dest, f.src); err != nil {
			return nil, fmt.Errorf("parse %s of order %s: %w", f.name, id, err)
		}
	}

	if _, err := apd.BaseContext.Sub(&order.Remaining, &order.Volume, &order.Executed); err != nil {
		return nil, fmt.Errorf("calculate remaining of order %s: %w", id, err)
	}
	return order, nil
}

// NormalizeOrders parses every open order, sorted by id for stable output.
func (n *Normalizer) NormalizeOrders(data *core.OpenOrders) ([]NormalizedOrder, error) {
	if data == nil {
		return nil, nil
	}

	ids := make([]string, 0, len(data.Open))
	for id := range data.Open {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	orders := make([]NormalizedOrder, 0, len(ids))
	for _, id := range ids {
		raw := data.Open[id]
		order, err := n.NormalizeOrder(id, &raw)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *order)
	}
	return orders, nil
}

// NormalizeBalances parses asset balances, sorted by asset.
func (n *Normalizer) NormalizeBalances(data core.Balances) ([]Balance, error) {
	assets := make([]string, 0, len(data))
	for asset := range data {
		assets = append(assets, asset)
	}
	slices.Sort(assets)

	balances := make([]Balance, 0, len(assets))
	for _, asset := range assets {
		b := Balance{Asset: asset}
		if err := parseDecimal(&b.Amount, data[asset]); err != nil {
			return nil, fmt.Errorf("parse balance of %s: %w", asset, err)
		}
		balances = append(balances, b)
	}
	return balances, nil
}

func parseDecimal(dest *apd.Decimal, s string) error {
	if s == "" {
		*dest = apd.Decimal{}
		return nil
	}
	_, _, err := apd.BaseContext.SetString(dest, s)
	return err
}

func isZero(s string) bool {
	return strings.Trim(s, "0.") == ""
}

// parseKrakenTime converts fractional unix seconds; zero stays the zero time.
func parseKrakenTime(ts float64) time.Time {
	if ts <= 0 {
		return time.Time{}
	}
	return time.UnixMicro(int64(ts * 1e6)).UTC()
}
