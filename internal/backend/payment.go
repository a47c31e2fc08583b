package backend

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/shopspring/decimal"

	"github.com/setavenger/walletcore/internal/core"
)

var errNoRequestAmount = errors.New("payment request carries no amount")

// PaymentRequest is a parsed BIP21 bitcoin: URI bound to the wallet that
// will pay it.
type PaymentRequest struct {
	wallet  *Wallet
	target  core.Address
	Address string
	Amount  *core.Amount
	Label   string
	Message string
}

// ParsePaymentURI parses a BIP21 URI. An address that is not valid on the
// wallet's network leaves the request without a primary target rather than
// failing.
func (w *Wallet) ParsePaymentURI(uri string) (*PaymentRequest, error) {
	u, err := url.Parse(strings.TrimSpace(uri))
	if err != nil {
		return nil, fmt.Errorf("invalid payment uri: %w", err)
	}
	if !strings.EqualFold(u.Scheme, "bitcoin") {
		return nil, fmt.Errorf("unsupported payment uri scheme %q", u.Scheme)
	}
	address := u.Opaque
	if address == "" {
		address = u.Host
	}

	req := &PaymentRequest{wallet: w, Address: address}
	if target, ok := w.manager.network.ParseAddress(address); ok {
		req.target = target
	}

	query, err := url.ParseQuery(u.RawQuery)
	if err != nil {
		return nil, fmt.Errorf("invalid payment uri query: %w", err)
	}
	for key, values := range query {
		value := values[0]
		switch {
		case key == "amount":
			sats, err := parseBTC(value, w.currency.Decimals)
			if err != nil {
				return nil, err
			}
			amount := core.NewAmount(sats, w.currency)
			req.Amount = &amount
		case key == "label":
			req.Label = value
		case key == "message":
			req.Message = value
		case strings.HasPrefix(key, "req-"):
			return nil, fmt.Errorf("unsupported required payment parameter %q", key)
		}
	}
	return req, nil
}

// parseBTC converts a decimal BTC amount to base units. Amounts finer than
// one base unit are rejected instead of rounded.
func parseBTC(value string, decimals uint8) (int64, error) {
	d, err := decimal.NewFromString(value)
	if err != nil || !d.IsPositive() {
		return 0, fmt.Errorf("invalid payment amount %q", value)
	}
	units := d.Shift(int32(decimals))
	if !units.IsInteger() {
		return 0, fmt.Errorf("invalid payment amount %q: more than %d decimals", value, decimals)
	}
	if units.GreaterThan(decimal.NewFromInt(btcutil.MaxSatoshi)) {
		return 0, fmt.Errorf("invalid payment amount %q: exceeds supply", value)
	}
	return units.IntPart(), nil
}

func (r *PaymentRequest) PrimaryTarget() core.Address {
	return r.target
}

func (r *PaymentRequest) CreateTransfer(basis core.FeeBasis) (core.Transfer, error) {
	if r.target == nil {
		return nil, fmt.Errorf("payment request address %q is not valid", r.Address)
	}
	if r.Amount == nil {
		return nil, errNoRequestAmount
	}
	return r.wallet.CreateTransfer(r.target, *r.Amount, basis)
}
