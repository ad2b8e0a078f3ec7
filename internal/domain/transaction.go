package domain

import (
	"time"

	"fraudshield/pkg/faults"
)

// Channel is the payment rail a transaction arrived on.
type Channel string

const (
	ChannelQR      Channel = "QR"
	ChannelIntent  Channel = "INTENT"
	ChannelCollect Channel = "COLLECT"
)

func (c Channel) Valid() bool {
	switch c {
	case ChannelQR, ChannelIntent, ChannelCollect:
		return true
	}
	return false
}

// Transaction is the immutable pipeline input. It is owned by a single
// decision run for the run's duration and never mutated after intake.
type Transaction struct {
	Ref      string    // caller-supplied idempotency key
	PayerRef string    // opaque payer reference, never a raw account number
	PayeeRef string    // opaque payee/beneficiary reference
	Amount   float64   // INR
	At       time.Time // initiation time
	Channel  Channel

	// Behavioral attributes supplied by the intake layer.
	BeneficiaryAgeMin int // minutes since the beneficiary was added
	DeviceChanged     bool
	LocationVelocity  int // distinct coarse locations in the last 24h
	FailedAuth24h     int
}

// Validate rejects malformed transactions before they enter COLLECTING.
func (t Transaction) Validate() error {
	switch {
	case t.Ref == "":
		return faults.New(faults.CodeInvalidInput, "transaction ref is required")
	case t.PayerRef == "":
		return faults.New(faults.CodeInvalidInput, "payer ref is required")
	case t.PayeeRef == "":
		return faults.New(faults.CodeInvalidInput, "payee ref is required")
	case t.Amount <= 0:
		return faults.New(faults.CodeInvalidInput, "amount must be positive")
	case t.At.IsZero():
		return faults.New(faults.CodeInvalidInput, "transaction time is required")
	case !t.Channel.Valid():
		return faults.Newf(faults.CodeInvalidInput, "unknown channel %q", t.Channel)
	case t.BeneficiaryAgeMin < 0 || t.LocationVelocity < 0 || t.FailedAuth24h < 0:
		return faults.New(faults.CodeInvalidInput, "behavioral attributes must be non-negative")
	}
	return nil
}

// Hour returns the local initiation hour used by temporal rules.
func (t Transaction) Hour() int { return t.At.Hour() }

// IsNight reports whether the transaction falls in the 00:00-04:59 window.
func (t Transaction) IsNight() bool { h := t.Hour(); return h >= 0 && h <= 4 }
