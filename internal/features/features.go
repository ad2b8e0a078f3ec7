// Package features assembles the fixed-shape numeric feature vector consumed
// by the scoring collaborators. Feature engineering itself lives upstream in
// the model pipeline; this package only projects a transaction and its
// behavioral counters into the agreed vector shape.
package features

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"

	"fraudshield/internal/domain"
)

// Vector index layout. The order is part of the scoring contract and must
// match the vector the models were trained on.
const (
	IdxAmount = iota
	IdxIsQR
	IdxDeviceChanged
	IdxLocationVelocity
	IdxFailedAuth24h
	IdxAmountZScore
	IdxIsNight
	IdxBeneficiaryIsNew
	IdxTxnVelocity24h

	Size
)

// NewBeneficiaryAgeMin is the cut-off below which a beneficiary counts as
// newly added for the beneficiary_is_new feature.
const NewBeneficiaryAgeMin = 1440

// Vector is a fixed-shape numeric feature vector.
type Vector [Size]float64

// Stats carries the per-payer rolling counters used for behavioral features.
type Stats struct {
	Count24h int     // transactions observed in the trailing 24h window
	Mean     float64 // rolling mean amount, 0 when no baseline
	Std      float64 // rolling stddev amount, 0 when no baseline
}

// Build projects a transaction and its payer stats into the vector shape.
// Missing baselines degrade to zero rather than NaN so downstream scoring
// never sees a non-finite input.
func Build(txn domain.Transaction, stats Stats) Vector {
	var v Vector
	v[IdxAmount] = txn.Amount
	v[IdxIsQR] = boolToFloat(txn.Channel == domain.ChannelQR)
	v[IdxDeviceChanged] = boolToFloat(txn.DeviceChanged)
	v[IdxLocationVelocity] = float64(txn.LocationVelocity)
	v[IdxFailedAuth24h] = float64(txn.FailedAuth24h)
	if stats.Std > 0 {
		v[IdxAmountZScore] = (txn.Amount - stats.Mean) / stats.Std
	}
	v[IdxIsNight] = boolToFloat(txn.IsNight())
	v[IdxBeneficiaryIsNew] = boolToFloat(txn.BeneficiaryAgeMin < NewBeneficiaryAgeMin)
	v[IdxTxnVelocity24h] = float64(stats.Count24h)
	return v
}

// Hash returns the SHA-256 hex digest of the serialized vector. The audit
// trail records this digest instead of raw feature values.
func (v Vector) Hash() string {
	parts := make([]string, len(v))
	for i, f := range v {
		parts[i] = strconv.FormatFloat(f, 'g', -1, 64)
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, ",")))
	return hex.EncodeToString(sum[:])
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
