package features

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"fraudshield/internal/domain"
)

func sampleTxn() domain.Transaction {
	return domain.Transaction{
		Ref:               "txn-1",
		PayerRef:          "payer-1",
		PayeeRef:          "payee-1",
		Amount:            50000,
		At:                time.Date(2026, 8, 27, 2, 30, 0, 0, time.UTC),
		Channel:           domain.ChannelQR,
		BeneficiaryAgeMin: 10,
		DeviceChanged:     true,
		LocationVelocity:  2,
		FailedAuth24h:     1,
	}
}

func TestBuildProjectsAllFeatures(t *testing.T) {
	vec := Build(sampleTxn(), Stats{Count24h: 5, Mean: 10000, Std: 20000})

	assert.Equal(t, 50000.0, vec[IdxAmount])
	assert.Equal(t, 1.0, vec[IdxIsQR])
	assert.Equal(t, 1.0, vec[IdxDeviceChanged])
	assert.Equal(t, 2.0, vec[IdxLocationVelocity])
	assert.Equal(t, 1.0, vec[IdxFailedAuth24h])
	assert.InDelta(t, 2.0, vec[IdxAmountZScore], 1e-9)
	assert.Equal(t, 1.0, vec[IdxIsNight])
	assert.Equal(t, 1.0, vec[IdxBeneficiaryIsNew])
	assert.Equal(t, 5.0, vec[IdxTxnVelocity24h])
}

func TestBuildWithoutBaseline(t *testing.T) {
	// No rolling baseline: the z-score degrades to zero instead of NaN.
	vec := Build(sampleTxn(), Stats{Count24h: 1})
	assert.Equal(t, 0.0, vec[IdxAmountZScore])
}

func TestBuildEstablishedBeneficiaryAndDayHours(t *testing.T) {
	txn := sampleTxn()
	txn.At = time.Date(2026, 8, 27, 14, 0, 0, 0, time.UTC)
	txn.Channel = domain.ChannelIntent
	txn.BeneficiaryAgeMin = NewBeneficiaryAgeMin

	vec := Build(txn, Stats{})
	assert.Equal(t, 0.0, vec[IdxIsQR])
	assert.Equal(t, 0.0, vec[IdxIsNight])
	assert.Equal(t, 0.0, vec[IdxBeneficiaryIsNew])
}

func TestHashIsStableAndSensitive(t *testing.T) {
	a := Build(sampleTxn(), Stats{Count24h: 5, Mean: 10000, Std: 20000})
	b := Build(sampleTxn(), Stats{Count24h: 5, Mean: 10000, Std: 20000})
	assert.Equal(t, a.Hash(), b.Hash())
	assert.Len(t, a.Hash(), 64)

	changed := sampleTxn()
	changed.Amount = 50001
	c := Build(changed, Stats{Count24h: 5, Mean: 10000, Std: 20000})
	assert.NotEqual(t, a.Hash(), c.Hash())
}
