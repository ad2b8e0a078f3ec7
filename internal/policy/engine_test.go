package policy_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"fraudshield/internal/domain"
	"fraudshield/internal/platform/config"
	"fraudshield/internal/policy"
	"fraudshield/pkg/faults"
)

func baseTxn() domain.Transaction {
	return domain.Transaction{
		Ref:               "txn-1",
		PayerRef:          "payer-1",
		PayeeRef:          "payee-1",
		Amount:            500,
		At:                time.Date(2026, 3, 14, 13, 0, 0, 0, time.UTC),
		Channel:           domain.ChannelIntent,
		BeneficiaryAgeMin: 10_000,
	}
}

type EngineSuite struct {
	suite.Suite
	engine *policy.Engine
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineSuite))
}

func (s *EngineSuite) SetupSuite() {
	var err error
	s.engine, err = policy.NewEngine(config.Default().Policy)
	s.Require().NoError(err)
}

func (s *EngineSuite) TestCleanTransactionPasses() {
	verdicts := s.engine.Evaluate(context.Background(), baseTxn(), 2)
	s.Empty(verdicts)

	_, ok := policy.Worst(verdicts)
	s.False(ok)
}

func (s *EngineSuite) TestNewBeneficiaryHighValueHardBlocks() {
	txn := baseTxn()
	txn.Channel = domain.ChannelQR
	txn.BeneficiaryAgeMin = 10
	txn.Amount = 50_000

	verdicts := s.engine.Evaluate(context.Background(), txn, 2)
	s.Require().NotEmpty(verdicts)

	worst, ok := policy.Worst(verdicts)
	s.True(ok)
	s.Equal(domain.OutcomeHardBlock, worst.Outcome)
	s.Equal("NEW_BENEFICIARY_HIGH_VELOCITY", worst.Reason)
	s.Equal("RBI-NB-001", worst.Citation)
}

func (s *EngineSuite) TestQRScrutinyTiers() {
	txn := baseTxn()
	txn.Channel = domain.ChannelQR

	txn.Amount = 15_000
	worst, ok := policy.Worst(s.engine.Evaluate(context.Background(), txn, 2))
	s.True(ok)
	s.Equal(domain.OutcomeSoftBlock, worst.Outcome)
	s.Equal("QR_CHANNEL_TIER1_LIMIT", worst.Reason)

	txn.Amount = 150_000
	worst, ok = policy.Worst(s.engine.Evaluate(context.Background(), txn, 2))
	s.True(ok)
	s.Equal(domain.OutcomeHardBlock, worst.Outcome)
	s.Equal("QR_CHANNEL_TIER2_LIMIT", worst.Reason)
}

func (s *EngineSuite) TestVelocityLimit() {
	worst, ok := policy.Worst(s.engine.Evaluate(context.Background(), baseTxn(), 25))
	s.True(ok)
	s.Equal(domain.OutcomeSoftBlock, worst.Outcome)
	s.Equal("VELOCITY_LIMIT_EXCEEDED", worst.Reason)
}

func (s *EngineSuite) TestNightHighValue() {
	txn := baseTxn()
	txn.At = time.Date(2026, 3, 14, 2, 30, 0, 0, time.UTC)
	txn.Amount = 30_000

	worst, ok := policy.Worst(s.engine.Evaluate(context.Background(), txn, 2))
	s.True(ok)
	s.Equal(domain.OutcomeSoftBlock, worst.Outcome)
	s.Equal("NIGHT_HIGH_VALUE", worst.Reason)
}

func (s *EngineSuite) TestVerdictOrderIsDeterministic() {
	txn := baseTxn()
	txn.Channel = domain.ChannelQR
	txn.BeneficiaryAgeMin = 5
	txn.Amount = 150_000
	txn.FailedAuth24h = 5

	for i := 0; i < 20; i++ {
		verdicts := s.engine.Evaluate(context.Background(), txn, 25)
		s.Require().GreaterOrEqual(len(verdicts), 3)
		// Priority order within equal severities, severities descending.
		s.Equal("new_beneficiary_cooldown", verdicts[0].RuleID)
		s.Equal("qr_scrutiny_tier2", verdicts[1].RuleID)
	}
}

func TestEngineFailsClosedOnMalformedRuleInput(t *testing.T) {
	engine, err := policy.NewEngine(config.Policy{
		RuleSetVersion: "test",
		Rules: []config.Rule{{
			ID:       "refers_to_missing_attribute",
			Priority: 1,
			Outcome:  "HARD_BLOCK",
			Reason:   "UNREACHABLE",
			Expr:     `txn.no_such_attribute > 0`,
		}},
	})
	require.NoError(t, err)

	verdicts := engine.Evaluate(context.Background(), baseTxn(), 0)
	require.Len(t, verdicts, 1)
	require.Equal(t, domain.OutcomeSoftBlock, verdicts[0].Outcome)
	require.Equal(t, string(faults.CodePolicyInputInvalid), verdicts[0].Reason)
}

func TestEngineRejectsInvalidRuleSet(t *testing.T) {
	_, err := policy.NewEngine(config.Policy{
		RuleSetVersion: "test",
		Rules:          []config.Rule{{ID: "broken", Expr: `txn.amount >`}},
	})
	require.Error(t, err)

	_, err = policy.NewEngine(config.Policy{
		RuleSetVersion: "test",
		Rules:          []config.Rule{{ID: "not_bool", Expr: `txn.amount + 1.0`}},
	})
	require.Error(t, err)
}
