package signal_test

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"fraudshield/internal/domain"
	"fraudshield/internal/features"
	"fraudshield/internal/signal"
	"fraudshield/internal/signal/mocks"
	"fraudshield/pkg/faults"
)

type AdapterSuite struct {
	suite.Suite
	ctrl     *gomock.Controller
	ensemble *mocks.MockScorer
	anomaly  *mocks.MockScorer
	adapter  *signal.Adapter
}

func TestAdapterSuite(t *testing.T) {
	suite.Run(t, new(AdapterSuite))
}

func (s *AdapterSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.ensemble = mocks.NewMockScorer(s.ctrl)
	s.anomaly = mocks.NewMockScorer(s.ctrl)
	s.adapter = signal.NewAdapter(s.ensemble, s.anomaly, nil, nil)
}

func (s *AdapterSuite) TestBothSourcesAnswer() {
	vec := features.Vector{}
	s.ensemble.EXPECT().Score(gomock.Any(), vec).Return(signal.RawScore{Score: 0.92, Confidence: 0.9}, nil)
	s.anomaly.EXPECT().Score(gomock.Any(), vec).Return(signal.RawScore{Score: 0.88, Confidence: 0.8}, nil)

	ens, ano := s.adapter.Collect(context.Background(), vec, 100*time.Millisecond)

	s.Equal(domain.SourceEnsemble, ens.Source)
	s.InDelta(0.92, ens.Score, 1e-9)
	s.True(ens.Usable())

	s.Equal(domain.SourceAnomaly, ano.Source)
	s.InDelta(0.88, ano.Score, 1e-9)
	s.True(ano.Usable())
}

func (s *AdapterSuite) TestSlowSourceTimesOutWithoutStallingTheOther() {
	vec := features.Vector{}
	s.ensemble.EXPECT().Score(gomock.Any(), vec).Return(signal.RawScore{Score: 0.55, Confidence: 0.7}, nil)
	s.anomaly.EXPECT().Score(gomock.Any(), vec).DoAndReturn(
		func(ctx context.Context, _ features.Vector) (signal.RawScore, error) {
			<-ctx.Done()
			return signal.RawScore{}, ctx.Err()
		})

	start := time.Now()
	ens, ano := s.adapter.Collect(context.Background(), vec, 30*time.Millisecond)

	s.Less(time.Since(start), 500*time.Millisecond)
	s.True(ens.Usable())
	s.True(ano.Missing)
	s.Zero(ano.Confidence)
	s.Equal(string(faults.CodeSignalTimeout), ano.FaultCode)
}

func (s *AdapterSuite) TestCollaboratorErrorMarksUnavailable() {
	vec := features.Vector{}
	s.ensemble.EXPECT().Score(gomock.Any(), vec).Return(signal.RawScore{}, errors.New("connection refused"))
	s.anomaly.EXPECT().Score(gomock.Any(), vec).Return(signal.RawScore{Score: 0.1, Confidence: 0.9}, nil)

	ens, ano := s.adapter.Collect(context.Background(), vec, 50*time.Millisecond)

	s.True(ens.Missing)
	s.Equal(string(faults.CodeSignalUnavailable), ens.FaultCode)
	s.True(ano.Usable())
}

func (s *AdapterSuite) TestNonFiniteScoreIsRejected() {
	vec := features.Vector{}
	s.ensemble.EXPECT().Score(gomock.Any(), vec).Return(signal.RawScore{Score: math.NaN(), Confidence: 1}, nil)
	s.anomaly.EXPECT().Score(gomock.Any(), vec).Return(signal.RawScore{Score: math.Inf(1), Confidence: 1}, nil)

	ens, ano := s.adapter.Collect(context.Background(), vec, 50*time.Millisecond)

	s.True(ens.Missing)
	s.True(ano.Missing)
}

func (s *AdapterSuite) TestOutOfRangeScoresAreClamped() {
	vec := features.Vector{}
	s.ensemble.EXPECT().Score(gomock.Any(), vec).Return(signal.RawScore{Score: 1.7, Confidence: 0.5}, nil)
	s.anomaly.EXPECT().Score(gomock.Any(), vec).Return(signal.RawScore{Score: -0.3, Confidence: 0.5}, nil)

	ens, ano := s.adapter.Collect(context.Background(), vec, 50*time.Millisecond)

	s.Equal(1.0, ens.Score)
	s.Equal(0.0, ano.Score)
}
