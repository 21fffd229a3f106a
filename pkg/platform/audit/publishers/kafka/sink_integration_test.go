//go:build integration

package kafka_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kgo"

	audit "pinpool/pkg/platform/audit"
	"pinpool/pkg/platform/audit/publishers/kafka"
	"pinpool/pkg/testutil/containers"
)

type SinkSuite struct {
	suite.Suite
	redpanda *containers.RedpandaContainer
	sink     *kafka.Sink
}

func TestSinkSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(SinkSuite))
}

func (s *SinkSuite) SetupSuite() {
	s.redpanda = containers.GetManager().GetRedpanda(s.T())

	ctx := context.Background()
	sink, err := kafka.New(ctx, []string{s.redpanda.Broker}, "pinpool.audit.test")
	s.Require().NoError(err)
	s.Require().NoError(sink.EnsureTopic(ctx, 1, 1))
	// A second call must tolerate the existing topic.
	s.Require().NoError(sink.EnsureTopic(ctx, 1, 1))
	s.sink = sink
}

func (s *SinkSuite) TearDownSuite() {
	if s.sink != nil {
		s.sink.Close()
	}
}

func (s *SinkSuite) TestAppendProducesJSONRecord() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	err := s.sink.Append(ctx, audit.Event{
		Category:  audit.CategoryAllocation,
		Action:    string(audit.EventPINsAllocated),
		Requested: 5,
		Served:    5,
		Timestamp: time.Now(),
	})
	s.Require().NoError(err)

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(s.redpanda.Broker),
		kgo.ConsumeTopics("pinpool.audit.test"),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	s.Require().NoError(err)
	defer consumer.Close()

	fetches := consumer.PollFetches(ctx)
	s.Require().Empty(fetches.Errors())

	var got audit.Event
	records := fetches.Records()
	s.Require().NotEmpty(records)
	s.Equal(string(audit.EventPINsAllocated), string(records[0].Key))
	s.Require().NoError(json.Unmarshal(records[0].Value, &got))
	s.Equal(5, got.Served)
	s.Equal(audit.CategoryAllocation, got.Category)
}
