package domain

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type StatusSuite struct {
	suite.Suite
}

func TestStatusSuite(t *testing.T) {
	suite.Run(t, new(StatusSuite))
}

// TestParseRecordStatus verifies the known set and rejection of strays.
func (s *StatusSuite) TestParseRecordStatus() {
	for _, known := range []string{"draft", "classified", "approved", "rejected"} {
		st, err := ParseRecordStatus(known)
		s.Require().NoError(err)
		s.Equal(known, st.String())
	}

	for _, unknown := range []string{"", "Draft", "archived", "deleted"} {
		_, err := ParseRecordStatus(unknown)
		s.Require().Error(err, "input %q", unknown)
	}
}

// TestCanTransitionTo enumerates the whole ordered machine.
func (s *StatusSuite) TestCanTransitionTo() {
	allowed := map[RecordStatus][]RecordStatus{
		StatusDraft:      {StatusClassified, StatusRejected},
		StatusClassified: {StatusApproved, StatusRejected},
		StatusApproved:   {},
		StatusRejected:   {},
	}
	all := []RecordStatus{StatusDraft, StatusClassified, StatusApproved, StatusRejected}

	for from, targets := range allowed {
		permitted := make(map[RecordStatus]bool, len(targets))
		for _, to := range targets {
			permitted[to] = true
		}
		for _, to := range all {
			s.Equal(permitted[to], from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
}

// TestTerminal verifies approved and rejected are dead ends.
func (s *StatusSuite) TestTerminal() {
	s.False(StatusDraft.Terminal())
	s.False(StatusClassified.Terminal())
	s.True(StatusApproved.Terminal())
	s.True(StatusRejected.Terminal())
}
