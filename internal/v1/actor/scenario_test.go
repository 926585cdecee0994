package actor

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/adeyems/wordround/internal/v1/clockid"
	"github.com/adeyems/wordround/internal/v1/metrics"
	"github.com/adeyems/wordround/internal/v1/roundstate"
	"github.com/adeyems/wordround/internal/v1/roundtypes"
)

// histogramSampleCount reads a Histogram's cumulative observation count
// directly from its proto representation; testutil.ToFloat64 only supports
// Gauge/Counter/Untyped collectors.
func histogramSampleCount(t *testing.T) uint64 {
	t.Helper()
	m := &dto.Metric{}
	require.NoError(t, metrics.RoundDurationSeconds.Write(m))
	return m.GetHistogram().GetSampleCount()
}

const testHostToken = "host-token-1"

func newTestActor(t *testing.T, maxParticipants int) *Actor {
	initial, err := roundstate.CreateRoom("Qudus", maxParticipants, "ABCDEF", testHostToken, 1000)
	require.Nil(t, err)
	return New("ABCDEF", initial, clockid.NewFixedClock(1000), clockid.RandomIDSource{}, nil)
}

// passCountdown advances the actor's fixed clock past the 3-second call
// countdown, after which the round accepts drafts and submissions.
func passCountdown(a *Actor) {
	a.clock.(*clockid.FixedClock).Advance(3 * time.Second)
}

// TestScenario_HappyPath2PlayersFixed10WhicheverFirst mirrors spec.md §8
// scenario 1: host creates, one player joins and is approved, host starts,
// calls a number, the player submits and the round closes with the host's
// submission forced.
func TestScenario_HappyPath2PlayersFixed10WhicheverFirst(t *testing.T) {
	defer goleak.VerifyNone(t)
	a := newTestActor(t, 4)
	defer a.Close()

	_, adaID, status, err := a.SubmitJoin("Ada")
	require.Nil(t, err)
	assert.Equal(t, roundtypes.StatusPending, status)

	_, err = a.ReviewJoin(testHostToken, adaID, true)
	require.Nil(t, err)

	cfg := roundtypes.DefaultGameConfig()
	cfg.RoundSeconds = 15
	cfg.EndRule = roundtypes.EndRuleWhicheverFirst
	snap, err := a.StartGame(testHostToken, &cfg)
	require.Nil(t, err)
	assert.Equal(t, roundtypes.GameInProgress, snap.Game.Status)

	snap, err = a.CallNumber(roundtypes.HostParticipantID, 3)
	require.Nil(t, err)
	assert.Equal(t, "C", snap.Game.ActiveRound.ActiveLetter)
	passCountdown(a)

	snap, err = a.SubmitAnswers(adaID, roundtypes.Answers{
		Name: "Cora", Animal: "Cat", Place: "Cairo", Thing: "Cup", Food: "Cake",
	})
	require.Nil(t, err)

	require.Len(t, snap.Game.CompletedRounds, 1)
	round := snap.Game.CompletedRounds[0]
	assert.Equal(t, roundtypes.EndReasonFirstSubmission, round.EndReason)
	assert.Len(t, round.Submissions, 2)
	assert.Equal(t, 1, snap.Game.CurrentTurnIndex)
}

// TestScenario_SubmitAnswersRecordsRoundMetrics asserts that closing a round
// via submitAnswers observes round/round_duration_seconds (SPEC_FULL.md
// §6.4), not just that the snapshot reflects the completed round.
func TestScenario_SubmitAnswersRecordsRoundMetrics(t *testing.T) {
	defer goleak.VerifyNone(t)
	a := newTestActor(t, 4)
	defer a.Close()

	_, adaID, _, err := a.SubmitJoin("Ada")
	require.Nil(t, err)
	_, err = a.ReviewJoin(testHostToken, adaID, true)
	require.Nil(t, err)

	cfg := roundtypes.DefaultGameConfig()
	cfg.RoundSeconds = 15
	cfg.EndRule = roundtypes.EndRuleWhicheverFirst
	_, err = a.StartGame(testHostToken, &cfg)
	require.Nil(t, err)

	_, err = a.CallNumber(roundtypes.HostParticipantID, 3)
	require.Nil(t, err)
	passCountdown(a)

	before := testutil.ToFloat64(metrics.RoundsPlayedTotal.WithLabelValues(string(roundtypes.EndReasonFirstSubmission)))
	durationSamplesBefore := histogramSampleCount(t)

	_, err = a.SubmitAnswers(adaID, roundtypes.Answers{
		Name: "Cora", Animal: "Cat", Place: "Cairo", Thing: "Cup", Food: "Cake",
	})
	require.Nil(t, err)

	assert.Equal(t, before+1, testutil.ToFloat64(metrics.RoundsPlayedTotal.WithLabelValues(string(roundtypes.EndReasonFirstSubmission))))
	assert.Equal(t, durationSamplesBefore+1, histogramSampleCount(t))
}

// TestScenario_ManualEndUnderHostOrCaller mirrors spec.md §8 scenario 2.
func TestScenario_ManualEndUnderHostOrCaller(t *testing.T) {
	defer goleak.VerifyNone(t)
	a := newTestActor(t, 4)
	defer a.Close()

	_, adaID, _, err := a.SubmitJoin("Ada")
	require.Nil(t, err)
	_, err = a.ReviewJoin(testHostToken, adaID, true)
	require.Nil(t, err)

	cfg := roundtypes.DefaultGameConfig()
	cfg.RoundSeconds = 12
	cfg.EndRule = roundtypes.EndRuleTimer
	cfg.ManualEndPolicy = roundtypes.ManualEndHostOrCaller
	_, err = a.StartGame(testHostToken, &cfg)
	require.Nil(t, err)

	_, err = a.CallNumber(roundtypes.HostParticipantID, 7)
	require.Nil(t, err)
	passCountdown(a)

	draft := roundtypes.Answers{Name: "Goat", Animal: "Goose"}
	err = a.UpdateDraft(adaID, draft)
	require.Nil(t, err)

	snap, err := a.EndRoundEarly(roundtypes.HostParticipantID)
	require.Nil(t, err)

	round := snap.Game.CompletedRounds[0]
	assert.Equal(t, roundtypes.EndReasonManualEnd, round.EndReason)
	for _, s := range round.Submissions {
		if s.ParticipantID == adaID {
			assert.Equal(t, "Goat", s.Answers.Name)
			assert.Equal(t, "Goose", s.Answers.Animal)
		}
	}
}

// TestScenario_Shared10Split mirrors spec.md §8 scenario 3.
func TestScenario_Shared10Split(t *testing.T) {
	defer goleak.VerifyNone(t)
	a := newTestActor(t, 4)
	defer a.Close()

	_, p1, _, err := a.SubmitJoin("Bob")
	require.Nil(t, err)
	_, p2, _, err := a.SubmitJoin("Carl")
	require.Nil(t, err)
	_, err = a.ReviewJoin(testHostToken, p1, true)
	require.Nil(t, err)
	_, err = a.ReviewJoin(testHostToken, p2, true)
	require.Nil(t, err)

	cfg := roundtypes.DefaultGameConfig()
	cfg.EndRule = roundtypes.EndRuleTimer
	cfg.ScoringMode = roundtypes.ScoringShared10
	_, err = a.StartGame(testHostToken, &cfg)
	require.Nil(t, err)

	_, err = a.CallNumber(roundtypes.HostParticipantID, 1)
	require.Nil(t, err)
	passCountdown(a)

	// Only name and animal are shared; place, thing and food differ, so
	// those three fields each keep the full 10 points.
	_, err = a.SubmitAnswers(p1, roundtypes.Answers{Name: "Ada", Animal: "Ant", Place: "Accra", Thing: "Axe", Food: "Apple"})
	require.Nil(t, err)
	snap, err := a.SubmitAnswers(p2, roundtypes.Answers{Name: "Ada", Animal: "Ant", Place: "Athens", Thing: "Anchor", Food: "Avocado"})
	require.Nil(t, err)

	_, err = a.EndRoundEarly(roundtypes.HostParticipantID)
	require.Nil(t, err)

	allTrue := roundtypes.Marks{Name: true, Animal: true, Place: true, Thing: true, Food: true}
	snap, err = a.ScoreSubmission(testHostToken, 1, p1, allTrue)
	require.Nil(t, err)
	snap, err = a.ScoreSubmission(testHostToken, 1, p2, allTrue)
	require.Nil(t, err)
	snap, err = a.ScoreSubmission(testHostToken, 1, roundtypes.HostParticipantID, roundtypes.Marks{})
	require.Nil(t, err)

	round := snap.Game.CompletedRounds[0]
	for _, s := range round.Submissions {
		if s.ParticipantID == p1 || s.ParticipantID == p2 {
			assert.Equal(t, 5.0, s.Review.Scores.Name)
			assert.Equal(t, 5.0, s.Review.Scores.Animal)
			assert.Equal(t, 40.0, s.Review.Scores.Total)
		}
	}
}

// TestScenario_PublicationGate mirrors spec.md §8 scenario 4.
func TestScenario_PublicationGate(t *testing.T) {
	defer goleak.VerifyNone(t)
	a := newTestActor(t, 4)
	defer a.Close()

	_, p1, _, err := a.SubmitJoin("Bob")
	require.Nil(t, err)
	_, err = a.ReviewJoin(testHostToken, p1, true)
	require.Nil(t, err)

	_, err = a.StartGame(testHostToken, nil)
	require.Nil(t, err)
	_, err = a.CallNumber(roundtypes.HostParticipantID, 1)
	require.Nil(t, err)
	passCountdown(a)
	_, err = a.SubmitAnswers(roundtypes.HostParticipantID, roundtypes.Answers{Name: "Amy"})
	require.Nil(t, err)

	_, err = a.PublishRound(testHostToken, 1)
	require.NotNil(t, err)

	_, err = a.ScoreSubmission(testHostToken, 1, roundtypes.HostParticipantID, roundtypes.Marks{Name: true})
	require.Nil(t, err)
	_, err = a.PublishRound(testHostToken, 1)
	require.NotNil(t, err)

	_, err = a.ScoreSubmission(testHostToken, 1, p1, roundtypes.Marks{})
	require.Nil(t, err)

	snap, err := a.PublishRound(testHostToken, 1)
	require.Nil(t, err)
	assert.True(t, snap.Game.CompletedRounds[0].ScorePublishedAt != nil)
}

// TestScenario_CancelExpiresJoin mirrors spec.md §8 scenario 6.
func TestScenario_CancelExpiresJoin(t *testing.T) {
	defer goleak.VerifyNone(t)
	a := newTestActor(t, 4)
	defer a.Close()

	_, err := a.CancelGame(testHostToken)
	require.Nil(t, err)

	_, _, _, joinErr := a.SubmitJoin("Late")
	require.NotNil(t, joinErr)
}

// TestSubscribe_DeliversConnectedThenSnapshot verifies the push surface's
// first-two-messages contract (spec.md §4.1) and that Close drains every
// subscriber goroutine cleanly.
func TestSubscribe_DeliversConnectedThenSnapshot(t *testing.T) {
	defer goleak.VerifyNone(t)
	a := newTestActor(t, 4)

	sub := a.Subscribe()
	require.NotNil(t, sub)

	first := <-sub.Messages
	assert.Contains(t, string(first), `"connected"`)
	second := <-sub.Messages
	assert.Contains(t, string(second), `"snapshot"`)

	sub.Unsubscribe()
	a.Close()
}
