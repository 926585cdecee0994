// Package snapshot derives the client-visible projection of a room's
// internal state (spec.md §4.4). Projection is a pure function of State;
// it never exposes hostToken or a participant's in-flight draft answers.
package snapshot

import (
	"sort"
	"strings"

	"k8s.io/utils/set"

	"github.com/adeyems/wordround/internal/v1/clockid"
	"github.com/adeyems/wordround/internal/v1/roundtypes"
)

type Meta struct {
	RoomCode        string `json:"roomCode"`
	HostName        string `json:"hostName"`
	MaxParticipants int    `json:"maxParticipants"`
}

type ParticipantView struct {
	ID        string                      `json:"id"`
	Name      string                      `json:"name"`
	Status    roundtypes.ParticipantStatus `json:"status"`
	IsHost    bool                        `json:"isHost"`
	CreatedAt string                      `json:"createdAt"`
	UpdatedAt string                      `json:"updatedAt"`
}

type SubmissionPreview struct {
	ParticipantID   string `json:"participantId"`
	ParticipantName string `json:"participantName"`
	SubmittedAt     string `json:"submittedAt"`
}

type ActiveRoundView struct {
	RoundNumber         int                 `json:"roundNumber"`
	TurnParticipantID   string              `json:"turnParticipantId"`
	TurnParticipantName string              `json:"turnParticipantName"`
	CalledNumber        int                 `json:"calledNumber"`
	ActiveLetter        string              `json:"activeLetter"`
	StartedAt           string              `json:"startedAt"`
	CountdownEndsAt     string              `json:"countdownEndsAt"`
	EndsAt              *string             `json:"endsAt"`
	Submissions         []SubmissionPreview `json:"submissions"`
}

type ReviewView struct {
	Marks        roundtypes.Marks  `json:"marks"`
	Scores       roundtypes.Scores `json:"scores"`
	MarkedByID   string            `json:"markedById"`
	MarkedByName string            `json:"markedByName"`
	MarkedAt     string            `json:"markedAt"`
}

type SubmissionView struct {
	ParticipantID   string             `json:"participantId"`
	ParticipantName string             `json:"participantName"`
	Answers         roundtypes.Answers `json:"answers"`
	SubmittedAt     string             `json:"submittedAt"`
	Review          *ReviewView        `json:"review,omitempty"`
}

type CompletedRoundView struct {
	RoundNumber         int              `json:"roundNumber"`
	TurnParticipantID   string           `json:"turnParticipantId"`
	TurnParticipantName string           `json:"turnParticipantName"`
	CalledNumber        int              `json:"calledNumber"`
	ActiveLetter        string           `json:"activeLetter"`
	StartedAt           string           `json:"startedAt"`
	CountdownEndsAt     string           `json:"countdownEndsAt"`
	EndsAt              *string          `json:"endsAt"`
	EndedAt             string           `json:"endedAt"`
	EndReason           roundtypes.EndReason `json:"endReason"`
	ScorePublishedAt    *string          `json:"scorePublishedAt"`
	Submissions         []SubmissionView `json:"submissions"`
}

type HistoryEntry struct {
	RoundNumber     int     `json:"roundNumber"`
	CalledNumber    int     `json:"calledNumber"`
	ActiveLetter    string  `json:"activeLetter"`
	Score           float64 `json:"score"`
	CumulativeScore float64 `json:"cumulativeScore"`
	Reviewed        bool    `json:"reviewed"`
}

type LeaderboardEntry struct {
	ParticipantID   string         `json:"participantId"`
	ParticipantName string         `json:"participantName"`
	TotalScore      float64        `json:"totalScore"`
	History         []HistoryEntry `json:"history"`
}

type ScoringSummary struct {
	RoundsPerPlayer          int                `json:"roundsPerPlayer"`
	MaxRounds                int                `json:"maxRounds"`
	RoundsPlayed             int                `json:"roundsPlayed"`
	PublishedRounds          int                `json:"publishedRounds"`
	PendingPublicationRounds []int              `json:"pendingPublicationRounds"`
	UsedNumbers              []int              `json:"usedNumbers"`
	AvailableNumbers         []int              `json:"availableNumbers"`
	IsComplete               bool               `json:"isComplete"`
	Leaderboard              []LeaderboardEntry `json:"leaderboard"`
}

type GameView struct {
	Status                   roundtypes.GameStatus `json:"status"`
	StartedAt                string                `json:"startedAt"`
	CancelledAt              string                `json:"cancelledAt"`
	FinishedAt               string                `json:"finishedAt"`
	Config                   roundtypes.GameConfig `json:"config"`
	TurnOrder                []string              `json:"turnOrder"`
	CurrentTurnIndex         int                   `json:"currentTurnIndex"`
	CurrentTurnParticipantID *string               `json:"currentTurnParticipantId"`
	ActiveRound              *ActiveRoundView      `json:"activeRound"`
	CompletedRounds          []CompletedRoundView  `json:"completedRounds"`
	Scoring                  ScoringSummary        `json:"scoring"`
}

// Snapshot is the canonical client-facing view of a room (spec.md §4.4).
// hostToken and draft answers never appear here.
type Snapshot struct {
	Meta         Meta              `json:"meta"`
	Participants []ParticipantView `json:"participants"`
	Counts       roundtypes.Counts `json:"counts"`
	Game         GameView          `json:"game"`
}

// ProjectParticipant converts one Participant to its wire view, reused by
// the actor when attaching a "participant" convenience field to an event
// envelope (spec.md §4.5).
func ProjectParticipant(p roundtypes.Participant) ParticipantView {
	return ParticipantView{
		ID:        p.ID,
		Name:      p.Name,
		Status:    p.Status,
		IsHost:    p.IsHost,
		CreatedAt: clockid.MillisToRFC3339(p.CreatedAtMs),
		UpdatedAt: clockid.MillisToRFC3339(p.UpdatedAtMs),
	}
}

// ProjectCompletedRound converts one CompletedRound to its wire view,
// reused by the actor for the "completedRound" convenience field on
// round_ended events.
func ProjectCompletedRound(r roundtypes.CompletedRound) CompletedRoundView {
	return projectCompletedRound(r)
}

// Project builds the client-facing Snapshot from the internal State.
func Project(state roundtypes.State) Snapshot {
	snap := Snapshot{
		Meta: Meta{
			RoomCode:        state.Code,
			HostName:        state.HostName,
			MaxParticipants: state.MaxParticipants,
		},
		Counts: state.Counts(),
	}

	for _, id := range state.JoinOrder {
		p, ok := state.Participants[id]
		if !ok {
			continue
		}
		snap.Participants = append(snap.Participants, ParticipantView{
			ID:        p.ID,
			Name:      p.Name,
			Status:    p.Status,
			IsHost:    p.IsHost,
			CreatedAt: clockid.MillisToRFC3339(p.CreatedAtMs),
			UpdatedAt: clockid.MillisToRFC3339(p.UpdatedAtMs),
		})
	}

	snap.Game = projectGame(state)

	return snap
}

func projectGame(state roundtypes.State) GameView {
	g := state.Game
	view := GameView{
		Status:           g.Status,
		StartedAt:        clockid.MillisToRFC3339(g.StartedAtMs),
		CancelledAt:      clockid.MillisToRFC3339(g.CancelledAtMs),
		FinishedAt:       clockid.MillisToRFC3339(g.FinishedAtMs),
		Config:           g.Config,
		TurnOrder:        append([]string(nil), g.TurnOrder...),
		CurrentTurnIndex: g.CurrentTurnIndex,
	}

	if id := state.CurrentTurnParticipantID(); id != "" {
		view.CurrentTurnParticipantID = &id
	}

	if g.ActiveRound != nil {
		view.ActiveRound = projectActiveRound(g.ActiveRound)
	}

	for _, r := range g.CompletedRounds {
		view.CompletedRounds = append(view.CompletedRounds, projectCompletedRound(r))
	}

	view.Scoring = projectScoring(state)

	return view
}

func projectActiveRound(a *roundtypes.ActiveRound) *ActiveRoundView {
	view := &ActiveRoundView{
		RoundNumber:         a.RoundNumber,
		TurnParticipantID:   a.TurnParticipantID,
		TurnParticipantName: a.TurnParticipantName,
		CalledNumber:        a.CalledNumber,
		ActiveLetter:        a.ActiveLetter,
		StartedAt:           clockid.MillisToRFC3339(a.StartedAtMs),
		CountdownEndsAt:     clockid.MillisToRFC3339(a.CountdownEndsAtMs),
	}
	if a.EndsAtMs != 0 {
		s := clockid.MillisToRFC3339(a.EndsAtMs)
		view.EndsAt = &s
	}
	for _, sub := range a.Submissions {
		view.Submissions = append(view.Submissions, SubmissionPreview{
			ParticipantID:   sub.ParticipantID,
			ParticipantName: sub.ParticipantName,
			SubmittedAt:     clockid.MillisToRFC3339(sub.SubmittedAtMs),
		})
	}
	return view
}

func projectCompletedRound(r roundtypes.CompletedRound) CompletedRoundView {
	view := CompletedRoundView{
		RoundNumber:         r.RoundNumber,
		TurnParticipantID:   r.TurnParticipantID,
		TurnParticipantName: r.TurnParticipantName,
		CalledNumber:        r.CalledNumber,
		ActiveLetter:        r.ActiveLetter,
		StartedAt:           clockid.MillisToRFC3339(r.StartedAtMs),
		CountdownEndsAt:     clockid.MillisToRFC3339(r.CountdownEndsAtMs),
		EndedAt:             clockid.MillisToRFC3339(r.EndedAtMs),
		EndReason:           r.EndReason,
	}
	if r.EndsAtMs != 0 {
		s := clockid.MillisToRFC3339(r.EndsAtMs)
		view.EndsAt = &s
	}
	if r.Published() {
		s := clockid.MillisToRFC3339(r.ScorePublishedAtMs)
		view.ScorePublishedAt = &s
	}
	for _, s := range r.Submissions {
		sv := SubmissionView{
			ParticipantID:   s.ParticipantID,
			ParticipantName: s.ParticipantName,
			Answers:         s.Answers,
			SubmittedAt:     clockid.MillisToRFC3339(s.SubmittedAtMs),
		}
		if s.Review != nil {
			sv.Review = &ReviewView{
				Marks:        s.Review.Marks,
				Scores:       s.Review.Scores,
				MarkedByID:   s.Review.MarkedByID,
				MarkedByName: s.Review.MarkedByName,
				MarkedAt:     clockid.MillisToRFC3339(s.Review.MarkedAtMs),
			}
		}
		view.Submissions = append(view.Submissions, sv)
	}
	return view
}

func projectScoring(state roundtypes.State) ScoringSummary {
	admitted := state.Counts().Admitted
	roundsPerPlayer := 0
	if admitted > 0 {
		roundsPerPlayer = 26 / admitted
	}
	maxRounds := roundtypes.MaxFairRounds(admitted)

	used := set.New[int]()
	for n := range state.UsedCalledNumbers() {
		used.Insert(n)
	}
	available := set.New[int]()
	for n := 1; n <= 26; n++ {
		if !used.Has(n) {
			available.Insert(n)
		}
	}

	published := 0
	var pending []int
	for _, r := range state.Game.CompletedRounds {
		if r.Published() {
			published++
		} else {
			pending = append(pending, r.RoundNumber)
		}
	}
	sort.Ints(pending)

	summary := ScoringSummary{
		RoundsPerPlayer:          roundsPerPlayer,
		MaxRounds:                maxRounds,
		RoundsPlayed:             len(state.Game.CompletedRounds),
		PublishedRounds:          published,
		PendingPublicationRounds: pending,
		UsedNumbers:              sortedInts(used),
		AvailableNumbers:         sortedInts(available),
		IsComplete:               maxRounds > 0 && len(state.Game.CompletedRounds) >= maxRounds,
		Leaderboard:              buildLeaderboard(state),
	}
	return summary
}

func sortedInts(s set.Set[int]) []int {
	out := s.UnsortedList()
	sort.Ints(out)
	if out == nil {
		out = []int{}
	}
	return out
}

func buildLeaderboard(state roundtypes.State) []LeaderboardEntry {
	var rounds []roundtypes.CompletedRound
	for _, r := range state.Game.CompletedRounds {
		if r.Published() {
			rounds = append(rounds, r)
		}
	}
	sort.Slice(rounds, func(i, j int) bool { return rounds[i].RoundNumber < rounds[j].RoundNumber })

	entries := make(map[string]*LeaderboardEntry)
	for _, id := range state.Game.TurnOrder {
		p, ok := state.Participants[id]
		if !ok || p.Status != roundtypes.StatusAdmitted {
			continue
		}
		entries[id] = &LeaderboardEntry{ParticipantID: id, ParticipantName: p.Name}
	}

	cumulative := make(map[string]float64)
	for _, r := range rounds {
		for _, s := range r.Submissions {
			entry, ok := entries[s.ParticipantID]
			if !ok {
				continue
			}
			score := 0.0
			reviewed := s.Review != nil
			if reviewed {
				score = s.Review.Scores.Total
			}
			cumulative[s.ParticipantID] += score
			entry.History = append(entry.History, HistoryEntry{
				RoundNumber:     r.RoundNumber,
				CalledNumber:    r.CalledNumber,
				ActiveLetter:    r.ActiveLetter,
				Score:           score,
				CumulativeScore: cumulative[s.ParticipantID],
				Reviewed:        reviewed,
			})
			entry.TotalScore = cumulative[s.ParticipantID]
		}
	}

	out := make([]LeaderboardEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalScore != out[j].TotalScore {
			return out[i].TotalScore > out[j].TotalScore
		}
		return strings.ToLower(out[i].ParticipantName) < strings.ToLower(out[j].ParticipantName)
	})

	return out
}
