// Package roundtypes is the data model of spec.md §3: the immutable-by-
// convention Room state value and everything it is built from. Nothing in
// this package performs I/O or reads the clock; State is plain data.
package roundtypes

// ParticipantStatus is one of {PENDING, ADMITTED, REJECTED} (spec.md §3.1).
type ParticipantStatus string

const (
	StatusPending  ParticipantStatus = "PENDING"
	StatusAdmitted ParticipantStatus = "ADMITTED"
	StatusRejected ParticipantStatus = "REJECTED"
)

// GameStatus is one of {LOBBY, IN_PROGRESS, CANCELLED, FINISHED}.
type GameStatus string

const (
	GameLobby      GameStatus = "LOBBY"
	GameInProgress GameStatus = "IN_PROGRESS"
	GameCancelled  GameStatus = "CANCELLED"
	GameFinished   GameStatus = "FINISHED"
)

// EndRule governs how a round closes (spec.md §3.1).
type EndRule string

const (
	EndRuleTimer           EndRule = "TIMER"
	EndRuleFirstSubmission EndRule = "FIRST_SUBMISSION"
	EndRuleWhicheverFirst  EndRule = "WHICHEVER_FIRST"
)

// ManualEndPolicy governs who, if anyone, may end a round before its
// deadline (spec.md §4.1 endRoundEarly).
type ManualEndPolicy string

const (
	ManualEndHostOrCaller ManualEndPolicy = "HOST_OR_CALLER"
	ManualEndCallerOnly   ManualEndPolicy = "CALLER_ONLY"
	ManualEndCallerOrTimer ManualEndPolicy = "CALLER_OR_TIMER"
	ManualEndNone         ManualEndPolicy = "NONE"
)

// ScoringMode selects one of the two scoring engines (spec.md §4.2).
type ScoringMode string

const (
	ScoringFixed10  ScoringMode = "FIXED_10"
	ScoringShared10 ScoringMode = "SHARED_10"
)

// EndReason records why a round ended (spec.md §3.1 CompletedRound).
type EndReason string

const (
	EndReasonTimer           EndReason = "TIMER"
	EndReasonFirstSubmission EndReason = "FIRST_SUBMISSION"
	EndReasonManualEnd       EndReason = "MANUAL_END"
)

// HostParticipantID is the literal id reserved for the host (spec.md §3.2:
// "Exactly one participant has isHost = true; its id is the literal 'host'").
const HostParticipantID = "host"

// Fields lists the five answer categories in their canonical order, used by
// both the projector and the scoring engine to iterate deterministically.
var Fields = [5]string{"name", "animal", "place", "thing", "food"}

// Answers holds one submission's five free-text answers.
type Answers struct {
	Name   string `json:"name"`
	Animal string `json:"animal"`
	Place  string `json:"place"`
	Thing  string `json:"thing"`
	Food   string `json:"food"`
}

// Get returns the answer for one of the canonical Fields by name.
func (a Answers) Get(field string) string {
	switch field {
	case "name":
		return a.Name
	case "animal":
		return a.Animal
	case "place":
		return a.Place
	case "thing":
		return a.Thing
	case "food":
		return a.Food
	default:
		return ""
	}
}

// Set returns a copy of a with the given field replaced.
func (a Answers) Set(field, value string) Answers {
	switch field {
	case "name":
		a.Name = value
	case "animal":
		a.Animal = value
	case "place":
		a.Place = value
	case "thing":
		a.Thing = value
	case "food":
		a.Food = value
	}
	return a
}

// MergeOverlay returns a copy of a with every non-empty field of overlay
// replacing a's field — the "overlay input onto existing draft" rule of
// spec.md §4.1 submitAnswers.
func (a Answers) MergeOverlay(overlay Answers) Answers {
	out := a
	for _, f := range Fields {
		if v := overlay.Get(f); v != "" {
			out = out.Set(f, v)
		}
	}
	return out
}

// Marks records, per field, whether the host judged the answer correct.
type Marks struct {
	Name   bool `json:"name"`
	Animal bool `json:"animal"`
	Place  bool `json:"place"`
	Thing  bool `json:"thing"`
	Food   bool `json:"food"`
}

func (m Marks) Get(field string) bool {
	switch field {
	case "name":
		return m.Name
	case "animal":
		return m.Animal
	case "place":
		return m.Place
	case "thing":
		return m.Thing
	case "food":
		return m.Food
	default:
		return false
	}
}

func (m Marks) Set(field string, v bool) Marks {
	switch field {
	case "name":
		m.Name = v
	case "animal":
		m.Animal = v
	case "place":
		m.Place = v
	case "thing":
		m.Thing = v
	case "food":
		m.Food = v
	}
	return m
}

// Scores records, per field plus total, the points awarded for one
// submission (spec.md §4.2).
type Scores struct {
	Name   float64 `json:"name"`
	Animal float64 `json:"animal"`
	Place  float64 `json:"place"`
	Thing  float64 `json:"thing"`
	Food   float64 `json:"food"`
	Total  float64 `json:"total"`
}

func (s Scores) Get(field string) float64 {
	switch field {
	case "name":
		return s.Name
	case "animal":
		return s.Animal
	case "place":
		return s.Place
	case "thing":
		return s.Thing
	case "food":
		return s.Food
	default:
		return 0
	}
}

func (s Scores) Set(field string, v float64) Scores {
	switch field {
	case "name":
		s.Name = v
	case "animal":
		s.Animal = v
	case "place":
		s.Place = v
	case "thing":
		s.Thing = v
	case "food":
		s.Food = v
	}
	return s
}

// Review is the host's judgement of one submission (spec.md §3.1).
type Review struct {
	Marks        Marks  `json:"marks"`
	Scores       Scores `json:"scores"`
	MarkedByID   string `json:"markedById"`
	MarkedByName string `json:"markedByName"`
	MarkedAtMs   int64  `json:"-"`
}

// Submission is one participant's answers for the active or a completed
// round (spec.md §3.1).
type Submission struct {
	ParticipantID   string  `json:"participantId"`
	ParticipantName string  `json:"participantName"`
	Answers         Answers `json:"-"` // hidden while round is active; revealed via CompletedRound
	SubmittedAtMs   int64   `json:"-"`
	Review          *Review `json:"review,omitempty"`
}

func (s Submission) Clone() Submission {
	if s.Review != nil {
		r := *s.Review
		s.Review = &r
	}
	return s
}

// GameConfig is immutable once the game starts (spec.md §3.1).
type GameConfig struct {
	RoundSeconds    int             `json:"roundSeconds"`
	EndRule         EndRule         `json:"endRule"`
	ManualEndPolicy ManualEndPolicy `json:"manualEndPolicy"`
	ScoringMode     ScoringMode     `json:"scoringMode"`
}

// DefaultGameConfig is used when startGame is called without an explicit
// config override.
func DefaultGameConfig() GameConfig {
	return GameConfig{
		RoundSeconds:    30,
		EndRule:         EndRuleWhicheverFirst,
		ManualEndPolicy: ManualEndHostOrCaller,
		ScoringMode:     ScoringFixed10,
	}
}

// ActiveRound is the at-most-one in-flight round (spec.md §3.1).
type ActiveRound struct {
	RoundNumber         int
	TurnParticipantID   string
	TurnParticipantName string
	CalledNumber        int
	ActiveLetter        string
	StartedAtMs         int64
	CountdownEndsAtMs   int64
	EndsAtMs            int64 // 0 means no deadline (EndRuleFirstSubmission)
	Submissions         []Submission
	Drafts              map[string]Answers
}

func (a *ActiveRound) Clone() *ActiveRound {
	if a == nil {
		return nil
	}
	cp := *a
	cp.Submissions = make([]Submission, len(a.Submissions))
	for i, s := range a.Submissions {
		cp.Submissions[i] = s.Clone()
	}
	cp.Drafts = make(map[string]Answers, len(a.Drafts))
	for k, v := range a.Drafts {
		cp.Drafts[k] = v
	}
	return &cp
}

func (a *ActiveRound) HasSubmitted(participantID string) bool {
	if a == nil {
		return false
	}
	for _, s := range a.Submissions {
		if s.ParticipantID == participantID {
			return true
		}
	}
	return false
}

// CompletedRound is an ended round, appended to Game.CompletedRounds
// (spec.md §3.1). Once ScorePublishedAtMs is set it is immutable.
type CompletedRound struct {
	RoundNumber         int
	TurnParticipantID   string
	TurnParticipantName string
	CalledNumber        int
	ActiveLetter        string
	StartedAtMs         int64
	CountdownEndsAtMs   int64
	EndsAtMs            int64
	Submissions         []Submission
	EndedAtMs           int64
	EndReason           EndReason
	ScorePublishedAtMs  int64 // 0 means not yet published
}

func (c CompletedRound) Published() bool {
	return c.ScorePublishedAtMs != 0
}

func (c CompletedRound) Clone() CompletedRound {
	cp := c
	cp.Submissions = make([]Submission, len(c.Submissions))
	for i, s := range c.Submissions {
		cp.Submissions[i] = s.Clone()
	}
	return cp
}

// Participant is one member of the room (spec.md §3.1).
type Participant struct {
	ID          string
	Name        string
	Status      ParticipantStatus
	IsHost      bool
	CreatedAtMs int64
	UpdatedAtMs int64
}

// Game is the round-game state machine owned by a Room (spec.md §3.1).
type Game struct {
	Status          GameStatus
	StartedAtMs     int64
	CancelledAtMs   int64
	FinishedAtMs    int64
	Config          GameConfig
	TurnOrder       []string
	CurrentTurnIndex int
	ActiveRound     *ActiveRound
	CompletedRounds []CompletedRound
}

func (g Game) Clone() Game {
	cp := g
	cp.TurnOrder = append([]string(nil), g.TurnOrder...)
	cp.ActiveRound = g.ActiveRound.Clone()
	cp.CompletedRounds = make([]CompletedRound, len(g.CompletedRounds))
	for i, r := range g.CompletedRounds {
		cp.CompletedRounds[i] = r.Clone()
	}
	return cp
}

// State is the Room value described by spec.md §3.1/§3.3: an
// immutable-by-convention record. Every transition receives a State by
// value and returns a new one; the actor is the sole owner of "current".
type State struct {
	Code            string
	HostName        string
	MaxParticipants int
	HostToken       string
	CreatedAtMs     int64

	// Participants is keyed by participant id. JoinOrder preserves
	// insertion order so startGame can freeze ADMITTED ids in join order
	// (spec.md §4.1 startGame).
	Participants map[string]Participant
	JoinOrder    []string

	Game Game
}

// Clone performs the "shallow clone + in-place updates under the same
// ownership discipline" spec.md §9 describes for languages without
// persistent collections: every transition clones before mutating so no
// earlier snapshot ever observes a later write.
func (s State) Clone() State {
	cp := s
	cp.Participants = make(map[string]Participant, len(s.Participants))
	for k, v := range s.Participants {
		cp.Participants[k] = v
	}
	cp.JoinOrder = append([]string(nil), s.JoinOrder...)
	cp.Game = s.Game.Clone()
	return cp
}

// AdmittedIDsInJoinOrder returns the ids of ADMITTED participants in the
// order they joined (spec.md §4.1 startGame freezes turnOrder this way).
func (s State) AdmittedIDsInJoinOrder() []string {
	out := make([]string, 0, len(s.JoinOrder))
	for _, id := range s.JoinOrder {
		if p, ok := s.Participants[id]; ok && p.Status == StatusAdmitted {
			out = append(out, id)
		}
	}
	return out
}

// Counts tallies participants by status (spec.md §4.4 counts).
type Counts struct {
	Admitted int
	Pending  int
	Rejected int
}

func (s State) Counts() Counts {
	var c Counts
	for _, p := range s.Participants {
		switch p.Status {
		case StatusAdmitted:
			c.Admitted++
		case StatusPending:
			c.Pending++
		case StatusRejected:
			c.Rejected++
		}
	}
	return c
}

// MaxFairRounds implements spec.md §4.3.
func MaxFairRounds(admittedCount int) int {
	if admittedCount <= 0 {
		return 0
	}
	roundsPerPlayer := 26 / admittedCount
	return roundsPerPlayer * admittedCount
}

// ActiveLetter implements spec.md GLOSSARY: char(64 + calledNumber).
func ActiveLetter(calledNumber int) string {
	return string(rune(64 + calledNumber))
}

// CurrentTurnParticipantID returns turnOrder[currentTurnIndex] if the game
// is IN_PROGRESS, else "".
func (s State) CurrentTurnParticipantID() string {
	if s.Game.Status != GameInProgress {
		return ""
	}
	if s.Game.CurrentTurnIndex < 0 || s.Game.CurrentTurnIndex >= len(s.Game.TurnOrder) {
		return ""
	}
	return s.Game.TurnOrder[s.Game.CurrentTurnIndex]
}

// IsAdmitted reports whether id refers to an ADMITTED participant.
func (s State) IsAdmitted(id string) bool {
	p, ok := s.Participants[id]
	return ok && p.Status == StatusAdmitted
}

// UsedCalledNumbers collects every calledNumber already used by an active
// or completed round (spec.md §3.2: "No two rounds ... share the same
// calledNumber").
func (s State) UsedCalledNumbers() map[int]bool {
	used := make(map[int]bool)
	if s.Game.ActiveRound != nil {
		used[s.Game.ActiveRound.CalledNumber] = true
	}
	for _, r := range s.Game.CompletedRounds {
		used[r.CalledNumber] = true
	}
	return used
}
