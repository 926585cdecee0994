package httpapi

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/adeyems/wordround/internal/v1/actor"
	"github.com/adeyems/wordround/internal/v1/apierr"
	"github.com/adeyems/wordround/internal/v1/registry"
	"github.com/adeyems/wordround/internal/v1/roundtypes"
	"github.com/adeyems/wordround/internal/v1/snapshot"
)

type handlers struct {
	registry *registry.Registry
}

var codePattern = regexp.MustCompile(`^[A-Z0-9]{4,10}$`)

// normalizeCode implements spec.md §6.1: "Room codes are case-insensitive;
// the server normalises to upper-case and validates ^[A-Z0-9]{4,10}$."
func normalizeCode(raw string) (string, *apierr.Error) {
	code := strings.ToUpper(strings.TrimSpace(raw))
	if !codePattern.MatchString(code) {
		return "", apierr.BadRequest("room code must be 4-10 uppercase letters or digits")
	}
	return code, nil
}

func writeError(c *gin.Context, err *apierr.Error) {
	c.JSON(apierr.Status(err.Kind), gin.H{"error": err.Message})
}

// actorFor resolves the room code from the path and looks up its actor, the
// shared prelude every handler needs before touching the body.
func (h *handlers) actorFor(c *gin.Context) (*actor.Actor, string, *apierr.Error) {
	code, err := normalizeCode(c.Param("code"))
	if err != nil {
		return nil, "", err
	}
	a, lookupErr := h.registry.Get(code)
	if lookupErr != nil {
		return nil, "", lookupErr
	}
	return a, code, nil
}

// --- createRoom ---

type createRoomRequest struct {
	HostName        string `json:"hostName"`
	MaxParticipants int    `json:"maxParticipants"`
}

type createRoomResponse struct {
	RoomCode        string `json:"roomCode"`
	HostName        string `json:"hostName"`
	MaxParticipants int    `json:"maxParticipants"`
	WsPath          string `json:"wsPath"`
	HostToken       string `json:"hostToken"`
}

func (h *handlers) createRoom(c *gin.Context) {
	var req createRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apierr.BadRequest("invalid request body"))
		return
	}

	created, err := h.registry.CreateRoom(req.HostName, req.MaxParticipants)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, createRoomResponse{
		RoomCode:        created.RoomCode,
		HostName:        created.HostName,
		MaxParticipants: created.MaxParticipants,
		WsPath:          "/ws/" + created.RoomCode,
		HostToken:       created.HostToken,
	})
}

// --- getSnapshot ---

func (h *handlers) getSnapshot(c *gin.Context) {
	a, _, err := h.actorFor(c)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, a.Snapshot())
}

// --- submitJoin ---

type submitJoinRequest struct {
	Name string `json:"name"`
}

type submitJoinResponse struct {
	RequestID   string                       `json:"requestId"`
	Participant snapshot.ParticipantView     `json:"participant"`
	Status      roundtypes.ParticipantStatus `json:"status"`
}

func (h *handlers) submitJoin(c *gin.Context) {
	a, code, err := h.actorFor(c)
	if err != nil {
		writeError(c, err)
		return
	}

	var req submitJoinRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		writeError(c, apierr.BadRequest("invalid request body"))
		return
	}

	snap, participantID, status, joinErr := a.SubmitJoin(req.Name)
	if joinErr != nil {
		writeError(c, joinErr)
		return
	}
	h.registry.NotifyActivity(code)

	var participant snapshot.ParticipantView
	for _, p := range snap.Participants {
		if p.ID == participantID {
			participant = p
			break
		}
	}

	c.JSON(http.StatusAccepted, submitJoinResponse{
		RequestID:   participantID,
		Participant: participant,
		Status:      status,
	})
}

// --- reviewJoin ---

type reviewJoinRequest struct {
	HostToken string `json:"hostToken"`
	RequestID string `json:"requestId"`
	Approve   bool   `json:"approve"`
}

func (h *handlers) reviewJoin(c *gin.Context) {
	var req reviewJoinRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		writeError(c, apierr.BadRequest("invalid request body"))
		return
	}
	a, code, lookupErr := h.actorFor(c)
	if lookupErr != nil {
		writeError(c, lookupErr)
		return
	}
	snap, err := a.ReviewJoin(req.HostToken, req.RequestID, req.Approve)
	h.registry.NotifyActivity(code)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// --- startGame ---

type gameConfigRequest struct {
	RoundSeconds    int                        `json:"roundSeconds"`
	EndRule         roundtypes.EndRule         `json:"endRule"`
	ManualEndPolicy roundtypes.ManualEndPolicy `json:"manualEndPolicy"`
	ScoringMode     roundtypes.ScoringMode     `json:"scoringMode"`
}

type startGameRequest struct {
	HostToken string             `json:"hostToken"`
	Config    *gameConfigRequest `json:"config"`
}

func (h *handlers) startGame(c *gin.Context) {
	var req startGameRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		writeError(c, apierr.BadRequest("invalid request body"))
		return
	}
	a, code, lookupErr := h.actorFor(c)
	if lookupErr != nil {
		writeError(c, lookupErr)
		return
	}

	var override *roundtypes.GameConfig
	if req.Config != nil {
		override = &roundtypes.GameConfig{
			RoundSeconds:    req.Config.RoundSeconds,
			EndRule:         req.Config.EndRule,
			ManualEndPolicy: req.Config.ManualEndPolicy,
			ScoringMode:     req.Config.ScoringMode,
		}
	}

	snap, err := a.StartGame(req.HostToken, override)
	h.registry.NotifyActivity(code)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// --- callNumber ---

type callNumberRequest struct {
	ParticipantID string `json:"participantId"`
	Number        int    `json:"number"`
}

func (h *handlers) callNumber(c *gin.Context) {
	var req callNumberRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		writeError(c, apierr.BadRequest("invalid request body"))
		return
	}
	a, code, lookupErr := h.actorFor(c)
	if lookupErr != nil {
		writeError(c, lookupErr)
		return
	}
	snap, err := a.CallNumber(req.ParticipantID, req.Number)
	h.registry.NotifyActivity(code)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// --- updateDraft ---

type updateDraftRequest struct {
	ParticipantID string             `json:"participantId"`
	Answers       roundtypes.Answers `json:"answers"`
}

func (h *handlers) updateDraft(c *gin.Context) {
	var req updateDraftRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		writeError(c, apierr.BadRequest("invalid request body"))
		return
	}
	a, _, lookupErr := h.actorFor(c)
	if lookupErr != nil {
		writeError(c, lookupErr)
		return
	}
	if err := a.UpdateDraft(req.ParticipantID, req.Answers); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// --- submitAnswers ---

type submitAnswersRequest struct {
	ParticipantID string             `json:"participantId"`
	Answers       roundtypes.Answers `json:"answers"`
}

func (h *handlers) submitAnswers(c *gin.Context) {
	var req submitAnswersRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		writeError(c, apierr.BadRequest("invalid request body"))
		return
	}
	a, code, lookupErr := h.actorFor(c)
	if lookupErr != nil {
		writeError(c, lookupErr)
		return
	}
	snap, err := a.SubmitAnswers(req.ParticipantID, req.Answers)
	h.registry.NotifyActivity(code)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// --- endRoundEarly ---

type endRoundEarlyRequest struct {
	ParticipantID string `json:"participantId"`
}

func (h *handlers) endRoundEarly(c *gin.Context) {
	var req endRoundEarlyRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		writeError(c, apierr.BadRequest("invalid request body"))
		return
	}
	a, code, lookupErr := h.actorFor(c)
	if lookupErr != nil {
		writeError(c, lookupErr)
		return
	}
	snap, err := a.EndRoundEarly(req.ParticipantID)
	h.registry.NotifyActivity(code)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// --- scoreSubmission ---

type scoreSubmissionRequest struct {
	HostToken     string           `json:"hostToken"`
	RoundNumber   int              `json:"roundNumber"`
	ParticipantID string           `json:"participantId"`
	Marks         roundtypes.Marks `json:"marks"`
}

func (h *handlers) scoreSubmission(c *gin.Context) {
	var req scoreSubmissionRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		writeError(c, apierr.BadRequest("invalid request body"))
		return
	}
	a, code, lookupErr := h.actorFor(c)
	if lookupErr != nil {
		writeError(c, lookupErr)
		return
	}
	snap, err := a.ScoreSubmission(req.HostToken, req.RoundNumber, req.ParticipantID, req.Marks)
	h.registry.NotifyActivity(code)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// --- publishRound ---

type roundNumberRequest struct {
	HostToken   string `json:"hostToken"`
	RoundNumber int    `json:"roundNumber"`
}

func (h *handlers) publishRound(c *gin.Context) {
	var req roundNumberRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		writeError(c, apierr.BadRequest("invalid request body"))
		return
	}
	a, code, lookupErr := h.actorFor(c)
	if lookupErr != nil {
		writeError(c, lookupErr)
		return
	}
	snap, err := a.PublishRound(req.HostToken, req.RoundNumber)
	h.registry.NotifyActivity(code)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// --- discardRound ---

func (h *handlers) discardRound(c *gin.Context) {
	var req roundNumberRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		writeError(c, apierr.BadRequest("invalid request body"))
		return
	}
	a, code, lookupErr := h.actorFor(c)
	if lookupErr != nil {
		writeError(c, lookupErr)
		return
	}
	snap, err := a.DiscardRound(req.HostToken, req.RoundNumber)
	h.registry.NotifyActivity(code)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// --- cancelGame / endGame ---

type hostTokenRequest struct {
	HostToken string `json:"hostToken"`
}

func (h *handlers) cancelGame(c *gin.Context) {
	var req hostTokenRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		writeError(c, apierr.BadRequest("invalid request body"))
		return
	}
	a, code, lookupErr := h.actorFor(c)
	if lookupErr != nil {
		writeError(c, lookupErr)
		return
	}
	snap, err := a.CancelGame(req.HostToken)
	h.registry.NotifyActivity(code)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *handlers) endGame(c *gin.Context) {
	var req hostTokenRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		writeError(c, apierr.BadRequest("invalid request body"))
		return
	}
	a, code, lookupErr := h.actorFor(c)
	if lookupErr != nil {
		writeError(c, lookupErr)
		return
	}
	snap, err := a.EndGame(req.HostToken)
	h.registry.NotifyActivity(code)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}
