package roundstate

import (
	"strings"

	"github.com/adeyems/wordround/internal/v1/apierr"
	"github.com/adeyems/wordround/internal/v1/roundtypes"
)

func validateHostName(name string) (string, *apierr.Error) {
	return validateParticipantName(name)
}

func validateParticipantName(name string) (string, *apierr.Error) {
	norm := roundtypes.Normalize(name)
	n := len([]rune(norm))
	if n < 2 || n > 24 {
		return "", apierr.BadRequest("name must be between 2 and 24 characters")
	}
	return norm, nil
}

func validateMaxParticipants(n int) *apierr.Error {
	if n < 1 || n > 10 {
		return apierr.BadRequest("maxParticipants must be between 1 and 10")
	}
	return nil
}

func validateConfig(cfg roundtypes.GameConfig) *apierr.Error {
	if cfg.RoundSeconds < 5 || cfg.RoundSeconds > 120 {
		return apierr.BadRequest("roundSeconds must be between 5 and 120")
	}
	switch cfg.EndRule {
	case roundtypes.EndRuleTimer, roundtypes.EndRuleFirstSubmission, roundtypes.EndRuleWhicheverFirst:
	default:
		return apierr.BadRequest("invalid endRule")
	}
	switch cfg.ManualEndPolicy {
	case roundtypes.ManualEndHostOrCaller, roundtypes.ManualEndCallerOnly, roundtypes.ManualEndCallerOrTimer, roundtypes.ManualEndNone:
	default:
		return apierr.BadRequest("invalid manualEndPolicy")
	}
	switch cfg.ScoringMode {
	case roundtypes.ScoringFixed10, roundtypes.ScoringShared10:
	default:
		return apierr.BadRequest("invalid scoringMode")
	}
	if cfg.ManualEndPolicy == roundtypes.ManualEndCallerOrTimer && cfg.EndRule == roundtypes.EndRuleFirstSubmission {
		return apierr.BadRequest("manualEndPolicy CALLER_OR_TIMER requires endRule != FIRST_SUBMISSION")
	}
	return nil
}

func checkHostAuth(state roundtypes.State, hostToken string) *apierr.Error {
	if hostToken == "" || hostToken != state.HostToken {
		return apierr.Unauthorised("missing or invalid host token")
	}
	return nil
}

func nameTaken(state roundtypes.State, normalizedName string) bool {
	target := strings.ToLower(normalizedName)
	for _, p := range state.Participants {
		if p.Status == roundtypes.StatusRejected {
			continue
		}
		if strings.ToLower(p.Name) == target {
			return true
		}
	}
	return false
}
