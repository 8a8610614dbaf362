package service

import (
	"fmt"
	"strings"

	"tale-server/internal/models"
)

// refinementInstructions is the fixed table of canned base instructions per
// refinement type. Custom requests use the caller's instructions verbatim.
var refinementInstructions = map[models.RefinementType]string{
	models.RefinementSimplifyLanguage:    "Simplify the language so younger readers can follow it easily. Prefer short sentences and common words.",
	models.RefinementAddMoreAction:       "Add more action to the scene. Raise the pace with movement and consequential events.",
	models.RefinementIncreaseDialogue:    "Increase the amount of dialogue. Let the characters reveal events through conversation.",
	models.RefinementEnhanceDescriptions: "Enhance the descriptions of places, characters and atmosphere with vivid sensory detail.",
	models.RefinementStrengthenMoral:     "Strengthen the moral of the story so the lesson lands clearly without preaching.",
	models.RefinementAddHumor:            "Add humor. Weave in playful moments and light jokes that fit the tone.",
	models.RefinementIncreaseSuspense:    "Increase the suspense. Build tension and uncertainty about what happens next.",
}

// validateRefinementRequest checks the request before any mutation. A non-nil
// result aborts the whole operation with no side effects.
func validateRefinementRequest(req models.RefinementRequest) *models.ValidationError {
	if !req.Type.Valid() {
		return models.NewValidationError("type", fmt.Sprintf("unknown refinement type %q", req.Type))
	}
	if req.Type == models.RefinementCustom && strings.TrimSpace(req.CustomInstructions) == "" {
		return models.NewValidationError("custom_instructions", "required when type is custom")
	}
	switch req.Length {
	case "", models.LengthShorter, models.LengthSame, models.LengthLonger:
	default:
		return models.NewValidationError("length", fmt.Sprintf("unknown length preference %q", req.Length))
	}
	return nil
}

// buildDirective constructs the instruction text handed to the transform
// capability. It is pure: the directive is reproducible from the request
// alone, with no side effects.
func buildDirective(req models.RefinementRequest) string {
	base := refinementInstructions[req.Type]
	if req.Type == models.RefinementCustom {
		base = req.CustomInstructions
	}

	parts := []string{base}
	if len(req.PreserveElements) > 0 {
		parts = append(parts, fmt.Sprintf("Preserve the following elements exactly: %s.",
			strings.Join(req.PreserveElements, ", ")))
	}
	switch req.Length {
	case models.LengthShorter:
		parts = append(parts, "Reduce the overall length by about 25%.")
	case models.LengthLonger:
		parts = append(parts, "Increase the overall length by about 25%.")
	}
	return strings.Join(parts, " ")
}
