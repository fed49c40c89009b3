// Package planner maps a theme to an ordered sequence of per-page render
// prompts. Pure logic, no external calls.
package planner

import (
	"fmt"
	"math"
	"strings"

	"colorbook/internal/domain"
)

// DefaultCharacterName is used when the request names no character.
const DefaultCharacterName = "the main character"

// Complexity hints per art style, injected into every render prompt.
var styleHints = map[domain.ArtStyle]string{
	domain.ArtStyleSimple: "very thick black outlines, large simple shapes, minimal detail, " +
		"no cross-hatching, no small features, suitable for toddlers",
	domain.ArtStyleStandard: "clean black outlines, moderate detail, standard coloring book style, " +
		"clear regions to color, no shading",
	domain.ArtStyleDetailed: "fine black lines, intricate details, patterns inside shapes, " +
		"suitable for older children, no shading or gray fills",
}

// Story-arc templates, in narrative order. The catalogue is longer than the
// maximum supported page count so every page count gets distinct scenes.
var arcTemplates = []string{
	"introduction of {name} in their home setting",
	"{name} discovers something magical and sets off on an adventure",
	"{name} meets a friendly creature or companion",
	"{name} faces a challenge or puzzle",
	"{name} works together with new friends to solve the problem",
	"{name} celebrates their success with everyone",
	"{name} shares what they learned with family",
	"a quiet evening as {name} reflects on the journey",
	"a surprise twist sends {name} to a new location",
	"{name} uses a special skill to help someone",
	"the whole group goes on a picnic or celebration",
	"a peaceful final scene with {name} back at home",
}

// Plan builds page-by-page scenes from a theme. Arc steps are picked evenly
// across the template catalogue so the first page is always the introduction
// and the last page is always the closing scene. pageCount is bounded >= 2
// upstream, which keeps the spacing formula well defined.
func Plan(theme string, pageCount int, style domain.ArtStyle, ageRange domain.AgeRange, characterName string) []domain.Scene {
	name := characterName
	if name == "" {
		name = DefaultCharacterName
	}
	styleHint := styleHints[style]

	arcCount := len(arcTemplates)
	scenes := make([]domain.Scene, 0, pageCount)
	for i := 0; i < pageCount; i++ {
		idx := int(math.Round(float64(i) * float64(arcCount-1) / float64(pageCount-1)))
		arc := strings.ReplaceAll(arcTemplates[idx], "{name}", name)

		scenes = append(scenes, domain.Scene{
			PageNumber:  i + 1,
			Description: fmt.Sprintf("Page %d: %s — themed around: %s", i+1, arc, theme),
			ImagePrompt: fmt.Sprintf(
				"Black and white coloring book page. %s. Theme: %s. %s. "+
					"Pure white background, only black outlines, no gray fills, no shading, "+
					"no text, print-ready coloring page for age %s.",
				arc, theme, styleHint, ageRange,
			),
		})
	}
	return scenes
}
