package scenes

import (
	crand "crypto/rand"
	"encoding/hex"
	"fmt"
	"math/rand/v2"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/ashfall-games/scenecaster/internal/scenemodel"
)

// summaryLimit is the maximum length, in runes, of a synthesized summary
// before the "..." ellipsis is appended.
const summaryLimit = 320

var whitespaceRun = regexp.MustCompile(`\s+`)

// Synthesize maps a render request into a fully classified [scenemodel.Descriptor].
// It fails with [scenemodel.ErrInvalidInput] only when req.StoryText is empty;
// otherwise it always succeeds. rng drives every randomly selected field
// (heroPose, camera, and time-of-day when the story text names none); passing
// the same rng state for the same inputs reproduces the same descriptor,
// satisfying the synthesizer's determinism requirement.
func Synthesize(req scenemodel.RenderRequest, rng *rand.Rand) (scenemodel.Descriptor, error) {
	if strings.TrimSpace(req.StoryText) == "" {
		return scenemodel.Descriptor{}, fmt.Errorf("%w: storyText must not be empty", scenemodel.ErrInvalidInput)
	}

	sceneID, err := newSceneID()
	if err != nil {
		return scenemodel.Descriptor{}, fmt.Errorf("scenes: generate scene id: %w", err)
	}

	lowered := strings.ToLower(req.StoryText)
	mood := classifyMood(lowered)
	weather := classifyWeather(lowered)
	timeOfDay := classifyTimeOfDay(lowered, rng)
	palette := selectPalette(mood, req.Genre)
	biome := deriveBiome(req.Genre, req.CurrentLocation)
	summary := safeStoryExcerpt(req.StoryText)
	lighting := "soft bounce light"
	if mood == "intense" || mood == "ominous" {
		lighting = "dramatic rim light"
	}

	heroName := req.Player.Name
	if heroName == "" {
		heroName = "Unknown Hero"
	}
	heroClass := req.Player.Class
	if heroClass == "" {
		heroClass = "Adventurer"
	}
	level := req.Player.Level
	if level == 0 {
		level = 1
	}

	subtitle := req.CurrentLocation
	if req.ActiveQuest != nil && req.ActiveQuest.Title != "" {
		subtitle = req.ActiveQuest.Title
	}
	if subtitle == "" {
		subtitle = req.Genre
	}

	locationName := req.CurrentLocation
	if locationName == "" {
		locationName = titleCase(biome)
	}

	focalSubjects := []scenemodel.FocalSubject{{
		Name:        heroName,
		Role:        fmt.Sprintf("Level %d %s", level, heroClass),
		Description: fmt.Sprintf("%s exploring the realm", heroClass),
	}}

	var supporting []string
	if req.ActiveQuest != nil && req.ActiveQuest.Description != "" {
		supporting = append(supporting, fmt.Sprintf("Quest focus: %s", req.ActiveQuest.Description))
	}
	if req.CurrentLocation != "" {
		supporting = append(supporting, fmt.Sprintf("Location highlight: %s", req.CurrentLocation))
	}
	supporting = append(supporting, fmt.Sprintf("Weather tone: %s", weather))

	d := scenemodel.Descriptor{
		SceneID:           sceneID,
		Title:             fmt.Sprintf("%s's %s Moment", heroName, titleCase(mood)),
		Subtitle:          subtitle,
		Genre:             req.Genre,
		LocationName:      locationName,
		Biome:             biome,
		Mood:              mood,
		Weather:           weather,
		Lighting:          lighting,
		TimeOfDay:         timeOfDay,
		HeroPose:          heroPoses[rng.IntN(len(heroPoses))],
		Camera:            cameraStyles[rng.IntN(len(cameraStyles))],
		Palette:           palette,
		Summary:           summary,
		FocalSubjects:     focalSubjects,
		SupportingDetails: supporting,
		CreatedAt:         time.Now().UTC(),
		PreGeneratedKey:   req.PreGeneratedKey,
	}
	d.Prompts = buildPrompts(d, summary, req.ActiveQuest)
	return d, nil
}

// newSceneID generates a 24-hex-character scene identifier from 12 random
// bytes.
func newSceneID() (string, error) {
	buf := make([]byte, 12)
	if _, err := crand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func classifyMood(lowered string) string {
	for _, entry := range moodKeywords {
		if containsAny(lowered, entry.keywords) {
			return entry.mood
		}
	}
	return defaultMood
}

func classifyWeather(lowered string) string {
	for _, entry := range weatherKeywords {
		if containsAny(lowered, entry.keywords) {
			return entry.weather
		}
	}
	return defaultWeather
}

func classifyTimeOfDay(lowered string, rng *rand.Rand) string {
	switch {
	case containsAny(lowered, dawnKeywords):
		return "dawn"
	case containsAny(lowered, dayKeywords):
		return "day"
	case containsAny(lowered, duskKeywords):
		return "dusk"
	case containsAny(lowered, nightKeywords):
		return "night"
	default:
		return timeOfDayFallbacks[rng.IntN(len(timeOfDayFallbacks))]
	}
}

func selectPalette(mood, genre string) []string {
	if p, ok := colorPalettes[mood]; ok {
		return p
	}
	if p, ok := genrePalettes[genre]; ok {
		return p
	}
	return colorPalettes["serene"]
}

func deriveBiome(genre, location string) string {
	if location != "" {
		lowered := strings.ToLower(location)
		for _, entry := range locationBiomeKeywords {
			if containsAny(lowered, entry.keywords) {
				return entry.biome
			}
		}
	}
	if b, ok := genreBiomes[genre]; ok {
		return b
	}
	return defaultBiome
}

// titleCase upper-cases the first rune of each word in s, leaving the rest
// unchanged. Used only for cosmetic display strings (titles, fallback
// location names), never for comparisons.
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}

// safeStoryExcerpt whitespace-normalizes text and truncates it to
// summaryLimit characters, appending "..." when truncated.
func safeStoryExcerpt(text string) string {
	if text == "" {
		return ""
	}
	clean := strings.TrimSpace(whitespaceRun.ReplaceAllString(text, " "))
	runes := []rune(clean)
	if len(runes) <= summaryLimit {
		return clean
	}
	return string(runes[:summaryLimit]) + "..."
}

// buildPrompts constructs the base and negative prompts handed to the render
// engine, interpolating the descriptor's classified fields.
func buildPrompts(d scenemodel.Descriptor, storyExcerpt string, quest *scenemodel.Quest) scenemodel.Prompts {
	var questLine string
	if quest != nil {
		questLine = fmt.Sprintf("The hero is advancing the quest '%s' which is about %s.",
			quest.Title, strings.ToLower(quest.Description))
	}

	focal := d.FocalSubjects[0].Name
	if len(d.FocalSubjects) > 1 {
		names := make([]string, len(d.FocalSubjects))
		for i, s := range d.FocalSubjects {
			names[i] = s.Name
		}
		focal = strings.Join(names, ", ")
	}

	base := fmt.Sprintf(
		"Ultra-detailed, high fidelity %s illustration set in a %s at %s. "+
			"The weather is %s with lighting that feels %s. "+
			"Focus on %s with a %s and capture the mood as %s. "+
			"Camera style: %s. "+
			"Story context: %s. %s "+
			"Palette: %s. Bright, vibrant, high-exposure daylight with luminous rim lighting, reflective highlights, and crisp contrast. "+
			"Make the scene feel sunlit, saturated, and vivid with cinematic volumetric light rays and glowy atmospherics for a fast concept-art render.",
		d.Genre, d.Biome, d.TimeOfDay,
		d.Weather, d.Lighting,
		focal, d.HeroPose, d.Mood,
		d.Camera,
		storyExcerpt, questLine,
		strings.Join(d.Palette, ", "),
	)

	negative := baseNegativePrompt + ", " + negativePromptSuffix

	return scenemodel.Prompts{Base: base, Negative: negative}
}
