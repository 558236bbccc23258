package scenes

// moodKeywords maps each mood to the lowercased keywords whose presence in
// the story text selects it. Checked in this order; the first match wins.
var moodKeywords = []struct {
	mood     string
	keywords []string
}{
	{"intense", []string{"battle", "fight", "fire", "attack", "blood", "storm"}},
	{"mystic", []string{"arcane", "mystic", "ancient", "temple", "spirit", "runic"}},
	{"serene", []string{"calm", "river", "garden", "peaceful", "rest", "glow"}},
	{"ominous", []string{"shadow", "dark", "cursed", "ominous", "fog", "haunted"}},
	{"victorious", []string{"victory", "treasure", "celebration", "light", "reward"}},
}

const defaultMood = "serene"

// weatherKeywords maps each weather to its selecting keywords, checked in order.
var weatherKeywords = []struct {
	weather  string
	keywords []string
}{
	{"storm", []string{"storm", "rain", "thunder", "lightning"}},
	{"snow", []string{"snow", "ice", "frost"}},
	{"fog", []string{"fog", "mist", "haze"}},
	{"sunny", []string{"sun", "bright", "clear"}},
	{"ember", []string{"lava", "ember", "ash"}},
}

const defaultWeather = "sunny"

var (
	dawnKeywords  = []string{"dawn", "sunrise", "morning"}
	dayKeywords   = []string{"noon", "bright"}
	duskKeywords  = []string{"dusk", "evening", "sunset"}
	nightKeywords = []string{"night", "moon", "stars", "midnight"}
)

// timeOfDayFallbacks are chosen uniformly at random when no keyword matches.
var timeOfDayFallbacks = []string{"day", "dusk"}

// colorPalettes gives each mood a fixed 5-entry hex palette.
var colorPalettes = map[string][]string{
	"intense":    {"#ff7847", "#ffb347", "#1f1f1f", "#d13438", "#f0c808"},
	"mystic":     {"#4b3b8f", "#6a4c93", "#a27cfe", "#1b1f3b", "#4ad9d9"},
	"serene":     {"#72ddf7", "#a0f1db", "#fdfcdc", "#f4d35e", "#ee964b"},
	"ominous":    {"#0d0d0d", "#2f2f2f", "#5d1451", "#1a535c", "#4d194d"},
	"victorious": {"#ffd166", "#06d6a0", "#118ab2", "#073b4c", "#ffe29a"},
}

// genrePalettes gives the remaining genres (not already covered by mood) a
// fixed palette, consulted only when the mood has none of its own.
var genrePalettes = map[string][]string{
	"Mystery":  {"#1b1b2f", "#16213e", "#0f3460", "#53354a", "#e84545"},
	"Sci-Fi":   {"#0f2027", "#203a43", "#2c5364", "#00b4d8", "#90e0ef"},
	"Mythical": {"#331832", "#c84b31", "#f3ecc8", "#daa49a", "#c1a57b"},
}

// genreBiomes gives each known genre a default biome, consulted only when
// currentLocation carries no recognisable biome keyword.
var genreBiomes = map[string]string{
	"Fantasy":  "mossy dungeon hall",
	"Mystery":  "fog-laced alley",
	"Sci-Fi":   "orbital observation deck",
	"Mythical": "celestial amphitheater",
}

const defaultBiome = "mystic crossroads"

// locationBiomeKeywords maps location-name keywords to the biome they imply,
// checked in order.
var locationBiomeKeywords = []struct {
	biome    string
	keywords []string
}{
	{"enchanted forest", []string{"forest", "grove", "woods"}},
	{"sun-scorched desert", []string{"desert", "dune", "waste"}},
	{"ancient settlement", []string{"city", "village", "town"}},
	{"sacred ruins", []string{"temple", "ruin"}},
}

// heroPoses are the fixed vocabulary heroPose is drawn from uniformly at random.
var heroPoses = []string{
	"blade poised mid-swing",
	"arcane focus glowing between hands",
	"bow drawn with shimmering arrow",
	"kneeling beside mysterious artifact",
	"cautious stance with torch raised",
}

// cameraStyles are the fixed vocabulary camera is drawn from uniformly at random.
var cameraStyles = []string{
	"wide cinematic shot",
	"hero-focused medium shot",
	"dynamic low-angle composition",
	"sweeping aerial view",
	"over-the-shoulder perspective",
}

// baseNegativePrompt is the constant core of every descriptor's negative
// prompt; synthesis appends a fixed suffix to it.
const baseNegativePrompt = "lowres, bad anatomy, text artifacts, watermarks, distorted hands, extra limbs"

const negativePromptSuffix = "oversaturated skin, text overlays, extra limbs, malformed hands"
