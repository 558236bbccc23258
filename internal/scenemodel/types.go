// Package scenemodel defines the data types shared by the scene
// orchestrator's synthesis, persistence, and service layers: the scene
// descriptor, its public projection, render requests/responses, and the
// sentinel error taxonomy.
package scenemodel

import "time"

// Status is a scene's position in its state machine. A scene starts
// StatusPending and transitions at most once more, to either StatusReady or
// StatusOffline; only a rerender (which allocates a new scene id) starts the
// machine over.
type Status string

const (
	StatusPending Status = "pending"
	StatusReady   Status = "ready"
	StatusOffline Status = "offline"
)

// FocalSubject names one subject the rendered image should foreground.
type FocalSubject struct {
	Name        string
	Role        string
	Description string
}

// Prompts carries the text handed to the image-generation backend. It is
// persisted alongside a scene record but is never included in any value
// returned across the service boundary.
type Prompts struct {
	Base     string
	Negative string
}

// Assets describes a successfully rendered image. A non-nil Assets with a
// non-empty ImageURL is the only way a scene's status is StatusReady.
type Assets struct {
	ImageURL     string
	ThumbnailURL string
	Width        int
	Height       int
	Provider     string
	Model        string
}

// Stats holds a player's core attributes, passed through synthesis
// unmodified; it currently has no effect on classification but is carried so
// future rules can key off it without a request-shape change.
type Stats struct {
	Strength     int
	Intelligence int
	Agility      int
}

// Player describes the caller's player character.
type Player struct {
	Name  string
	Class string
	Level int
	Stats Stats
}

// Quest describes the player's currently active quest, when any.
type Quest struct {
	Title       string
	Description string
}

// GameState carries opaque game-state context. TurnCount is the only field
// the orchestrator reads (it becomes the persisted record's Turn); any other
// state is passed through as Extra without interpretation.
type GameState struct {
	TurnCount int
	Extra     map[string]any
}

// Descriptor is the Descriptor Synthesizer's output: a fully classified
// scene, not yet rendered. A Descriptor's Prompts are dropped when it is
// projected to a [SceneView] for the service boundary.
type Descriptor struct {
	SceneID           string
	Title             string
	Subtitle          string
	Genre             string
	LocationName      string
	Biome             string
	Mood              string
	Weather           string
	Lighting          string
	TimeOfDay         string
	HeroPose          string
	Camera            string
	Palette           []string
	Summary           string
	FocalSubjects     []FocalSubject
	SupportingDetails []string
	Prompts           Prompts
	CreatedAt         time.Time
	PreGeneratedKey   string
}

// View projects d, together with the given status and assets, into the
// public [SceneView] shape returned to callers. Prompts never appear here.
func (d Descriptor) View(status Status, assets *Assets) SceneView {
	return SceneView{
		SceneID:           d.SceneID,
		Title:             d.Title,
		Subtitle:          d.Subtitle,
		Genre:             d.Genre,
		LocationName:      d.LocationName,
		Biome:             d.Biome,
		Mood:              d.Mood,
		Weather:           d.Weather,
		Lighting:          d.Lighting,
		TimeOfDay:         d.TimeOfDay,
		HeroPose:          d.HeroPose,
		Camera:            d.Camera,
		Palette:           d.Palette,
		Summary:           d.Summary,
		FocalSubjects:     d.FocalSubjects,
		SupportingDetails: d.SupportingDetails,
		Status:            status,
		Assets:            assets,
		CreatedAt:         d.CreatedAt,
		PreGeneratedKey:   d.PreGeneratedKey,
	}
}

// SceneView is the scene projection returned across the service boundary.
// It is byte-for-byte the Descriptor minus Prompts, plus the current status
// and assets.
type SceneView struct {
	SceneID           string
	Title             string
	Subtitle          string
	Genre             string
	LocationName      string
	Biome             string
	Mood              string
	Weather           string
	Lighting          string
	TimeOfDay         string
	HeroPose          string
	Camera            string
	Palette           []string
	Summary           string
	FocalSubjects     []FocalSubject
	SupportingDetails []string
	Status            Status
	Assets            *Assets
	CreatedAt         time.Time
	PreGeneratedKey   string
}

// RenderRequest is the caller-supplied context for a render or rerender.
type RenderRequest struct {
	Player          Player
	Genre           string
	StoryText       string
	PreviousEvents  []any
	ActiveQuest     *Quest
	CurrentLocation string
	GameState       *GameState
	PreGeneratedKey string
}

// RenderResponse is returned by the render operation.
type RenderResponse struct {
	Scene           SceneView
	SceneID         string
	SceneStatus     Status
	SceneAssets     *Assets
	PreGeneratedKey string
}

// StatusResponse is returned by the get_status and rerender operations.
type StatusResponse struct {
	SceneID     string
	Scene       SceneView
	SceneStatus Status
	SceneAssets *Assets
	UpdatedAt   time.Time
}
