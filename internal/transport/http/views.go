package http

import (
	"time"

	"github.com/ashfall-games/scenecaster/internal/scenemodel"
)

// focalSubjectView, assetsView, and sceneView are the camelCase wire
// shapes. Prompts never appear here: [scenemodel.SceneView] (the Go-side
// projection) already drops them, and these wire structs have no field for
// them either.
type focalSubjectView struct {
	Name        string `json:"name"`
	Role        string `json:"role"`
	Description string `json:"description"`
}

type assetsView struct {
	ImageURL     string `json:"imageUrl"`
	ThumbnailURL string `json:"thumbnailUrl,omitempty"`
	Width        int    `json:"width,omitempty"`
	Height       int    `json:"height,omitempty"`
	Provider     string `json:"provider"`
	Model        string `json:"model"`
}

type sceneView struct {
	SceneID           string             `json:"sceneId"`
	Title             string             `json:"title"`
	Subtitle          string             `json:"subtitle"`
	Genre             string             `json:"genre"`
	LocationName      string             `json:"locationName"`
	Biome             string             `json:"biome"`
	Mood              string             `json:"mood"`
	Weather           string             `json:"weather"`
	Lighting          string             `json:"lighting"`
	TimeOfDay         string             `json:"timeOfDay"`
	HeroPose          string             `json:"heroPose"`
	Camera            string             `json:"camera"`
	Palette           []string           `json:"palette"`
	Summary           string             `json:"summary"`
	FocalSubjects     []focalSubjectView `json:"focalSubjects"`
	SupportingDetails []string           `json:"supportingDetails"`
	Status            scenemodel.Status  `json:"status"`
	Assets            *assetsView        `json:"assets,omitempty"`
	CreatedAt         time.Time          `json:"createdAt"`
	PreGeneratedKey   string             `json:"preGeneratedKey,omitempty"`
}

func toSceneView(s scenemodel.SceneView) sceneView {
	subjects := make([]focalSubjectView, len(s.FocalSubjects))
	for i, fs := range s.FocalSubjects {
		subjects[i] = focalSubjectView{Name: fs.Name, Role: fs.Role, Description: fs.Description}
	}
	return sceneView{
		SceneID:           s.SceneID,
		Title:             s.Title,
		Subtitle:          s.Subtitle,
		Genre:             s.Genre,
		LocationName:      s.LocationName,
		Biome:             s.Biome,
		Mood:              s.Mood,
		Weather:           s.Weather,
		Lighting:          s.Lighting,
		TimeOfDay:         s.TimeOfDay,
		HeroPose:          s.HeroPose,
		Camera:            s.Camera,
		Palette:           s.Palette,
		Summary:           s.Summary,
		FocalSubjects:     subjects,
		SupportingDetails: s.SupportingDetails,
		Status:            s.Status,
		Assets:            toAssetsView(s.Assets),
		CreatedAt:         s.CreatedAt,
		PreGeneratedKey:   s.PreGeneratedKey,
	}
}

func toAssetsView(a *scenemodel.Assets) *assetsView {
	if a == nil {
		return nil
	}
	return &assetsView{
		ImageURL:     a.ImageURL,
		ThumbnailURL: a.ThumbnailURL,
		Width:        a.Width,
		Height:       a.Height,
		Provider:     a.Provider,
		Model:        a.Model,
	}
}

type renderResponseBody struct {
	Scene           sceneView         `json:"scene"`
	SceneID         string            `json:"sceneId"`
	SceneStatus     scenemodel.Status `json:"sceneStatus"`
	SceneAssets     *assetsView       `json:"sceneAssets,omitempty"`
	PreGeneratedKey string            `json:"preGeneratedKey,omitempty"`
}

func renderResponseView(r scenemodel.RenderResponse) renderResponseBody {
	return renderResponseBody{
		Scene:           toSceneView(r.Scene),
		SceneID:         r.SceneID,
		SceneStatus:     r.SceneStatus,
		SceneAssets:     toAssetsView(r.SceneAssets),
		PreGeneratedKey: r.PreGeneratedKey,
	}
}

type statusResponseBody struct {
	SceneID     string            `json:"sceneId"`
	Scene       sceneView         `json:"scene"`
	SceneStatus scenemodel.Status `json:"sceneStatus"`
	SceneAssets *assetsView       `json:"sceneAssets,omitempty"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

func statusResponseView(r scenemodel.StatusResponse) statusResponseBody {
	return statusResponseBody{
		SceneID:     r.SceneID,
		Scene:       toSceneView(r.Scene),
		SceneStatus: r.SceneStatus,
		SceneAssets: toAssetsView(r.SceneAssets),
		UpdatedAt:   r.UpdatedAt,
	}
}
