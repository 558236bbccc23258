// Package imagegen defines the Provider interface for image-generation
// backends.
//
// An image-generation provider wraps a remote text-to-image API and exposes
// a uniform interface for the render engine to submit a prompt and receive
// back one or more rendered image URLs, without coupling the orchestrator to
// any specific vendor SDK.
//
// Implementations must be safe for concurrent use.
package imagegen

import "context"

// Request carries everything a provider needs to render a scene image.
// Callers should treat a zero-value request as invalid; at minimum Prompt
// must be non-empty.
type Request struct {
	// Prompt is the positive generation prompt describing the desired image.
	Prompt string

	// NegativePrompt lists qualities the model should avoid. Providers that
	// do not support negative prompts may ignore this field.
	NegativePrompt string

	// ImageSize is the requested output dimensions, e.g. "1024x1024".
	ImageSize string

	// NumImages is the number of image variants to request. Providers that
	// only ever return a single image may ignore values greater than one.
	NumImages int
}

// Image describes a single rendered image returned by a provider.
type Image struct {
	// URL is the location the rendered image can be fetched from. Some
	// backends return a signed, time-limited URL here instead of a
	// permanent one.
	URL string

	// ThumbnailURL is an optional smaller preview of the same image.
	// Providers that do not generate thumbnails leave this empty.
	ThumbnailURL string

	// Width and Height are the rendered image's pixel dimensions, when the
	// backend reports them. Zero means unreported, not zero-sized.
	Width  int
	Height int
}

// Response is returned by a successful [Provider.Generate] call.
type Response struct {
	// Images holds every image variant the backend returned. Implementations
	// must return at least one element on success.
	Images []Image
}

// Provider is the abstraction over any image-generation backend.
//
// Implementations must be safe for concurrent use from multiple goroutines
// and must propagate context cancellation promptly: when ctx is cancelled
// Generate must return as quickly as the underlying transport allows.
type Provider interface {
	// Generate submits req to the backend and waits for the rendered
	// image(s). Returns an error if the request fails, is rejected by the
	// backend, or ctx is cancelled before a response arrives.
	Generate(ctx context.Context, req Request) (*Response, error)
}
