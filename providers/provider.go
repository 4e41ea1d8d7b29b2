package providers

import "context"

// ContentGenerator is the boundary to the LLM completion endpoint. Complete
// sends a prompt and returns the raw completion text; interpreting the text
// is the caller's job.
type ContentGenerator interface {
	Complete(ctx context.Context, prompt string) (string, error)

	// Name returns the unique adapter name (e.g. "openai").
	Name() string
}

// ImageGenerator is the boundary to the image-generation endpoint.
type ImageGenerator interface {
	// GenerateImage returns the raw image bytes for a prompt.
	GenerateImage(ctx context.Context, prompt string) ([]byte, error)
}

// PostInput is the payload handed to the publish adapter.
type PostInput struct {
	Title    string
	Content  string
	Category string
	// ImageURL is an optional, publicly reachable media asset that will be
	// attached as the post's featured image.
	ImageURL string
}

// PublishResult is the adapter's all-or-nothing answer. Success=false with a
// populated ErrorMessage means the remote API rejected the post; transport
// failures are returned as errors instead.
type PublishResult struct {
	Success      bool
	PostID       int64
	PostURL      string
	ErrorMessage string
}

// PostPublisher is the boundary to the WordPress REST API.
type PostPublisher interface {
	Publish(ctx context.Context, in PostInput) (*PublishResult, error)
}
