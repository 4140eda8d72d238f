package model

import "errors"

const (
	DefaultMaxImageSizeBytes = 5 * 1024 * 1024 // 5MB
	PostImageFolder          = "posts"
	ImageCacheControl        = "public, max-age=31536000" // 1 year
)

// Image field messages
const (
	MsgInvalidImage  = "uploaded file is not a valid image"
	MsgImageTooLarge = "uploaded file is too large"
)

// ImageUpload is an uploaded file as received by the boundary. Data is stored
// verbatim once it is known to decode as an image.
type ImageUpload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Domain errors for image handling
var (
	ErrInvalidImage  = errors.New("invalid image")
	ErrImageTooLarge = errors.New("image too large")
)
