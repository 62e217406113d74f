package session

import "errors"

// Error kinds surfaced to the client. Each is resolved by returning the
// session to StateInitial and is never retried automatically.
var (
	ErrInvalidFileType     = errors.New("please select a valid image file")
	ErrFileTooLarge        = errors.New("file size must be less than 10MB")
	ErrImageDecode         = errors.New("failed to load image, please try again")
	ErrTemplateUnavailable = errors.New("background template is still loading, please try again in a moment")
	ErrCompositeFailure    = errors.New("unable to generate flyer, please try uploading your photo again")

	ErrInvalidTransition = errors.New("action not allowed in current state")
	ErrSessionNotFound   = errors.New("session not found")
)
