package services

import "errors"

var (
	ErrInvalidInput      = errors.New("invalid input")                   // 400
	ErrNotFound          = errors.New("comment not found")               // 404
	ErrParentNotFound    = errors.New("parent comment not found")        // 422
	ErrCaptchaMismatch   = errors.New("captcha does not match")          // 422
	ErrAttachmentInvalid = errors.New("attachment type or size invalid") // 422
)
