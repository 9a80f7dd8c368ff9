package upload

import "errors"

var (
	ErrUploadNotFound   = errors.New("upload not found")
	ErrFileNotFound     = errors.New("file not found")
	ErrFileTooLarge     = errors.New("file exceeds maximum allowed size")
	ErrEmptyFile        = errors.New("file is empty")
	ErrInvalidExtension = errors.New("file extension is not allowed")
	ErrInvalidMimeType  = errors.New("file type is not allowed")
	ErrInvalidLeadID    = errors.New("invalid lead id")
	ErrInvalidPath      = errors.New("invalid storage path")
	ErrInvalidSignature = errors.New("invalid or expired link")
)
