package lead

import "errors"

var (
	ErrLeadNotFound       = errors.New("lead not found")
	ErrLeadExists         = errors.New("lead already exists")
	ErrInvalidPhone       = errors.New("invalid phone number")
	ErrInvalidPlate       = errors.New("invalid registration plate")
	ErrInvalidStatus      = errors.New("invalid status")
	ErrInvalidPeriod      = errors.New("invalid period")
	ErrAttachmentNotFound = errors.New("attachment not found")
)
