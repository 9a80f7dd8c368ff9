package notification

import "errors"

var ErrNoRecipients = errors.New("no recipients configured")
