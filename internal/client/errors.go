package client

import (
	"errors"
)

var ErrCheckNotFound = errors.New("check not found")
var ErrBadRequest = errors.New("request rejected")
var ErrBackendDown = errors.New("backend unavailable")
