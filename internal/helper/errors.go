package helper

import "errors"

var ErrQtyTooSmall = errors.New("order qty too small")
