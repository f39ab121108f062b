package exchange

import "errors"

var ErrNoPosition = errors.New("no open position")
