package bridge

import "errors"

const Namespace = "duet/bridge"

var errFlushIntervalZero = errors.New(Namespace + ": flush interval must be > 0")
