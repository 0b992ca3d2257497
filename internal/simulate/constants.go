package simulate

import "time"

// Defaults for a run.
const (
	DefaultGames         = 500
	DefaultPlayers       = 40
	DefaultMaxPerGame    = 6
	DefaultTimeout       = 10 * time.Second
	DefaultSettleTimeout = time.Minute
)

const (
	pollInterval   = 50 * time.Millisecond
	minPerGame     = 2
	maxHandicap    = 36
	noHandicapOdds = 4 // one player in four has no handicap
	missingOdds    = 25
	ctpOdds        = 2
	maxEntryFee    = 50
	dirPermission  = 0o750
	filePermission = 0o600
)
