package career

import "errors"

var (
	ErrUnknownStat     = errors.New("unknown stat key")
	ErrCareerComplete  = errors.New("career complete")
	ErrInvalidSnapshot = errors.New("invalid observation")
)

type InvalidConfigError string

func (e InvalidConfigError) Error() string { return "invalid config: " + string(e) }

func ErrInvalidConfig(msg string) error { return InvalidConfigError(msg) }
