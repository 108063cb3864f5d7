package engine

import "errors"

// Rejected requests return one of these and leave the engine unchanged.
var (
	ErrUnknownSide        = errors.New("unknown side")
	ErrNotYourTurn        = errors.New("not your turn")
	ErrWrongPhase         = errors.New("action not allowed in current phase")
	ErrIllegalMove        = errors.New("illegal move")
	ErrIllegalPlacement   = errors.New("illegal obstacle placement")
	ErrInvalidOption      = errors.New("invalid option")
	ErrBusy               = errors.New("waiting for a scheduled step")
	ErrInsufficientPoints = errors.New("insufficient points")
	ErrSkillUnavailable   = errors.New("skill unavailable")
	ErrUnknownSkill       = errors.New("unknown skill")
	ErrStaleContinuation  = errors.New("stale continuation")
	ErrUnsupported        = errors.New("not supported in this mode")
)
