package scheduling

import "errors"

var (
	ErrMalformedTime   = errors.New("malformed time")
	ErrInvalidRange    = errors.New("invalid time range")
	ErrOutOfBounds     = errors.New("time outside scheduling bounds")
	ErrOverAllocation  = errors.New("duration exceeds remaining units")
	ErrNoSlot          = errors.New("no slot found")
	ErrInvalidSettings = errors.New("invalid scheduling settings")
	ErrNoRooms         = errors.New("no rooms available")
)
