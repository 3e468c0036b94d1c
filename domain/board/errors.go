package board

import (
	"errors"
	"fmt"
)

// ErrValidation is the root of all payload validation errors. Callers can
// classify any constructor failure with errors.Is(err, ErrValidation).
var ErrValidation = errors.New("invalid payload")

// Validation errors returned by the checked constructors.
var (
	ErrRoomIDRequired   = fmt.Errorf("%w: room id is required", ErrValidation)
	ErrStrokeIDRequired = fmt.Errorf("%w: stroke id is required", ErrValidation)
	ErrPointsRequired   = fmt.Errorf("%w: points are required", ErrValidation)
	ErrPointsOdd        = fmt.Errorf("%w: points must be x/y pairs", ErrValidation)
	ErrPointsTooMany    = fmt.Errorf("%w: too many points", ErrValidation)
	ErrPointNotFinite   = fmt.Errorf("%w: points must be finite numbers", ErrValidation)
	ErrColorInvalid     = fmt.Errorf("%w: color is missing or too long", ErrValidation)
	ErrToolInvalid      = fmt.Errorf("%w: tool must be pen or eraser", ErrValidation)
	ErrWidthInvalid     = fmt.Errorf("%w: width must be a positive number", ErrValidation)
	ErrSenderRequired   = fmt.Errorf("%w: sender id is required", ErrValidation)
	ErrTextRequired     = fmt.Errorf("%w: message text cannot be empty", ErrValidation)
	ErrTextTooLong      = fmt.Errorf("%w: message text exceeds maximum length", ErrValidation)
	ErrTextInvalid      = fmt.Errorf("%w: message text is not valid UTF-8", ErrValidation)
)

// ErrDuplicateStroke is returned by history storage when a stroke with the
// same StrokeID already exists. The hub swallows it: a retransmitted stroke
// is persisted once and never rebroadcast.
var ErrDuplicateStroke = errors.New("stroke already exists")
