package diff

import "errors"

// ErrGameMismatch is returned when the two versions belong to different games.
var ErrGameMismatch = errors.New("versions belong to different games")
