package accessory

import (
	"github.com/pkg/errors"

	"github.com/homekit-bridges/homekit-alexa/internal/pkg/alexaapi"
	"github.com/homekit-bridges/homekit-alexa/internal/pkg/hapkit"
)

// Remote playback states with a defined mapping. Anything else,
// including an absent state, maps to STOP.
const (
	playerStatePlaying     = "PLAYING"
	playerStateInterrupted = "INTERRUPTED"
)

// mediaStateFromPlayer translates a remote playback state string to the
// characteristic tri-state; current and target media state share this
// table.
func mediaStateFromPlayer(state string) hapkit.MediaState {
	switch state {
	case playerStatePlaying:
		return hapkit.MediaStatePlay
	case playerStateInterrupted:
		return hapkit.MediaStatePause
	default:
		return hapkit.MediaStateStop
	}
}

// mediaStateValue normalizes a requested characteristic value to a
// MediaState. Set requests arriving over HTTP decode numbers as
// float64.
func mediaStateValue(v interface{}) (hapkit.MediaState, bool) {
	switch s := v.(type) {
	case hapkit.MediaState:
		return s, true
	case int:
		return hapkit.MediaState(s), true
	case float64:
		return hapkit.MediaState(int(s)), true
	default:
		return 0, false
	}
}

// targetCommandName maps a requested target media state to the remote
// command. A value outside the tri-state is a contract violation and
// fails loudly.
func targetCommandName(v interface{}) (string, error) {
	state, ok := mediaStateValue(v)
	if !ok {
		return "", errors.Errorf("unexpected target media state value: %v", v)
	}

	switch state {
	case hapkit.MediaStatePause, hapkit.MediaStateStop:
		return alexaapi.CommandPause, nil
	case hapkit.MediaStatePlay:
		return alexaapi.CommandPlay, nil
	}

	return "", errors.Errorf("unexpected target media state value: %v", v)
}
