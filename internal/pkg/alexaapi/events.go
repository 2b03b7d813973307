package alexaapi

import (
	"encoding/json"
)

type EventKind int

const (
	// KindVolumeChange carries an optional new volume and an optional
	// new mute flag; a nil field means that value did not change.
	KindVolumeChange EventKind = iota

	// KindPlayerStateChange carries the new remote playback state
	// string ("PLAYING", "INTERRUPTED", "FINISHED", ...).
	KindPlayerStateChange
)

// PushEvent is a push notification from the remote transport, classified
// once at the transport boundary. Consumers switch on Kind instead of
// probing payload shapes.
type PushEvent struct {
	Kind         EventKind
	DeviceSerial string
	Volume       *int
	Muted        *bool
	PlayerState  string
}

// Wire shape of a push frame. Only frames addressed to a specific device
// (payload.dopplerId present) are of interest.
type pushEnvelope struct {
	Command string `json:"command"`
	Payload struct {
		DopplerID *struct {
			DeviceSerialNumber string `json:"deviceSerialNumber"`
			DeviceType         string `json:"deviceType"`
		} `json:"dopplerId"`
		VolumeSetting    *int   `json:"volumeSetting"`
		IsMuted          *bool  `json:"isMuted"`
		AudioPlayerState string `json:"audioPlayerState"`
	} `json:"payload"`
}

const (
	pushVolumeCommand    = "PUSH_VOLUME_CHANGE"
	pushAudioPlayerState = "PUSH_AUDIO_PLAYER_STATE"
)

// decodePushEvent classifies a raw push frame. Unrecognized or
// non-device-addressed frames yield ok=false and are ignored by the
// caller.
func decodePushEvent(data []byte) (PushEvent, bool) {
	var env pushEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return PushEvent{}, false
	}

	if env.Payload.DopplerID == nil {
		return PushEvent{}, false
	}

	ev := PushEvent{
		DeviceSerial: env.Payload.DopplerID.DeviceSerialNumber,
	}

	switch env.Command {
	case pushVolumeCommand:
		ev.Kind = KindVolumeChange
		ev.Volume = env.Payload.VolumeSetting
		ev.Muted = env.Payload.IsMuted
	case pushAudioPlayerState:
		ev.Kind = KindPlayerStateChange
		ev.PlayerState = env.Payload.AudioPlayerState
	default:
		return PushEvent{}, false
	}

	return ev, true
}
