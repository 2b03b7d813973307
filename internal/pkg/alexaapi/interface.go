package alexaapi

import "time"

// Device families reported by the Alexa device API. ECHO covers the
// speaker-class devices, KNIGHT the screen-equipped ones (Echo Show).
// Other families (TABLET, MSHOP, third-party AVS devices) exist but are
// not interesting to the bridge.
const (
	FamilyEcho   = "ECHO"
	FamilyKnight = "KNIGHT"
)

// Capabilities relevant to media control:
// - VOLUME_SETTING (mShop, fire tablet, echo, Sonos)
// - SOUND_SETTINGS (fire tablet, echo)
// - AUDIO_CONTROLS (echo, Sonos Beam)
// - AUDIO_PLAYER (echo, Sonos)
const (
	CapabilityVolumeSetting = "VOLUME_SETTING"
	CapabilityAudioControls = "AUDIO_CONTROLS"
)

// Command names understood by SendCommand.
const (
	CommandPlay   = "play"
	CommandPause  = "pause"
	CommandVolume = "volume"
	CommandMute   = "mute"
)

// Device is an immutable snapshot of one remote device, taken at
// discovery time.
type Device struct {
	SerialNumber    string
	AccountName     string
	DeviceFamily    string
	DeviceType      string
	SoftwareVersion string
	Capabilities    []string
}

// Media is a point-in-time view of a device's playback state, fetched
// once per accessory creation and superseded by push events thereafter.
type Media struct {
	PlayerState string
	Muted       bool
	Volume      int
}

// IsDisplayFamily reports whether the family tag belongs to a
// screen-equipped device class.
func IsDisplayFamily(family string) bool {
	return family == FamilyKnight
}

type Client interface {
	WithTimeout(d time.Duration) Client
	Devices() ([]Device, error)
	Media(serial string) (*Media, error)
	SendCommand(serial string, name string, value interface{}) error

	// Events returns the push event stream for the account. The stream
	// is established on first use and shared by all callers; it is not
	// restartable once closed.
	Events() (<-chan PushEvent, error)
}
