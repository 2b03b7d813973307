// Package hapkit defines the accessory-runtime contract the bridge
// publishes into. It mirrors the HomeKit vocabulary (accessory, service,
// characteristic) without implementing any of the HAP wire protocol;
// the in-memory runtime here is the collaborator stand-in used by the
// bridge command and the tests.
package hapkit

// Category is the display category of an accessory. Values follow the
// HomeKit accessory category numbering.
type Category int

const (
	CategorySpeaker    Category = 26
	CategoryTelevision Category = 31
)

type ServiceKind string

const (
	ServiceAccessoryInformation ServiceKind = "AccessoryInformation"
	ServiceSmartSpeaker         ServiceKind = "SmartSpeaker"
	ServiceTelevision           ServiceKind = "Television"
)

type CharacteristicKind string

const (
	CharacteristicCurrentMediaState CharacteristicKind = "CurrentMediaState"
	CharacteristicTargetMediaState  CharacteristicKind = "TargetMediaState"
	CharacteristicVolume            CharacteristicKind = "Volume"
	CharacteristicMute              CharacteristicKind = "Mute"
	CharacteristicActive            CharacteristicKind = "Active"
	CharacteristicManufacturer      CharacteristicKind = "Manufacturer"
	CharacteristicModel             CharacteristicKind = "Model"
	CharacteristicName              CharacteristicKind = "Name"
	CharacteristicSerialNumber      CharacteristicKind = "SerialNumber"
	CharacteristicFirmwareRevision  CharacteristicKind = "FirmwareRevision"
)

// MediaState is the tri-state playback value used by the current and
// target media state characteristics. Values follow the HomeKit
// enumeration.
type MediaState int

const (
	MediaStatePlay  MediaState = 0
	MediaStatePause MediaState = 1
	MediaStateStop  MediaState = 2
)

// SetHandler is invoked when a user-initiated change is requested for a
// characteristic. A nil return accepts the change; an error rejects it
// and the committed value is left untouched.
type SetHandler func(value interface{}) error

type Runtime interface {
	// DeriveID maps a device serial to a stable accessory identifier;
	// the same serial yields the same identifier across restarts.
	DeriveID(serial string) string
	NewAccessory(name string, id string, category Category) Accessory
}

type Accessory interface {
	ID() string
	Name() string
	Category() Category

	// Service returns the service of the given kind, or nil.
	Service(kind ServiceKind) Service
	// AddService returns the existing service of the given kind, or
	// adds one; at most one service of a kind exists per accessory.
	AddService(kind ServiceKind) Service
	Services() []Service
}

type Service interface {
	Kind() ServiceKind
	// Characteristic returns the characteristic of the given kind,
	// creating it on first use.
	Characteristic(kind CharacteristicKind) Characteristic
	Characteristics() []Characteristic
}

type Characteristic interface {
	Kind() CharacteristicKind
	Value() interface{}

	// UpdateValue commits a device-observed value without invoking the
	// set handler.
	UpdateValue(value interface{})

	// OnSet installs the handler consulted by RequestSet.
	OnSet(handler SetHandler)

	// RequestSet performs a user-initiated change: the handler must
	// accept the value before it is committed.
	RequestSet(value interface{}) error
}
