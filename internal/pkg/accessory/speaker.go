package accessory

import (
	"github.com/sirupsen/logrus"

	"github.com/homekit-bridges/homekit-alexa/internal/pkg/alexaapi"
	"github.com/homekit-bridges/homekit-alexa/internal/pkg/bridge"
	"github.com/homekit-bridges/homekit-alexa/internal/pkg/hapkit"
)

// SpeakerInitializer attaches the smart-speaker service. When the
// televisions option is on, display-class devices are handled by the
// television initializer instead; the two never apply to the same
// device.
type SpeakerInitializer struct {
	log         *logrus.Entry
	bridge      *bridge.Bridge
	televisions bool
}

func NewSpeakerInitializer(log *logrus.Entry, b *bridge.Bridge, televisions bool) *SpeakerInitializer {
	return &SpeakerInitializer{log: log, bridge: b, televisions: televisions}
}

func (i *SpeakerInitializer) AppliesTo(device alexaapi.Device) bool {
	return !(i.televisions && alexaapi.IsDisplayFamily(device.DeviceFamily))
}

func (i *SpeakerInitializer) Attach(acc hapkit.Accessory, device alexaapi.Device, media *alexaapi.Media) error {
	svc := ensureService(acc, hapkit.ServiceSmartSpeaker)
	return attachMediaControls(i.bridge, svc, device, media)
}

// attachMediaControls seeds the media characteristics from the snapshot
// and wires both sync directions through the bridge. Shared by the
// speaker and television initializers.
func attachMediaControls(b *bridge.Bridge, svc hapkit.Service, device alexaapi.Device, media *alexaapi.Media) error {
	current := svc.Characteristic(hapkit.CharacteristicCurrentMediaState)
	target := svc.Characteristic(hapkit.CharacteristicTargetMediaState)
	volume := svc.Characteristic(hapkit.CharacteristicVolume)
	mute := svc.Characteristic(hapkit.CharacteristicMute)

	current.UpdateValue(mediaStateFromPlayer(media.PlayerState))
	target.UpdateValue(mediaStateFromPlayer(media.PlayerState))
	volume.UpdateValue(media.Volume)
	mute.UpdateValue(media.Muted)

	b.BindCharacteristicAction(device, svc, hapkit.CharacteristicTargetMediaState,
		targetCommandName, nil)

	b.BindCharacteristicAction(device, svc, hapkit.CharacteristicVolume,
		bridge.StaticName(alexaapi.CommandVolume),
		func(v interface{}) (interface{}, error) { return v, nil })

	b.BindCharacteristicAction(device, svc, hapkit.CharacteristicMute,
		bridge.StaticName(alexaapi.CommandMute),
		func(v interface{}) (interface{}, error) {
			return map[string]interface{}{"mute": v}, nil
		})

	return b.SubscribeDeviceCommands(device, func(ev alexaapi.PushEvent) {
		switch ev.Kind {
		case alexaapi.KindVolumeChange:
			// a nil field means "unchanged"
			if ev.Volume != nil {
				volume.UpdateValue(*ev.Volume)
			}
			if ev.Muted != nil {
				mute.UpdateValue(*ev.Muted)
			}
		case alexaapi.KindPlayerStateChange:
			current.UpdateValue(mediaStateFromPlayer(ev.PlayerState))
			target.UpdateValue(mediaStateFromPlayer(ev.PlayerState))
		}
	})
}
