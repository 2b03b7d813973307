package accessory

import (
	"github.com/sirupsen/logrus"

	"github.com/homekit-bridges/homekit-alexa/internal/pkg/alexaapi"
	"github.com/homekit-bridges/homekit-alexa/internal/pkg/bridge"
	"github.com/homekit-bridges/homekit-alexa/internal/pkg/hapkit"
)

// TelevisionInitializer attaches a television service to display-class
// devices when the televisions option is on.
type TelevisionInitializer struct {
	log         *logrus.Entry
	bridge      *bridge.Bridge
	televisions bool
}

func NewTelevisionInitializer(log *logrus.Entry, b *bridge.Bridge, televisions bool) *TelevisionInitializer {
	return &TelevisionInitializer{log: log, bridge: b, televisions: televisions}
}

func (i *TelevisionInitializer) AppliesTo(device alexaapi.Device) bool {
	return i.televisions && alexaapi.IsDisplayFamily(device.DeviceFamily)
}

func (i *TelevisionInitializer) Attach(acc hapkit.Accessory, device alexaapi.Device, media *alexaapi.Media) error {
	svc := ensureService(acc, hapkit.ServiceTelevision)

	// Active is display-only: the device has no remote power command,
	// so no set handler is bound and toggles are rejected.
	svc.Characteristic(hapkit.CharacteristicActive).UpdateValue(1)

	return attachMediaControls(i.bridge, svc, device, media)
}
