package accessory

import (
	"github.com/homekit-bridges/homekit-alexa/internal/pkg/alexaapi"
	"github.com/homekit-bridges/homekit-alexa/internal/pkg/hapkit"
)

const manufacturer = "Amazon.com"

// InfoInitializer attaches the accessory-information service. Its
// characteristics are set once from the discovery snapshot; device
// renames and firmware updates have no live update path.
type InfoInitializer struct{}

func NewInfoInitializer() *InfoInitializer {
	return &InfoInitializer{}
}

func (i *InfoInitializer) AppliesTo(alexaapi.Device) bool {
	return true
}

func (i *InfoInitializer) Attach(acc hapkit.Accessory, device alexaapi.Device, _ *alexaapi.Media) error {
	svc := ensureService(acc, hapkit.ServiceAccessoryInformation)

	svc.Characteristic(hapkit.CharacteristicManufacturer).UpdateValue(manufacturer)
	svc.Characteristic(hapkit.CharacteristicModel).UpdateValue(device.DeviceType)
	svc.Characteristic(hapkit.CharacteristicName).UpdateValue(device.AccountName)
	svc.Characteristic(hapkit.CharacteristicSerialNumber).UpdateValue(device.SerialNumber)
	svc.Characteristic(hapkit.CharacteristicFirmwareRevision).UpdateValue(device.SoftwareVersion)

	return nil
}
