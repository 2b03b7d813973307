// Package accessory turns eligible remote devices into published
// accessories: the factory orchestrates discovery, filtering and
// construction, the initializers decide which services a device gets
// and keep their characteristics in sync with the device.
package accessory

import (
	"github.com/homekit-bridges/homekit-alexa/internal/pkg/alexaapi"
	"github.com/homekit-bridges/homekit-alexa/internal/pkg/hapkit"
)

// ServiceInitializer attaches one service kind to an accessory. The
// factory applies every initializer whose AppliesTo answers true;
// Attach must be idempotent with respect to the service it adds.
type ServiceInitializer interface {
	AppliesTo(device alexaapi.Device) bool
	Attach(acc hapkit.Accessory, device alexaapi.Device, media *alexaapi.Media) error
}

func ensureService(acc hapkit.Accessory, kind hapkit.ServiceKind) hapkit.Service {
	if svc := acc.Service(kind); svc != nil {
		return svc
	}
	return acc.AddService(kind)
}
