// Package eligibility decides which discovered devices become
// accessories. Rejections are expected filtering outcomes, logged at
// debug level, never errors.
package eligibility

import (
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/homekit-bridges/homekit-alexa/internal/pkg/alexaapi"
)

// Defaults matching the device classes the bridge knows how to drive.
var (
	DefaultAllowedFamilies = []string{alexaapi.FamilyEcho, alexaapi.FamilyKnight}

	DefaultRequiredCapabilities = []string{
		alexaapi.CapabilityVolumeSetting,
		alexaapi.CapabilityAudioControls,
	}
)

type Predicate interface {
	Test(device alexaapi.Device) bool
}

type familyPredicate struct {
	log     *logrus.Entry
	allowed map[string]struct{}
}

// NewFamilyPredicate allows only devices whose family tag is in the
// given allow-list.
func NewFamilyPredicate(log *logrus.Entry, families ...string) Predicate {
	allowed := make(map[string]struct{}, len(families))
	for _, f := range families {
		allowed[f] = struct{}{}
	}

	return &familyPredicate{log: log, allowed: allowed}
}

func (p *familyPredicate) Test(device alexaapi.Device) bool {
	if _, ok := p.allowed[device.DeviceFamily]; ok {
		return true
	}

	p.log.Debugf("filtering device (%s) for device family: %s", device.SerialNumber, device.DeviceFamily)
	return false
}

type capabilitiesPredicate struct {
	log      *logrus.Entry
	required []string
}

// NewCapabilitiesPredicate allows only devices reporting every one of
// the required capability tags.
func NewCapabilitiesPredicate(log *logrus.Entry, capabilities ...string) Predicate {
	return &capabilitiesPredicate{log: log, required: capabilities}
}

func (p *capabilitiesPredicate) Test(device alexaapi.Device) bool {
	present := make(map[string]struct{}, len(device.Capabilities))
	for _, c := range device.Capabilities {
		present[c] = struct{}{}
	}

	var missing []string
	for _, c := range p.required {
		if _, ok := present[c]; !ok {
			missing = append(missing, c)
		}
	}

	if len(missing) == 0 {
		return true
	}

	p.log.Debugf("filtering device (%s) for missing device capabilities: %s",
		device.SerialNumber, strings.Join(missing, ", "))
	return false
}

// Eligible reports whether the device passes every predicate.
func Eligible(device alexaapi.Device, predicates []Predicate) bool {
	for _, p := range predicates {
		if !p.Test(device) {
			return false
		}
	}
	return true
}
