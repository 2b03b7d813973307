package eligibility

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/homekit-bridges/homekit-alexa/internal/pkg/alexaapi"
)

func testLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func TestFamilyPredicate(t *testing.T) {
	p := NewFamilyPredicate(testLogger(), "foo")

	assert.False(t, p.Test(alexaapi.Device{DeviceFamily: "bar"}))
	assert.True(t, p.Test(alexaapi.Device{DeviceFamily: "foo"}))
}

func TestCapabilitiesPredicate(t *testing.T) {
	p := NewCapabilitiesPredicate(testLogger(), "foo")

	assert.False(t, p.Test(alexaapi.Device{Capabilities: nil}))
	assert.False(t, p.Test(alexaapi.Device{Capabilities: []string{"bar"}}))
	assert.True(t, p.Test(alexaapi.Device{Capabilities: []string{"foo"}}))
	assert.True(t, p.Test(alexaapi.Device{Capabilities: []string{"foo", "bar"}}))
}

func TestCapabilitiesPredicateRequiresAll(t *testing.T) {
	p := NewCapabilitiesPredicate(testLogger(), "foo", "baz")

	assert.False(t, p.Test(alexaapi.Device{Capabilities: []string{"foo"}}))
	assert.True(t, p.Test(alexaapi.Device{Capabilities: []string{"baz", "foo"}}))
}

func TestEligibleIsConjunction(t *testing.T) {
	predicates := []Predicate{
		NewFamilyPredicate(testLogger(), alexaapi.FamilyEcho),
		NewCapabilitiesPredicate(testLogger(), alexaapi.CapabilityVolumeSetting, alexaapi.CapabilityAudioControls),
	}

	eligible := alexaapi.Device{
		DeviceFamily: alexaapi.FamilyEcho,
		Capabilities: []string{alexaapi.CapabilityVolumeSetting, alexaapi.CapabilityAudioControls, "AUDIO_PLAYER"},
	}
	assert.True(t, Eligible(eligible, predicates))

	wrongFamily := eligible
	wrongFamily.DeviceFamily = "MSHOP"
	assert.False(t, Eligible(wrongFamily, predicates))

	missingCapability := eligible
	missingCapability.Capabilities = []string{alexaapi.CapabilityVolumeSetting}
	assert.False(t, Eligible(missingCapability, predicates))
}
