package accessory

import (
	"io"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/homekit-bridges/homekit-alexa/internal/pkg/alexaapi"
	"github.com/homekit-bridges/homekit-alexa/internal/pkg/bridge"
	"github.com/homekit-bridges/homekit-alexa/internal/pkg/eligibility"
	"github.com/homekit-bridges/homekit-alexa/internal/pkg/hapkit"
)

type mockClient struct {
	mock.Mock
}

func (m *mockClient) WithTimeout(time.Duration) alexaapi.Client { return m }

func (m *mockClient) Devices() ([]alexaapi.Device, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]alexaapi.Device), args.Error(1)
}

func (m *mockClient) Media(serial string) (*alexaapi.Media, error) {
	args := m.Called(serial)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*alexaapi.Media), args.Error(1)
}

func (m *mockClient) SendCommand(serial string, name string, value interface{}) error {
	args := m.Called(serial, name, value)
	return args.Error(0)
}

func (m *mockClient) Events() (<-chan alexaapi.PushEvent, error) {
	args := m.Called()
	return args.Get(0).(chan alexaapi.PushEvent), args.Error(1)
}

func testLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func defaultPredicates() []eligibility.Predicate {
	return []eligibility.Predicate{
		eligibility.NewFamilyPredicate(testLogger(), eligibility.DefaultAllowedFamilies...),
		eligibility.NewCapabilitiesPredicate(testLogger(), eligibility.DefaultRequiredCapabilities...),
	}
}

func newTestFactory(client alexaapi.Client, televisions bool) (*Factory, hapkit.Runtime) {
	log := testLogger()
	rt := hapkit.NewMemoryRuntime()
	b := bridge.New(log, client)

	initializers := []ServiceInitializer{
		NewInfoInitializer(),
		NewSpeakerInitializer(log, b, televisions),
		NewTelevisionInitializer(log, b, televisions),
	}

	return NewFactory(log, client, rt, defaultPredicates(), initializers, televisions), rt
}

func echoDevice(serial string) alexaapi.Device {
	return alexaapi.Device{
		SerialNumber:    serial,
		AccountName:     "Echo " + serial,
		DeviceFamily:    alexaapi.FamilyEcho,
		DeviceType:      "A3S5BH2HU6VAYF",
		SoftwareVersion: "657571920",
		Capabilities:    []string{alexaapi.CapabilityVolumeSetting, alexaapi.CapabilityAudioControls, "AUDIO_PLAYER"},
	}
}

func TestFactoryPublishesOnlyEligibleDevices(t *testing.T) {
	client := &mockClient{}
	factory, rt := newTestFactory(client, false)

	eligible := echoDevice("SER-OK")
	shopping := alexaapi.Device{
		SerialNumber: "SER-SHOP",
		AccountName:  "Shopping App",
		DeviceFamily: "MSHOP",
		Capabilities: []string{alexaapi.CapabilityVolumeSetting},
	}

	client.On("Devices").Return([]alexaapi.Device{eligible, shopping}, nil)
	client.On("Media", "SER-OK").Return(&alexaapi.Media{PlayerState: "PLAYING", Volume: 33, Muted: false}, nil)
	client.On("Events").Return(make(chan alexaapi.PushEvent), nil)

	accessories, err := factory.CreateAccessories()
	require.NoError(t, err)
	require.Len(t, accessories, 1)

	acc := accessories[0]
	assert.Equal(t, "Echo SER-OK", acc.Name())
	assert.Equal(t, rt.DeriveID("SER-OK"), acc.ID())
	assert.Equal(t, hapkit.CategorySpeaker, acc.Category())

	speaker := acc.Service(hapkit.ServiceSmartSpeaker)
	require.NotNil(t, speaker)
	assert.Equal(t, 33, speaker.Characteristic(hapkit.CharacteristicVolume).Value())
	assert.Equal(t, hapkit.MediaStatePlay, speaker.Characteristic(hapkit.CharacteristicCurrentMediaState).Value())
	assert.Equal(t, false, speaker.Characteristic(hapkit.CharacteristicMute).Value())

	info := acc.Service(hapkit.ServiceAccessoryInformation)
	require.NotNil(t, info)
	assert.Equal(t, "Amazon.com", info.Characteristic(hapkit.CharacteristicManufacturer).Value())
	assert.Equal(t, "SER-OK", info.Characteristic(hapkit.CharacteristicSerialNumber).Value())

	client.AssertNotCalled(t, "Media", "SER-SHOP")
}

func TestFactoryIsolatesPerDeviceFailures(t *testing.T) {
	client := &mockClient{}
	factory, _ := newTestFactory(client, false)

	good := echoDevice("SER-GOOD")
	broken := echoDevice("SER-BROKEN")

	client.On("Devices").Return([]alexaapi.Device{broken, good}, nil)
	client.On("Media", "SER-BROKEN").Return(nil, errors.New("device offline"))
	client.On("Media", "SER-GOOD").Return(&alexaapi.Media{PlayerState: "FINISHED", Volume: 50}, nil)
	client.On("Events").Return(make(chan alexaapi.PushEvent), nil)

	accessories, err := factory.CreateAccessories()
	require.NoError(t, err)
	require.Len(t, accessories, 1)
	assert.Equal(t, "Echo SER-GOOD", accessories[0].Name())
}

func TestFactoryPropagatesDiscoveryFailure(t *testing.T) {
	client := &mockClient{}
	factory, _ := newTestFactory(client, false)

	client.On("Devices").Return(nil, errors.New("transport down"))

	accessories, err := factory.CreateAccessories()
	require.Error(t, err)
	assert.Nil(t, accessories)
	assert.Contains(t, err.Error(), "listing devices")
}

func TestFactoryPublishesDisplayDevicesAsTelevisions(t *testing.T) {
	client := &mockClient{}
	factory, _ := newTestFactory(client, true)

	show := echoDevice("SER-SHOW")
	show.DeviceFamily = alexaapi.FamilyKnight

	client.On("Devices").Return([]alexaapi.Device{show}, nil)
	client.On("Media", "SER-SHOW").Return(&alexaapi.Media{PlayerState: "INTERRUPTED", Volume: 20}, nil)
	client.On("Events").Return(make(chan alexaapi.PushEvent), nil)

	accessories, err := factory.CreateAccessories()
	require.NoError(t, err)
	require.Len(t, accessories, 1)

	acc := accessories[0]
	assert.Equal(t, hapkit.CategoryTelevision, acc.Category())
	assert.Nil(t, acc.Service(hapkit.ServiceSmartSpeaker))

	tv := acc.Service(hapkit.ServiceTelevision)
	require.NotNil(t, tv)
	assert.Equal(t, hapkit.MediaStatePause, tv.Characteristic(hapkit.CharacteristicCurrentMediaState).Value())
	assert.Equal(t, 1, tv.Characteristic(hapkit.CharacteristicActive).Value())
}

func TestFactoryKeepsDisplayDevicesAsSpeakersByDefault(t *testing.T) {
	client := &mockClient{}
	factory, _ := newTestFactory(client, false)

	show := echoDevice("SER-SHOW")
	show.DeviceFamily = alexaapi.FamilyKnight

	client.On("Devices").Return([]alexaapi.Device{show}, nil)
	client.On("Media", "SER-SHOW").Return(&alexaapi.Media{Volume: 20}, nil)
	client.On("Events").Return(make(chan alexaapi.PushEvent), nil)

	accessories, err := factory.CreateAccessories()
	require.NoError(t, err)
	require.Len(t, accessories, 1)

	acc := accessories[0]
	assert.Equal(t, hapkit.CategorySpeaker, acc.Category())
	assert.NotNil(t, acc.Service(hapkit.ServiceSmartSpeaker))
	assert.Nil(t, acc.Service(hapkit.ServiceTelevision))
}
