package accessory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/homekit-bridges/homekit-alexa/internal/pkg/alexaapi"
	"github.com/homekit-bridges/homekit-alexa/internal/pkg/hapkit"
)

func TestTelevisionActiveIsDisplayOnly(t *testing.T) {
	client := &mockClient{}
	factory, _ := newTestFactory(client, true)

	show := echoDevice("SER-SHOW")
	show.DeviceFamily = alexaapi.FamilyKnight

	client.On("Devices").Return([]alexaapi.Device{show}, nil)
	client.On("Media", "SER-SHOW").Return(&alexaapi.Media{PlayerState: "PLAYING", Volume: 20}, nil)
	client.On("Events").Return(make(chan alexaapi.PushEvent), nil)

	accessories, err := factory.CreateAccessories()
	require.NoError(t, err)
	require.Len(t, accessories, 1)

	tv := accessories[0].Service(hapkit.ServiceTelevision)
	require.NotNil(t, tv)

	active := tv.Characteristic(hapkit.CharacteristicActive)
	assert.Equal(t, 1, active.Value())

	// no power command exists, so a toggle is rejected and nothing is
	// sent to the device
	assert.Error(t, active.RequestSet(0))
	assert.Equal(t, 1, active.Value())
	client.AssertNotCalled(t, "SendCommand", mock.Anything, mock.Anything, mock.Anything)
}
