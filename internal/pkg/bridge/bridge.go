// Package bridge is the single chokepoint between accessory
// characteristics and the remote device transport: characteristic set
// requests go out as device commands, push events come back in and are
// fanned out to per-device listeners.
package bridge

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/homekit-bridges/homekit-alexa/internal/pkg/alexaapi"
	"github.com/homekit-bridges/homekit-alexa/internal/pkg/hapkit"
)

// NameFunc derives the remote command name from the requested
// characteristic value.
type NameFunc func(value interface{}) (string, error)

// ValueFunc derives the remote command argument from the requested
// characteristic value. A nil ValueFunc sends no argument.
type ValueFunc func(value interface{}) (interface{}, error)

// StaticName adapts a fixed command name to the NameFunc form.
func StaticName(name string) NameFunc {
	return func(interface{}) (string, error) { return name, nil }
}

// Listener receives push events addressed to one device.
type Listener func(event alexaapi.PushEvent)

type Bridge struct {
	log    *logrus.Entry
	client alexaapi.Client

	mu         sync.Mutex
	listeners  map[string][]Listener
	subscribed bool
}

func New(log *logrus.Entry, client alexaapi.Client) *Bridge {
	return &Bridge{
		log:       log,
		client:    client,
		listeners: make(map[string][]Listener),
	}
}

// BindCharacteristicAction forwards user-initiated changes of the given
// characteristic to the device as a remote command. The change is
// accepted only after the command succeeds; failures carry the command
// name, the characteristic and the attempted value.
func (b *Bridge) BindCharacteristicAction(
	device alexaapi.Device,
	svc hapkit.Service,
	kind hapkit.CharacteristicKind,
	name NameFunc,
	value ValueFunc,
) {
	svc.Characteristic(kind).OnSet(func(v interface{}) error {
		cmdName, cmdValue, err := resolveCommand(name, value, v)
		if err != nil {
			err = errors.Wrapf(err, "resolving command for %s", kind)
			b.log.WithError(err).Error("characteristic set failed")
			return err
		}

		if err := b.client.SendCommand(device.SerialNumber, cmdName, cmdValue); err != nil {
			err = errors.Wrapf(err, "failed to send %s to set %s to %v", cmdName, kind, v)
			b.log.WithError(err).Error("characteristic set failed")
			return err
		}

		return nil
	})
}

// resolveCommand evaluates the name/value derivers, converting panics
// into errors so a misbehaving deriver fails the set instead of killing
// the process.
func resolveCommand(name NameFunc, value ValueFunc, v interface{}) (cmdName string, cmdValue interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("panic in command deriver: %v", r)
		}
	}()

	cmdName, err = name(v)
	if err != nil {
		return "", nil, err
	}

	if value != nil {
		cmdValue, err = value(v)
		if err != nil {
			return "", nil, err
		}
	}

	return cmdName, cmdValue, nil
}

// SubscribeDeviceCommands registers a listener for push events addressed
// to the given device. The transport stream is established once, on the
// first registration; listeners for a device are invoked in registration
// order.
func (b *Bridge) SubscribeDeviceCommands(device alexaapi.Device, listener Listener) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.subscribed {
		events, err := b.client.Events()
		if err != nil {
			return errors.Wrap(err, "subscribing to the push event stream")
		}

		b.subscribed = true
		go b.pump(events)
	}

	b.listeners[device.SerialNumber] = append(b.listeners[device.SerialNumber], listener)
	return nil
}

func (b *Bridge) pump(events <-chan alexaapi.PushEvent) {
	for ev := range events {
		b.mu.Lock()
		registered := b.listeners[ev.DeviceSerial]
		listeners := make([]Listener, len(registered))
		copy(listeners, registered)
		b.mu.Unlock()

		if len(listeners) == 0 {
			b.log.Debugf("no listeners for push event from %s", ev.DeviceSerial)
			continue
		}

		for _, l := range listeners {
			l(ev)
		}
	}

	b.log.Debug("push event stream ended")
}
