package hapkit

import (
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Namespace for deriving accessory identifiers from device serials.
var accessoryNamespace = uuid.MustParse("f1b699a2-0e6e-4c27-9ab5-86bd62d44d52")

type memoryRuntime struct{}

// NewMemoryRuntime returns an in-process accessory runtime.
func NewMemoryRuntime() Runtime {
	return memoryRuntime{}
}

func (memoryRuntime) DeriveID(serial string) string {
	return uuid.NewSHA1(accessoryNamespace, []byte(serial)).String()
}

func (memoryRuntime) NewAccessory(name string, id string, category Category) Accessory {
	return &memAccessory{
		name:     name,
		id:       id,
		category: category,
	}
}

type memAccessory struct {
	name     string
	id       string
	category Category

	mu       sync.Mutex
	services []*memService
}

func (a *memAccessory) ID() string         { return a.id }
func (a *memAccessory) Name() string       { return a.name }
func (a *memAccessory) Category() Category { return a.category }

func (a *memAccessory) Service(kind ServiceKind) Service {
	a.mu.Lock()
	defer a.mu.Unlock()

	if s := a.findService(kind); s != nil {
		return s
	}
	return nil
}

func (a *memAccessory) AddService(kind ServiceKind) Service {
	a.mu.Lock()
	defer a.mu.Unlock()

	if s := a.findService(kind); s != nil {
		return s
	}

	s := &memService{kind: kind}
	a.services = append(a.services, s)
	return s
}

// must hold a.mu
func (a *memAccessory) findService(kind ServiceKind) *memService {
	for _, s := range a.services {
		if s.kind == kind {
			return s
		}
	}
	return nil
}

func (a *memAccessory) Services() []Service {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]Service, len(a.services))
	for i, s := range a.services {
		out[i] = s
	}
	return out
}

type memService struct {
	kind ServiceKind

	mu    sync.Mutex
	chars []*memCharacteristic
}

func (s *memService) Kind() ServiceKind { return s.kind }

func (s *memService) Characteristic(kind CharacteristicKind) Characteristic {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.chars {
		if c.kind == kind {
			return c
		}
	}

	c := &memCharacteristic{kind: kind}
	s.chars = append(s.chars, c)
	return c
}

func (s *memService) Characteristics() []Characteristic {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Characteristic, len(s.chars))
	for i, c := range s.chars {
		out[i] = c
	}
	return out
}

type memCharacteristic struct {
	kind CharacteristicKind

	mu      sync.Mutex
	value   interface{}
	handler SetHandler
}

func (c *memCharacteristic) Kind() CharacteristicKind { return c.kind }

func (c *memCharacteristic) Value() interface{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

func (c *memCharacteristic) UpdateValue(value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = value
}

func (c *memCharacteristic) OnSet(handler SetHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handler = handler
}

func (c *memCharacteristic) RequestSet(value interface{}) error {
	c.mu.Lock()
	handler := c.handler
	c.mu.Unlock()

	if handler == nil {
		return errors.Errorf("characteristic %s is not settable", c.kind)
	}

	if err := handler(value); err != nil {
		return err
	}

	c.UpdateValue(value)
	return nil
}
