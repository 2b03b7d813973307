package alexaapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/homekit-bridges/homekit-alexa/internal/pkg/logging"
)

// Live talks to the regional Alexa web API using a pre-obtained session
// cookie. Connection retry and cookie refresh are the operator's problem,
// not ours.
type Live struct {
	domain     string
	session    Session
	timeout    time.Duration
	httpClient *http.Client

	// shared across WithTimeout copies; holds everything guarded by a
	// lock so the copies cooperate instead of racing
	shared *liveShared
}

type liveShared struct {
	mu          sync.Mutex
	deviceTypes map[string]string

	eventsOnce sync.Once
	events     chan PushEvent
	eventsErr  error
}

func NewLiveClient(domain string, session Session) *Live {
	return &Live{
		domain:     domain,
		session:    session,
		httpClient: http.DefaultClient,
		shared: &liveShared{
			deviceTypes: make(map[string]string),
		},
	}
}

func (c *Live) WithTimeout(d time.Duration) Client {
	nc := *c
	nc.timeout = d
	return &nc
}

func (c *Live) makeContext() (context.Context, context.CancelFunc) {
	var ctx = context.Background()
	var cancel context.CancelFunc = func() {}
	if c.timeout > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), c.timeout)
	}

	return ctx, cancel
}

func (c *Live) apiURL(path string) string {
	return "https://alexa." + c.domain + path
}

func (c *Live) pushURL() string {
	return "wss://dp-gw-na." + c.domain + "/tcomm/"
}

func (c *Live) authorize(req *http.Request) {
	req.Header.Set("Cookie", c.session.Cookie)
	req.Header.Set("csrf", c.session.CSRF())
	req.Header.Set("Accept", "application/json")
}

func (c *Live) doJSON(ctx context.Context, method, url string, body, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "encoding request body")
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return errors.Wrap(err, "building request")
	}
	c.authorize(req)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "executing request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("unexpected HTTP status %d: %s", resp.StatusCode, data)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return errors.Wrap(err, "decoding response body")
		}
	}

	return nil
}

type deviceJSON struct {
	AccountName     string   `json:"accountName"`
	SerialNumber    string   `json:"serialNumber"`
	DeviceFamily    string   `json:"deviceFamily"`
	DeviceType      string   `json:"deviceType"`
	SoftwareVersion string   `json:"softwareVersion"`
	Capabilities    []string `json:"capabilities"`
}

func (c *Live) Devices() ([]Device, error) {
	ctx, cancel := c.makeContext()
	defer cancel()

	var payload struct {
		Devices []deviceJSON `json:"devices"`
	}
	if err := c.doJSON(ctx, http.MethodGet, c.apiURL("/api/devices-v2/device?cached=false"), nil, &payload); err != nil {
		return nil, errors.Wrap(err, "listing devices")
	}

	items := make([]Device, 0, len(payload.Devices))
	c.shared.mu.Lock()
	for _, d := range payload.Devices {
		c.shared.deviceTypes[d.SerialNumber] = d.DeviceType
		items = append(items, Device{
			SerialNumber:    d.SerialNumber,
			AccountName:     d.AccountName,
			DeviceFamily:    d.DeviceFamily,
			DeviceType:      d.DeviceType,
			SoftwareVersion: d.SoftwareVersion,
			Capabilities:    d.Capabilities,
		})
	}
	c.shared.mu.Unlock()

	return items, nil
}

// deviceType returns the device type string recorded during the last
// Devices call; the media and command endpoints require it alongside the
// serial number.
func (c *Live) deviceType(serial string) (string, error) {
	c.shared.mu.Lock()
	defer c.shared.mu.Unlock()

	t, ok := c.shared.deviceTypes[serial]
	if !ok {
		return "", errors.Errorf("unknown device %s, run discovery first", serial)
	}
	return t, nil
}

func (c *Live) Media(serial string) (*Media, error) {
	deviceType, err := c.deviceType(serial)
	if err != nil {
		return nil, err
	}

	ctx, cancel := c.makeContext()
	defer cancel()

	var payload struct {
		CurrentState string `json:"currentState"`
		Muted        bool   `json:"muted"`
		Volume       int    `json:"volume"`
	}
	url := c.apiURL("/api/media/state?deviceSerialNumber=" + serial + "&deviceType=" + deviceType)
	if err := c.doJSON(ctx, http.MethodGet, url, nil, &payload); err != nil {
		return nil, errors.Wrapf(err, "fetching media state for %s", serial)
	}

	return &Media{
		PlayerState: payload.CurrentState,
		Muted:       payload.Muted,
		Volume:      payload.Volume,
	}, nil
}

// commandBody maps a bridge command name to the wire command document.
// A map-typed value is merged into the document, anything else is used
// as the command's primary argument.
func commandBody(name string, value interface{}) (map[string]interface{}, error) {
	body := map[string]interface{}{}

	switch name {
	case CommandPlay:
		body["type"] = "PlayCommand"
	case CommandPause:
		body["type"] = "PauseCommand"
	case CommandVolume:
		body["type"] = "VolumeLevelCommand"
		body["volumeLevel"] = value
	case CommandMute:
		body["type"] = "MuteCommand"
	default:
		return nil, errors.Errorf("unsupported command: %s", name)
	}

	if extra, ok := value.(map[string]interface{}); ok {
		for k, v := range extra {
			body[k] = v
		}
	}

	return body, nil
}

func (c *Live) SendCommand(serial string, name string, value interface{}) error {
	deviceType, err := c.deviceType(serial)
	if err != nil {
		return err
	}

	body, err := commandBody(name, value)
	if err != nil {
		return err
	}

	ctx, cancel := c.makeContext()
	defer cancel()

	logging.Logger(nil).Debugf("sending command %s to %s: %+v", name, serial, body)

	url := c.apiURL("/api/np/command?deviceSerialNumber=" + serial + "&deviceType=" + deviceType)
	if err := c.doJSON(ctx, http.MethodPost, url, body, nil); err != nil {
		return errors.Wrapf(err, "executing command %s", name)
	}

	return nil
}

func (c *Live) Events() (<-chan PushEvent, error) {
	c.shared.eventsOnce.Do(func() {
		header := http.Header{}
		header.Set("Cookie", c.session.Cookie)

		conn, _, err := websocket.DefaultDialer.Dial(c.pushURL(), header)
		if err != nil {
			c.shared.eventsErr = errors.Wrap(err, "dialing push event stream")
			return
		}

		c.shared.events = make(chan PushEvent)
		go c.readEvents(conn)
	})

	return c.shared.events, c.shared.eventsErr
}

func (c *Live) readEvents(conn *websocket.Conn) {
	defer close(c.shared.events)
	defer conn.Close()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			logging.Logger(nil).WithError(err).Error("push event stream closed")
			return
		}

		ev, ok := decodePushEvent(data)
		if !ok {
			logging.Logger(nil).Debugf("ignoring unrecognized push frame: %s", data)
			continue
		}

		c.shared.events <- ev
	}
}
