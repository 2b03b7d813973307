package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homekit-bridges/homekit-alexa/internal/pkg/alexaapi"
	"github.com/homekit-bridges/homekit-alexa/internal/pkg/hapkit"
)

func testAccessory(t *testing.T) hapkit.Accessory {
	t.Helper()

	rt := hapkit.NewMemoryRuntime()
	acc := rt.NewAccessory("Kitchen Echo", rt.DeriveID("SER-1"), hapkit.CategorySpeaker)

	svc := acc.AddService(hapkit.ServiceSmartSpeaker)
	svc.Characteristic(hapkit.CharacteristicVolume).UpdateValue(40)
	svc.Characteristic(hapkit.CharacteristicVolume).OnSet(func(interface{}) error { return nil })

	return acc
}

func testRouter(h *AccessoriesHandler) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/accessories", h.List).Methods("GET")
	r.HandleFunc("/accessories/{id}/characteristics", h.SetCharacteristic).Methods("PUT")
	return r
}

func TestListAccessories(t *testing.T) {
	acc := testAccessory(t)
	h := NewAccessoriesHandler([]hapkit.Accessory{acc})
	router := testRouter(&h)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/accessories", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var infos []accessoryInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &infos))
	require.Len(t, infos, 1)
	assert.Equal(t, "Kitchen Echo", infos[0].Name)
	assert.Equal(t, acc.ID(), infos[0].ID)
	require.Len(t, infos[0].Services, 1)
	assert.Equal(t, hapkit.ServiceSmartSpeaker, infos[0].Services[0].Kind)
}

func TestSetCharacteristic(t *testing.T) {
	acc := testAccessory(t)
	h := NewAccessoriesHandler([]hapkit.Accessory{acc})
	router := testRouter(&h)

	body := `{"service": "SmartSpeaker", "characteristic": "Volume", "value": 65}`
	req := httptest.NewRequest("PUT", "/accessories/"+acc.ID()+"/characteristics", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	svc := acc.Service(hapkit.ServiceSmartSpeaker)
	assert.Equal(t, float64(65), svc.Characteristic(hapkit.CharacteristicVolume).Value())
}

func TestSetCharacteristicUnknownAccessory(t *testing.T) {
	acc := testAccessory(t)
	h := NewAccessoriesHandler([]hapkit.Accessory{acc})
	router := testRouter(&h)

	body := `{"service": "SmartSpeaker", "characteristic": "Volume", "value": 65}`
	req := httptest.NewRequest("PUT", "/accessories/not-an-id/characteristics", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSetCharacteristicWithoutHandlerFails(t *testing.T) {
	acc := testAccessory(t)
	h := NewAccessoriesHandler([]hapkit.Accessory{acc})
	router := testRouter(&h)

	// Mute has no set handler registered on this accessory.
	body := `{"service": "SmartSpeaker", "characteristic": "Mute", "value": true}`
	req := httptest.NewRequest("PUT", "/accessories/"+acc.ID()+"/characteristics", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestSubmitCookie(t *testing.T) {
	sessionFile := filepath.Join(t.TempDir(), "session.json")
	h := NewAuthHandler(sessionFile)

	router := mux.NewRouter()
	router.HandleFunc("/auth", h.Status).Methods("GET")
	router.HandleFunc("/auth/cookie", h.SubmitCookie).Methods("POST")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/auth", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"captured": false}`, rec.Body.String())

	body := `{"cookie": "session-id=abc; csrf=12345"}`
	req := httptest.NewRequest("POST", "/auth/cookie", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	select {
	case <-h.Done():
	default:
		t.Fatal("expected capture to be signalled")
	}

	var saved alexaapi.Session
	require.NoError(t, saved.Load(sessionFile))
	assert.Equal(t, "session-id=abc; csrf=12345", saved.Cookie)

	fi, err := os.Stat(sessionFile)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), fi.Mode().Perm())
}
