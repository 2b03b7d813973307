package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/homekit-bridges/homekit-alexa/internal/pkg/hapkit"
	"github.com/homekit-bridges/homekit-alexa/internal/pkg/logging"
)

/*
 * AccessoriesHandler exposes the published accessories over HTTP:
 * a read-only listing plus a characteristic write endpoint that
 * relays set requests through the accessory's registered handlers.
 */

type AccessoriesHandler struct {
	byID  map[string]hapkit.Accessory
	order []string
}

func NewAccessoriesHandler(accessories []hapkit.Accessory) AccessoriesHandler {
	h := AccessoriesHandler{
		byID: make(map[string]hapkit.Accessory, len(accessories)),
	}

	for _, acc := range accessories {
		h.byID[acc.ID()] = acc
		h.order = append(h.order, acc.ID())
	}

	return h
}

type characteristicInfo struct {
	Kind  hapkit.CharacteristicKind `json:"kind"`
	Value interface{}               `json:"value"`
}

type serviceInfo struct {
	Kind            hapkit.ServiceKind   `json:"kind"`
	Characteristics []characteristicInfo `json:"characteristics"`
}

type accessoryInfo struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Category hapkit.Category `json:"category"`
	Services []serviceInfo   `json:"services"`
}

type setCharacteristicRequest struct {
	Service        hapkit.ServiceKind        `json:"service"`
	Characteristic hapkit.CharacteristicKind `json:"characteristic"`
	Value          interface{}               `json:"value"`
}

func describeAccessory(acc hapkit.Accessory) accessoryInfo {
	info := accessoryInfo{
		ID:       acc.ID(),
		Name:     acc.Name(),
		Category: acc.Category(),
	}

	for _, svc := range acc.Services() {
		si := serviceInfo{Kind: svc.Kind()}
		for _, ch := range svc.Characteristics() {
			si.Characteristics = append(si.Characteristics, characteristicInfo{
				Kind:  ch.Kind(),
				Value: ch.Value(),
			})
		}
		info.Services = append(info.Services, si)
	}

	return info
}

func (h *AccessoriesHandler) List(w http.ResponseWriter, r *http.Request) {
	infos := make([]accessoryInfo, 0, len(h.order))
	for _, id := range h.order {
		infos = append(infos, describeAccessory(h.byID[id]))
	}

	sendJSONResponse(w, r, infos)
}

func (h *AccessoriesHandler) SetCharacteristic(w http.ResponseWriter, r *http.Request) {
	ctxLogger := logging.Logger(r.Context())

	acc, ok := h.byID[mux.Vars(r)["id"]]
	if !ok {
		http.Error(w, "no such accessory", http.StatusNotFound)
		return
	}

	var req setCharacteristicRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		ctxLogger.WithError(err).Errorf("decoding JSON")
		http.Error(w, "unable to parse JSON", http.StatusBadRequest)
		return
	}

	svc := acc.Service(req.Service)
	if svc == nil {
		http.Error(w, "no such service", http.StatusNotFound)
		return
	}

	if err := svc.Characteristic(req.Characteristic).RequestSet(req.Value); err != nil {
		ctxLogger.WithError(err).Errorf("setting %s on %s", req.Characteristic, acc.Name())
		http.Error(w, "down-stream device error", http.StatusBadGateway)
		return
	}

	sendJSONResponse(w, r, describeAccessory(acc))
}
