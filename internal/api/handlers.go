package api

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"text-palette/internal/config"
	"text-palette/internal/model"
	"text-palette/internal/palette"
	"text-palette/internal/service"
	"text-palette/internal/storage"
	"text-palette/internal/ws"
)

var (
	errRateLimited      = errors.New("rate limit exceeded")
	errBatchDeviceUnset = errors.New("device_id is not supported for batch requests")
)

type Handler struct {
	cfg        config.Config
	store      *storage.Store
	hub        *ws.Hub
	devices    *ws.DeviceHub
	paletteSvc *service.PaletteService
	upgrader   websocket.Upgrader
	validate   *requestValidator
}

type apiError struct {
	Error string `json:"error"`
}

type intervalBody struct {
	Min int `json:"min" validate:"min=0"`
	Max int `json:"max" validate:"gtfield=Min"`
}

type paletteOptions struct {
	LettersOnly bool          `json:"letters_only"`
	Lowercase   bool          `json:"lowercase"`
	Interval    *intervalBody `json:"interval"`
	Strategies  []string      `json:"strategies" validate:"omitempty,dive,required"`
	Encoding    string        `json:"encoding" validate:"omitempty,oneof=rgb24 rgb565 rgb111"`
	DeviceID    string        `json:"device_id" validate:"omitempty,max=128"`
}

func (o paletteOptions) request(message string) service.GenerateRequest {
	req := service.GenerateRequest{
		Message:    message,
		Options:    palette.PrepareOptions{LettersOnly: o.LettersOnly, Lowercase: o.Lowercase},
		Strategies: o.Strategies,
	}
	if o.Interval != nil {
		req.Interval = &palette.Interval{Min: o.Interval.Min, Max: o.Interval.Max}
	}
	return req
}

type generatePaletteRequest struct {
	Message string `json:"message" validate:"required"`
	paletteOptions
}

type batchPaletteRequest struct {
	Messages []string `json:"messages" validate:"required,min=1,dive,required"`
	paletteOptions
}

type saveMessageRequest struct {
	ID    string `json:"id" validate:"omitempty,max=64"`
	Title string `json:"title" validate:"max=200"`
	Text  string `json:"text" validate:"required"`
}

type paletteResponse struct {
	model.PaletteReport
	Payloads []model.DevicePayload `json:"payloads,omitempty"`
}

func (h *Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) Strategies(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"strategies":       palette.Names(),
		"default_interval": h.paletteSvc.DefaultInterval(),
		"encodings":        service.SupportedEncodings(),
	})
}

func (h *Handler) GeneratePalettes(w http.ResponseWriter, r *http.Request) {
	var req generatePaletteRequest
	if err := h.decode(r, &req, false); err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	h.respondWithReport(w, r, req.Message, req.paletteOptions)
}

func (h *Handler) GenerateBatch(w http.ResponseWriter, r *http.Request) {
	var req batchPaletteRequest
	if err := h.decode(r, &req, false); err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	if req.DeviceID != "" {
		writeErr(w, http.StatusBadRequest, errBatchDeviceUnset)
		return
	}
	reqs := make([]service.GenerateRequest, 0, len(req.Messages))
	for _, m := range req.Messages {
		reqs = append(reqs, req.request(m))
	}
	reports, err := h.paletteSvc.GenerateBatch(r.Context(), reqs)
	if err != nil {
		writeErr(w, statusFor(err), err)
		return
	}
	out := make([]paletteResponse, 0, len(reports))
	for _, rep := range reports {
		resp := paletteResponse{PaletteReport: rep}
		if req.Encoding != "" {
			if resp.Payloads, err = service.EncodeReport(rep, req.Encoding); err != nil {
				writeErr(w, statusFor(err), err)
				return
			}
		}
		out = append(out, resp)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"reports": out})
}

func (h *Handler) ListMessages(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"messages": h.store.ListMessages()})
}

func (h *Handler) SaveMessage(w http.ResponseWriter, r *http.Request) {
	var req saveMessageRequest
	if err := h.decode(r, &req, false); err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	saved, err := h.store.UpsertMessage(model.LibraryMessage{ID: req.ID, Title: req.Title, Text: req.Text})
	if err != nil {
		writeErr(w, statusFor(err), err)
		return
	}
	h.hub.BroadcastEvent(model.Event{Type: "message.saved", Payload: saved, CreatedAt: time.Now().UnixMilli()})
	writeJSON(w, http.StatusCreated, saved)
}

func (h *Handler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.store.DeleteMessage(id); err != nil {
		writeErr(w, statusFor(err), err)
		return
	}
	h.hub.BroadcastEvent(model.Event{Type: "message.deleted", Payload: map[string]string{"id": id}, CreatedAt: time.Now().UnixMilli()})
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) GenerateFromMessage(w http.ResponseWriter, r *http.Request) {
	msg, err := h.store.GetMessage(chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, statusFor(err), err)
		return
	}
	var opts paletteOptions
	if err := h.decode(r, &opts, true); err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	h.respondWithReport(w, r, msg.Text, opts)
}

func (h *Handler) respondWithReport(w http.ResponseWriter, r *http.Request, message string, opts paletteOptions) {
	report, err := h.paletteSvc.Generate(r.Context(), opts.request(message))
	if err != nil {
		writeErr(w, statusFor(err), err)
		return
	}
	resp := paletteResponse{PaletteReport: report}
	switch {
	case opts.DeviceID != "":
		encoding := firstOr(opts.Encoding, service.EncodingRGB24)
		env, err := h.paletteSvc.PushToDevice(opts.DeviceID, report, encoding)
		if err != nil {
			writeErr(w, statusFor(err), err)
			return
		}
		resp.Payloads = env.Payloads
	case opts.Encoding != "":
		if resp.Payloads, err = service.EncodeReport(report, opts.Encoding); err != nil {
			writeErr(w, statusFor(err), err)
			return
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) LatestDeviceEnvelope(w http.ResponseWriter, r *http.Request) {
	env := h.devices.Last(chi.URLParam(r, "id"))
	if env == nil {
		writeErr(w, http.StatusNotFound, errors.New("no envelope for device"))
		return
	}
	writeJSON(w, http.StatusOK, env)
}

func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	if !websocket.IsWebSocketUpgrade(r) {
		writeErr(w, http.StatusBadRequest, errors.New("websocket upgrade required"))
		return
	}
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: remote=%s host=%s uri=%s err=%v", r.RemoteAddr, r.Host, r.RequestURI, err)
		return
	}
	client := ws.NewClient(h.hub, conn)
	h.hub.BroadcastEvent(model.Event{Type: "ws.client_connected", Payload: map[string]string{"id": uuid.NewString()}, CreatedAt: time.Now().UnixMilli()})
	h.hub.Register(client)
	go client.WritePump()
	go client.ReadPump()
}

func (h *Handler) DeviceWebSocket(w http.ResponseWriter, r *http.Request) {
	if !websocket.IsWebSocketUpgrade(r) {
		writeErr(w, http.StatusBadRequest, errors.New("websocket upgrade required"))
		return
	}
	deviceID := strings.TrimSpace(r.URL.Query().Get("device_id"))
	if deviceID == "" {
		writeErr(w, http.StatusBadRequest, service.ErrDeviceIDRequired)
		return
	}
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("device ws upgrade failed: remote=%s device=%s err=%v", r.RemoteAddr, deviceID, err)
		return
	}
	client := h.devices.Register(deviceID, conn)
	go client.WritePump()
	go client.ReadPump()
}

// decode reads a JSON body into dst and validates it. With optional set an
// empty body is accepted.
func (h *Handler) decode(r *http.Request, dst interface{}, optional bool) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if !(optional && errors.Is(err, io.EOF)) {
			return err
		}
	}
	return h.validate.Validate(dst)
}

func statusFor(err error) int {
	var ve *validationError
	switch {
	case errors.As(err, &ve),
		errors.Is(err, palette.ErrInvalidRange),
		errors.Is(err, palette.ErrInvalidChannelValue),
		errors.Is(err, palette.ErrUnknownStrategy),
		errors.Is(err, palette.ErrEmptyMessage),
		errors.Is(err, service.ErrMessageTooLong),
		errors.Is(err, service.ErrBatchTooLarge),
		errors.Is(err, service.ErrEmptyBatch),
		errors.Is(err, service.ErrUnsupportedEncoding),
		errors.Is(err, service.ErrDeviceIDRequired):
		return http.StatusBadRequest
	case errors.Is(err, storage.ErrMessageNotFound):
		return http.StatusNotFound
	case errors.Is(err, storage.ErrBuiltinMessage):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(data)
}

func writeErr(w http.ResponseWriter, code int, err error) {
	if code >= http.StatusInternalServerError {
		log.Printf("request failed: status=%d err=%v", code, err)
	}
	writeJSON(w, code, apiError{Error: err.Error()})
}

func firstOr(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}
