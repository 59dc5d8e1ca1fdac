package api

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"text-palette/internal/config"
	"text-palette/internal/model"
	"text-palette/internal/service"
	"text-palette/internal/storage"
	"text-palette/internal/ws"
)

type testServer struct {
	handler http.Handler
	store   *storage.Store
	devices *ws.DeviceHub
}

func newTestServer(t *testing.T, mutate ...func(*config.Config)) *testServer {
	t.Helper()
	cfg := config.Config{
		DataPath:           filepath.Join(t.TempDir(), "messages.json"),
		MaxUploadSizeBytes: 1 << 16,
		CodeIntervalMin:    'a',
		CodeIntervalMax:    'z',
		MaxMessageLength:   256,
		MaxBatchSize:       4,
		RateLimitRPS:       1000,
		RateLimitBurst:     1000,
		CORSAllowedOrigins: []string{"*"},
	}
	for _, m := range mutate {
		m(&cfg)
	}
	store, err := storage.NewStore(cfg.DataPath)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub := ws.NewHub()
	go hub.Run(ctx)
	devices := ws.NewDeviceHub()
	svc := service.NewPaletteService(cfg, hub, devices)

	return &testServer{
		handler: NewRouter(cfg, store, hub, devices, svc),
		store:   store,
		devices: devices,
	}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

type reportBody struct {
	model.PaletteReport
	Payloads []model.DevicePayload `json:"payloads"`
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestStrategies(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/v1/strategies", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody[struct {
		Strategies      []string       `json:"strategies"`
		DefaultInterval map[string]int `json:"default_interval"`
		Encodings       []string       `json:"encodings"`
	}](t, rec)
	assert.Len(t, body.Strategies, 6)
	assert.Equal(t, map[string]int{"min": 97, "max": 122}, body.DefaultInterval)
	assert.Equal(t, []string{"rgb24", "rgb565", "rgb111"}, body.Encodings)
}

func TestGeneratePalettes(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodPost, "/v1/palettes", map[string]interface{}{"message": "abc"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decodeBody[reportBody](t, rec)
	require.Len(t, body.Results, 6)
	assert.Equal(t, []string{"#616161", "#626262", "#636363"}, body.Results[0].Palette)
	assert.Equal(t, 3, body.Results[0].UniqueCount)
	assert.Empty(t, body.Payloads)
}

func TestGeneratePalettesWithEncoding(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodPost, "/v1/palettes", map[string]interface{}{
		"message":    "az",
		"strategies": []string{"single-channel-threshold"},
		"encoding":   "rgb111",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decodeBody[reportBody](t, rec)
	require.Len(t, body.Payloads, 1)
	raw, err := base64.StdEncoding.DecodeString(body.Payloads[0].PayloadB64)
	require.NoError(t, err)
	assert.Equal(t, []byte{0b100, 0b001}, raw)
}

func TestGeneratePalettesPushesToDevice(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodPost, "/v1/palettes", map[string]interface{}{
		"message":   "abc",
		"device_id": "strip-7",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeBody[reportBody](t, rec)
	require.Len(t, body.Payloads, 6)
	assert.Equal(t, "rgb24", body.Payloads[0].Encoding)

	latest := s.do(t, http.MethodGet, "/v1/devices/strip-7/latest", nil)
	require.Equal(t, http.StatusOK, latest.Code)
	env := decodeBody[model.DeviceEnvelope](t, latest)
	assert.Equal(t, body.ID, env.ReportID)

	missing := s.do(t, http.MethodGet, "/v1/devices/nobody/latest", nil)
	assert.Equal(t, http.StatusNotFound, missing.Code)
}

func TestGeneratePalettesErrors(t *testing.T) {
	s := newTestServer(t)
	tests := []struct {
		name string
		body interface{}
		want string
	}{
		{"malformed json", "{", ""},
		{"missing message", map[string]interface{}{}, "message is required"},
		{"blank message", map[string]interface{}{"message": "   "}, "empty"},
		{"bad encoding", map[string]interface{}{"message": "a", "encoding": "rgb48"}, "encoding must be one of"},
		{"inverted interval", map[string]interface{}{"message": "a", "interval": map[string]int{"min": 122, "max": 97}}, "max must be greater than"},
		{"unknown strategy", map[string]interface{}{"message": "a", "strategies": []string{"sepia"}}, "unknown strategy"},
		{"too long", map[string]interface{}{"message": strings.Repeat("a", 257)}, "too long"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, "/v1/palettes", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			if tt.want != "" {
				assert.Contains(t, strings.ToLower(rec.Body.String()), tt.want)
			}
		})
	}
}

func TestGenerateBatch(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodPost, "/v1/palettes/batch", map[string]interface{}{
		"messages":   []string{"aaaa", "Hello World"},
		"lowercase":  true,
		"strategies": []string{"raw"},
		"encoding":   "rgb24",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decodeBody[struct {
		Reports []reportBody `json:"reports"`
	}](t, rec)
	require.Len(t, body.Reports, 2)
	assert.Equal(t, 1, body.Reports[0].Results[0].UniqueCount)
	assert.Equal(t, "helloworld", body.Reports[1].Prepared)
	require.Len(t, body.Reports[1].Payloads, 1)

	tooMany := s.do(t, http.MethodPost, "/v1/palettes/batch", map[string]interface{}{
		"messages": []string{"a", "b", "c", "d", "e"},
	})
	assert.Equal(t, http.StatusBadRequest, tooMany.Code)

	withDevice := s.do(t, http.MethodPost, "/v1/palettes/batch", map[string]interface{}{
		"messages":  []string{"a"},
		"device_id": "x",
	})
	assert.Equal(t, http.StatusBadRequest, withDevice.Code)

	empty := s.do(t, http.MethodPost, "/v1/palettes/batch", map[string]interface{}{"messages": []string{}})
	assert.Equal(t, http.StatusBadRequest, empty.Code)
}

func TestMessageLibrary(t *testing.T) {
	s := newTestServer(t)

	list := decodeBody[struct {
		Messages []model.LibraryMessage `json:"messages"`
	}](t, s.do(t, http.MethodGet, "/v1/messages", nil))
	require.Len(t, list.Messages, 3)
	assert.Equal(t, "task", list.Messages[0].ID)

	created := s.do(t, http.MethodPost, "/v1/messages", map[string]string{"id": "holmes", "title": "Holmes", "text": "Elementary"})
	require.Equal(t, http.StatusCreated, created.Code, created.Body.String())

	gen := s.do(t, http.MethodPost, "/v1/messages/holmes/palettes", nil)
	require.Equal(t, http.StatusOK, gen.Code, gen.Body.String())
	assert.Equal(t, "Elementary", decodeBody[reportBody](t, gen).Prepared)

	genOpts := s.do(t, http.MethodPost, "/v1/messages/alphabet/palettes", map[string]interface{}{"strategies": []string{"raw"}})
	require.Equal(t, http.StatusOK, genOpts.Code, genOpts.Body.String())
	rep := decodeBody[reportBody](t, genOpts)
	require.Len(t, rep.Results, 1)
	assert.Equal(t, 26, rep.Results[0].UniqueCount)

	assert.Equal(t, http.StatusConflict, s.do(t, http.MethodPost, "/v1/messages", map[string]string{"id": "task", "text": "x"}).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, "/v1/messages", map[string]string{"title": "no text"}).Code)
	assert.Equal(t, http.StatusConflict, s.do(t, http.MethodDelete, "/v1/messages/task", nil).Code)
	assert.Equal(t, http.StatusNoContent, s.do(t, http.MethodDelete, "/v1/messages/holmes", nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodDelete, "/v1/messages/holmes", nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodPost, "/v1/messages/holmes/palettes", nil).Code)
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) {
		c.RateLimitRPS = 0.001
		c.RateLimitBurst = 2
	})
	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/v1/strategies", nil).Code)
	}
	rec := s.do(t, http.MethodGet, "/v1/strategies", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))

	// health checks are not limited
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/healthz", nil).Code)
}

func TestKeyedLimiterPrunesIdleKeys(t *testing.T) {
	now := time.Unix(1000, 0)
	l := newKeyedLimiter(1, 1)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"))
	assert.True(t, l.Allow("b"))

	now = now.Add(limiterIdleTTL + time.Minute)
	assert.True(t, l.Allow("c"))
	assert.Len(t, l.limiters, 1)
}

func TestWebSocketRequiresUpgrade(t *testing.T) {
	s := newTestServer(t)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/v1/ws", nil).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/v1/devices/ws?device_id=x", nil).Code)
}

func dialDevice(t *testing.T, srv *httptest.Server, deviceID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/devices/ws?device_id=" + deviceID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readEnvelope(t *testing.T, conn *websocket.Conn) model.DeviceEnvelope {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	var got struct {
		Type    string               `json:"type"`
		Payload model.DeviceEnvelope `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(msg, &got))
	assert.Equal(t, "device.envelope", got.Type)
	return got.Payload
}

func TestDeviceWebSocketReplaysToNewDevice(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.handler)
	defer srv.Close()

	first := dialDevice(t, srv, "strip-1")
	require.Eventually(t, func() bool { return s.devices.Connected("strip-1") == 1 }, 2*time.Second, 10*time.Millisecond)

	rec := s.do(t, http.MethodPost, "/v1/palettes", map[string]interface{}{
		"message":   "abc",
		"device_id": "strip-1",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	reportID := decodeBody[reportBody](t, rec).ID
	assert.Equal(t, reportID, readEnvelope(t, first).ReportID)

	second := dialDevice(t, srv, "strip-1")
	assert.Equal(t, reportID, readEnvelope(t, second).ReportID)

	require.NoError(t, first.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, _, err := first.ReadMessage()
	assert.Error(t, err, "first device got a duplicate envelope")
}
