package service

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"text-palette/internal/model"
	"text-palette/internal/palette"
)

const (
	EncodingRGB24  = "rgb24"
	EncodingRGB565 = "rgb565"
	EncodingRGB111 = "rgb111"
)

var (
	ErrUnsupportedEncoding = errors.New("unsupported encoding")
	ErrDeviceIDRequired    = errors.New("device id required")
)

func SupportedEncodings() []string {
	return []string{EncodingRGB24, EncodingRGB565, EncodingRGB111}
}

// EncodePalette decodes the hex colors and packs them for an LED strip.
func EncodePalette(colors []string, encoding string) ([]byte, error) {
	pixels := make([]model.RGB, 0, len(colors))
	for _, c := range colors {
		p, err := palette.ParseHex(c)
		if err != nil {
			return nil, err
		}
		pixels = append(pixels, p)
	}
	switch strings.ToLower(encoding) {
	case EncodingRGB24:
		return EncodeRGB24(pixels), nil
	case EncodingRGB565:
		return EncodeRGB565(pixels), nil
	case EncodingRGB111:
		return EncodeRGB111(pixels), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedEncoding, encoding)
	}
}

// EncodeReport encodes every palette of report, in result order.
func EncodeReport(report model.PaletteReport, encoding string) ([]model.DevicePayload, error) {
	out := make([]model.DevicePayload, 0, len(report.Results))
	for _, res := range report.Results {
		b, err := EncodePalette(res.Palette, encoding)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", res.Strategy, err)
		}
		out = append(out, model.DevicePayload{
			Strategy:   res.Strategy,
			Encoding:   strings.ToLower(encoding),
			PayloadB64: base64.StdEncoding.EncodeToString(b),
			LEDCount:   res.Count,
		})
	}
	return out, nil
}

func BuildEnvelope(deviceID string, report model.PaletteReport, encoding string) (model.DeviceEnvelope, error) {
	if strings.TrimSpace(deviceID) == "" {
		return model.DeviceEnvelope{}, ErrDeviceIDRequired
	}
	payloads, err := EncodeReport(report, encoding)
	if err != nil {
		return model.DeviceEnvelope{}, err
	}
	return model.DeviceEnvelope{
		DeviceID:  deviceID,
		ReportID:  report.ID,
		CreatedAt: time.Now().UnixMilli(),
		Payloads:  payloads,
	}, nil
}

func EncodeRGB24(pixels []model.RGB) []byte {
	out := make([]byte, 0, len(pixels)*3)
	for _, p := range pixels {
		out = append(out, p.R, p.G, p.B)
	}
	return out
}

func EncodeRGB565(pixels []model.RGB) []byte {
	out := make([]byte, 0, len(pixels)*2)
	for _, p := range pixels {
		v := (uint16(p.R&0xF8) << 8) | (uint16(p.G&0xFC) << 3) | (uint16(p.B) >> 3)
		out = append(out, byte(v>>8), byte(v&0xFF))
	}
	return out
}

// EncodeRGB111 packs one pixel per byte, a bit per channel above half intensity.
func EncodeRGB111(pixels []model.RGB) []byte {
	out := make([]byte, 0, len(pixels))
	for _, p := range pixels {
		var v byte
		if p.R > 127 {
			v |= 0b100
		}
		if p.G > 127 {
			v |= 0b010
		}
		if p.B > 127 {
			v |= 0b001
		}
		out = append(out, v)
	}
	return out
}
