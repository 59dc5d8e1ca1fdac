package model

import "time"

type RGB struct {
	R uint8 `json:"r" yaml:"r"`
	G uint8 `json:"g" yaml:"g"`
	B uint8 `json:"b" yaml:"b"`
}

type CodeInterval struct {
	Min int `json:"min" yaml:"min"`
	Max int `json:"max" yaml:"max"`
}

type PaletteResult struct {
	Strategy    string   `json:"strategy" yaml:"strategy"`
	Palette     []string `json:"palette" yaml:"palette"`
	Count       int      `json:"count" yaml:"count"`
	UniqueCount int      `json:"unique_count" yaml:"unique_count"`
}

type PaletteReport struct {
	ID        string          `json:"id" yaml:"id"`
	Message   string          `json:"message" yaml:"message"`
	Prepared  string          `json:"prepared" yaml:"prepared"`
	Codes     []int           `json:"codes" yaml:"codes"`
	Interval  CodeInterval    `json:"interval" yaml:"interval"`
	Results   []PaletteResult `json:"results" yaml:"results"`
	CreatedAt int64           `json:"created_at_unix_ms" yaml:"created_at_unix_ms"`
}

type LibraryMessage struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Text      string `json:"text"`
	Builtin   bool   `json:"builtin"`
	CreatedAt int64  `json:"created_at_unix_ms"`
}

type StoredState struct {
	Messages          map[string]LibraryMessage `json:"messages"`
	LastUpdatedUnixMS int64                     `json:"last_updated_unix_ms"`
	CreatedAt         time.Time                 `json:"created_at"`
}

type Event struct {
	Type      string      `json:"type"`
	Payload   interface{} `json:"payload"`
	CreatedAt int64       `json:"created_at_unix_ms"`
}

type DevicePayload struct {
	Strategy   string `json:"strategy"`
	Encoding   string `json:"encoding"`
	PayloadB64 string `json:"payload_b64"`
	LEDCount   int    `json:"led_count"`
}

type DeviceEnvelope struct {
	DeviceID  string          `json:"device_id"`
	ReportID  string          `json:"report_id"`
	CreatedAt int64           `json:"created_at_unix_ms"`
	Payloads  []DevicePayload `json:"payloads"`
}
