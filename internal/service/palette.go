package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"text-palette/internal/config"
	"text-palette/internal/model"
	"text-palette/internal/palette"
	"text-palette/internal/storage"
)

var (
	ErrMessageTooLong = errors.New("message too long")
	ErrBatchTooLarge  = errors.New("too many messages in batch")
	ErrEmptyBatch     = errors.New("batch is empty")
)

type EventBroadcaster interface {
	BroadcastEvent(evt model.Event)
}

type EnvelopePusher interface {
	PushEnvelope(env model.DeviceEnvelope)
}

type GenerateRequest struct {
	Message    string
	Options    palette.PrepareOptions
	Interval   *palette.Interval
	Strategies []string
	// FallbackToDefault replaces a blank message with storage.MessageTask.
	FallbackToDefault bool
}

type PaletteService struct {
	cfg     config.Config
	hub     EventBroadcaster
	devices EnvelopePusher
}

// NewPaletteService accepts nil hub and devices; events and pushes are then skipped.
func NewPaletteService(cfg config.Config, hub EventBroadcaster, devices EnvelopePusher) *PaletteService {
	return &PaletteService{cfg: cfg, hub: hub, devices: devices}
}

func (s *PaletteService) DefaultInterval() palette.Interval {
	iv := palette.Interval{Min: s.cfg.CodeIntervalMin, Max: s.cfg.CodeIntervalMax}
	if iv.Validate() != nil {
		return palette.LowercaseInterval
	}
	return iv
}

func (s *PaletteService) Generate(ctx context.Context, req GenerateRequest) (model.PaletteReport, error) {
	report, err := s.generate(ctx, req)
	if err != nil {
		return model.PaletteReport{}, err
	}
	s.broadcast("palette.generated", report)
	log.Printf("palette generated: id=%s codes=%d strategies=%d interval=%s",
		report.ID, len(report.Codes), len(report.Results), palette.Interval(report.Interval))
	return report, nil
}

func (s *PaletteService) generate(ctx context.Context, req GenerateRequest) (model.PaletteReport, error) {
	if err := ctx.Err(); err != nil {
		return model.PaletteReport{}, err
	}
	msg := req.Message
	if strings.TrimSpace(msg) == "" && req.FallbackToDefault {
		msg = storage.MessageTask
	}
	if s.cfg.MaxMessageLength > 0 && utf8.RuneCountInString(msg) > s.cfg.MaxMessageLength {
		return model.PaletteReport{}, fmt.Errorf("%w: limit %d", ErrMessageTooLong, s.cfg.MaxMessageLength)
	}

	prepared := palette.PrepareMessage(msg, req.Options)
	if prepared == "" {
		return model.PaletteReport{}, palette.ErrEmptyMessage
	}

	iv := s.DefaultInterval()
	if req.Interval != nil {
		iv = *req.Interval
	}
	set, err := palette.Strategies(iv)
	if err != nil {
		return model.PaletteReport{}, err
	}
	set, err = palette.Lookup(set, req.Strategies...)
	if err != nil {
		return model.PaletteReport{}, err
	}

	codes := palette.CharCodes(prepared)
	return model.PaletteReport{
		ID:        uuid.NewString(),
		Message:   msg,
		Prepared:  prepared,
		Codes:     codes,
		Interval:  model.CodeInterval(iv),
		Results:   palette.Run(codes, set),
		CreatedAt: time.Now().UnixMilli(),
	}, nil
}

// GenerateBatch runs every request concurrently and returns reports in
// request order. The first failure cancels the rest.
func (s *PaletteService) GenerateBatch(ctx context.Context, reqs []GenerateRequest) ([]model.PaletteReport, error) {
	if len(reqs) == 0 {
		return nil, ErrEmptyBatch
	}
	if s.cfg.MaxBatchSize > 0 && len(reqs) > s.cfg.MaxBatchSize {
		return nil, fmt.Errorf("%w: limit %d", ErrBatchTooLarge, s.cfg.MaxBatchSize)
	}

	reports := make([]model.PaletteReport, len(reqs))
	g, gctx := errgroup.WithContext(ctx)
	for i, req := range reqs {
		i, req := i, req
		g.Go(func() error {
			r, err := s.generate(gctx, req)
			if err != nil {
				return fmt.Errorf("message %d: %w", i, err)
			}
			reports[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.broadcast("palette.batch_generated", reports)
	log.Printf("palette batch generated: messages=%d", len(reports))
	return reports, nil
}

// PushToDevice encodes every palette of report and hands the envelope to the device hub.
func (s *PaletteService) PushToDevice(deviceID string, report model.PaletteReport, encoding string) (model.DeviceEnvelope, error) {
	env, err := BuildEnvelope(deviceID, report, encoding)
	if err != nil {
		return model.DeviceEnvelope{}, err
	}
	if s.devices != nil {
		s.devices.PushEnvelope(env)
	}
	s.broadcast("device.envelope_pushed", map[string]interface{}{
		"device_id": deviceID,
		"report_id": report.ID,
		"encoding":  encoding,
	})
	return env, nil
}

func (s *PaletteService) broadcast(typ string, payload interface{}) {
	if s.hub == nil {
		return
	}
	s.hub.BroadcastEvent(model.Event{Type: typ, Payload: payload, CreatedAt: time.Now().UnixMilli()})
}
