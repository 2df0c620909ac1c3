// Package probe implements a synthetic signal producer for exercising a
// Candor server without cameras or microphones. It posts landmark metrics,
// ROI intensity samples and PCM chunks to the ingest endpoints at realistic
// rates.
package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/candorlabs/candor/pkg/signal"
	"go.uber.org/zap"
)

// Config controls the synthetic subject.
type Config struct {
	ServerURL     string  // base URL, e.g. http://localhost:8080
	FrameRate     float64 // video frame rate for face and pulse streams
	SampleRate    int     // audio sample rate
	ChunkDuration time.Duration
	BPM           float64 // simulated pulse rate
	PitchHz       float64 // simulated voice fundamental
	BlinkInterval time.Duration
	Seed          int64
}

// DefaultConfig returns a calm synthetic subject.
func DefaultConfig() Config {
	return Config{
		ServerURL:     "http://localhost:8080",
		FrameRate:     30,
		SampleRate:    16000,
		ChunkDuration: time.Second,
		BPM:           72,
		PitchHz:       120,
		BlinkInterval: 3 * time.Second,
		Seed:          1,
	}
}

// Producer drives the three ingest endpoints with synthetic signals.
type Producer struct {
	cfg    Config
	client *http.Client
	logger *zap.Logger
	rng    *rand.Rand
}

// NewProducer creates a producer posting to the configured server.
func NewProducer(cfg Config, logger *zap.Logger) *Producer {
	return &Producer{
		cfg:    cfg,
		client: &http.Client{Timeout: 5 * time.Second},
		logger: logger,
		rng:    rand.New(rand.NewSource(cfg.Seed)),
	}
}

// Run streams all three signals until the context is cancelled.
func (p *Producer) Run(ctx context.Context) error {
	p.logger.Info("probe started",
		zap.String("server", p.cfg.ServerURL),
		zap.Float64("bpm", p.cfg.BPM),
		zap.Float64("pitch_hz", p.cfg.PitchHz),
	)

	var wg sync.WaitGroup
	wg.Add(3)
	go func() { defer wg.Done(); p.streamFace(ctx) }()
	go func() { defer wg.Done(); p.streamPulse(ctx) }()
	go func() { defer wg.Done(); p.streamVoice(ctx) }()
	wg.Wait()

	p.logger.Info("probe stopped")
	return nil
}

func (p *Producer) streamFace(ctx context.Context) {
	interval := time.Duration(float64(time.Second) / p.cfg.FrameRate)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	framesPerBlink := int(p.cfg.BlinkInterval.Seconds() * p.cfg.FrameRate)
	frame := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			frame++
			metrics := faceFrame(p.rng, frame, framesPerBlink)
			p.post(ctx, "/api/v1/face/frame", metrics)
		}
	}
}

func (p *Producer) streamPulse(ctx context.Context) {
	interval := time.Duration(float64(time.Second) / p.cfg.FrameRate)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	start := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t := time.Since(start).Seconds()
			sample := signal.ROISample{
				Timestamp:     time.Now(),
				MeanIntensity: roiIntensity(p.rng, t, p.cfg.BPM),
			}
			p.post(ctx, "/api/v1/pulse/sample", sample)
		}
	}
}

func (p *Producer) streamVoice(ctx context.Context) {
	ticker := time.NewTicker(p.cfg.ChunkDuration)
	defer ticker.Stop()

	phase := 0.0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			samples, endPhase := voiceChunk(p.rng, p.cfg, phase)
			phase = endPhase
			chunk := signal.AudioChunk{
				Timestamp:  time.Now(),
				SampleRate: p.cfg.SampleRate,
				Samples:    samples,
			}
			p.post(ctx, "/api/v1/voice/chunk", chunk)
		}
	}
}

// faceFrame synthesizes jittered landmark metrics with a blink every
// framesPerBlink frames.
func faceFrame(rng *rand.Rand, frame, framesPerBlink int) signal.FrameMetrics {
	return signal.FrameMetrics{
		Timestamp:       time.Now(),
		Present:         true,
		BrowEyeDistance: 0.12 + 0.004*rng.NormFloat64(),
		LipCompression:  0.05 + 0.002*rng.NormFloat64(),
		Blink:           framesPerBlink > 0 && frame%framesPerBlink == 0,
	}
}

// roiIntensity synthesizes a pulse waveform on a slowly drifting baseline
// with sensor noise.
func roiIntensity(rng *rand.Rand, t, bpm float64) float64 {
	return 128 +
		0.3*math.Sin(2*math.Pi*t/30) + // illumination drift
		1.5*math.Sin(2*math.Pi*bpm/60*t) +
		0.2*rng.NormFloat64()
}

// voiceChunk synthesizes one chunk of voiced speech: a fundamental with
// slight vibrato plus low-level noise. The running phase keeps the waveform
// continuous across chunks.
func voiceChunk(rng *rand.Rand, cfg Config, phase float64) ([]float64, float64) {
	n := int(float64(cfg.SampleRate) * cfg.ChunkDuration.Seconds())
	samples := make([]float64, n)
	fs := float64(cfg.SampleRate)
	for i := range samples {
		t := float64(i) / fs
		freq := cfg.PitchHz * (1 + 0.005*math.Sin(2*math.Pi*5*t)) // 5 Hz vibrato
		phase += 2 * math.Pi * freq / fs
		samples[i] = 0.4*math.Sin(phase) + 0.01*rng.NormFloat64()
	}
	return samples, math.Mod(phase, 2*math.Pi)
}

func (p *Producer) post(ctx context.Context, path string, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		p.logger.Error("marshal payload", zap.String("path", path), zap.Error(err))
		return
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.ServerURL+path, bytes.NewReader(body))
	if err != nil {
		p.logger.Error("build request", zap.String("path", path), zap.Error(err))
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		if ctx.Err() == nil {
			p.logger.Warn("post failed", zap.String("path", path), zap.Error(err))
		}
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		p.logger.Warn("server rejected payload",
			zap.String("path", path),
			zap.String("status", fmt.Sprintf("%d", resp.StatusCode)),
		)
	}
}
