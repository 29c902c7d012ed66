// internal/cloud/uploader.go
package cloud

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"vitalsd/internal/vitals"
)

// Uploader pushes saved readings to a ThingSpeak-style channel:
// field1 = heart rate, field2 = SpO2. Disabled by default; when enabled
// uploads run on their own goroutine so a slow network never stalls the
// tick loop. Failures are logged and forgotten.
type Uploader struct {
	enabled bool
	url     string
	apiKey  string
	client  *http.Client
	log     *zap.Logger
}

func NewUploader(enabled bool, endpoint, apiKey string, logger *zap.Logger) *Uploader {
	return &Uploader{
		enabled: enabled,
		url:     endpoint,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 5 * time.Second},
		log:     logger,
	}
}

// UploadReading sends one saved sample. No-op when disabled.
func (u *Uploader) UploadReading(r vitals.Reading) {
	u.post(r.HeartRate, r.SpO2)
}

// UploadSummary sends the interval averages, matching what the original
// device pushed after each summary window.
func (u *Uploader) UploadSummary(s vitals.DailySummary) {
	if s.SampleCount == 0 || s.AvgHeartRate == nil || s.AvgSpO2 == nil {
		return
	}
	u.post(int(*s.AvgHeartRate), int(*s.AvgSpO2))
}

func (u *Uploader) post(hr, spo2 int) {
	if !u.enabled {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		form := url.Values{}
		form.Set("api_key", u.apiKey)
		form.Set("field1", strconv.Itoa(hr))
		form.Set("field2", strconv.Itoa(spo2))

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.url,
			strings.NewReader(form.Encode()))
		if err != nil {
			u.log.Error("build cloud request", zap.Error(err))
			return
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		resp, err := u.client.Do(req)
		if err != nil {
			u.log.Warn("cloud upload failed", zap.Error(err))
			return
		}
		resp.Body.Close()

		if resp.StatusCode >= 300 {
			u.log.Warn("cloud upload rejected", zap.Int("status", resp.StatusCode))
			return
		}
		u.log.Debug("cloud upload ok", zap.Int("heart_rate", hr), zap.Int("spo2", spo2))
	}()
}
