package transcription

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"grievance-intake-go/internal/config"
	"grievance-intake-go/internal/logger"
)

// ErrTranscriptionFailed wraps every failure a Transcriber reports.
var ErrTranscriptionFailed = errors.New("speech transcription failed")

// StubText is what the stub engine returns in place of real speech recognition.
const StubText = "[Audio transcription unavailable - speech recognition engine not integrated]"

// Transcriber converts audio into text in the hinted locale.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, languageHint string) (string, error)
}

// New selects the engine from configuration: the stub when mocking or when no
// host is configured, the HTTP engine otherwise.
func New(cfg config.TranscribeConfig, log *logger.Logger) Transcriber {
	if cfg.UseMock || cfg.URL == "" {
		return StubTranscriber{}
	}
	return NewHTTPTranscriber(cfg, log)
}

type StubTranscriber struct{}

func (StubTranscriber) Transcribe(ctx context.Context, audio []byte, languageHint string) (string, error) {
	if len(audio) == 0 {
		return "", fmt.Errorf("%w: empty audio", ErrTranscriptionFailed)
	}
	return StubText, nil
}

type PublishResponse struct {
	Code   int    `json:"Code"`
	Status string `json:"Status"`
	Data   struct {
		MediaId          string `json:"MediaId"`
		Status           string `json:"Status"`
		TranscriptionURL string `json:"TranscriptionURL"`
	} `json:"Data"`
	Reason string `json:"Reason,omitempty"`
}

type StatusResponse struct {
	Code   int    `json:"Code"`
	Status string `json:"Status"`
	Data   struct {
		Status               string `json:"Status"`
		TranscriptionTextURL string `json:"TranscriptionTextURL"`
	} `json:"Data"`
	Reason string `json:"Reason,omitempty"`
}

// HTTPTranscriber publishes audio to a transcription host, polls until the job
// completes and downloads the text. The whole exchange is bounded by Timeout.
type HTTPTranscriber struct {
	host         string
	timeout      time.Duration
	pollInterval time.Duration
	http         *http.Client
	log          *logger.Logger
}

func NewHTTPTranscriber(cfg config.TranscribeConfig, log *logger.Logger) *HTTPTranscriber {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &HTTPTranscriber{
		host:         strings.TrimRight(cfg.URL, "/"),
		timeout:      timeout,
		pollInterval: 1500 * time.Millisecond,
		http:         &http.Client{Timeout: timeout},
		log:          log.WithComponent("transcription"),
	}
}

func (t *HTTPTranscriber) Transcribe(ctx context.Context, audio []byte, languageHint string) (string, error) {
	if len(audio) == 0 {
		return "", fmt.Errorf("%w: empty audio", ErrTranscriptionFailed)
	}
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	log := t.log.With("language", languageHint)
	log.WithField("bytes", len(audio)).Info("starting transcription")

	mediaID, existingURL, err := t.publish(ctx, audio, languageHint)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTranscriptionFailed, err)
	}
	finalURL := existingURL
	if finalURL == "" {
		if finalURL, err = t.poll(ctx, mediaID); err != nil {
			return "", fmt.Errorf("%w: %v", ErrTranscriptionFailed, err)
		}
	}
	log.WithField("final_url", finalURL).Info("download final transcript")
	text, err := t.download(ctx, finalURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTranscriptionFailed, err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%w: empty transcript", ErrTranscriptionFailed)
	}
	return text, nil
}

func (t *HTTPTranscriber) publish(ctx context.Context, audio []byte, languageHint string) (string, string, error) {
	var b bytes.Buffer
	w := multipart.NewWriter(&b)
	_ = w.WriteField("languageCode", languageHint)
	part, err := w.CreateFormFile("audio", "complaint-audio")
	if err != nil {
		return "", "", err
	}
	if _, err := part.Write(audio); err != nil {
		return "", "", err
	}
	_ = w.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.host+"/transcribe", &b)
	if err != nil {
		return "", "", err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	var resp PublishResponse
	if err := t.doJSON(req, &resp); err != nil {
		return "", "", err
	}
	if resp.Code != http.StatusOK {
		return "", "", fmt.Errorf("transcribe publish error: code=%d reason=%s", resp.Code, resp.Reason)
	}
	if resp.Data.TranscriptionURL != "" && strings.EqualFold(resp.Data.Status, "success") {
		return "", resp.Data.TranscriptionURL, nil
	}
	if resp.Data.MediaId == "" {
		return "", "", fmt.Errorf("transcribe publish returned no media id")
	}
	return resp.Data.MediaId, "", nil
}

// poll checks job status until it settles or ctx expires.
func (t *HTTPTranscriber) poll(ctx context.Context, mediaID string) (string, error) {
	u, err := url.Parse(t.host + "/getstatus")
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("mediaId", mediaID)
	u.RawQuery = q.Encode()

	ticker := time.NewTicker(t.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return "", fmt.Errorf("transcription timeout: %w", ctx.Err())
		case <-ticker.C:
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return "", err
		}
		var s StatusResponse
		if err := t.doJSON(req, &s); err != nil {
			t.log.WithError(err).Warn("polling failed")
			continue
		}
		t.log.WithField("media_id", mediaID).WithField("status", s.Data.Status).Debug("polling transcription")
		switch s.Data.Status {
		case "Success":
			return s.Data.TranscriptionTextURL, nil
		case "Failed":
			return "", fmt.Errorf("transcription failed: %s", s.Reason)
		}
	}
}

func (t *HTTPTranscriber) download(ctx context.Context, textURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, textURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := t.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("download failed: %s", string(b))
	}
	return string(b), nil
}

func (t *HTTPTranscriber) doJSON(req *http.Request, target interface{}) error {
	resp, err := t.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 500 {
		return fmt.Errorf("server error: %s", string(body))
	}
	if len(body) == 0 {
		return fmt.Errorf("empty body")
	}
	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("json decode error: %v body=%s", err, string(body))
	}
	return nil
}
