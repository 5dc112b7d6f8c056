package transcription

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grievance-intake-go/internal/config"
	"grievance-intake-go/internal/logger"
)

func newTestTranscriber(url string, timeout time.Duration) *HTTPTranscriber {
	tr := NewHTTPTranscriber(config.TranscribeConfig{URL: url, Timeout: timeout}, logger.Discard())
	tr.pollInterval = 5 * time.Millisecond
	return tr
}

func TestNew_SelectsStub(t *testing.T) {
	assert.IsType(t, StubTranscriber{}, New(config.TranscribeConfig{}, logger.Discard()))
	assert.IsType(t, StubTranscriber{}, New(config.TranscribeConfig{URL: "http://x", UseMock: true}, logger.Discard()))
	assert.IsType(t, &HTTPTranscriber{}, New(config.TranscribeConfig{URL: "http://x"}, logger.Discard()))
}

func TestStubTranscriber(t *testing.T) {
	text, err := StubTranscriber{}.Transcribe(context.Background(), []byte{1, 2}, "hi-IN")
	require.NoError(t, err)
	assert.Equal(t, StubText, text)

	_, err = StubTranscriber{}.Transcribe(context.Background(), nil, "hi-IN")
	assert.ErrorIs(t, err, ErrTranscriptionFailed)
}

func TestHTTPTranscriber_PublishPollDownload(t *testing.T) {
	var polls int32
	mux := http.NewServeMux()
	var srv *httptest.Server
	mux.HandleFunc("/transcribe", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "mr-IN", r.FormValue("languageCode"))
		io.WriteString(w, `{"Code":200,"Status":"OK","Data":{"MediaId":"m1","Status":"Queued"}}`)
	})
	mux.HandleFunc("/getstatus", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "m1", r.URL.Query().Get("mediaId"))
		if atomic.AddInt32(&polls, 1) < 2 {
			io.WriteString(w, `{"Code":200,"Data":{"Status":"Processing"}}`)
			return
		}
		fmt.Fprintf(w, `{"Code":200,"Data":{"Status":"Success","TranscriptionTextURL":"%s/text"}}`, srv.URL)
	})
	mux.HandleFunc("/text", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "  पाणी नाही  ")
	})
	srv = httptest.NewServer(mux)
	defer srv.Close()

	text, err := newTestTranscriber(srv.URL, time.Second).Transcribe(context.Background(), []byte("RIFF"), "mr-IN")

	require.NoError(t, err)
	assert.Equal(t, "पाणी नाही", text)
	assert.GreaterOrEqual(t, atomic.LoadInt32(&polls), int32(2))
}

func TestHTTPTranscriber_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"publish rejected", func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, `{"Code":400,"Reason":"bad audio"}`)
		}},
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}},
		{"job failed", func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/transcribe" {
				io.WriteString(w, `{"Code":200,"Data":{"MediaId":"m1"}}`)
				return
			}
			io.WriteString(w, `{"Code":200,"Data":{"Status":"Failed"},"Reason":"noise"}`)
		}},
		{"never finishes", func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/transcribe" {
				io.WriteString(w, `{"Code":200,"Data":{"MediaId":"m1"}}`)
				return
			}
			io.WriteString(w, `{"Code":200,"Data":{"Status":"Queued"}}`)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()
			_, err := newTestTranscriber(srv.URL, 100*time.Millisecond).Transcribe(context.Background(), []byte("x"), "en-IN")
			assert.ErrorIs(t, err, ErrTranscriptionFailed)
		})
	}
}
