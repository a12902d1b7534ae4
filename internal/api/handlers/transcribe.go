package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/nikhilbhutani/yttranscriber/internal/fetcher"
	"github.com/nikhilbhutani/yttranscriber/internal/stt"
	"github.com/nikhilbhutani/yttranscriber/internal/transcribe"
)

const maxBodyBytes = 1 << 20

var errTrailingData = errors.New("unexpected data after JSON value")

// Pipeline is a download-then-transcribe flow bound to one backend.
type Pipeline interface {
	Run(ctx context.Context, req transcribe.Request) (*stt.Result, error)
	Backend() string
}

// TranscribeHandler serves one transcription route. Each route gets its own
// handler bound to a pipeline at registration time.
type TranscribeHandler struct {
	pipeline Pipeline
}

func NewTranscribeHandler(p Pipeline) *TranscribeHandler {
	return &TranscribeHandler{pipeline: p}
}

// requestError is a client error decided before any work starts.
type requestError struct {
	status  int
	message string
}

// Transcribe validates the body, runs the pipeline and writes the envelope.
func (h *TranscribeHandler) Transcribe(w http.ResponseWriter, r *http.Request) {
	log := slog.With(
		"route", r.URL.Path,
		"backend", h.pipeline.Backend(),
		"request_id", chimiddleware.GetReqID(r.Context()),
	)
	log.Info("received transcription request")

	if !isJSON(r.Header.Get("Content-Type")) {
		log.Warn("request content-type not application/json", "content_type", r.Header.Get("Content-Type"))
		writeFailure(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return
	}

	req, reqErr := decodeRequest(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if reqErr != nil {
		log.Warn("invalid transcription request", "status", reqErr.status, "reason", reqErr.message)
		writeFailure(w, reqErr.status, reqErr.message)
		return
	}

	res, err := h.pipeline.Run(r.Context(), req)
	if err != nil {
		log.Error("error during transcription flow", "url", fetcher.Truncate(req.YouTubeURL, 80), "error", err)
		writeFailure(w, http.StatusInternalServerError, err.Error())
		return
	}

	log.Info("transcription request completed", "url", fetcher.Truncate(req.YouTubeURL, 80))
	writeSuccess(w, res.Text)
}

func isJSON(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mt == "application/json" || strings.HasSuffix(mt, "+json")
}

func decodeRequest(body io.Reader) (transcribe.Request, *requestError) {
	var fields map[string]json.RawMessage
	dec := json.NewDecoder(body)
	err := dec.Decode(&fields)
	if err == nil {
		// exactly one JSON value per body
		if extra := dec.Decode(&struct{}{}); !errors.Is(extra, io.EOF) {
			err = errTrailingData
			var maxErr *http.MaxBytesError
			if errors.As(extra, &maxErr) {
				err = extra
			}
		}
	}
	if err != nil {
		var typeErr *json.UnmarshalTypeError
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return transcribe.Request{}, &requestError{http.StatusRequestEntityTooLarge, "Request body too large"}
		case errors.As(err, &typeErr):
			return transcribe.Request{}, &requestError{http.StatusBadRequest, "Request body must be a JSON object"}
		default:
			return transcribe.Request{}, &requestError{http.StatusUnsupportedMediaType, "Request body must be valid JSON"}
		}
	}

	var req transcribe.Request

	raw, ok := fields["youtube_url"]
	if !ok {
		return req, &requestError{http.StatusBadRequest, "Missing youtube_url"}
	}
	var u *string
	if err := json.Unmarshal(raw, &u); err != nil {
		return req, &requestError{http.StatusBadRequest, "youtube_url must be a string"}
	}
	if u == nil || strings.TrimSpace(*u) == "" {
		return req, &requestError{http.StatusBadRequest, "Missing youtube_url"}
	}
	req.YouTubeURL = strings.TrimSpace(*u)
	if err := fetcher.ValidateURL(req.YouTubeURL); err != nil {
		return req, &requestError{http.StatusBadRequest, "Invalid youtube_url: " + err.Error()}
	}

	if raw, ok := fields["language"]; ok {
		var lang *string
		if err := json.Unmarshal(raw, &lang); err != nil {
			return req, &requestError{http.StatusBadRequest, "language must be a string"}
		}
		if lang != nil {
			req.Language = *lang
		}
	}

	return req, nil
}
