package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"runtime"
	"time"

	"github.com/google/uuid"
)

// Generic messages sent back to clients.
const (
	msgUnavailable      = "Something is wrong..."
	msgMethodNotAllowed = "Method Not Allowed!"
	msgQueryRequired    = "q is required."
	msgSearchNotFound   = "Search not found."
)

// Responder writes JSON bodies. Every error body has the shape
// {"message": "..."}.
type Responder struct {
	// DebugMode exposes internal error messages to clients.
	DebugMode bool
}

type messageBody struct {
	Message string `json:"message"`
	ErrorID string `json:"errorId,omitempty"`
}

// RespondAndLogError answers 503 and logs err under a fresh error id.
func (rr *Responder) RespondAndLogError(w http.ResponseWriter, ctx context.Context, err error) {
	errID := uuid.NewString()
	log(ctx, slog.LevelError, err.Error(), slog.String("err_id", errID))

	body := messageBody{Message: msgUnavailable, ErrorID: errID}
	if rr.DebugMode {
		body.Message = err.Error()
	}
	rr.send(w, ctx, http.StatusServiceUnavailable, body)
}

// Message answers status with a plain message body.
func (rr *Responder) Message(w http.ResponseWriter, ctx context.Context, status int, message string) {
	rr.send(w, ctx, status, messageBody{Message: message})
}

// SendJSON answers status with data encoded as JSON.
func (rr *Responder) SendJSON(w http.ResponseWriter, ctx context.Context, status int, data any) {
	rr.send(w, ctx, status, data)
}

func (rr *Responder) send(w http.ResponseWriter, ctx context.Context, status int, data any) {
	bs, err := json.Marshal(data)
	if err != nil {
		log(ctx, slog.LevelError, "cannot marshal response body: "+err.Error())
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, "unknown error")
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_, _ = io.Copy(w, bytes.NewReader(bs))
}

// log skips one more frame than slog.Log so records point at the handler.
func log(ctx context.Context, level slog.Level, msg string, attrs ...slog.Attr) {
	l := slog.Default()
	if !l.Enabled(ctx, level) {
		return
	}

	var pcs [1]uintptr
	// skip [runtime.Callers, log, log's caller]
	runtime.Callers(3, pcs[:])

	r := slog.NewRecord(time.Now(), level, msg, pcs[0])
	r.AddAttrs(attrs...)
	_ = l.Handler().Handle(ctx, r)
}
