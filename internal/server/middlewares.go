package server

import (
	"bytes"
	"direct-messages-api/internal/logging"
	"errors"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/valyala/fastjson"
	"go.uber.org/zap"
	"io"
	"mime"
	"net/http"
	"runtime/debug"
	"strconv"
	"time"
)

// enforceJSON is a middleware pre-processing requests with a body
// it checks for application/json Content-Type header, body size and valid json body
// it also sets blank Content-Type header to application/json
func enforceJSON(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// check "Content-Type" header
			contentType := r.Header.Get("Content-Type")
			if contentType != "" {
				mt, _, err := mime.ParseMediaType(contentType)
				if err != nil {
					writeError(w, http.StatusBadRequest, "Malformed Content-Type header")
					return
				}

				if mt != "application/json" {
					writeError(w, http.StatusUnsupportedMediaType, "Content-Type header must be application/json")
					return
				}
			} else {
				r.Header.Set("Content-Type", "application/json")
			}

			// check if provided request body is valid JSON
			body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBytes))
			if err != nil {
				var tooLarge *http.MaxBytesError
				if errors.As(err, &tooLarge) {
					writeError(w, http.StatusRequestEntityTooLarge, "Request body is too large")
					return
				}
				writeError(w, http.StatusBadRequest, "Can not read request body")
				return
			}

			if len(body) == 0 {
				writeError(w, http.StatusBadRequest, "No body provided")
				return
			}

			if err := fastjson.ValidateBytes(body); err != nil {
				writeError(w, http.StatusBadRequest, "Malformed JSON")
				return
			}

			r.Body = io.NopCloser(bytes.NewReader(body))

			next.ServeHTTP(w, r)
		})
	}
}

// numericID rejects requests whose path parameter name is not an integer
func numericID(name string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := chi.URLParam(r, name)
			if _, err := strconv.ParseInt(raw, 10, 64); err != nil {
				writeError(w, http.StatusBadRequest, "Passed ID "+raw+" must be a number")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// log assigns request id, stores it in request context and logs the request once it is served
func log(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := uuid.NewString()
			start := time.Now()

			ctx := logging.WithRequestID(r.Context(), id)
			rwID := r.WithContext(ctx)

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			ww.Header().Set("X-Request-ID", id)

			next.ServeHTTP(ww, rwID)

			logger.Info("incoming http request",
				zap.String("id", id),
				zap.String("method", r.Method),
				zap.String("uri", r.URL.RequestURI()),
				zap.String("ip", r.RemoteAddr),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}

// recoverer turns panics into 500 responses with the standard error envelope
func recoverer(logger *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					logging.FromContext(r.Context(), logger).Errorw("Panic recovered",
						"error", rec,
						"method", r.Method,
						"path", r.URL.Path,
						"stack", string(debug.Stack()),
					)
					writeError(w, http.StatusInternalServerError, internalErrorMessage)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
