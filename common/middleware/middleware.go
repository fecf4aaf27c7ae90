package middleware

import (
	"net/http"
	"time"

	hr "github.com/julienschmidt/httprouter"
	"github.com/segmentio/ksuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
	"wuyrush.io/photo/common/logging"
	cst "wuyrush.io/photo/constants"
)

type Middleware func(hr.Handle) hr.Handle

// Chain composites given handler and middlewares. The last middleware given ends up outermost.
func Chain(h hr.Handle, ms ...Middleware) hr.Handle {
	for _, m := range ms {
		h = m(h)
	}
	return h
}

// Handler adapts a hr.Handle to http.Handler, e.g. for router-level fallbacks that carry no params
func Handler(h hr.Handle) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h(w, r, nil)
	})
}

// PanicRecoverer recovers from panic of underlying handlers and answers 500 if nothing was written yet
func PanicRecoverer() Middleware {
	return func(h hr.Handle) hr.Handle {
		return func(w http.ResponseWriter, r *http.Request, p hr.Params) {
			rec := Record(w)
			defer func() {
				if reason := recover(); reason != nil {
					logging.ForRequest(r.Context(), log.WithField("panicReason", reason)).
						Error("got panic from underlying handler")
					if rec.Status == 0 {
						http.Error(rec, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
					}
				}
			}()
			h(rec, r, p)
		}
	}
}

// RequestID tags each request with an id, reusing the caller-supplied one when present
func RequestID() Middleware {
	return func(h hr.Handle) hr.Handle {
		return func(w http.ResponseWriter, r *http.Request, p hr.Params) {
			id := r.Header.Get(cst.HeaderRequestID)
			if id == "" {
				id = ksuid.New().String()
			}
			w.Header().Set(cst.HeaderRequestID, id)
			h(w, r.WithContext(logging.WithRequestID(r.Context(), id)), p)
		}
	}
}

// AccessLog logs one line per request once the underlying handler returns
func AccessLog() Middleware {
	return func(h hr.Handle) hr.Handle {
		return func(w http.ResponseWriter, r *http.Request, p hr.Params) {
			start, rec := time.Now(), Record(w)
			h(rec, r, p)
			logging.ForRequest(r.Context(), log.WithFields(log.Fields{
				"httpMethod": r.Method,
				"path":       r.URL.Path,
				"status":     rec.StatusOrOK(),
				"bytes":      rec.Bytes,
				"latencyMs":  time.Since(start).Milliseconds(),
			})).Info("request served")
		}
	}
}

// RateLimiter limits underlying handler call rate with given token bucket config. A non-positive rate
// disables limiting.
func RateLimiter(burst int, r float64) Middleware {
	if r <= 0 {
		return func(h hr.Handle) hr.Handle { return h }
	}
	limiter := rate.NewLimiter(rate.Limit(r), burst)
	return func(h hr.Handle) hr.Handle {
		return func(w http.ResponseWriter, req *http.Request, p hr.Params) {
			if !limiter.Allow() {
				http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
				return
			}
			h(w, req, p)
		}
	}
}

// ResponseRecorder remembers the status code and body size written through it
type ResponseRecorder struct {
	http.ResponseWriter
	Status int
	Bytes  int64
}

// Record wraps w into a *ResponseRecorder, or returns w itself if it is one already
func Record(w http.ResponseWriter) *ResponseRecorder {
	if rec, ok := w.(*ResponseRecorder); ok {
		return rec
	}
	return &ResponseRecorder{ResponseWriter: w}
}

func (rec *ResponseRecorder) WriteHeader(code int) {
	if rec.Status == 0 {
		rec.Status = code
	}
	rec.ResponseWriter.WriteHeader(code)
}

func (rec *ResponseRecorder) Write(b []byte) (int, error) {
	if rec.Status == 0 {
		rec.Status = http.StatusOK
	}
	n, err := rec.ResponseWriter.Write(b)
	rec.Bytes += int64(n)
	return n, err
}

// Written reports whether anything has been sent to the client
func (rec *ResponseRecorder) Written() bool {
	return rec.Status != 0
}

// StatusOrOK returns the recorded status, defaulting to 200 like net/http does for handlers writing nothing
func (rec *ResponseRecorder) StatusOrOK() int {
	if rec.Status == 0 {
		return http.StatusOK
	}
	return rec.Status
}
