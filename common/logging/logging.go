package logging

import (
	"context"
	"io"
	"os"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"
	log "github.com/sirupsen/logrus"
	cst "wuyrush.io/photo/constants"
)

// ServiceFormatter is a Formatter that:
// 1. logs the unix time in milliseconds;
// 2. logs specified service/service component name;
type ServiceFormatter struct {
	svcName string
	log.Formatter
}

// passing a mutated *log.Entry value to downstream formatter has been seen to result in logs with panic
// level and empty message, so only Data is touched here
func (f *ServiceFormatter) Format(e *log.Entry) ([]byte, error) {
	e.Data["epochTimeMillis"] = e.Time.UnixNano() / int64(time.Millisecond)
	e.Data["service"] = f.svcName
	return f.Formatter.Format(e)
}

// SetupLog setups service-specific logging.
func SetupLog(name string, verbose bool) {
	SetupLogTo(os.Stdout, name, verbose)
}

// SetupLogTo is SetupLog with a custom sink
func SetupLogTo(out io.Writer, name string, verbose bool) {
	log.SetOutput(out)
	// use unix timestamp instead of zonal one
	f := &ServiceFormatter{
		svcName:   name,
		Formatter: &log.JSONFormatter{DisableTimestamp: true},
	}
	log.SetFormatter(f)
	log.SetLevel(log.InfoLevel)
	if verbose {
		log.SetLevel(log.DebugLevel)
	}
}

// WithFuncName returns a *logrus.Entry marked with the name of function calling  WithFuncName
func WithFuncName() *logrus.Entry {
	// get the pc of the function that calls the current function
	pc, _, _, ok := runtime.Caller(1)
	var funcName string
	if ok {
		frs := runtime.CallersFrames([]uintptr{pc})
		fr, _ := frs.Next()
		funcName = fr.Function
	}
	return log.WithField(cst.LogFieldFuncName, funcName)
}

type ctxKeyRequestID struct{}

// WithRequestID returns a copy of ctx carrying the given request id
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKeyRequestID{}, id)
}

// RequestIDFrom returns the request id carried by ctx, or "" if there is none
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(ctxKeyRequestID{}).(string)
	return id
}

// ForRequest marks the given entry with the request id carried by ctx, if any
func ForRequest(ctx context.Context, e *logrus.Entry) *logrus.Entry {
	if id := RequestIDFrom(ctx); id != "" {
		return e.WithField(cst.LogFieldRequestID, id)
	}
	return e
}
