package server

import (
	"bytes"
	"errors"
	"fmt"
	"io/ioutil"
	"net/http"
	"strings"

	hr "github.com/julienschmidt/httprouter"
	"github.com/sirupsen/logrus"
	"wuyrush.io/photo/common/logging"
	"wuyrush.io/photo/common/middleware"
	cst "wuyrush.io/photo/constants"
	pe "wuyrush.io/photo/errors"
)

const contentTypeText = "text/plain; charset=utf-8"

// HandlePhoto gates the request on authorization and dispatches it by method. Methods match case-insensitively.
func (s *photoServer) HandlePhoto() hr.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps hr.Params) {
		clog := logging.ForRequest(r.Context(), logging.WithFuncName()).WithField("httpMethod", r.Method)
		principal, err := s.authorize(r)
		if err != nil {
			clog.WithError(err).Warn("request not authorized")
			writeText(w, http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
			return
		}
		clog = clog.WithField(cst.LogFieldPrincipal, principal)
		id := photoID(r, ps)
		switch strings.ToLower(r.Method) {
		case "get":
			s.getPhoto(w, r, clog, principal, id)
		case "post":
			s.postPhoto(w, r, clog, principal)
		case "delete":
			s.deletePhoto(w, r, clog, principal, id)
		default:
			clog.WithError(pe.NewUnsupportedMethod(r.Method)).Warn("invalid operation requested")
			writeText(w, http.StatusBadRequest, cst.MsgInvalidOperation)
		}
	}
}

func (s *photoServer) authorize(r *http.Request) (string, *pe.Err) {
	if s.Auth == nil {
		return "", nil
	}
	return s.Auth.Authorize(r)
}

// getPhoto streams the photo to the caller. Anything but an ownership failure reads as absence.
func (s *photoServer) getPhoto(w http.ResponseWriter, r *http.Request, clog *logrus.Entry, principal, id string) {
	ctx := r.Context()
	clog = clog.WithField(cst.LogFieldPhoto, id)
	props, err := s.Photos.Lookup(ctx, principal, id)
	if err != nil {
		clog.WithField("trace", err.Trace()).Warn("error looking up photo")
		if err.Code == pe.ErrCodeUnauthorized {
			writeText(w, http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
			return
		}
		writeText(w, http.StatusNotFound, http.StatusText(http.StatusNotFound))
		return
	}
	contentType := props.ContentType
	if contentType == "" {
		contentType = cst.ContentTypePhoto
	}
	rec := middleware.Record(w)
	rec.Header().Set("Content-Type", contentType)
	n, err := s.Photos.WriteTo(ctx, id, rec)
	if err != nil {
		clog.WithField("trace", err.Trace()).Error("error streaming photo")
		// too late to change the status once the body started
		if !rec.Written() {
			writeText(rec, http.StatusNotFound, http.StatusText(http.StatusNotFound))
		}
		return
	}
	clog.WithField("bytes", n).Debug("photo served")
}

// postPhoto saves the request body as a new photo and answers with the canonical url of it
func (s *photoServer) postPhoto(w http.ResponseWriter, r *http.Request, clog *logrus.Entry, principal string) {
	clog.Info("attempting to upload image")
	body := http.MaxBytesReader(w, r.Body, s.Cfg.ReqBodySizeMaxByte)
	data, rerr := ioutil.ReadAll(body)
	if rerr != nil {
		err := pe.NewBadInput("error reading request body").WithCause(rerr)
		var tooLarge *http.MaxBytesError
		if errors.As(rerr, &tooLarge) {
			err = pe.NewOversized().WithCause(rerr)
		}
		clog.WithField("trace", err.Trace()).Warn("error receiving image")
		writeText(w, http.StatusBadRequest, cst.MsgSaveFailed)
		return
	}
	name, err := s.Photos.Save(r.Context(), principal, bytes.NewReader(data))
	if err != nil {
		clog.WithField("trace", err.Trace()).Error("error saving image")
		writeText(w, http.StatusBadRequest, cst.MsgSaveFailed)
		return
	}
	loc := canonicalURL(r, name, s.Cfg.TrustForwardedProto)
	w.Header().Set("Location", loc)
	writeText(w, http.StatusCreated, loc)
}

func (s *photoServer) deletePhoto(w http.ResponseWriter, r *http.Request, clog *logrus.Entry, principal, id string) {
	clog = clog.WithField(cst.LogFieldPhoto, id)
	err := s.Photos.Remove(r.Context(), principal, id)
	if err == nil {
		w.WriteHeader(http.StatusOK)
		return
	}
	clog.WithField("trace", err.Trace()).Warn("error deleting photo")
	switch err.Code {
	case pe.ErrCodeNotFound:
		writeText(w, http.StatusNotFound, http.StatusText(http.StatusNotFound))
	case pe.ErrCodeUnauthorized:
		writeText(w, http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
	case pe.ErrCodeDeleteFailed:
		writeText(w, http.StatusBadRequest, cst.MsgDeleteFailed)
	default:
		writeText(w, http.StatusBadRequest, http.StatusText(http.StatusBadRequest))
	}
}

// photoID returns the final path segment naming the photo. Requests reaching the dispatcher through the
// method-not-allowed fallback carry no params.
func photoID(r *http.Request, ps hr.Params) string {
	if id := ps.ByName("id"); id != "" {
		return id
	}
	if rest := strings.TrimPrefix(r.URL.Path, cst.RoutePhoto+"/"); rest != r.URL.Path {
		return rest
	}
	return ""
}

// canonicalURL builds the url of the named photo from the scheme and host the request arrived on
func canonicalURL(r *http.Request, name string, trustForwardedProto bool) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if trustForwardedProto {
		proto := strings.ToLower(strings.TrimSpace(strings.Split(r.Header.Get(cst.HeaderForwardProto), ",")[0]))
		if proto == "http" || proto == "https" {
			scheme = proto
		}
	}
	return fmt.Sprintf("%s://%s%s/%s", scheme, r.Host, cst.RoutePhoto, name)
}

func writeText(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", contentTypeText)
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(code)
	fmt.Fprint(w, msg)
}
