package server

import (
	"net/http"
	"strings"

	hr "github.com/julienschmidt/httprouter"
	"wuyrush.io/photo/common/middleware"
	cst "wuyrush.io/photo/constants"
)

// set up routes
func (s *photoServer) SetupMux() {
	r := hr.New()
	// the dispatcher answers unsupported methods itself, after the auth gate
	r.HandleOPTIONS = false
	photo := s.chain(s.HandlePhoto())
	for _, method := range []string{http.MethodGet, http.MethodPost, http.MethodDelete} {
		r.Handle(method, cst.RoutePhoto, photo)
		r.Handle(method, cst.RoutePhotoByID, photo)
	}
	r.MethodNotAllowed = notAllowed(middleware.Handler(photo))
	r.Handler(http.MethodGet, cst.RouteMetrics, s.Metrics.Handler())
	s.Router = r
}

// notAllowed hands requests for photo paths to photo and answers 405 for every other route
func notAllowed(photo http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == cst.RoutePhoto || strings.HasPrefix(r.URL.Path, cst.RoutePhoto+"/") {
			photo.ServeHTTP(w, r)
			return
		}
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})
}

func (s *photoServer) chain(h hr.Handle) hr.Handle {
	return middleware.Chain(
		h,
		s.Metrics.Instrument(),
		middleware.RateLimiter(s.Cfg.RateBurst, s.Cfg.RateLimit),
		middleware.AccessLog(),
		middleware.RequestID(),
		middleware.PanicRecoverer(),
	)
}
