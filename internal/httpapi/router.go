package httpapi

import (
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"staffquote/internal/service"
)

const maxJSONBodyBytes int64 = 1 << 20

type Options struct {
	CORSAllowedOrigins []string
	AllowAnyCORSOrigin bool
	// Closer is released by API.Close, typically the repository.
	Closer io.Closer
}

type API struct {
	service *service.Service
	log     zerolog.Logger
	router  chi.Router
	closer  io.Closer
}

func NewRouter(svc *service.Service, opts Options, log zerolog.Logger) *API {
	api := &API{
		service: svc,
		log:     log.With().Str("component", "httpapi").Logger(),
		router:  chi.NewRouter(),
		closer:  opts.Closer,
	}
	api.setupMiddleware(opts)
	api.setupRoutes()
	return api
}

func (a *API) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.router.ServeHTTP(w, r)
}

func (a *API) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}

func (a *API) setupMiddleware(opts Options) {
	origins := opts.CORSAllowedOrigins
	if opts.AllowAnyCORSOrigin {
		origins = []string{"*"}
	}

	a.router.Use(middleware.RequestID)
	a.router.Use(middleware.RealIP)
	a.router.Use(a.loggingMiddleware)
	a.router.Use(middleware.Recoverer)
	a.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "Authorization"},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         300,
	}))
}

func (a *API) setupRoutes() {
	a.router.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		a.notFound(w)
	})
	a.router.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		a.methodNotAllowed(w)
	})

	a.router.Get("/healthz", a.healthz)
	a.router.Route("/api", func(r chi.Router) {
		r.Route("/professionals", a.professionalRoutes)
		r.Route("/offers", a.offerRoutes)
		r.Route("/projects", a.projectRoutes)
		r.Get("/calendar/weeks", a.handleCalendarWeeks)
		r.Get("/calendar/holidays", a.handleCalendarHolidays)
	})
}

func (a *API) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		event := a.log.Info()
		if ww.Status() >= http.StatusInternalServerError {
			event = a.log.Error()
		}
		event.
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("http request")
	})
}
