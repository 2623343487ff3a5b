package router

import (
	"net/http"

	"family-health-records/internal/docs"
	"family-health-records/internal/domain/families"
	"family-health-records/internal/domain/records"
	"family-health-records/internal/domain/sharegrants"
	"family-health-records/internal/middleware"
	"family-health-records/internal/platform/logger"
	"family-health-records/internal/ports/auth"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jmoiron/sqlx"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Options struct {
	AuthVerifier auth.AuthVerifier // puede ser nil (modo dev)

	// Opcional: si viene Stores se usa tal cual; si no, DB => Postgres; si no, in-memory.
	Stores *Stores
	DB     *sqlx.DB

	Logger logger.Logger

	CORSAllowedOrigins []string
	ShareLinkBaseURL   string
}

// App expone el handler y los services que main necesita (jobs de fondo).
type App struct {
	Handler http.Handler
	Grants  *sharegrants.Service
}

func NewRouter(opts Options) http.Handler {
	return New(opts).Handler
}

func New(opts Options) *App {
	log := opts.Logger
	if log == nil {
		log = logger.Discard()
	}

	origins := opts.CORSAllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Recover(log))
	r.Use(middleware.RequestLogger(log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{
			"Accept", "Authorization", "Content-Type",
			middleware.HeaderShareLink, middleware.HeaderDebugUserID, middleware.HeaderDebugUserEmail,
		},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))

	r.Use(middleware.AuthContext(opts.AuthVerifier))
	r.Use(middleware.ShareLink)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
		httpSwagger.InstanceName(docs.SwaggerInfo.InstanceName()),
	))

	var stores Stores
	switch {
	case opts.Stores != nil:
		stores = opts.Stores.withDefaults()
	case opts.DB != nil:
		stores = PostgresStores(opts.DB)
	default:
		stores = MemoryStores()
	}

	// Services por módulo
	familiesSvc := families.NewService(stores.Families)
	grantsSvc := sharegrants.NewService(stores.ShareGrants, familiesSvc, log)
	recordsSvc := records.NewService(stores.Records)

	// Rutas por módulo
	families.RegisterRoutes(r, familiesSvc, grantsSvc)
	records.RegisterRoutes(r, recordsSvc, familiesSvc, grantsSvc)
	sharegrants.RegisterRoutes(r, grantsSvc, opts.ShareLinkBaseURL)

	return &App{Handler: r, Grants: grantsSvc}
}
