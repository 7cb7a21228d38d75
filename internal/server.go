package internal

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/flexpro/backend/internal/athletes"
	"github.com/flexpro/backend/internal/auth"
	"github.com/flexpro/backend/internal/calculator"
	"github.com/flexpro/backend/internal/catalog"
	"github.com/flexpro/backend/internal/config"
	"github.com/flexpro/backend/internal/db"
	"github.com/flexpro/backend/internal/diet"
	"github.com/flexpro/backend/internal/middleware"
	"github.com/flexpro/backend/internal/progress"
	"github.com/flexpro/backend/internal/supplements"
	"github.com/flexpro/backend/internal/telemetry/metrics"
	"github.com/flexpro/backend/internal/telemetry/tracing"
	"github.com/flexpro/backend/internal/training"
	"github.com/flexpro/backend/internal/users"
	"github.com/flexpro/backend/pkg"

	"github.com/IBM/pgxpoolprometheus"
	"github.com/getsentry/sentry-go"
	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redis_rate/v9"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
)

type Server struct {
	httpServer        *http.Server
	metricsHttpServer *http.Server
	versionInfo       string

	config       *config.Config
	dbPool       *pgxpool.Pool
	redisClient  *redis.Client
	tokenService *auth.TokenService
	usersRepo    *users.Repo

	// telemetry
	metricsManager *metrics.Manager
	promRegistry   *prometheus.Registry
	otelShutdown   func()
}

type NewServerParams struct {
	Config                  *config.Config
	JWTSecret               string
	RedisPassword           string
	VersionInfo             string
	HoneycombTracingEnabled bool
}

func NewServer(
	ctx context.Context,
	params NewServerParams,
) (*Server, error) {
	dbPool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
		DBHost:         params.Config.PostgresHost,
		DBPort:         params.Config.PostgresPort,
		DBName:         params.Config.PostgresDBName,
		TracingEnabled: params.HoneycombTracingEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("new db pool: %w", err)
	}

	if err := dbPool.Ping(ctx); err != nil {
		log.Warnf("failed to ping db: %s", err)
	}

	pgxpoolCollector := pgxpoolprometheus.NewCollector(
		dbPool,
		map[string]string{"db_name": "flexpro_db"},
	)
	promRegistry := metrics.SetupPrometheus(pgxpoolCollector)
	metricsManager := metrics.NewManager("flexpro", "backend", promRegistry)
	metricsManager.GaugeLifeSignal.Set(0)

	rdb := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(params.Config.RedisHost, params.Config.RedisPort),
		Password: params.RedisPassword,
		DB:       0, // use default DB
	})

	rdbStatus := rdb.Ping(ctx)
	if err := rdbStatus.Err(); err != nil {
		log.Errorf("--> failed to ping redis: %s", err)
	} else {
		log.Debugf("redis ping: %s", rdbStatus.Val())
	}

	otelShutdown, err := tracing.HoneycombSetup(params.HoneycombTracingEnabled, "flexpro-backend")
	if err != nil {
		return nil, err
	}

	tokenService := auth.NewTokenService(
		params.JWTSecret,
		time.Duration(params.Config.AccessTokenTTLMinutes)*time.Minute,
		time.Duration(params.Config.RefreshTokenTTLDays)*24*time.Hour,
	)

	return &Server{
		versionInfo:  params.VersionInfo,
		config:       params.Config,
		dbPool:       dbPool,
		redisClient:  rdb,
		tokenService: tokenService,
		usersRepo:    users.NewRepo(dbPool),

		metricsManager: metricsManager,
		promRegistry:   promRegistry,
		otelShutdown:   otelShutdown,
	}, nil
}

func (s *Server) routerSetup() *mux.Router {
	r := mux.NewRouter()
	r.Use(otelmux.Middleware("flexpro-router"))

	r.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		pkg.WriteTextResponseOK(w, "flexpro backend")
	}).Methods("GET")
	r.HandleFunc("/version", func(w http.ResponseWriter, _ *http.Request) {
		pkg.WriteTextResponseOK(w, s.versionInfo)
	}).Methods("GET")

	api := r.PathPrefix("/api/v1").Subrouter()

	authHandler := users.NewAuthHandler(s.usersRepo, s.tokenService, s.metricsManager)
	authRouter := api.PathPrefix("/auth").Subrouter()
	authRouter.Use(middleware.RateLimit(
		redis_rate.NewLimiter(s.redisClient),
		"auth",
		s.config.AuthRateLimitAllowedPerMin,
		s.metricsManager,
	))
	authRouter.HandleFunc("/register", authHandler.HandleRegister).Methods("POST", "OPTIONS")
	authRouter.HandleFunc("/login", authHandler.HandleLogin).Methods("POST", "OPTIONS")
	authRouter.HandleFunc("/refresh", authHandler.HandleRefresh).Methods("POST", "OPTIONS")

	usersHandler := users.NewHandler(s.usersRepo)
	api.HandleFunc("/users/me", usersHandler.HandleGetProfile).Methods("GET", "OPTIONS")
	api.HandleFunc("/users/me", usersHandler.HandleUpdateProfile).Methods("PUT", "OPTIONS")
	api.HandleFunc("/users/me/password", usersHandler.HandleChangePassword).Methods("POST", "OPTIONS")
	api.HandleFunc("/users/me/stats", usersHandler.HandleStats).Methods("GET", "OPTIONS")

	athletesHandler := athletes.NewHandler(athletes.NewRepo(s.dbPool), s.metricsManager)
	api.HandleFunc("/athletes", athletesHandler.HandleCreate).Methods("POST", "OPTIONS")
	api.HandleFunc("/athletes", athletesHandler.HandleList).Methods("GET", "OPTIONS")
	api.HandleFunc("/athletes/search", athletesHandler.HandleSearch).Methods("GET", "OPTIONS")
	api.HandleFunc("/athletes/{id}", athletesHandler.HandleGet).Methods("GET", "OPTIONS")
	api.HandleFunc("/athletes/{id}", athletesHandler.HandleUpdate).Methods("PUT", "OPTIONS")
	api.HandleFunc("/athletes/{id}", athletesHandler.HandleDelete).Methods("DELETE", "OPTIONS")
	api.HandleFunc("/athletes/{id}/toggle-active", athletesHandler.HandleToggleActive).Methods("POST", "OPTIONS")
	api.HandleFunc("/athletes/{id}/nutrition", athletesHandler.HandleNutrition).Methods("GET", "OPTIONS")
	api.HandleFunc("/athletes/{id}/injuries", athletesHandler.HandleAddInjury).Methods("POST", "OPTIONS")
	api.HandleFunc("/athletes/{id}/injuries", athletesHandler.HandleListInjuries).Methods("GET", "OPTIONS")
	api.HandleFunc("/athletes/injuries/{injuryID}", athletesHandler.HandleUpdateInjury).Methods("PUT", "OPTIONS")
	api.HandleFunc("/athletes/injuries/{injuryID}", athletesHandler.HandleDeleteInjury).Methods("DELETE", "OPTIONS")
	api.HandleFunc("/athletes/{id}/measurements", athletesHandler.HandleAddMeasurement).Methods("POST", "OPTIONS")
	api.HandleFunc("/athletes/{id}/measurements", athletesHandler.HandleListMeasurements).Methods("GET", "OPTIONS")

	calculatorHandler := calculator.NewHandler(s.metricsManager)
	api.HandleFunc("/calculator/bmr", calculatorHandler.HandleBMR).Methods("POST", "OPTIONS")
	api.HandleFunc("/calculator/tdee", calculatorHandler.HandleTDEE).Methods("POST", "OPTIONS")
	api.HandleFunc("/calculator/macros", calculatorHandler.HandleMacros).Methods("POST", "OPTIONS")
	api.HandleFunc("/calculator/bmi", calculatorHandler.HandleBMI).Methods("POST", "OPTIONS")
	api.HandleFunc("/calculator/ideal-weight", calculatorHandler.HandleIdealWeight).Methods("POST", "OPTIONS")
	api.HandleFunc("/calculator/body-fat", calculatorHandler.HandleBodyFat).Methods("POST", "OPTIONS")
	api.HandleFunc("/calculator/water-intake", calculatorHandler.HandleWaterIntake).Methods("POST", "OPTIONS")
	api.HandleFunc("/calculator/one-rm", calculatorHandler.HandleOneRM).Methods("POST", "OPTIONS")
	api.HandleFunc("/calculator/working-weight", calculatorHandler.HandleWorkingWeight).Methods("POST", "OPTIONS")
	api.HandleFunc("/calculator/progression", calculatorHandler.HandleProgression).Methods("POST", "OPTIONS")
	api.HandleFunc("/calculator/distribute-macros", calculatorHandler.HandleDistributeMacros).Methods("POST", "OPTIONS")
	api.HandleFunc("/calculator/training-split", calculatorHandler.HandleTrainingSplit).Methods("GET", "OPTIONS")
	api.HandleFunc("/calculator/rep-ranges", calculatorHandler.HandleRepRanges).Methods("GET", "OPTIONS")

	foodsHandler := catalog.NewFoodsHandler(catalog.NewFoodsRepo(s.dbPool))
	api.HandleFunc("/foods/categories", foodsHandler.HandleCategories).Methods("GET", "OPTIONS")
	api.HandleFunc("/foods/categories/with-foods", foodsHandler.HandleCategoriesWithFoods).Methods("GET", "OPTIONS")
	api.HandleFunc("/foods/search", foodsHandler.HandleSearch).Methods("GET", "OPTIONS")
	api.HandleFunc("/foods/category/{categoryID}", foodsHandler.HandleByCategory).Methods("GET", "OPTIONS")
	api.HandleFunc("/foods/filter/high-protein", foodsHandler.HandleHighProtein).Methods("GET", "OPTIONS")
	api.HandleFunc("/foods/filter/low-calorie", foodsHandler.HandleLowCalorie).Methods("GET", "OPTIONS")
	api.HandleFunc("/foods/custom", foodsHandler.HandleCreateCustom).Methods("POST", "OPTIONS")
	api.HandleFunc("/foods/{id}", foodsHandler.HandleGet).Methods("GET", "OPTIONS")
	api.HandleFunc("/foods/{id}/calculate", foodsHandler.HandleCalculate).Methods("GET", "OPTIONS")

	exercisesHandler := catalog.NewExercisesHandler(catalog.NewExercisesRepo(s.dbPool))
	api.HandleFunc("/exercises/muscle-groups", exercisesHandler.HandleMuscleGroups).Methods("GET", "OPTIONS")
	api.HandleFunc("/exercises/muscle-groups/with-exercises", exercisesHandler.HandleMuscleGroupsWithExercises).Methods("GET", "OPTIONS")
	api.HandleFunc("/exercises/search", exercisesHandler.HandleSearch).Methods("GET", "OPTIONS")
	api.HandleFunc("/exercises/muscle-group/{muscleGroupID}", exercisesHandler.HandleByMuscleGroup).Methods("GET", "OPTIONS")
	api.HandleFunc("/exercises/type/{type}", exercisesHandler.HandleByType).Methods("GET", "OPTIONS")
	api.HandleFunc("/exercises/filter/compound", exercisesHandler.HandleCompound).Methods("GET", "OPTIONS")
	api.HandleFunc("/exercises/custom", exercisesHandler.HandleCreateCustom).Methods("POST", "OPTIONS")
	api.HandleFunc("/exercises/{id}", exercisesHandler.HandleGet).Methods("GET", "OPTIONS")

	supplementsCatalogHandler := catalog.NewSupplementsHandler(catalog.NewSupplementsRepo(s.dbPool))
	api.HandleFunc("/supplements/categories", supplementsCatalogHandler.HandleCategories).Methods("GET", "OPTIONS")
	api.HandleFunc("/supplements/search", supplementsCatalogHandler.HandleSearch).Methods("GET", "OPTIONS")
	api.HandleFunc("/supplements/category/{categoryID}", supplementsCatalogHandler.HandleByCategory).Methods("GET", "OPTIONS")
	api.HandleFunc("/supplements/{id}", supplementsCatalogHandler.HandleGet).Methods("GET", "OPTIONS")

	dietHandler := diet.NewHandler(diet.NewRepo(s.dbPool), s.metricsManager)
	api.HandleFunc("/diet-plans", dietHandler.HandleCreate).Methods("POST", "OPTIONS")
	api.HandleFunc("/diet-plans/athlete/{athleteID}", dietHandler.HandleListByAthlete).Methods("GET", "OPTIONS")
	api.HandleFunc("/diet-plans/athlete/{athleteID}/active", dietHandler.HandleGetActive).Methods("GET", "OPTIONS")
	api.HandleFunc("/diet-plans/suggest-foods", dietHandler.HandleSuggestFoods).Methods("GET", "OPTIONS")
	api.HandleFunc("/diet-plans/{id}", dietHandler.HandleGet).Methods("GET", "OPTIONS")
	api.HandleFunc("/diet-plans/{id}", dietHandler.HandleUpdate).Methods("PUT", "OPTIONS")
	api.HandleFunc("/diet-plans/{id}", dietHandler.HandleDelete).Methods("DELETE", "OPTIONS")
	api.HandleFunc("/diet-plans/{id}/activate", dietHandler.HandleActivate).Methods("POST", "OPTIONS")
	api.HandleFunc("/diet-plans/{id}/macros", dietHandler.HandleMacros).Methods("GET", "OPTIONS")
	api.HandleFunc("/diet-plans/{id}/meals-summary", dietHandler.HandleMealsSummary).Methods("GET", "OPTIONS")
	api.HandleFunc("/diet-plans/{id}/analyze", dietHandler.HandleAnalyze).Methods("GET", "OPTIONS")
	api.HandleFunc("/diet-plans/{id}/items", dietHandler.HandleAddItem).Methods("POST", "OPTIONS")
	api.HandleFunc("/diet-plans/{id}/items/reorder", dietHandler.HandleReorderItems).Methods("POST", "OPTIONS")
	api.HandleFunc("/diet-plans/items/{itemID}", dietHandler.HandleUpdateItem).Methods("PUT", "OPTIONS")
	api.HandleFunc("/diet-plans/items/{itemID}", dietHandler.HandleDeleteItem).Methods("DELETE", "OPTIONS")

	trainingHandler := training.NewHandler(training.NewRepo(s.dbPool), s.metricsManager)
	api.HandleFunc("/training-plans", trainingHandler.HandleCreate).Methods("POST", "OPTIONS")
	api.HandleFunc("/training-plans/athlete/{athleteID}", trainingHandler.HandleListByAthlete).Methods("GET", "OPTIONS")
	api.HandleFunc("/training-plans/athlete/{athleteID}/active", trainingHandler.HandleGetActive).Methods("GET", "OPTIONS")
	api.HandleFunc("/training-plans/athlete/{athleteID}/restricted-exercises", trainingHandler.HandleRestrictedExercises).Methods("GET", "OPTIONS")
	api.HandleFunc("/training-plans/{id}", trainingHandler.HandleGet).Methods("GET", "OPTIONS")
	api.HandleFunc("/training-plans/{id}", trainingHandler.HandleUpdate).Methods("PUT", "OPTIONS")
	api.HandleFunc("/training-plans/{id}", trainingHandler.HandleDelete).Methods("DELETE", "OPTIONS")
	api.HandleFunc("/training-plans/{id}/activate", trainingHandler.HandleActivate).Methods("POST", "OPTIONS")
	api.HandleFunc("/training-plans/{id}/days", trainingHandler.HandleAddDay).Methods("POST", "OPTIONS")
	api.HandleFunc("/training-plans/days/{dayID}", trainingHandler.HandleUpdateDay).Methods("PUT", "OPTIONS")
	api.HandleFunc("/training-plans/days/{dayID}", trainingHandler.HandleDeleteDay).Methods("DELETE", "OPTIONS")
	api.HandleFunc("/training-plans/days/{dayID}/items", trainingHandler.HandleAddItem).Methods("POST", "OPTIONS")
	api.HandleFunc("/training-plans/days/{dayID}/items/reorder", trainingHandler.HandleReorderItems).Methods("POST", "OPTIONS")
	api.HandleFunc("/training-plans/items/{itemID}", trainingHandler.HandleUpdateItem).Methods("PUT", "OPTIONS")
	api.HandleFunc("/training-plans/items/{itemID}", trainingHandler.HandleDeleteItem).Methods("DELETE", "OPTIONS")

	supplementsHandler := supplements.NewHandler(supplements.NewRepo(s.dbPool), s.metricsManager)
	api.HandleFunc("/supplement-plans", supplementsHandler.HandleCreate).Methods("POST", "OPTIONS")
	api.HandleFunc("/supplement-plans/athlete/{athleteID}", supplementsHandler.HandleListByAthlete).Methods("GET", "OPTIONS")
	api.HandleFunc("/supplement-plans/athlete/{athleteID}/active", supplementsHandler.HandleGetActive).Methods("GET", "OPTIONS")
	api.HandleFunc("/supplement-plans/{id}", supplementsHandler.HandleGet).Methods("GET", "OPTIONS")
	api.HandleFunc("/supplement-plans/{id}", supplementsHandler.HandleUpdate).Methods("PUT", "OPTIONS")
	api.HandleFunc("/supplement-plans/{id}", supplementsHandler.HandleDelete).Methods("DELETE", "OPTIONS")
	api.HandleFunc("/supplement-plans/{id}/activate", supplementsHandler.HandleActivate).Methods("POST", "OPTIONS")
	api.HandleFunc("/supplement-plans/{id}/items", supplementsHandler.HandleAddItem).Methods("POST", "OPTIONS")
	api.HandleFunc("/supplement-plans/{id}/items/reorder", supplementsHandler.HandleReorderItems).Methods("POST", "OPTIONS")
	api.HandleFunc("/supplement-plans/items/{itemID}", supplementsHandler.HandleUpdateItem).Methods("PUT", "OPTIONS")
	api.HandleFunc("/supplement-plans/items/{itemID}", supplementsHandler.HandleDeleteItem).Methods("DELETE", "OPTIONS")

	progressHandler := progress.NewHandler(progress.NewRepo(s.dbPool))
	api.HandleFunc("/progress/athlete/{athleteID}", progressHandler.HandleAdd).Methods("POST", "OPTIONS")
	api.HandleFunc("/progress/athlete/{athleteID}", progressHandler.HandleListByAthlete).Methods("GET", "OPTIONS")
	api.HandleFunc("/progress/{id}", progressHandler.HandleGet).Methods("GET", "OPTIONS")
	api.HandleFunc("/progress/{id}", progressHandler.HandleDelete).Methods("DELETE", "OPTIONS")

	// all the rest - unhandled paths
	r.HandleFunc("/{unknown}", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}).Methods("GET", "POST", "PUT", "DELETE", "OPTIONS").Name("unknown")

	authMiddleware := middleware.NewAuthMiddlewareHandler(s.tokenService, s.usersRepo)

	r.Use(middleware.PanicRecovery(s.metricsManager))
	r.Use(middleware.LogRequest())
	r.Use(middleware.RequestMetrics(s.metricsManager))
	r.Use(middleware.Cors(s.config.CorsAllowedOrigins))
	r.Use(authMiddleware.AuthCheck())
	r.Use(middleware.DrainAndCloseRequest())

	return r
}

func (s *Server) Serve(_ context.Context, host string, port int) {
	router := s.routerSetup()

	ipAndPort := net.JoinHostPort(host, strconv.Itoa(port))
	s.httpServer = &http.Server{
		Handler:      router,
		Addr:         ipAndPort,
		WriteTimeout: time.Minute,
		ReadTimeout:  time.Minute,
		ConnState:    s.connStateMetrics,
	}

	metricsRouter := mux.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.HandlerFor(
		s.promRegistry,
		promhttp.HandlerOpts{},
	))
	metricsAddr := net.JoinHostPort(s.config.PrometheusMetricsHost, s.config.PrometheusMetricsPort)
	s.metricsHttpServer = &http.Server{
		Addr:    metricsAddr,
		Handler: metricsRouter,
	}

	go func() {
		log.Infof(" > server listening on: [%s]", ipAndPort)
		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("main service, listen and serve: %s", err)
		}
	}()

	go func() {
		log.Debugf(" > metrics listening on: [%s]", metricsAddr)
		err := s.metricsHttpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("metrics service, listen and serve: %s", err)
		}
	}()

	s.metricsManager.GaugeLifeSignal.Set(1)
}

func (s *Server) GracefulShutdown() {
	log.Debug("graceful shutdown initiated ...")

	s.metricsManager.GaugeLifeSignal.Set(0)

	s.otelShutdown()
	log.Trace("otel shut down ...")

	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			log.Errorf("failed to close redis client conn: %s", err)
		}
	}

	if s.dbPool != nil {
		log.Debugln("closing db pool ...")
		s.dbPool.Close() // blocking operation
		log.Debugln("db pool closed")
	}

	if ok := sentry.Flush(5 * time.Second); ok {
		log.Debugf("sentry flush ok: %t", ok)
	}

	maxWaitDuration := time.Second * 15
	ctx, timeoutCancel := context.WithTimeout(context.Background(), maxWaitDuration)
	defer timeoutCancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		log.Error(" >>> failed to gracefully shutdown http server")
	}
	log.Warnln("server shut down")

	if err := s.metricsHttpServer.Shutdown(ctx); err != nil {
		log.Error(" >>> failed to gracefully shutdown metrics http server")
	}
	log.Warnln("metrics server shut down")
}

func (s *Server) connStateMetrics(_ net.Conn, state http.ConnState) {
	switch state {
	case http.StateNew:
		s.metricsManager.GaugeRequests.Add(1)
	case http.StateClosed:
		s.metricsManager.GaugeRequests.Add(-1)
	default:
		// do nothing
	}
}
