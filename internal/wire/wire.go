package wire

import (
	"net/http"

	"bar-booking/internal/adaptor"
	"bar-booking/internal/data/repository"
	"bar-booking/internal/usecase"
	"bar-booking/pkg/middleware"
	"bar-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type App struct {
	Router  *chi.Mux
	Service *usecase.Service
}

func Wiring(repo *repository.Repository, cache usecase.TokenCache, config *utils.Config, logger *zap.Logger) *App {
	service := usecase.NewService(repo, cache, config, logger)
	handler := adaptor.NewHandler(service, logger)

	router := setupRouter(handler, config, logger)

	return &App{
		Router:  router,
		Service: service,
	}
}

func setupRouter(
	handler *adaptor.Handler,
	config *utils.Config,
	logger *zap.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recover(logger))
	r.Use(middleware.CORS())

	wireBooking(r, handler.Booking, config, logger)
	wireCheckIn(r, handler.CheckIn, config, logger)
	wireTable(r, handler.Table)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return r
}
