package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/semanticallynull/tripstats-backend/analytics"
	"github.com/semanticallynull/tripstats-backend/internal/middleware"
	"github.com/semanticallynull/tripstats-backend/internal/o11y"
)

const (
	defaultLimit = 20
	maxLimit     = 500
)

// Counter reports how many rows a table holds.
type Counter interface {
	Count(ctx context.Context) (int, error)
}

type API struct {
	r        *gin.Engine
	ar       *analytics.Repository
	stations Counter
	trips    Counter
}

func New(ar *analytics.Repository, stations, trips Counter, obs *o11y.Observability, metricsUsername, metricsPassword string) *API {
	a := &API{
		r:        gin.New(),
		ar:       ar,
		stations: stations,
		trips:    trips,
	}

	a.r.Use(gin.Recovery())
	a.r.Use(middleware.Tracing())
	a.r.Use(middleware.Logging(obs.Logger))
	a.r.Use(middleware.Metrics(obs.Registry))

	a.r.GET("/health", a.healthHandler)

	metrics := promhttp.HandlerFor(obs.Registry, promhttp.HandlerOpts{})
	if metricsUsername != "" {
		a.r.GET("/metrics", gin.BasicAuth(gin.Accounts{metricsUsername: metricsPassword}), gin.WrapH(metrics))
	} else {
		a.r.GET("/metrics", gin.WrapH(metrics))
	}

	a.r.GET("/summary/overview", a.overviewHandler)

	a.r.GET("/stations", a.stationsHandler)
	a.r.GET("/stations/:id", a.stationHandler)

	a.r.GET("/routes/top", a.topRoutesHandler)
	a.r.GET("/routes/round-trips", a.roundTripsHandler)

	a.r.GET("/patterns/hourly", a.hourlyHandler)
	a.r.GET("/patterns/daily", a.dailyHandler)
	a.r.GET("/patterns/monthly", a.monthlyHandler)
	a.r.GET("/days/busiest", a.busiestDaysHandler)

	a.r.GET("/distribution/duration", a.durationHandler)
	a.r.GET("/distribution/distance", a.distanceHandler)

	return a
}

func (a *API) Router() *gin.Engine {
	return a.r
}

func (a *API) healthHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)

	stations, err := a.stations.Count(c.Request.Context())
	if err != nil {
		logger.Error("Failed to count stations", "error", err)
		respond(c, http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
		return
	}
	trips, err := a.trips.Count(c.Request.Context())
	if err != nil {
		logger.Error("Failed to count trips", "error", err)
		respond(c, http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
		return
	}

	respond(c, http.StatusOK, gin.H{"status": "ok", "stations": stations, "trips": trips})
}

// respond encodes v with go-json instead of gin's encoding/json renderer.
func respond(c *gin.Context, status int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		c.Data(http.StatusInternalServerError, "application/json; charset=utf-8", []byte(`{"error":"encoding response"}`))
		return
	}
	c.Data(status, "application/json; charset=utf-8", b)
}

func serverError(c *gin.Context, msg string, err error) {
	middleware.GetLogger(c).Error(msg, "error", err)
	respond(c, http.StatusInternalServerError, gin.H{"error": err.Error()})
}

// limitParam reads ?limit=, falling back to def. Values outside 1..maxLimit are a 400.
func limitParam(c *gin.Context, def int) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > maxLimit {
		respond(c, http.StatusBadRequest, gin.H{"error": "limit must be an integer between 1 and " + strconv.Itoa(maxLimit)})
		return 0, false
	}
	return n, true
}
