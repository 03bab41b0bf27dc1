package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

func (a *API) topRoutesHandler(c *gin.Context) {
	limit, ok := limitParam(c, defaultLimit)
	if !ok {
		return
	}

	routes, err := a.ar.TopRoutes(c.Request.Context(), limit)
	if err != nil {
		serverError(c, "Failed to get top routes", err)
		return
	}
	respond(c, http.StatusOK, routes)
}

func (a *API) roundTripsHandler(c *gin.Context) {
	limit, ok := limitParam(c, defaultLimit)
	if !ok {
		return
	}

	stations, err := a.ar.RoundTrips(c.Request.Context(), limit)
	if err != nil {
		serverError(c, "Failed to get round trips", err)
		return
	}
	respond(c, http.StatusOK, stations)
}

func (a *API) hourlyHandler(c *gin.Context) {
	hours, err := a.ar.Hourly(c.Request.Context())
	if err != nil {
		serverError(c, "Failed to get hourly pattern", err)
		return
	}
	respond(c, http.StatusOK, hours)
}

func (a *API) dailyHandler(c *gin.Context) {
	days, err := a.ar.Daily(c.Request.Context())
	if err != nil {
		serverError(c, "Failed to get daily pattern", err)
		return
	}
	respond(c, http.StatusOK, days)
}

func (a *API) monthlyHandler(c *gin.Context) {
	var year int
	if raw := c.Query("year"); raw != "" {
		y, err := strconv.Atoi(raw)
		if err != nil || y < 1 {
			respond(c, http.StatusBadRequest, gin.H{"error": "year must be a positive integer"})
			return
		}
		year = y
	}

	months, err := a.ar.Monthly(c.Request.Context(), year)
	if err != nil {
		serverError(c, "Failed to get monthly pattern", err)
		return
	}
	respond(c, http.StatusOK, months)
}

func (a *API) busiestDaysHandler(c *gin.Context) {
	limit, ok := limitParam(c, 10)
	if !ok {
		return
	}

	days, err := a.ar.BusiestDays(c.Request.Context(), limit)
	if err != nil {
		serverError(c, "Failed to get busiest days", err)
		return
	}
	respond(c, http.StatusOK, days)
}

func (a *API) durationHandler(c *gin.Context) {
	buckets, err := a.ar.DurationDistribution(c.Request.Context())
	if err != nil {
		serverError(c, "Failed to get duration distribution", err)
		return
	}
	respond(c, http.StatusOK, buckets)
}

func (a *API) distanceHandler(c *gin.Context) {
	buckets, err := a.ar.DistanceDistribution(c.Request.Context())
	if err != nil {
		serverError(c, "Failed to get distance distribution", err)
		return
	}
	respond(c, http.StatusOK, buckets)
}
