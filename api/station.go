package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/semanticallynull/tripstats-backend/analytics"
)

func (a *API) stationsHandler(c *gin.Context) {
	limit, ok := limitParam(c, 100)
	if !ok {
		return
	}

	stations, err := a.ar.Stations(c.Request.Context(), limit)
	if err != nil {
		serverError(c, "Failed to get stations", err)
		return
	}

	respond(c, http.StatusOK, stations)
}

func (a *API) stationHandler(c *gin.Context) {
	id := c.Param("id")

	station, err := a.ar.Station(c.Request.Context(), id)
	if errors.Is(err, analytics.ErrNotFound) {
		respond(c, http.StatusNotFound, gin.H{"error": "station not found"})
		return
	}
	if err != nil {
		serverError(c, "Failed to get station", err)
		return
	}

	respond(c, http.StatusOK, station)
}

func (a *API) overviewHandler(c *gin.Context) {
	overview, err := a.ar.Overview(c.Request.Context())
	if err != nil {
		serverError(c, "Failed to get overview", err)
		return
	}

	respond(c, http.StatusOK, overview)
}
