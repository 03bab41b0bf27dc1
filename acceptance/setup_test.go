package acceptance

import (
	"context"
	"encoding/base64"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/semanticallynull/tripstats-backend/analytics"
	"github.com/semanticallynull/tripstats-backend/api"
	"github.com/semanticallynull/tripstats-backend/ingest"
	"github.com/semanticallynull/tripstats-backend/internal/o11y"
	"github.com/semanticallynull/tripstats-backend/internal/storage"
	"github.com/semanticallynull/tripstats-backend/internal/storage/storagetest"
	"github.com/semanticallynull/tripstats-backend/station"
	"github.com/semanticallynull/tripstats-backend/trip"
)

const (
	metricsUser = "prom"
	metricsPass = "secret"
)

type TestServer struct {
	DB     *storage.DB
	Router *gin.Engine
}

func NewTestServer(t *testing.T) *TestServer {
	t.Helper()

	gin.SetMode(gin.TestMode)

	db := storagetest.Open(t)

	obs, cleanup, err := o11y.Setup(context.Background(), o11y.Config{
		ServiceName: "tripstats-api-test",
		LogFormat:   "json",
		Output:      io.Discard,
	})
	if err != nil {
		t.Fatalf("failed to set up observability: %v", err)
	}
	t.Cleanup(cleanup)

	a := api.New(
		analytics.NewRepository(db.DB),
		station.NewRepository(db.DB),
		trip.NewRepository(db.DB),
		obs,
		metricsUser,
		metricsPass,
	)

	return &TestServer{DB: db, Router: a.Router()}
}

// Import writes each CSV body to a temp dir and runs the importer over it.
func (ts *TestServer) Import(t *testing.T, files map[string]string) *ingest.Summary {
	t.Helper()

	dir := t.TempDir()
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}

	imp := ingest.New(station.NewRepository(ts.DB.DB), trip.NewRepository(ts.DB.DB))
	summary, err := imp.Run(context.Background(), dir)
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	return summary
}

func (ts *TestServer) GET(path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	ts.Router.ServeHTTP(w, req)
	return w
}

func basicAuth(user, pass string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(user+":"+pass))
}

const header = "ride_id,rideable_type,started_at,ended_at,start_station_name,start_station_id," +
	"end_station_name,end_station_id,start_lat,start_lng,end_lat,end_lng,member_casual"

func csvFile(rows ...string) string {
	return header + "\n" + strings.Join(rows, "\n") + "\n"
}

// january is a small extract: two directions of the same route, a round trip, a trip
// with no stations and a row with no start time.
var january = csvFile(
	"R1,classic_bike,2024-01-01 08:00:00,2024-01-01 08:10:00,Ferry Building,A,4th & King,B,37.7955,-122.3937,37.7764,-122.3943,member",
	"R2,electric_bike,2024-01-01 09:00:00,2024-01-01 09:20:00,4th & King,B,Ferry Building,A,37.7764,-122.3943,37.7955,-122.3937,casual",
	"R3,classic_bike,2024-01-02 17:00:00,2024-01-02 17:40:00,Ferry Building,A,Ferry Building,A,37.7955,-122.3937,37.7955,-122.3937,member",
	"R4,electric_bike,2024-01-02 18:00:00,2024-01-02 18:03:00,,,,,37.7,-122.4,37.7,-122.4,casual",
	"R5,classic_bike,,2024-01-03 10:00:00,Mission,C,Ferry Building,A,,,,,member",
)
