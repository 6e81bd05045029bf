// Package api exposes the forecast service over HTTP with gin.
package api

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"

	"uk-forecast-lab/internal/features"
	"uk-forecast-lab/internal/forecast"
	"uk-forecast-lab/internal/observability"
	"uk-forecast-lab/internal/reporting"
)

// Server holds handler dependencies.
type Server struct {
	svc             *forecast.Service
	reports         *reporting.Generator
	loc             *time.Location
	logger          *log.Logger
	maxHorizonHours int
}

// Options configures a Server.
type Options struct {
	Service         *forecast.Service
	Location        *time.Location // zone for naive timestamps, default UTC
	Logger          *log.Logger
	MaxHorizonHours int // default: the shortest rolling window
}

// NewServer creates a Server.
func NewServer(opts Options) *Server {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	maxHours := opts.MaxHorizonHours
	if maxHours <= 0 && opts.Service != nil {
		maxHours = shortestWindowHours(opts.Service.FeatureConfig())
	}
	if maxHours <= 0 {
		maxHours = 24
	}
	return &Server{
		svc:             opts.Service,
		reports:         reporting.NewGenerator(nil),
		loc:             loc,
		logger:          logger,
		maxHorizonHours: maxHours,
	}
}

// shortestWindowHours bounds the default horizon. A step further past the
// series end than the shortest rolling window has no history in that window
// and fails the whole forecast with insufficient_history.
func shortestWindowHours(cfg features.Config) int {
	var shortest time.Duration
	for _, w := range cfg.Windows {
		if shortest == 0 || w.Length < shortest {
			shortest = w.Length
		}
	}
	return int(shortest / time.Hour)
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.GET("/", s.handleRoot)
	r.GET("/health", s.handleHealth)
	r.GET("/metrics", gin.WrapH(observability.Handler()))

	// Unversioned single-model routes
	r.POST("/predict", s.handlePredict)
	r.GET("/model-info", s.handleModelInfo)

	v1 := r.Group("/v1")
	{
		elec := v1.Group("/electricity")
		elec.POST("/predict", s.handlePredict)
		elec.POST("/forecast", s.handleForecast)
		elec.GET("/model-info", s.handleModelInfo)
		elec.GET("/stream", s.handleStream)

		housing := v1.Group("/housing")
		housing.POST("/predict", s.handleHousingPredict)
		housing.GET("/model-info", s.handleHousingModelInfo)

		preds := v1.Group("/predictions")
		preds.GET("/recent", s.handleRecentPredictions)
		preds.GET("/:id", s.handleGetPrediction)
	}

	return r
}

// requestLogger logs each request and records HTTP metrics.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		elapsed := time.Since(start)

		observability.RecordHTTPRequest(c.Request.Method, route, statusLabel(status), elapsed.Seconds())
		s.logger.Printf("%s %s %d %s", c.Request.Method, c.Request.URL.Path, status, elapsed.Round(time.Microsecond))
	}
}

func statusLabel(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
