// Package whep serves the HTTP signaling endpoint media clients such as
// go2rtc post their SDP offers to.
package whep

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"simplirtc/native/internal/domain"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/segmentio/ksuid"
)

const (
	maxOfferSize    = 256 << 10
	offerBodyLimit  = "256K" // maxOfferSize for middleware.BodyLimit
	shutdownTimeout = 5 * time.Second
	contentTypeSDP  = "application/sdp"
)

// Answerer produces the camera's SDP answer for an offer.
type Answerer interface {
	Answer(ctx context.Context, locationID, deviceID, offer string) (string, error)
}

type errorResponse struct {
	Error string `json:"error"`
}

// Server answers WHEP offers for SimpliSafe cameras.
type Server struct {
	answerer Answerer
	echo     *echo.Echo
}

// New builds the echo instance with request ids, request logging and panic
// recovery, and mounts the WHEP route.
func New(answerer Answerer) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler

	e.Use(
		middleware.RequestIDWithConfig(middleware.RequestIDConfig{
			Generator: func() string { return ksuid.New().String() },
		}),
		middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
			LogMethod:    true,
			LogURI:       true,
			LogStatus:    true,
			LogLatency:   true,
			LogRequestID: true,
			LogError:     true,
			LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
				attrs := []any{"component", "whep", "method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency, "request_id", v.RequestID}
				if v.Error != nil {
					slog.Warn("request failed", append(attrs, "error", v.Error)...)
					return nil
				}
				slog.Info("request", attrs...)
				return nil
			},
		}),
		middleware.Recover(),
	)

	s := &Server{answerer: answerer, echo: e}
	s.MountRoutes(e.Group(""))
	return s
}

// MountRoutes registers the WHEP offer endpoint on g. Offers above 256 KiB
// are rejected with 413.
func (s *Server) MountRoutes(g *echo.Group) {
	g.POST("/:location_id/:device_id/whep", s.postOffer, middleware.BodyLimit(offerBodyLimit))
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	errc := make(chan error, 1)
	go func() {
		slog.Info("whep server listening", "component", "whep", "addr", addr)
		errc <- s.echo.Start(addr)
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		slog.Info("whep server shutting down", "component", "whep")
		return s.echo.Shutdown(shutdownCtx)
	}
}

func (s *Server) postOffer(c echo.Context) error {
	offer, err := io.ReadAll(c.Request().Body)
	if err != nil {
		// BodyLimit reports oversized bodies of unknown length while reading.
		var he *echo.HTTPError
		if errors.As(err, &he) {
			return he
		}
		return echo.NewHTTPError(http.StatusBadRequest, "Unreadable SDP offer").SetInternal(err)
	}

	answer, err := s.answerer.Answer(c.Request().Context(), c.Param("location_id"), c.Param("device_id"), string(offer))
	if err != nil {
		status, msg := statusFor(err)
		return echo.NewHTTPError(status, msg).SetInternal(err)
	}

	return c.Blob(http.StatusOK, contentTypeSDP, []byte(answer))
}

// statusFor maps the error taxonomy onto HTTP statuses and client messages.
// Upstream detail stays in the request log; clients get the category and
// correlate through the X-Request-Id header.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrMissingOffer):
		return http.StatusBadRequest, "Missing SDP offer"
	case errors.Is(err, domain.ErrInvalidChannel):
		return http.StatusBadRequest, "Invalid ChannelARN"
	case errors.Is(err, domain.ErrTimeout):
		return http.StatusGatewayTimeout, "Timed out waiting for the camera"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "Camera not found"
	case errors.Is(err, domain.ErrUpstreamSignaling):
		return http.StatusBadGateway, "Signaling backend error"
	case errors.Is(err, domain.ErrAuthentication):
		return http.StatusBadGateway, "Authentication with SimpliSafe failed"
	case errors.Is(err, domain.ErrSchemaValidation):
		return http.StatusBadGateway, "Unexpected response from SimpliSafe"
	default:
		return http.StatusBadGateway, "Upstream error"
	}
}

// errorHandler renders every failure as {"error": message}.
func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status, msg := http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		msg = fmt.Sprint(he.Message)
	}

	if err := c.JSON(status, errorResponse{Error: msg}); err != nil {
		slog.Error("write error response", "component", "whep", "error", err)
	}
}
