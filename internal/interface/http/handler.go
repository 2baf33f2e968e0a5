package http

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/agrosathi/agrosathi/internal/domain/diagnosis"
	"github.com/agrosathi/agrosathi/internal/domain/enrichment"
	"github.com/agrosathi/agrosathi/internal/infra/config"
)

// Handler wires the HTTP transport to domain services.
type Handler struct {
	diagnosisSvc   diagnosis.Service
	location       diagnosis.LocationResolver
	weather        diagnosis.WeatherResolver
	maxUploadBytes int64
	logger         *slog.Logger
}

// NewHandler constructs the root HTTP handler.
func NewHandler(
	cfg *config.Config,
	diagnosisSvc diagnosis.Service,
	location diagnosis.LocationResolver,
	weather diagnosis.WeatherResolver,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		diagnosisSvc:   diagnosisSvc,
		location:       location,
		weather:        weather,
		maxUploadBytes: cfg.HTTP.MaxUploadBytes,
		logger:         logger.With("component", "http.handler"),
	}
}

// DiagnoseImage classifies an uploaded leaf photo and returns treatment advice.
func (h *Handler) DiagnoseImage(c *gin.Context) {
	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	}
	fileHeader, err := c.FormFile("image")
	if err != nil {
		fail(c, uploadError(err, "image is required"))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		fail(c, badRequest("invalid_request", "failed to read upload", err))
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		fail(c, uploadError(err, "failed to read image"))
		return
	}

	req := diagnosis.ImageRequest{
		Image:       data,
		ContactID:   strings.TrimSpace(c.PostForm("phone")),
		Language:    c.PostForm("language"),
		Coordinates: parseCoordinates(c.PostForm("latitude"), c.PostForm("longitude")),
	}
	resp, err := h.diagnosisSvc.DiagnoseImage(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// AnswerQuery answers a typed or transcribed farmer question.
func (h *Handler) AnswerQuery(c *gin.Context) {
	var req diagnosis.TextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, badRequest("invalid_request", err.Error(), err))
		return
	}

	resp, err := h.diagnosisSvc.AnswerQuery(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

type coordinatesPayload struct {
	Latitude  *float64 `json:"latitude" binding:"required"`
	Longitude *float64 `json:"longitude" binding:"required"`
}

func (p coordinatesPayload) coordinates() enrichment.Coordinates {
	return enrichment.Coordinates{Latitude: *p.Latitude, Longitude: *p.Longitude}
}

// ResolveLocation returns the place label for a coordinate pair.
func (h *Handler) ResolveLocation(c *gin.Context) {
	var payload coordinatesPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		fail(c, badRequest("invalid_request", "latitude and longitude are required", err))
		return
	}
	c.JSON(http.StatusOK, h.location.Resolve(c.Request.Context(), payload.coordinates()))
}

type weatherResponse struct {
	enrichment.WeatherSnapshot
	Display string `json:"display"`
}

// CurrentWeather returns the current temperature for a coordinate pair.
func (h *Handler) CurrentWeather(c *gin.Context) {
	var payload coordinatesPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		fail(c, badRequest("invalid_request", "latitude and longitude are required", err))
		return
	}
	snapshot := h.weather.Resolve(c.Request.Context(), payload.coordinates())
	c.JSON(http.StatusOK, weatherResponse{WeatherSnapshot: snapshot, Display: snapshot.Display()})
}

// Health reports liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// parseCoordinates returns nil unless both values are present and numeric.
func parseCoordinates(lat, lng string) *enrichment.Coordinates {
	lat, lng = strings.TrimSpace(lat), strings.TrimSpace(lng)
	if lat == "" || lng == "" {
		return nil
	}
	latitude, err := strconv.ParseFloat(lat, 64)
	if err != nil {
		return nil
	}
	longitude, err := strconv.ParseFloat(lng, 64)
	if err != nil {
		return nil
	}
	return &enrichment.Coordinates{Latitude: latitude, Longitude: longitude}
}

func uploadError(err error, message string) *apiError {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return &apiError{Status: http.StatusRequestEntityTooLarge, Code: "payload_too_large", Message: "image exceeds the upload limit", Err: err}
	}
	return badRequest("invalid_request", message, err)
}
