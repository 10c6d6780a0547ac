package handler

import (
	"github.com/gofiber/fiber/v2"
)

const Version = "0.1.0"

// DetectorStatus is implemented by face.Detectors
type DetectorStatus interface {
	Names() map[string]string
	Degraded() bool
}

type HealthHandler struct {
	detectors DetectorStatus
}

func NewHealthHandler(detectors DetectorStatus) *HealthHandler {
	return &HealthHandler{detectors: detectors}
}

type HealthResponse struct {
	Status    string            `json:"status"`
	Version   string            `json:"version,omitempty"`
	Detectors map[string]string `json:"detectors,omitempty"`
}

func (h *HealthHandler) Health(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{
		Status:  "ok",
		Version: Version,
	})
}

// Ready reports the active detectors. Fallback-only mode still serves
// requests, so it is "degraded" rather than unavailable.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	if h.detectors == nil {
		return c.JSON(HealthResponse{Status: "ready"})
	}

	status := "ready"
	if h.detectors.Degraded() {
		status = "degraded"
	}
	return c.JSON(HealthResponse{
		Status:    status,
		Detectors: h.detectors.Names(),
	})
}
