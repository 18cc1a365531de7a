package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"finanzas/internal/services"
)

// ScanHandler exposes operator endpoints guarded by the internal API key.
type ScanHandler struct {
	scanner services.DueDateScanner
	now     func() time.Time
}

// NewScanHandler creates a new ScanHandler.
func NewScanHandler(scanner services.DueDateScanner) *ScanHandler {
	return &ScanHandler{scanner: scanner, now: time.Now}
}

// ScanResponse reports how many notifications a scan created.
type ScanResponse struct {
	Created int `json:"created"`
}

// RunDueScan runs one due-date scan pass.
// @Summary     Run due-date scan
// @Description Raise upcoming, due-today and past-due notifications for unpaid movements
// @Tags        internal
// @Produce     json
// @Param       X-API-Key header   string       true "Internal API key"
// @Success     200       {object} ScanResponse "Notifications created"
// @Failure     401       {object} ErrorResponse "Invalid API key"
// @Failure     500       {object} ErrorResponse "Server error"
// @Failure     503       {object} ErrorResponse "Internal endpoints not configured"
// @Router      /internal/scan [post]
func (h *ScanHandler) RunDueScan(c *gin.Context) {
	created, err := h.scanner.Scan(h.now())
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, ScanResponse{Created: created})
}
