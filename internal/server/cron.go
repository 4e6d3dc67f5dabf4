package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type billingRunResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Processed int    `json:"processed"`
	Skipped   int    `json:"skipped"`
	Errors    int    `json:"errors"`
	Total     int    `json:"total"`
}

// runBilling triggers one billing batch. The response is an aggregate even
// when some subscriptions failed; operators consult logs for the failures.
func (s *Server) runBilling(c *gin.Context) {
	summary, err := s.billingSvc.RunBilling(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, billingRunResponse{
		Success:   true,
		Message:   "billing run completed",
		Processed: summary.Processed,
		Skipped:   summary.Skipped,
		Errors:    summary.Errors,
		Total:     summary.Total,
	})
}
