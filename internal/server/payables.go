package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/ledgerly/internal/payables"
)

type billAmountsRequest struct {
	LineItems []payables.LineItem `json:"line_items"`
	TaxLines  []payables.TaxLine  `json:"tax_lines"`
}

type billAmountsResponse struct {
	Subtotal  string `json:"subtotal"`
	TaxAmount string `json:"tax_amount"`
	Total     string `json:"total"`
}

func (s *Server) calculateBillAmounts(c *gin.Context) {
	var req billAmountsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	summary := payables.CalculateBillAmounts(req.LineItems, req.TaxLines)
	c.JSON(http.StatusOK, billAmountsResponse{
		Subtotal:  summary.Subtotal.StringFixed(2),
		TaxAmount: summary.TaxAmount.StringFixed(2),
		Total:     summary.Total.StringFixed(2),
	})
}

type duplicateCheckRequest struct {
	Bill          payables.BillComparisonRecord   `json:"bill"`
	ExistingBills []payables.BillComparisonRecord `json:"existing_bills"`
}

type duplicateCheckResponse struct {
	Hash    string                      `json:"hash"`
	Matches []payables.SimilarityResult `json:"matches"`
}

func (s *Server) duplicateCheck(c *gin.Context) {
	var req duplicateCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	hash := payables.GenerateDuplicateCheckHash(
		req.Bill.VendorID,
		req.Bill.VendorInvoiceNumber,
		req.Bill.Total,
	)

	matches := make([]payables.SimilarityResult, 0, len(req.ExistingBills))
	for _, existing := range req.ExistingBills {
		matches = append(matches, payables.CalculateDuplicateSimilarity(req.Bill, existing))
	}

	c.JSON(http.StatusOK, duplicateCheckResponse{Hash: hash, Matches: matches})
}

type agingRequest struct {
	DueDate time.Time `json:"due_date" binding:"required"`
}

type agingResponse struct {
	Bucket      payables.AgingBucket `json:"bucket"`
	DaysOverdue int                  `json:"days_overdue"`
}

func (s *Server) agingBucket(c *gin.Context) {
	var req agingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	now := s.clock.Now()
	c.JSON(http.StatusOK, agingResponse{
		Bucket:      payables.CalculateAgingBucket(now, req.DueDate),
		DaysOverdue: payables.CalculateDaysOverdue(now, req.DueDate),
	})
}

type similarityRequest struct {
	A string `json:"a"`
	B string `json:"b"`
}

type similarityResponse struct {
	Similarity float64 `json:"similarity"`
}

func (s *Server) stringSimilarity(c *gin.Context) {
	var req similarityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	c.JSON(http.StatusOK, similarityResponse{
		Similarity: payables.CalculateStringSimilarity(req.A, req.B),
	})
}

func (s *Server) formatStatus(c *gin.Context) {
	status := c.Param("status")

	var meta payables.StatusMeta
	switch c.Param("kind") {
	case "payment_method":
		meta = payables.FormatPaymentMethod(status)
	case "vendor":
		meta = payables.FormatVendorStatus(status)
	case "bill":
		meta = payables.FormatBillStatus(status)
	case "purchase_order":
		meta = payables.FormatPOStatus(status)
	default:
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	c.JSON(http.StatusOK, meta)
}
