package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"confbid/adapters/rest"
	"confbid/bidding"
)

type errorResponse struct {
	Message string `json:"message"`
}

type createBidRequest struct {
	Reviewer uint64 `json:"reviewer"`
	Article  uint64 `json:"article"`
	Choice   string `json:"choice"`
}

type updateBidRequest struct {
	Choice *string `json:"choice"`
}

type preferenceRequest struct {
	Choice string `json:"choice"`
}

type preferenceList struct {
	Count int                 `json:"count"`
	Items []bidding.BidRecord `json:"items"`
}

// List raw bids of a reviewer
// (GET /api/bids)
func (impl *ServerImpl) GetBids(c *gin.Context) {
	reviewer, ok := parseID(c.Query("reviewer"))
	if !ok {
		c.JSON(http.StatusBadRequest, errorResponse{Message: "reviewer is required"})
		return
	}
	records, err := impl.bids.ListBids(c.Request.Context(), reviewer)
	if err != nil {
		impl.respondError(c, "GetBids", err)
		return
	}
	c.JSON(http.StatusOK, records)
}

// Create a raw bid
// (POST /api/bids)
func (impl *ServerImpl) PostBid(c *gin.Context) {
	var req createBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Message: "invalid request body"})
		return
	}
	if req.Reviewer == 0 || req.Article == 0 {
		c.JSON(http.StatusBadRequest, errorResponse{Message: bidding.ErrInvalidPair.Error()})
		return
	}
	// 儲存端不檢查 choice 是否合法，只移除 HTML 後保存
	record, err := impl.bids.CreateBid(c.Request.Context(), bidding.BidRecord{
		Reviewer: req.Reviewer,
		Article:  req.Article,
		Choice:   bidding.Choice(impl.htmlChecker.Sanitize(req.Choice)),
	})
	if err != nil {
		impl.respondError(c, "PostBid", err)
		return
	}
	c.JSON(http.StatusCreated, record)
}

// Update the choice of a raw bid
// (PATCH /api/bids/{bidID})
func (impl *ServerImpl) PatchBid(c *gin.Context) {
	id, ok := parseID(c.Param("bidID"))
	if !ok {
		c.JSON(http.StatusBadRequest, errorResponse{Message: "invalid bid id"})
		return
	}
	var req updateBidRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Choice == nil {
		c.JSON(http.StatusBadRequest, errorResponse{Message: "choice is required"})
		return
	}
	record, err := impl.bids.UpdateBid(c.Request.Context(), id, bidding.Choice(impl.htmlChecker.Sanitize(*req.Choice)))
	if err != nil {
		impl.respondError(c, "PatchBid", err)
		return
	}
	c.JSON(http.StatusOK, record)
}

// List canonical preferences of a reviewer
// (GET /api/reviewers/{reviewerID}/preferences)
func (impl *ServerImpl) GetPreferences(c *gin.Context) {
	reviewer, ok := parseID(c.Param("reviewerID"))
	if !ok {
		c.JSON(http.StatusBadRequest, errorResponse{Message: "invalid reviewer id"})
		return
	}
	records, err := impl.reconciler.ListCanonical(c.Request.Context(), reviewer)
	if err != nil {
		impl.respondError(c, "GetPreferences", err)
		return
	}
	c.JSON(http.StatusOK, preferenceList{Count: len(records), Items: records})
}

// Save the preference of a reviewer for an article
// (PUT /api/reviewers/{reviewerID}/preferences/{articleID})
func (impl *ServerImpl) PutPreference(c *gin.Context) {
	reviewer, okReviewer := parseID(c.Param("reviewerID"))
	article, okArticle := parseID(c.Param("articleID"))
	if !okReviewer || !okArticle {
		c.JSON(http.StatusBadRequest, errorResponse{Message: bidding.ErrInvalidPair.Error()})
		return
	}
	var req preferenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Message: "invalid request body"})
		return
	}
	record, err := impl.reconciler.Save(c.Request.Context(), reviewer, article, bidding.Choice(req.Choice))
	if err != nil {
		impl.respondError(c, "PutPreference", err)
		return
	}
	c.JSON(http.StatusOK, record)
}

// respondError 將錯誤轉換成對應的 HTTP 狀態
func (impl *ServerImpl) respondError(c *gin.Context, op string, err error) {
	status := http.StatusInternalServerError
	var statusErr *rest.StatusError
	switch {
	case errors.Is(err, bidding.ErrInvalidChoice), errors.Is(err, bidding.ErrInvalidPair):
		status = http.StatusBadRequest
	case errors.Is(err, bidding.ErrBidNotFound):
		status = http.StatusNotFound
	case errors.Is(err, bidding.ErrRemoteUnavailable):
		status = http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	case errors.As(err, &statusErr), errors.Is(err, rest.ErrMalformedResponse):
		status = http.StatusBadGateway
	}

	message := http.StatusText(status)
	if status < http.StatusInternalServerError {
		message = rootMessage(err)
	} else {
		impl.logger.Error("Request failed", slog.String("op", op), slog.Int("status", status), slog.Any("error", err))
	}
	c.JSON(status, errorResponse{Message: message})
}

// rootMessage 只回傳可以給使用者看的 sentinel 錯誤訊息
func rootMessage(err error) string {
	for _, sentinel := range []error{bidding.ErrInvalidChoice, bidding.ErrInvalidPair, bidding.ErrBidNotFound} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return err.Error()
}

func parseID(raw string) (uint64, bool) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}
