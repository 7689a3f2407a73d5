package gateway

import (
	"net/http"

	"github.com/example/eshop/pkg/models"
	"github.com/example/eshop/pkg/repository"
	"github.com/gin-gonic/gin"
)

type feedbackRequest struct {
	Rating      float64 `json:"rating" binding:"gte=0,lte=5"`
	Type        string  `json:"type" binding:"required,min=3,max=32"`
	Description string  `json:"description" binding:"required,min=3,max=2048"`
}

func (g *Gateway) listFeedbacks(c *gin.Context) {
	feedbacks, err := g.svc.Feedbacks.ListFeedbacks(c.Request.Context())
	if err != nil {
		g.fail(c, err, "Failed to get all feedbacks")
		return
	}
	c.JSON(http.StatusOK, feedbacks)
}

func (g *Gateway) getFeedback(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	feedback, err := g.svc.Feedbacks.GetFeedback(c.Request.Context(), id)
	if err != nil {
		g.fail(c, err, "Failed to get feedback "+id.Hex())
		return
	}
	c.JSON(http.StatusOK, feedback)
}

// createFeedback files feedback under the signed-in user.
func (g *Gateway) createFeedback(c *gin.Context) {
	var req feedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}
	user, err := repository.ParseID(claimsFrom(c).UserID)
	if err != nil {
		abort(c, http.StatusUnauthorized, "The user is not authorized")
		return
	}

	feedback := &models.Feedback{
		Rating:      req.Rating,
		Type:        req.Type,
		Description: req.Description,
		User:        user,
	}
	if err := g.svc.Feedbacks.CreateFeedback(c.Request.Context(), feedback); err != nil {
		g.fail(c, err, "Failed to create feedback")
		return
	}
	c.JSON(http.StatusOK, feedback)
}

func (g *Gateway) deleteFeedback(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if _, err := g.svc.Feedbacks.DeleteFeedback(c.Request.Context(), id); err != nil {
		g.fail(c, err, "Failed to delete feedback "+id.Hex())
		return
	}
	c.JSON(http.StatusOK, sendResponse(true, "The feedback is deleted"))
}

func (g *Gateway) countFeedbacks(c *gin.Context) {
	n, err := g.svc.Feedbacks.CountFeedbacks(c.Request.Context())
	if err != nil {
		g.fail(c, err, "Failed to count feedbacks")
		return
	}
	c.JSON(http.StatusOK, gin.H{"feedbackCount": n})
}
