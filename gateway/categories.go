package gateway

import (
	"net/http"

	"github.com/example/eshop/pkg/models"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type categoryRequest struct {
	Name  string `json:"name" binding:"required,min=3,max=32"`
	Icon  string `json:"icon" binding:"required,min=3,max=32"`
	Color string `json:"color" binding:"required,min=3,max=32"`
}

func (g *Gateway) listCategories(c *gin.Context) {
	categories, err := g.svc.Categories.ListCategories(c.Request.Context())
	if err != nil {
		g.fail(c, err, "Failed to get all categories")
		return
	}
	c.JSON(http.StatusOK, categories)
}

func (g *Gateway) getCategory(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	category, err := g.svc.Categories.GetCategory(c.Request.Context(), id)
	if err != nil {
		g.fail(c, err, "Failed to get category "+id.Hex())
		return
	}
	c.JSON(http.StatusOK, category)
}

func (g *Gateway) createCategory(c *gin.Context) {
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	category := &models.Category{Name: req.Name, Icon: req.Icon, Color: req.Color}
	if err := g.svc.Categories.CreateCategory(c.Request.Context(), category); err != nil {
		g.fail(c, err, "Failed to create category")
		return
	}
	c.JSON(http.StatusOK, category)
}

func (g *Gateway) updateCategory(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	category, err := g.svc.Categories.UpdateCategory(c.Request.Context(), id, bson.M{
		"name":  req.Name,
		"icon":  req.Icon,
		"color": req.Color,
	})
	if err != nil {
		g.fail(c, err, "Failed to update category "+id.Hex())
		return
	}
	g.invalidateCategory(c, id)
	c.JSON(http.StatusOK, category)
}

func (g *Gateway) deleteCategory(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if _, err := g.svc.Categories.DeleteCategory(c.Request.Context(), id); err != nil {
		g.fail(c, err, "Failed to delete category "+id.Hex())
		return
	}
	g.invalidateCategory(c, id)
	c.JSON(http.StatusOK, sendResponse(true, "The category is deleted"))
}

// invalidateCategory drops cached products that embed the category.
func (g *Gateway) invalidateCategory(c *gin.Context, id primitive.ObjectID) {
	if g.svc.Cache == nil || g.svc.Products == nil {
		return
	}
	products, err := g.svc.Products.ListProducts(c.Request.Context(), []primitive.ObjectID{id})
	if err != nil {
		g.logger.Warn("Failed to list products for cache invalidation",
			zap.String("category_id", id.Hex()), zap.Error(err))
		return
	}
	for _, p := range products {
		g.invalidate(c, p.ID)
	}
}

func (g *Gateway) countCategories(c *gin.Context) {
	n, err := g.svc.Categories.CountCategories(c.Request.Context())
	if err != nil {
		g.fail(c, err, "Failed to count categories")
		return
	}
	c.JSON(http.StatusOK, gin.H{"categoryCount": n})
}
