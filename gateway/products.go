package gateway

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/example/eshop/pkg/models"
	"github.com/example/eshop/pkg/repository"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type productRequest struct {
	Name            string  `form:"name" binding:"required,min=3,max=128"`
	Description     string  `form:"description" binding:"required,min=3,max=320"`
	RichDescription string  `form:"richDescription" binding:"max=2048"`
	Brand           string  `form:"brand" binding:"max=64"`
	Price           float64 `form:"price" binding:"gte=0"`
	Category        string  `form:"category" binding:"required"`
	CountInStock    int     `form:"countInStock" binding:"gte=0,lte=320"`
	Rating          float64 `form:"rating" binding:"gte=0,lte=5"`
	NumReviews      int     `form:"numReviews" binding:"gte=0"`
	IsFeatured      bool    `form:"isFeatured"`
}

func (g *Gateway) listProducts(c *gin.Context) {
	var filter []primitive.ObjectID
	if raw := c.Query("categories"); raw != "" {
		ids, err := repository.ParseIDs(strings.Split(raw, ","))
		if err != nil {
			g.fail(c, err, "Invalid category filter")
			return
		}
		filter = ids
	}

	products, err := g.svc.Products.ListProducts(c.Request.Context(), filter)
	if err != nil {
		g.fail(c, err, "Failed to get all products")
		return
	}
	c.JSON(http.StatusOK, products)
}

func (g *Gateway) getProduct(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	if g.svc.Cache != nil {
		if product, err := g.svc.Cache.CachedProduct(ctx, id.Hex()); err == nil {
			c.JSON(http.StatusOK, product)
			return
		} else if !errors.Is(err, repository.ErrCacheMiss) {
			g.logger.Warn("Product cache read failed", zap.String("product_id", id.Hex()), zap.Error(err))
		}
	}

	product, err := g.svc.Products.GetProduct(ctx, id)
	if err != nil {
		g.fail(c, err, "Failed to get product "+id.Hex())
		return
	}

	if g.svc.Cache != nil {
		if err := g.svc.Cache.CacheProduct(ctx, product); err != nil {
			g.logger.Warn("Product cache write failed", zap.String("product_id", id.Hex()), zap.Error(err))
		}
	}
	c.JSON(http.StatusOK, product)
}

// resolveCategory checks that the referenced category exists.
func (g *Gateway) resolveCategory(c *gin.Context, hex string) (primitive.ObjectID, bool) {
	id, err := repository.ParseID(hex)
	if err == nil {
		_, err = g.svc.Categories.GetCategory(c.Request.Context(), id)
	}
	switch {
	case err == nil:
		return id, true
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, repository.ErrInvalidID):
		abort(c, http.StatusBadRequest, "Invalid Category")
	default:
		g.fail(c, err, "Failed to resolve category")
	}
	return primitive.NilObjectID, false
}

func (g *Gateway) createProduct(c *gin.Context) {
	var req productRequest
	if err := c.ShouldBind(&req); err != nil {
		bindFailed(c, err)
		return
	}
	category, ok := g.resolveCategory(c, req.Category)
	if !ok {
		return
	}

	file, err := c.FormFile("image")
	if err != nil {
		abort(c, http.StatusBadRequest, "No image in the request")
		return
	}
	image, err := g.svc.Uploads.Save(c, file)
	if err != nil {
		g.fail(c, err, "Failed to store product image")
		return
	}

	product := &models.Product{
		Name:            req.Name,
		Description:     req.Description,
		RichDescription: req.RichDescription,
		Image:           image,
		Brand:           req.Brand,
		Price:           req.Price,
		Category:        category,
		CountInStock:    req.CountInStock,
		Rating:          req.Rating,
		NumReviews:      req.NumReviews,
		IsFeatured:      req.IsFeatured,
	}
	if err := g.svc.Products.CreateProduct(c.Request.Context(), product); err != nil {
		g.fail(c, err, "Failed to create product")
		return
	}
	c.JSON(http.StatusOK, product)
}

func (g *Gateway) updateProduct(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req productRequest
	if err := c.ShouldBind(&req); err != nil {
		bindFailed(c, err)
		return
	}
	category, ok := g.resolveCategory(c, req.Category)
	if !ok {
		return
	}

	set := bson.M{
		"name":            req.Name,
		"description":     req.Description,
		"richDescription": req.RichDescription,
		"brand":           req.Brand,
		"price":           req.Price,
		"category":        category,
		"countInStock":    req.CountInStock,
		"rating":          req.Rating,
		"numReviews":      req.NumReviews,
		"isFeatured":      req.IsFeatured,
	}
	if file, err := c.FormFile("image"); err == nil {
		image, err := g.svc.Uploads.Save(c, file)
		if err != nil {
			g.fail(c, err, "Failed to store product image")
			return
		}
		set["image"] = image
	}

	product, err := g.svc.Products.UpdateProduct(c.Request.Context(), id, set)
	if err != nil {
		g.fail(c, err, "Failed to update product "+id.Hex())
		return
	}
	g.invalidate(c, id)
	c.JSON(http.StatusOK, product)
}

func (g *Gateway) updateGallery(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	form, err := c.MultipartForm()
	if err != nil {
		abort(c, http.StatusBadRequest, "Invalid multipart form")
		return
	}
	files := form.File["images"]
	if limit := g.config.Upload.MaxFiles; limit > 0 && len(files) > limit {
		abort(c, http.StatusBadRequest, fmt.Sprintf("At most %d images are allowed", limit))
		return
	}

	images, err := g.svc.Uploads.SaveAll(c, files)
	if err != nil {
		g.fail(c, err, "Failed to store gallery images")
		return
	}

	product, err := g.svc.Products.UpdateProduct(c.Request.Context(), id, bson.M{"images": images})
	if err != nil {
		g.fail(c, err, "Failed to update gallery images")
		return
	}
	g.invalidate(c, id)
	c.JSON(http.StatusOK, product)
}

func (g *Gateway) deleteProduct(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if _, err := g.svc.Products.DeleteProduct(c.Request.Context(), id); err != nil {
		g.fail(c, err, "Failed to delete product "+id.Hex())
		return
	}
	g.invalidate(c, id)
	c.JSON(http.StatusOK, sendResponse(true, "The product is deleted"))
}

func (g *Gateway) invalidate(c *gin.Context, id primitive.ObjectID) {
	if g.svc.Cache == nil {
		return
	}
	if err := g.svc.Cache.InvalidateProduct(c.Request.Context(), id.Hex()); err != nil {
		g.logger.Warn("Product cache invalidation failed", zap.String("product_id", id.Hex()), zap.Error(err))
	}
}

func (g *Gateway) countProducts(c *gin.Context) {
	n, err := g.svc.Products.CountProducts(c.Request.Context())
	if err != nil {
		g.fail(c, err, "Failed to count products")
		return
	}
	c.JSON(http.StatusOK, gin.H{"productCount": n})
}

func (g *Gateway) featuredProducts(c *gin.Context) {
	count, err := strconv.ParseInt(c.Param("count"), 10, 64)
	if err != nil || count < 0 {
		count = 0
	}
	products, err := g.svc.Products.FeaturedProducts(c.Request.Context(), count)
	if err != nil {
		g.fail(c, err, "Failed to get featured products")
		return
	}
	c.JSON(http.StatusOK, products)
}
