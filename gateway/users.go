package gateway

import (
	"errors"
	"net/http"
	"strings"

	"github.com/example/eshop/pkg/models"
	"github.com/example/eshop/pkg/repository"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
)

type userRequest struct {
	Name      string `json:"name" binding:"required,min=3,max=32"`
	Email     string `json:"email" binding:"required,email,max=320"`
	Password  string `json:"password" binding:"required,min=6,max=128"`
	Phone     string `json:"phone" binding:"required,min=10,max=16"`
	IsAdmin   bool   `json:"isAdmin"`
	Street    string `json:"street" binding:"max=128"`
	Apartment string `json:"apartment" binding:"max=64"`
	Zip       string `json:"zip" binding:"max=32"`
	City      string `json:"city" binding:"max=64"`
	Country   string `json:"country" binding:"max=64"`
}

type updateUserRequest struct {
	Name      string `json:"name" binding:"required,min=3,max=32"`
	Email     string `json:"email" binding:"required,email,max=320"`
	Password  string `json:"password" binding:"omitempty,min=6,max=128"`
	Phone     string `json:"phone" binding:"required,min=10,max=16"`
	IsAdmin   bool   `json:"isAdmin"`
	Street    string `json:"street" binding:"max=128"`
	Apartment string `json:"apartment" binding:"max=64"`
	Zip       string `json:"zip" binding:"max=32"`
	City      string `json:"city" binding:"max=64"`
	Country   string `json:"country" binding:"max=64"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (g *Gateway) listUsers(c *gin.Context) {
	users, err := g.svc.Users.ListUsers(c.Request.Context())
	if err != nil {
		g.fail(c, err, "Failed to get all users")
		return
	}
	c.JSON(http.StatusOK, users)
}

func (g *Gateway) getUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	user, err := g.svc.Users.GetUser(c.Request.Context(), id)
	if err != nil {
		g.fail(c, err, "Failed to get user "+id.Hex())
		return
	}
	c.JSON(http.StatusOK, user)
}

func (g *Gateway) createUser(c *gin.Context) {
	g.saveNewUser(c, true)
}

// register is the public sign-up; it never grants admin rights.
func (g *Gateway) register(c *gin.Context) {
	g.saveNewUser(c, false)
}

func (g *Gateway) saveNewUser(c *gin.Context, allowAdmin bool) {
	var req userRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	hash, err := g.svc.Auth.HashPassword(req.Password)
	if err != nil {
		g.fail(c, err, "Failed to create user")
		return
	}

	user := &models.User{
		Name:         req.Name,
		Email:        strings.ToLower(req.Email),
		PasswordHash: hash,
		Phone:        req.Phone,
		IsAdmin:      allowAdmin && req.IsAdmin,
		Street:       req.Street,
		Apartment:    req.Apartment,
		Zip:          req.Zip,
		City:         req.City,
		Country:      req.Country,
	}
	if err := g.svc.Users.CreateUser(c.Request.Context(), user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			abort(c, http.StatusBadRequest, "Failed to create user: email already registered")
			return
		}
		g.fail(c, err, "Failed to create user")
		return
	}
	c.JSON(http.StatusOK, user)
}

func (g *Gateway) updateUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	set := bson.M{
		"name":      req.Name,
		"email":     strings.ToLower(req.Email),
		"phone":     req.Phone,
		"isAdmin":   req.IsAdmin,
		"street":    req.Street,
		"apartment": req.Apartment,
		"zip":       req.Zip,
		"city":      req.City,
		"country":   req.Country,
	}
	if req.Password != "" {
		hash, err := g.svc.Auth.HashPassword(req.Password)
		if err != nil {
			g.fail(c, err, "Failed to update user")
			return
		}
		set["passwordHash"] = hash
	}

	user, err := g.svc.Users.UpdateUser(c.Request.Context(), id, set)
	if err != nil {
		g.fail(c, err, "Failed to update user "+id.Hex())
		return
	}
	c.JSON(http.StatusOK, user)
}

func (g *Gateway) deleteUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if _, err := g.svc.Users.DeleteUser(c.Request.Context(), id); err != nil {
		g.fail(c, err, "Failed to delete user "+id.Hex())
		return
	}
	c.JSON(http.StatusOK, sendResponse(true, "User is deleted"))
}

func (g *Gateway) countUsers(c *gin.Context) {
	n, err := g.svc.Users.CountUsers(c.Request.Context())
	if err != nil {
		g.fail(c, err, "Failed to count users")
		return
	}
	c.JSON(http.StatusOK, gin.H{"userCount": n})
}

func (g *Gateway) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	user, err := g.svc.Users.FindUserByEmail(c.Request.Context(), strings.ToLower(req.Email))
	if errors.Is(err, repository.ErrNotFound) {
		abort(c, http.StatusBadRequest, "Wrong credentials")
		return
	}
	if err != nil {
		g.fail(c, err, "Failed to login")
		return
	}
	if !g.svc.Auth.CheckPassword(user.PasswordHash, req.Password) {
		abort(c, http.StatusBadRequest, "Wrong credentials")
		return
	}

	token, err := g.svc.Auth.IssueToken(user.ID.Hex(), user.IsAdmin)
	if err != nil {
		g.fail(c, err, "Failed to login")
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user.Email, "token": token})
}
