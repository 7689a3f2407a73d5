package gateway

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/example/eshop/pkg/ordering"
	"github.com/example/eshop/pkg/repository"
	"github.com/example/eshop/pkg/upload"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type response struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Failed  []string `json:"failedOrderItems,omitempty"`
}

func sendResponse(success bool, message string) response {
	return response{Success: success, Message: message}
}

func abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, sendResponse(false, message))
}

// statusFor maps store and workflow errors to an HTTP status.
func statusFor(err error) int {
	var oe *ordering.Error
	if errors.As(err, &oe) {
		switch oe.Kind {
		case ordering.KindValidation, ordering.KindReference:
			return http.StatusBadRequest
		case ordering.KindNotFound:
			return http.StatusNotFound
		case ordering.KindCascade:
			return http.StatusOK
		default:
			return http.StatusInternalServerError
		}
	}

	switch {
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, repository.ErrInvalidID),
		errors.Is(err, repository.ErrDuplicate),
		errors.Is(err, upload.ErrInvalidType):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// fail writes the uniform error body. Server errors carry the cause so the
// message matches what gets logged.
func (g *Gateway) fail(c *gin.Context, err error, message string) {
	status := statusFor(err)

	var oe *ordering.Error
	switch {
	case status >= http.StatusInternalServerError:
		message = fmt.Sprintf("%s: %v", message, err)
		g.logger.Error(message, zap.String("request_id", c.GetString(requestIDKey)), zap.Error(err))
	case errors.As(err, &oe):
		message = oe.Msg
	case errors.Is(err, repository.ErrInvalidID), errors.Is(err, upload.ErrInvalidType):
		message = err.Error()
	}
	_ = c.Error(err)
	abort(c, status, message)
}

// bindFailed reports a request body that did not pass binding.
func bindFailed(c *gin.Context, err error) {
	abort(c, http.StatusBadRequest, validationMessage(err))
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "Invalid request body: " + err.Error()
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msg := fe.Field() + " " + fe.Tag()
		if fe.Param() != "" {
			msg += "=" + fe.Param()
		}
		msgs = append(msgs, msg)
	}
	return strings.Join(msgs, ", ")
}

func pathID(c *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := repository.ParseID(c.Param(name))
	if err != nil {
		abort(c, http.StatusBadRequest, fmt.Sprintf("Invalid id %q", c.Param(name)))
		return primitive.NilObjectID, false
	}
	return id, true
}

func queryInt(c *gin.Context, name string, def int64) int64 {
	v, err := strconv.ParseInt(c.Query(name), 10, 64)
	if err != nil || v <= 0 {
		return def
	}
	return v
}
