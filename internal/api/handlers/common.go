package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yoockh/yoointerview/internal/api/middleware"
	"github.com/yoockh/yoointerview/internal/models"
	"github.com/yoockh/yoointerview/internal/utils"
)

type APIError struct {
	Code    utils.Code `json:"code"`
	Message string     `json:"message"`
}

func writeError(c *gin.Context, err error) {
	status := utils.HTTPStatus(err)

	var ae *utils.AppError
	if errors.As(err, &ae) {
		c.JSON(status, APIError{
			Code:    ae.Code,
			Message: ae.Message,
		})
		return
	}

	c.JSON(status, APIError{
		Code:    utils.CodeInternal,
		Message: http.StatusText(status),
	})
}

func codeOf(err error) utils.Code {
	var ae *utils.AppError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return utils.CodeInternal
}

func requireUserID(c *gin.Context) (string, bool) {
	if v, ok := c.Get(middleware.CtxUserID); ok {
		if s, ok := v.(string); ok && s != "" {
			return s, true
		}
	}

	writeError(c, utils.E(utils.CodeUnauthorized, "Auth", "unauthorized", nil))
	return "", false
}

// currentUser builds the identity the JWT middleware put on the context.
func currentUser(c *gin.Context) (*models.User, bool) {
	id, ok := requireUserID(c)
	if !ok {
		return nil, false
	}
	return &models.User{
		ID:    id,
		Name:  c.GetString(middleware.CtxUserName),
		Email: c.GetString(middleware.CtxUserEmail),
	}, true
}

func queryLimit(c *gin.Context, def, max int) int {
	if s := c.Query("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 && n <= max {
			return n
		}
	}
	return def
}
