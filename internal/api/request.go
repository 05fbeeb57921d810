package api

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/Abdu216/Ecommerce-API/internal/apperror"
	"github.com/Abdu216/Ecommerce-API/internal/store"
	"github.com/Abdu216/Ecommerce-API/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

func init() {
	// report json names in validation details
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	}
}

// respondError renders err as {"error": {code, message, details}} and
// aborts the chain.
func respondError(c *gin.Context, err error) {
	appErr := apperror.From(err)
	if appErr.HTTPStatus >= 500 {
		util.GetLogger().Error("Request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err))
	}

	details := appErr.Details
	if details == nil {
		details = map[string]string{}
	}
	c.AbortWithStatusJSON(appErr.HTTPStatus, gin.H{
		"error": gin.H{
			"code":    appErr.Code,
			"message": appErr.Message,
			"details": details,
		},
	})
}

// bindJSON decodes and validates the body, responding on failure
func bindJSON(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		respondError(c, bindingError(err))
		return false
	}
	return true
}

func bindingError(err error) *apperror.AppError {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		appErr := apperror.Validation("validation failed")
		for _, fe := range verrs {
			appErr.WithDetail(fieldPath(fe), fieldMessage(fe))
		}
		return appErr
	}
	return apperror.Validation("invalid request body").WithDetail("body", err.Error())
}

// fieldPath drops the request struct name from the namespace
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "field required"
	case "email":
		return "must be a valid email address"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must contain at least %s items", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

// idParam parses a positive path id
func idParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		respondError(c, apperror.Validation("invalid id").WithDetail(name, c.Param(name)))
		return 0, false
	}
	return id, true
}

// page reads skip and limit. Limits above the configured maximum are clamped.
func (h *Handler) page(c *gin.Context) (store.Page, bool) {
	p := store.Page{Limit: h.defaultLimit}

	if raw := c.Query("skip"); raw != "" {
		skip, err := strconv.Atoi(raw)
		if err != nil || skip < 0 {
			respondError(c, apperror.Validation("skip must be a non-negative integer").WithDetail("skip", raw))
			return p, false
		}
		p.Skip = skip
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			respondError(c, apperror.Validation("limit must be a positive integer").WithDetail("limit", raw))
			return p, false
		}
		p.Limit = limit
	}
	if p.Limit > h.maxLimit {
		p.Limit = h.maxLimit
	}
	return p, true
}

func int64Query(c *gin.Context, name string) (*int64, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		respondError(c, apperror.Validation(fmt.Sprintf("%s must be an integer", name)).WithDetail(name, raw))
		return nil, false
	}
	return &v, true
}

func boolQuery(c *gin.Context, name string) (bool, bool) {
	raw := c.Query(name)
	if raw == "" {
		return false, true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		respondError(c, apperror.Validation(fmt.Sprintf("%s must be a boolean", name)).WithDetail(name, raw))
		return false, false
	}
	return v, true
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// timeQuery accepts RFC 3339, a bare local datetime, or a date. Values
// without an offset are read as UTC.
func timeQuery(c *gin.Context, name string) (*time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, true
		}
	}
	respondError(c, apperror.Validation(fmt.Sprintf("%s must be a date or RFC 3339 timestamp", name)).WithDetail(name, raw))
	return nil, false
}
