package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/atomichabits/internal/service"
	"github.com/atomichabits/internal/validation"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

const (
	msgNotFound       = "Not found."
	msgForbidden      = "You do not have permission to perform this action."
	msgUnauthorized   = "Authentication credentials were not provided."
	msgJSONParse      = "JSON parse error"
	msgInvalidPage    = "Invalid page."
	msgInternal       = "A server error occurred."
	nonFieldErrorsKey = "non_field_errors"
)

func init() {
	// 校验错误使用 JSON 字段名
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(jsonFieldName)
	}
}

func jsonFieldName(field reflect.StructField) string {
	name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return field.Name
	}
	return name
}

func respondError(c *gin.Context, status int, detail string) {
	c.JSON(status, gin.H{"detail": detail})
}

func respondFieldErrors(c *gin.Context, errs service.FieldErrors) {
	c.JSON(http.StatusBadRequest, errs)
}

func respondValidation(c *gin.Context, verr *validation.Error) {
	c.JSON(http.StatusBadRequest, gin.H{nonFieldErrorsKey: verr.Result.Messages()})
}

// respondInputError handles the error kinds shared by every write endpoint and
// reports whether err was one of them.
func respondInputError(c *gin.Context, err error) bool {
	var fieldErrs service.FieldErrors
	var verr *validation.Error
	switch {
	case errors.As(err, &fieldErrs):
		respondFieldErrors(c, fieldErrs)
	case errors.As(err, &verr):
		respondValidation(c, verr)
	default:
		return false
	}
	return true
}

// bindJSON binds and validates the body into dst. Validator failures become
// field errors, anything else is a parse error.
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			respondFieldErrors(c, translateValidationErrors(verrs))
			return false
		}
		respondError(c, http.StatusBadRequest, msgJSONParse)
		return false
	}
	return true
}

// validateStruct runs the gin validator against an already populated payload.
func validateStruct(payload interface{}, errs service.FieldErrors) {
	err := binding.Validator.ValidateStruct(payload)
	if err == nil {
		return
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for field, messages := range translateValidationErrors(verrs) {
			for _, message := range messages {
				errs.Add(field, message)
			}
		}
		return
	}
	errs.Add(nonFieldErrorsKey, err.Error())
}

func translateValidationErrors(verrs validator.ValidationErrors) service.FieldErrors {
	errs := service.FieldErrors{}
	for _, fe := range verrs {
		errs.Add(fe.Field(), validationMessage(fe))
	}
	return errs
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return service.MsgFieldRequired
	case "email":
		return "Enter a valid email address."
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
		}
		return fmt.Sprintf("Ensure this value is less than or equal to %s.", fe.Param())
	case "min", "gte":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Ensure this field has at least %s characters.", fe.Param())
		}
		return fmt.Sprintf("Ensure this value is greater than or equal to %s.", fe.Param())
	default:
		return "Invalid value."
	}
}

// readJSONObject reads the body as a JSON object keyed by field name so that
// absent fields can be told apart from explicit nulls. An empty body is an
// empty object.
func readJSONObject(c *gin.Context) (map[string]json.RawMessage, bool) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		respondError(c, http.StatusBadRequest, msgJSONParse)
		return nil, false
	}

	raw := map[string]json.RawMessage{}
	if len(bytes.TrimSpace(body)) == 0 {
		return raw, true
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		respondError(c, http.StatusBadRequest, msgJSONParse)
		return nil, false
	}
	return raw, true
}

func isJSONNull(value json.RawMessage) bool {
	return string(bytes.TrimSpace(value)) == "null"
}

// decodeField decodes raw[key] into an Optional, adding typeMessage to errs on
// a type mismatch.
func decodeField[T any](raw map[string]json.RawMessage, key string, errs service.FieldErrors, typeMessage string) service.Optional[T] {
	value, ok := raw[key]
	if !ok {
		return service.Optional[T]{}
	}
	if isJSONNull(value) {
		return service.Null[T]()
	}

	var decoded T
	if err := json.Unmarshal(value, &decoded); err != nil {
		errs.Add(key, typeMessage)
		return service.Optional[T]{}
	}
	return service.Some(decoded)
}

func parseUintParam(c *gin.Context, key string) (uint, error) {
	raw := c.Param(key)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return uint(id), nil
}

// pageFromQuery reads page and page_size. A malformed page number is an
// invalid page; a malformed size falls back to the default.
func (a *API) pageFromQuery(c *gin.Context) (service.Page, error) {
	page := service.Page{Number: 1, Size: a.pageSize}

	if raw := strings.TrimSpace(c.Query("page")); raw != "" {
		number, err := strconv.Atoi(raw)
		if err != nil || number < 1 {
			return page, service.ErrInvalidPage
		}
		page.Number = number
	}

	if raw := strings.TrimSpace(c.Query("page_size")); raw != "" {
		if size, err := strconv.Atoi(raw); err == nil && size > 0 {
			page.Size = size
		}
	}
	return page, nil
}

func paginatedResponse(c *gin.Context, total int64, page service.Page, results []gin.H) gin.H {
	var next, previous interface{}
	if page.HasNext(total) {
		next = pageURL(c, page.Number+1)
	}
	if page.HasPrevious() {
		previous = pageURL(c, page.Number-1)
	}

	return gin.H{
		"count":    total,
		"next":     next,
		"previous": previous,
		"results":  results,
	}
}

// pageURL 生成带分页参数的绝对地址，第一页不带 page 参数
func pageURL(c *gin.Context, number int) string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if forwarded := c.GetHeader("X-Forwarded-Proto"); forwarded != "" {
		scheme = forwarded
	}

	query := c.Request.URL.Query()
	if number <= 1 {
		query.Del("page")
	} else {
		query.Set("page", strconv.Itoa(number))
	}

	u := url.URL{
		Scheme:   scheme,
		Host:     c.Request.Host,
		Path:     c.Request.URL.Path,
		RawQuery: query.Encode(),
	}
	return u.String()
}
