package ez

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	resp "user-auth-api/internal/transport/http/response"
)

type EZ struct{ g *gin.RouterGroup }

func New(g *gin.RouterGroup) EZ { return EZ{g: g} }

// 绑定方式
type Binder string

const (
	BindJSON Binder = "json" // 从 JSON 绑定
	BindNone Binder = "none" // 不绑定，自己从 header 取
)

// AErr 统一错误对象，Code 即 HTTP 状态码
type AErr struct {
	Code int
	Msg  string
	Data any
	Err  error
}

func (e *AErr) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "action error"
}

func (e *AErr) Unwrap() error { return e.Err }

func BadRequest(msg string) error { return &AErr{Code: http.StatusBadRequest, Msg: msg} }
func Unauthorized(msg string, data any) error {
	return &AErr{Code: http.StatusUnauthorized, Msg: msg, Data: data}
}
func Conflict(msg string) error { return &AErr{Code: http.StatusConflict, Msg: msg} }

// Internal err 只进日志，不回给客户端
func Internal(msg string, err error) error {
	return &AErr{Code: http.StatusInternalServerError, Msg: msg, Err: err}
}

// Action I 为入参
type Action[I any] struct {
	Method  string // "GET" | "POST" | "PUT" | "DELETE"
	Path    string
	Binder  Binder
	Status  int // 成功时的 HTTP 状态码，默认 200
	Handler func(c *gin.Context, in *I) (resp.Resp, error)
}

func RegisterAction[I any](e EZ, a Action[I]) {
	h := func(c *gin.Context) {
		var in I
		var bindErr error
		switch a.Binder {
		case BindJSON:
			bindErr = c.ShouldBindJSON(&in)
		default:
		}
		if bindErr != nil {
			Abort(c, bindError(bindErr))
			return
		}

		out, err := a.Handler(c, &in)
		if err != nil {
			Abort(c, err)
			return
		}
		status := a.Status
		if status == 0 {
			status = http.StatusOK
		}
		c.JSON(status, out)
	}

	switch strings.ToUpper(a.Method) {
	case http.MethodGet:
		e.g.GET(a.Path, h)
	case http.MethodPut:
		e.g.PUT(a.Path, h)
	case http.MethodDelete:
		e.g.DELETE(a.Path, h)
	default: // 默认 POST
		e.g.POST(a.Path, h)
	}
}

// Abort 统一错误映射；非 AErr 一律 500，不泄露内部错误
func Abort(c *gin.Context, err error) {
	var ae *AErr
	if !errors.As(err, &ae) {
		ae = &AErr{Code: http.StatusInternalServerError, Msg: resp.MsgInternal, Err: err}
	}
	if ae.Err != nil {
		_ = c.Error(ae.Err)
	}
	c.AbortWithStatusJSON(ae.Code, resp.Fail(ae.Error()).WithData(ae.Data))
}

func bindError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return &AErr{Code: http.StatusRequestEntityTooLarge, Msg: resp.MsgBodyTooLarge}
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return BadRequest(resp.MsgBadRequest)
	}
	fields := make(map[string]string, len(ves))
	for _, fe := range ves {
		name := jsonName(fe.Field())
		switch fe.Tag() {
		case "required":
			fields[name] = fmt.Sprintf("The %s field is required.", name)
		case "email":
			fields[name] = fmt.Sprintf("The %s must be a valid email address.", name)
		case "max":
			fields[name] = fmt.Sprintf("The %s may not be greater than %s characters.", name, fe.Param())
		case "oneof":
			fields[name] = fmt.Sprintf("The %s must be one of [%s].", name, fe.Param())
		default:
			fields[name] = fmt.Sprintf("The %s field is invalid.", name)
		}
	}
	return &AErr{Code: http.StatusBadRequest, Msg: resp.MsgBadRequest, Data: fields}
}

// FirstName → firstName
func jsonName(field string) string {
	if field == "" {
		return field
	}
	return strings.ToLower(field[:1]) + field[1:]
}
