package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"user-auth-api/internal/core/auth"
	"user-auth-api/internal/domain"
	"user-auth-api/internal/service"
	httpez "user-auth-api/internal/transport/http/ez"
	mdw "user-auth-api/internal/transport/http/middleware"
	resp "user-auth-api/internal/transport/http/response"
)

type AuthService interface {
	Register(ctx context.Context, in service.RegisterInput) (*domain.User, error)
	Login(ctx context.Context, email, password string) (string, *domain.User, error)
	Validate(token string) (*auth.Claims, error)
}

type AuthHandler struct{ svc AuthService }

func NewAuthHandler(svc AuthService) *AuthHandler { return &AuthHandler{svc: svc} }

type registerIn struct {
	FirstName string `json:"firstName" binding:"required,max=50"`
	LastName  string `json:"lastName"  binding:"required,max=50"`
	Email     string `json:"email"     binding:"required,email,max=30"`
	Status    *int8  `json:"status"    binding:"omitempty,oneof=0 1"`
	Password  string `json:"password"  binding:"required,max=72"`
}

type loginIn struct {
	Email    string `json:"email"    binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Mount POST /user、POST /login、POST /validate、GET /
func (h *AuthHandler) Mount(g *gin.RouterGroup) {
	ez := httpez.New(g)

	httpez.RegisterAction(ez, httpez.Action[struct{}]{
		Method:  http.MethodGet,
		Path:    "/",
		Binder:  httpez.BindNone,
		Handler: func(*gin.Context, *struct{}) (resp.Resp, error) { return resp.OK(resp.MsgWelcome), nil },
	})

	httpez.RegisterAction(ez, httpez.Action[registerIn]{
		Method:  http.MethodPost,
		Path:    "/user",
		Binder:  httpez.BindJSON,
		Status:  http.StatusCreated,
		Handler: h.register,
	})

	httpez.RegisterAction(ez, httpez.Action[loginIn]{
		Method:  http.MethodPost,
		Path:    "/login",
		Binder:  httpez.BindJSON,
		Handler: h.login,
	})

	g.POST("/validate", mdw.AuthJWT(h.svc), h.validate)
}

func (h *AuthHandler) register(c *gin.Context, in *registerIn) (resp.Resp, error) {
	_, err := h.svc.Register(c.Request.Context(), service.RegisterInput{
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     in.Email,
		Status:    in.Status,
		Password:  in.Password,
	})
	switch {
	case err == nil:
		return resp.OK(resp.MsgUserCreated), nil
	case errors.Is(err, domain.ErrDuplicateEmail):
		return resp.Resp{}, httpez.Conflict(fmt.Sprintf(resp.MsgUserExistsFmt, in.Email))
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, auth.ErrEmptyPassword),
		errors.Is(err, auth.ErrPasswordTooLong):
		return resp.Resp{}, httpez.BadRequest(resp.MsgBadRequest)
	case errors.Is(err, domain.ErrStoreLookup):
		return resp.Resp{}, httpez.Internal(resp.MsgCheckFailed, err)
	default:
		return resp.Resp{}, httpez.Internal(resp.MsgCreateFailed, err)
	}
}

func (h *AuthHandler) login(c *gin.Context, in *loginIn) (resp.Resp, error) {
	tok, _, err := h.svc.Login(c.Request.Context(), in.Email, in.Password)
	switch {
	case err == nil:
		return resp.OK(resp.MsgLoggedIn).WithToken(tok), nil
	case errors.Is(err, domain.ErrUserNotFound):
		return resp.Resp{}, httpez.BadRequest(resp.MsgUserNotExist)
	case errors.Is(err, domain.ErrWrongPassword):
		return resp.Resp{}, httpez.Unauthorized(resp.MsgWrongPassword, nil)
	default:
		return resp.Resp{}, httpez.Internal(resp.MsgLookupFailed, err)
	}
}

func (h *AuthHandler) validate(c *gin.Context) {
	claims, _ := c.Get(mdw.KeyClaims)
	c.JSON(http.StatusOK, resp.OK(resp.MsgTokenValid).WithData(claims))
}
