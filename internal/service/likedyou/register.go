package likedyou

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/crushapp/crush-server/internal/app"
	svcErr "github.com/crushapp/crush-server/internal/errors"
	"github.com/crushapp/crush-server/internal/server"
)

// Registrar ties the liked-you service into the HTTP server
type Registrar struct {
	appCtx *app.AppContext
}

// NewRegistrar creates a new Registrar for the liked-you service
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

// Register attaches the liked-you routes to the API group
func (r *Registrar) Register(api *gin.RouterGroup) {
	svc := NewLikedYouService(r.appCtx)

	api.GET("/likes/received", listLikers(svc))
	api.GET("/likes/received/preview", getPreview(svc))
	api.GET("/likes/received/count", getCount(svc))
	api.POST("/likes/received/action", postAction(svc))
}

func listLikers(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var token *string
		if t := c.Query("paginationToken"); t != "" {
			token = &t
		}
		limit, _ := strconv.Atoi(c.Query("limit"))

		resp, err := svc.List(c.Request.Context(), server.CallerID(c), token, limit)
		if err != nil {
			server.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

func getPreview(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp, err := svc.Preview(c.Request.Context(), server.CallerID(c))
		if err != nil {
			server.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

func getCount(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp, err := svc.Count(c.Request.Context(), server.CallerID(c))
		if err != nil {
			server.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

type actionRequest struct {
	LikerUserID uint64 `json:"likerUserId"`
	Kind        string `json:"kind"`
}

func postAction(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req actionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			server.RespondError(c, svcErr.InvalidArgument("malformed action request"))
			return
		}

		resp, err := svc.Action(c.Request.Context(), server.CallerID(c), req.LikerUserID, req.Kind)
		if err != nil {
			server.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}
