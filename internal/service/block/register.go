package block

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/crushapp/crush-server/internal/app"
	svcErr "github.com/crushapp/crush-server/internal/errors"
	"github.com/crushapp/crush-server/internal/server"
)

// Registrar ties the block service into the HTTP server
type Registrar struct {
	appCtx *app.AppContext
}

// NewRegistrar creates a new Registrar for the block service
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

// Register attaches the block routes to the API group
func (r *Registrar) Register(api *gin.RouterGroup) {
	svc := NewBlockService(r.appCtx)

	api.POST("/block/:userId", postBlock(svc))
	api.DELETE("/block/:userId", deleteBlock(svc))
}

func targetID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("userId"), 10, 64)
	if err != nil || id == 0 {
		server.RespondError(c, svcErr.InvalidArgument("userId must be a valid id"))
		return 0, false
	}
	return id, true
}

func postBlock(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := targetID(c)
		if !ok {
			return
		}
		if err := svc.Block(c.Request.Context(), server.CallerID(c), id); err != nil {
			server.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"blocked": true})
	}
}

func deleteBlock(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := targetID(c)
		if !ok {
			return
		}
		if err := svc.Unblock(c.Request.Context(), server.CallerID(c), id); err != nil {
			server.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"blocked": false})
	}
}
