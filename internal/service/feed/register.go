package feed

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/crushapp/crush-server/internal/app"
	svcErr "github.com/crushapp/crush-server/internal/errors"
	"github.com/crushapp/crush-server/internal/server"
)

// Registrar ties the feed service into the HTTP server
type Registrar struct {
	appCtx *app.AppContext
}

// NewRegistrar creates a new Registrar for the feed service
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

// Register attaches the feed routes to the API group
func (r *Registrar) Register(api *gin.RouterGroup) {
	svc := NewFeedService(r.appCtx)

	api.GET("/swipe/feed", getFeed(svc, false))
	api.POST("/swipe/feed/more", getFeed(svc, true))
}

func getFeed(svc *Service, refill bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		var filter Filter

		var err error
		if refill {
			err = c.ShouldBindJSON(&filter)
		} else {
			err = c.ShouldBindQuery(&filter)
		}
		if err != nil {
			server.RespondError(c, svcErr.InvalidFilter("malformed feed filter"))
			return
		}

		resp, err := svc.BuildFeed(c.Request.Context(), server.CallerID(c), filter, refill)
		if err != nil {
			server.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}
