package swipe

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/crushapp/crush-server/internal/app"
	svcErr "github.com/crushapp/crush-server/internal/errors"
	"github.com/crushapp/crush-server/internal/server"
)

// Registrar ties the swipe service into the HTTP server
type Registrar struct {
	appCtx *app.AppContext
}

// NewRegistrar creates a new Registrar for the swipe service
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

// Register attaches the swipe routes to the API group
func (r *Registrar) Register(api *gin.RouterGroup) {
	svc := NewSwipeService(r.appCtx)

	api.POST("/swipe/action", postSwipe(svc))
	api.POST("/swipe/action/async", postBatch(svc))
}

type swipeRequest struct {
	TargetUserID uint64 `json:"targetUserId"`
	Kind         string `json:"kind"`
}

func postSwipe(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req swipeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			server.RespondError(c, svcErr.InvalidArgument("malformed swipe request"))
			return
		}

		resp, err := svc.Swipe(c.Request.Context(), server.CallerID(c), req.TargetUserID, req.Kind)
		if err != nil {
			server.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

type batchRequest struct {
	Swipes []BatchItem `json:"swipes"`
}

func postBatch(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req batchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			server.RespondError(c, svcErr.InvalidArgument("malformed batch request"))
			return
		}

		ack, err := svc.SubmitBatch(c.Request.Context(), server.CallerID(c), req.Swipes)
		if err != nil {
			server.RespondError(c, err)
			return
		}
		c.JSON(http.StatusAccepted, ack)
	}
}
