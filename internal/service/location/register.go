package location

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/crushapp/crush-server/internal/app"
	svcErr "github.com/crushapp/crush-server/internal/errors"
	"github.com/crushapp/crush-server/internal/server"
)

// Registrar ties the location service into the HTTP server
type Registrar struct {
	appCtx *app.AppContext
}

// NewRegistrar creates a new Registrar for the location service
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

// Register attaches the location routes to the API group
func (r *Registrar) Register(api *gin.RouterGroup) {
	svc := NewLocationService(r.appCtx)

	api.POST("/location/save", postLocation(svc))
	api.GET("/location/nearby", getNearby(svc))
	api.DELETE("/location", deleteLocation(svc))
}

type saveRequest struct {
	Latitude  float64 `json:"latitude" binding:"required"`
	Longitude float64 `json:"longitude" binding:"required"`
}

func postLocation(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req saveRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			server.RespondError(c, svcErr.InvalidArgument("malformed location request"))
			return
		}

		if err := svc.Save(c.Request.Context(), server.CallerID(c), req.Latitude, req.Longitude); err != nil {
			server.RespondError(c, err)
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"accepted": true})
	}
}

func getNearby(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		radiusKm, _ := strconv.ParseFloat(c.Query("radiusKm"), 64)

		resp, err := svc.Nearby(c.Request.Context(), server.CallerID(c), radiusKm)
		if err != nil {
			server.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

func deleteLocation(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.Delete(c.Request.Context(), server.CallerID(c)); err != nil {
			server.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"deleted": true})
	}
}
