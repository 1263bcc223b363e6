package account

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/crushapp/crush-server/internal/app"
	"github.com/crushapp/crush-server/internal/server"
)

// Registrar ties the account service into the HTTP server
type Registrar struct {
	appCtx *app.AppContext
}

// NewRegistrar creates a new Registrar for the account service
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

// Register attaches the account routes to the API group
func (r *Registrar) Register(api *gin.RouterGroup) {
	svc := NewAccountService(r.appCtx)

	api.DELETE("/account", deleteAccount(svc))
}

func deleteAccount(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.Delete(c.Request.Context(), server.CallerID(c)); err != nil {
			server.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"deleted": true})
	}
}
