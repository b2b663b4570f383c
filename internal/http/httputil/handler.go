package httputil

import "github.com/gin-gonic/gin"

// IHttpHandler is implemented by every route group the server mounts.
type IHttpHandler interface {
	Root() string
	SetRoutes(pub *gin.RouterGroup, admin *gin.RouterGroup)
}
