package router

import "github.com/gin-gonic/gin"

// Module registers one feature's routes on the /api group. Modules add their
// own auth and rate-limit middleware.
type Module interface {
	Register(rg *gin.RouterGroup)
}
