package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"liyu1981.xyz/iot-gateway-service/pkg/auth"
	"liyu1981.xyz/iot-gateway-service/pkg/gateway"
)

type RestfulServer struct {
	Server   *gin.Engine
	Gateway  *gateway.Gateway
	Tokens   *auth.TokenManager
	Identity auth.IdentityVerifier
	// MaxContentLength caps every request body, in bytes. Zero disables the cap.
	MaxContentLength int64
}

func (rs *RestfulServer) Setup() {
	rs.Server.Use(rs.RequestMetrics(), rs.LimitBody())

	rs.Server.GET("/healthz", rs.HealthCheck)
	rs.Server.GET("/metrics", gin.WrapH(promhttp.Handler()))

	rs.Server.POST("/login", rs.Login)
	rs.Server.POST("/refresh", rs.RequireToken(auth.TokenTypeRefresh), rs.Refresh)
	rs.Server.GET("/", rs.RequireToken(auth.TokenTypeAccess), rs.Index)

	api := rs.Server.Group("/api", rs.RequireToken(auth.TokenTypeAccess))
	{
		api.GET("/datatype", rs.GetDatatypes)
		api.POST("/datatype", rs.PostDatatype)
		api.PATCH("/datatype", rs.PatchDatatype)
		api.DELETE("/datatype", rs.DeleteDatatype)

		api.GET("/device", rs.GetDevices)
		api.POST("/device", rs.PostDevice)
		api.PATCH("/device", rs.PatchDevice)
		api.DELETE("/device", rs.DeleteDevice)

		api.GET("/sensor", rs.GetSensors)
		api.POST("/sensor", rs.PostSensor)
		api.PATCH("/sensor", rs.PatchSensor)
		api.DELETE("/sensor", rs.DeleteSensor)

		api.GET("/filedetail", rs.GetFileDetails)
		api.PUT("/filedetail", rs.PutFileDetail)
		api.DELETE("/filedetail", rs.DeleteFileDetail)

		api.GET("/tag", rs.GetTags)
		api.POST("/tag", rs.PostTag)
		api.PATCH("/tag", rs.PatchTag)
		api.DELETE("/tag", rs.DeleteTag)

		api.PUT("/file", rs.PutFile)
	}
}
