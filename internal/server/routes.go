package server

import "github.com/gin-gonic/gin"

func (s *Server) setupRoutes(router *gin.Engine) {
	router.GET("/health", handleHealth)
	router.GET("/metrics", gin.WrapH(metricsHandler()))
	router.GET("/", s.handleViz)

	api := router.Group("/api")
	{
		network := api.Group("/network")
		{
			network.GET("", s.handleNetwork)
			network.GET("/info", s.handleInfo)
			network.POST("/reload", s.handleReload)
		}

		nodes := api.Group("/nodes")
		{
			nodes.GET("/:id", s.handleNode)
			nodes.GET("/:id/downstream", s.handleDownstream)
			nodes.GET("/:id/path", s.handlePath)
		}

		api.GET("/houses/:houseId/metrics/:group", s.handleHouseMetrics)
	}
}
