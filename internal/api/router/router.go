package router

import (
	"github.com/cuongbtq/ats-ingest/internal/api/handler"
	"github.com/gin-gonic/gin"
)

// SetupRouter configures and returns the Gin router with all routes
func SetupRouter(deps *handler.Dependencies) *gin.Engine {
	r := gin.New()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(deps.Logger))
	r.Use(LoggerMiddleware(deps.Logger))
	r.Use(CORSMiddleware())

	r.GET("/health", handler.Health(deps))

	jobHandler := handler.NewJobHandler(deps)

	v1 := r.Group("/api/v1")
	{
		postings := v1.Group("/job-postings")
		{
			postings.POST("", jobHandler.CreateJobPostings)
			postings.GET("", jobHandler.ListJobPostings)
			postings.GET("/:id", jobHandler.GetJobPosting)
			postings.PATCH("/:id", jobHandler.UpdateJobPosting)
		}

		v1.GET("/job-listings/:slug", jobHandler.GetJobListing)
	}

	return r
}
