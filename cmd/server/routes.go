package main

import (
	"github.com/PuzzlesHQ/cosmic-mod-manager-sub000/internal/middleware"
	"github.com/PuzzlesHQ/cosmic-mod-manager-sub000/pkg/logger"
	"github.com/gin-gonic/gin"
)

// registerRoutes sets up all HTTP routes on the given Gin engine.
func registerRoutes(r *gin.Engine, svc *appServices) {
	// Middleware
	r.Use(logger.GinLogger(), logger.GinRecovery())
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false
	r.Use(middleware.CORS())

	// Rate limiter for write-heavy public routes
	authLimiter := middleware.NewRateLimiter(5, 10)

	// Health check
	r.GET("/health", svc.healthHandler.CheckHealth)

	// API routes
	api := r.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth", authLimiter.Middleware())
		{
			auth.POST("/register", svc.authHandler.Register)
			auth.POST("/login", svc.authHandler.Login)
		}

		// Public catalog routes; an optional bearer token widens what the
		// viewer can see.
		public := api.Group("")
		public.Use(middleware.OptionalAuth())
		{
			public.GET("/search", svc.searchHandler.Search)
			public.GET("/projects/random", svc.searchHandler.Random)
			public.GET("/projects/home-page-carousel", svc.searchHandler.HomePageCarousel)

			public.GET("/project/:id", svc.projectHandler.Get)
			public.GET("/project/:id/versions", svc.versionHandler.List)
			public.GET("/project/:id/version/:versionId", svc.versionHandler.Get)
			public.GET("/project/:id/version/:versionId/download", svc.versionHandler.Download)
			public.GET("/project/:id/thread", svc.projectHandler.Thread)

			public.GET("/collection/:id/projects", svc.collectionHandler.Projects)

			public.GET("/user/:username", svc.userHandler.Get)
			public.GET("/user/:username/projects", svc.userHandler.Projects)
		}

		// Protected routes
		protected := api.Group("")
		protected.Use(middleware.AuthRequired())
		{
			// Auth
			protected.GET("/auth/me", svc.authHandler.Me)
			protected.PATCH("/auth/me", svc.authHandler.UpdateProfile)
			protected.POST("/auth/change-password", svc.authHandler.ChangePassword)

			// Projects
			protected.POST("/project", svc.projectHandler.Create)
			protected.GET("/projects/mine", svc.projectHandler.ListMine)
			protected.PATCH("/project/:id", svc.projectHandler.Update)
			protected.PUT("/project/:id/icon", svc.projectHandler.UploadIcon)
			protected.POST("/project/:id/gallery", svc.projectHandler.AddGalleryImage)
			protected.DELETE("/project/:id/gallery/:imageId", svc.projectHandler.RemoveGalleryImage)
			protected.DELETE("/project/:id", svc.projectHandler.Delete)
			protected.POST("/project/:id/submit-for-review", svc.projectHandler.SubmitForReview)
			protected.POST("/project/:id/thread", svc.projectHandler.PostThreadMessage)

			// Follows
			protected.POST("/project/:id/follow", svc.followHandler.Follow)
			protected.DELETE("/project/:id/follow", svc.followHandler.Unfollow)
			protected.POST("/projects/follow", svc.followHandler.FollowBatch)
			protected.DELETE("/projects/follow", svc.followHandler.UnfollowBatch)

			// Versions
			protected.POST("/project/:id/version", svc.versionHandler.Create)
			protected.DELETE("/project/:id/version/:versionId", svc.versionHandler.Delete)

			// Collections
			protected.POST("/collections", svc.collectionHandler.Create)
			protected.GET("/collections", svc.collectionHandler.ListMine)
			protected.DELETE("/collection/:id", svc.collectionHandler.Delete)
			protected.POST("/collection/:id/project/:projectId", svc.collectionHandler.AddProject)
			protected.DELETE("/collection/:id/project/:projectId", svc.collectionHandler.RemoveProject)

			// Teams
			protected.POST("/team/:id/invite", svc.teamHandler.Invite)
			protected.POST("/team/:id/accept", svc.teamHandler.AcceptInvite)
			protected.DELETE("/team/:id/member/:userId", svc.teamHandler.RemoveMember)
			protected.POST("/team/:id/transfer-ownership", svc.teamHandler.TransferOwnership)

			// Notifications
			protected.GET("/notifications", svc.teamHandler.Notifications)
			protected.PATCH("/notification/:id/read", svc.teamHandler.MarkNotificationRead)
		}

		// Moderator routes
		moderation := api.Group("/moderation")
		moderation.Use(middleware.AuthRequired(), middleware.ModeratorRequired())
		{
			moderation.GET("/queue", svc.moderationHandler.Queue)
			moderation.POST("/project/:id/approve", svc.moderationHandler.Approve)
			moderation.POST("/project/:id/reject", svc.moderationHandler.Reject)
			moderation.POST("/project/:id/withhold", svc.moderationHandler.Withhold)
		}

		// Admin routes
		admin := api.Group("/admin")
		admin.Use(middleware.AuthRequired(), middleware.AdminRequired())
		{
			admin.GET("/logs", svc.systemLogHandler.List)
			admin.GET("/logs/modules", svc.systemLogHandler.GetModules)
		}
	}
}
