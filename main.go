package main

import (
	"fmt"
	"log"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"

	"github.com/victoroki/Korstrada/routes"
	"github.com/victoroki/Korstrada/storage"
	"github.com/victoroki/Korstrada/utils"
)

func main() {
	// Only load .env in development
	if os.Getenv("RENDER") == "" {
		godotenv.Load()
	}

	storage.InitializeDB()
	storage.InitializeRedis()
	storage.InitializeBucket()

	app := iris.New()
	app.Validator = validator.New()

	// CORS configuration
	app.AllowMethods(iris.MethodOptions)
	app.UseRouter(func(ctx iris.Context) {
		ctx.Header("Access-Control-Allow-Origin", ctx.GetHeader("Origin"))
		ctx.Header("Vary", "Origin")
		ctx.Header("Access-Control-Allow-Credentials", "true")
		ctx.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Requested-With")
		ctx.Header("Access-Control-Allow-Methods", "GET,POST,PATCH,PUT,DELETE,OPTIONS")
		if ctx.Method() == iris.MethodOptions {
			ctx.StatusCode(iris.StatusNoContent)
			return
		}
		ctx.Next()
	})

	// Minimal middleware - compression only
	app.Use(iris.Compression)

	accessTokenVerifier := jwt.NewVerifier(jwt.HS256, []byte(os.Getenv("ACCESS_TOKEN_SECRET")))
	accessTokenVerifier.WithDefaultBlocklist()
	accessTokenVerifierMiddleware := accessTokenVerifier.Verify(func() interface{} {
		return new(utils.AccessToken)
	})

	refreshTokenVerifier := jwt.NewVerifier(jwt.HS256, []byte(os.Getenv("REFRESH_TOKEN_SECRET")))
	refreshTokenVerifier.WithDefaultBlocklist()
	refreshTokenVerifierMiddleware := refreshTokenVerifier.Verify(func() interface{} {
		return new(jwt.Claims)
	})

	refreshTokenVerifier.Extractors = append(refreshTokenVerifier.Extractors, func(ctx iris.Context) string {
		var tokenInput utils.RefreshTokenInput
		err := ctx.ReadJSON(&tokenInput)
		if err != nil {
			return ""
		}
		return tokenInput.RefreshToken
	})

	app.Get("/health", func(ctx iris.Context) {
		ctx.JSON(iris.Map{"status": "ok"})
	})

	auth := app.Party("/api/auth")
	{
		auth.Post("/register", routes.Register)
		auth.Post("/login", routes.Login)
		auth.Post("/refresh", refreshTokenVerifierMiddleware, utils.RefreshToken(routes.LookupUserRole))
		auth.Get("/profile", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, routes.GetProfile)
		auth.Put("/profile", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, routes.UpdateProfile)
	}

	property := app.Party("/api/properties")
	{
		property.Get("/", routes.GetProperties)
		property.Get("/{id:uint}", routes.GetProperty)
		property.Post("/", accessTokenVerifierMiddleware, utils.RequireRoles("host", "admin"), routes.CreateProperty)
		property.Put("/{id:uint}", accessTokenVerifierMiddleware, utils.RequireRoles("host", "admin"), routes.UpdateProperty)
		property.Delete("/{id:uint}", accessTokenVerifierMiddleware, utils.RequireRoles("host", "admin"), routes.DeleteProperty)
		property.Get("/host/{hostId:uint}", accessTokenVerifierMiddleware, utils.RequireRoles("host", "admin"), routes.GetHostProperties)

		property.Post("/{id:uint}/images", accessTokenVerifierMiddleware, utils.RequireRoles("host", "admin"), routes.UploadPropertyImages)
		property.Delete("/{id:uint}/images/{imageId}", accessTokenVerifierMiddleware, utils.RequireRoles("host", "admin"), routes.DeletePropertyImage)

		property.Post("/{id:uint}/pricing", accessTokenVerifierMiddleware, utils.RequireRoles("host", "admin"), routes.UpsertPricing)
		property.Get("/{id:uint}/pricing", routes.GetPricing)
		property.Put("/{id:uint}/pricing", accessTokenVerifierMiddleware, utils.RequireRoles("host", "admin"), routes.UpdatePricing)

		property.Post("/{id:uint}/availability", accessTokenVerifierMiddleware, utils.RequireRoles("host", "admin"), routes.CreateAvailability)
		property.Get("/{id:uint}/availability", routes.GetAvailability)
		property.Put("/{id:uint}/availability/{availabilityId:uint}", accessTokenVerifierMiddleware, utils.RequireRoles("host", "admin"), routes.UpdateAvailability)
		property.Delete("/{id:uint}/availability/{availabilityId:uint}", accessTokenVerifierMiddleware, utils.RequireRoles("host", "admin"), routes.DeleteAvailability)

		property.Get("/{id:uint}/reviews", routes.GetPropertyReviews)
	}

	booking := app.Party("/api/bookings")
	{
		booking.Post("/", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, routes.CreateBooking)
		booking.Get("/", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, routes.GetBookings)
		booking.Get("/{id:uint}", accessTokenVerifierMiddleware, routes.GetBooking)
		booking.Put("/{id:uint}/status", accessTokenVerifierMiddleware, utils.RequireRoles("host", "admin"), routes.UpdateBookingStatus)
		booking.Delete("/{id:uint}", accessTokenVerifierMiddleware, routes.CancelBooking)
	}

	review := app.Party("/api/reviews")
	{
		review.Post("/", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, routes.CreateReview)
		review.Put("/{id:uint}", accessTokenVerifierMiddleware, routes.UpdateReview)
		review.Delete("/{id:uint}", accessTokenVerifierMiddleware, routes.DeleteReview)
	}

	admin := app.Party("/api/admin", accessTokenVerifierMiddleware, utils.RequireRoles("admin"))
	{
		admin.Get("/stats", routes.GetAdminStats)
		admin.Get("/users", routes.GetAdminUsers)
		admin.Get("/properties", routes.GetAdminProperties)
		admin.Get("/bookings", routes.GetAdminBookings)
		admin.Put("/users/{id:uint}/role", routes.UpdateUserRole)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "4000"
	}
	addr := "0.0.0.0:" + port

	fmt.Println("Server starting on", addr)

	if err := app.Listen(addr); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
