package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"os"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/go-playground/validator/v10"
	"github.com/go-redis/redis/v8"
	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/victoroki/Korstrada/models"
	"github.com/victoroki/Korstrada/storage"
	"github.com/victoroki/Korstrada/utils"
)

// fakeBucket records uploads and removals instead of talking to object
// storage. URLs follow the real public-URL shape so key extraction works.
type fakeBucket struct {
	mu       sync.Mutex
	uploads  []string
	removals []string
}

func (f *fakeBucket) Upload(filename string, contentType string, content []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads = append(f.uploads, filename)
	return "https://bucket.test/storage/v1/object/public/" + storage.BucketName + "/" + filename, nil
}

func (f *fakeBucket) Remove(publicURL string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removals = append(f.removals, publicURL)
	return nil
}

func (f *fakeBucket) removalCount(publicURL string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, url := range f.removals {
		if url == publicURL {
			count++
		}
	}
	return count
}

// setupTest wires an in-memory database, an in-process redis, a fake bucket,
// and the full router. Everything is torn down with the test.
func setupTest(t *testing.T) (*iris.Application, *fakeBucket) {
	t.Helper()

	os.Setenv("ACCESS_TOKEN_SECRET", "test-access-secret")
	os.Setenv("REFRESH_TOKEN_SECRET", "test-refresh-secret")

	db, dbErr := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if dbErr != nil {
		t.Fatalf("failed to open test db: %v", dbErr)
	}
	migrateErr := db.AutoMigrate(
		&models.User{},
		&models.Property{},
		&models.Booking{},
		&models.Pricing{},
		&models.Availability{},
		&models.Review{},
	)
	if migrateErr != nil {
		t.Fatalf("failed to migrate test db: %v", migrateErr)
	}
	storage.DB = db

	mr := miniredis.RunT(t)
	storage.Redis = redis.NewClient(&redis.Options{Addr: mr.Addr()})

	bucket := &fakeBucket{}
	storage.Bucket = bucket

	app := buildTestApp()
	if err := app.Build(); err != nil {
		t.Fatalf("failed to build test app: %v", err)
	}
	return app, bucket
}

// buildTestApp registers the same parties as main, minus CORS and
// compression.
func buildTestApp() *iris.Application {
	app := iris.New()
	// The recorder used by doJSON cannot follow the path-correction
	// redirect a real client would, so serve the corrected path directly.
	app.Configure(iris.WithoutPathCorrectionRedirection)
	app.Validator = validator.New()

	accessTokenVerifier := jwt.NewVerifier(jwt.HS256, []byte(os.Getenv("ACCESS_TOKEN_SECRET")))
	accessTokenVerifierMiddleware := accessTokenVerifier.Verify(func() interface{} {
		return new(utils.AccessToken)
	})

	refreshTokenVerifier := jwt.NewVerifier(jwt.HS256, []byte(os.Getenv("REFRESH_TOKEN_SECRET")))
	refreshTokenVerifierMiddleware := refreshTokenVerifier.Verify(func() interface{} {
		return new(jwt.Claims)
	})
	refreshTokenVerifier.Extractors = append(refreshTokenVerifier.Extractors, func(ctx iris.Context) string {
		var tokenInput utils.RefreshTokenInput
		if err := ctx.ReadJSON(&tokenInput); err != nil {
			return ""
		}
		return tokenInput.RefreshToken
	})

	auth := app.Party("/api/auth")
	{
		auth.Post("/register", Register)
		auth.Post("/login", Login)
		auth.Post("/refresh", refreshTokenVerifierMiddleware, utils.RefreshToken(LookupUserRole))
		auth.Get("/profile", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, GetProfile)
		auth.Put("/profile", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, UpdateProfile)
	}

	property := app.Party("/api/properties")
	{
		property.Get("/", GetProperties)
		property.Get("/{id:uint}", GetProperty)
		property.Post("/", accessTokenVerifierMiddleware, utils.RequireRoles("host", "admin"), CreateProperty)
		property.Put("/{id:uint}", accessTokenVerifierMiddleware, utils.RequireRoles("host", "admin"), UpdateProperty)
		property.Delete("/{id:uint}", accessTokenVerifierMiddleware, utils.RequireRoles("host", "admin"), DeleteProperty)
		property.Get("/host/{hostId:uint}", accessTokenVerifierMiddleware, utils.RequireRoles("host", "admin"), GetHostProperties)

		property.Post("/{id:uint}/images", accessTokenVerifierMiddleware, utils.RequireRoles("host", "admin"), UploadPropertyImages)
		property.Delete("/{id:uint}/images/{imageId}", accessTokenVerifierMiddleware, utils.RequireRoles("host", "admin"), DeletePropertyImage)

		property.Post("/{id:uint}/pricing", accessTokenVerifierMiddleware, utils.RequireRoles("host", "admin"), UpsertPricing)
		property.Get("/{id:uint}/pricing", GetPricing)
		property.Put("/{id:uint}/pricing", accessTokenVerifierMiddleware, utils.RequireRoles("host", "admin"), UpdatePricing)

		property.Post("/{id:uint}/availability", accessTokenVerifierMiddleware, utils.RequireRoles("host", "admin"), CreateAvailability)
		property.Get("/{id:uint}/availability", GetAvailability)
		property.Put("/{id:uint}/availability/{availabilityId:uint}", accessTokenVerifierMiddleware, utils.RequireRoles("host", "admin"), UpdateAvailability)
		property.Delete("/{id:uint}/availability/{availabilityId:uint}", accessTokenVerifierMiddleware, utils.RequireRoles("host", "admin"), DeleteAvailability)

		property.Get("/{id:uint}/reviews", GetPropertyReviews)
	}

	booking := app.Party("/api/bookings")
	{
		booking.Post("/", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, CreateBooking)
		booking.Get("/", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, GetBookings)
		booking.Get("/{id:uint}", accessTokenVerifierMiddleware, GetBooking)
		booking.Put("/{id:uint}/status", accessTokenVerifierMiddleware, utils.RequireRoles("host", "admin"), UpdateBookingStatus)
		booking.Delete("/{id:uint}", accessTokenVerifierMiddleware, CancelBooking)
	}

	review := app.Party("/api/reviews")
	{
		review.Post("/", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, CreateReview)
		review.Put("/{id:uint}", accessTokenVerifierMiddleware, UpdateReview)
		review.Delete("/{id:uint}", accessTokenVerifierMiddleware, DeleteReview)
	}

	admin := app.Party("/api/admin", accessTokenVerifierMiddleware, utils.RequireRoles("admin"))
	{
		admin.Get("/stats", GetAdminStats)
		admin.Get("/users", GetAdminUsers)
		admin.Get("/properties", GetAdminProperties)
		admin.Get("/bookings", GetAdminBookings)
		admin.Put("/users/{id:uint}/role", UpdateUserRole)
	}

	return app
}

func signTestToken(id uint, role string) string {
	signer := jwt.NewSigner(jwt.HS256, os.Getenv("ACCESS_TOKEN_SECRET"), 0)
	token, _ := signer.Sign(utils.AccessToken{ID: id, Role: role})
	return string(token)
}

func createTestUser(t *testing.T, email string, role string) models.User {
	t.Helper()
	hash, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	user := models.User{
		FirstName: "Test",
		LastName:  "User",
		Email:     email,
		Password:  string(hash),
		Role:      role,
	}
	if err := storage.DB.Create(&user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

func createTestProperty(t *testing.T, hostID uint, maxGuests int, basePrice float64) models.Property {
	t.Helper()
	property := models.Property{
		HostID:    hostID,
		Title:     "Seaside Flat",
		City:      "Lisbon",
		Country:   "Portugal",
		MaxGuests: maxGuests,
		BasePrice: basePrice,
		Amenities: marshalStringList(nil),
		Images:    marshalStringList(nil),
		Status:    "active",
	}
	if err := storage.DB.Create(&property).Error; err != nil {
		t.Fatalf("failed to create test property: %v", err)
	}
	return property
}

// doJSON issues a request with an optional bearer token and JSON body.
func doJSON(app *iris.Application, method string, target string, token string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp := httptest.NewRecorder()
	app.ServeHTTP(resp, req)
	return resp
}

func decodeBody(t *testing.T, resp *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response %q: %v", resp.Body.String(), err)
	}
	return body
}

func urlf(format string, args ...interface{}) string {
	return fmt.Sprintf(format, args...)
}
