package routes

import (
	"net/http"
	"testing"

	"github.com/victoroki/Korstrada/models"
	"github.com/victoroki/Korstrada/storage"
)

func seedCompletedBooking(t *testing.T) (hostID uint, guest models.User, booking models.Booking) {
	t.Helper()
	host := createTestUser(t, "host@example.com", "host")
	guest = createTestUser(t, "guest@example.com", "guest")
	property := createTestProperty(t, host.ID, 2, 150)
	booking = models.Booking{PropertyID: property.ID, GuestID: guest.ID, Status: "completed"}
	storage.DB.Create(&booking)
	return host.ID, guest, booking
}

func TestCreateReviewOncePerBooking(t *testing.T) {
	app, _ := setupTest(t)
	_, guest, booking := seedCompletedBooking(t)
	token := signTestToken(guest.ID, "guest")

	resp := doJSON(app, http.MethodPost, "/api/reviews/", token, map[string]interface{}{
		"bookingID": booking.ID,
		"rating":    4,
		"location":  5,
		"comment":   "Great stay",
	})
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}

	review := decodeBody(t, resp)["review"].(map[string]interface{})
	if review["location"].(float64) != 5 {
		t.Fatalf("supplied sub-rating must be kept, got %v", review["location"])
	}
	// Omitted sub-ratings inherit the overall rating
	for _, field := range []string{"cleanliness", "accuracy", "communication", "value"} {
		if review[field].(float64) != 4 {
			t.Fatalf("expected %s to default to 4, got %v", field, review[field])
		}
	}

	second := doJSON(app, http.MethodPost, "/api/reviews/", token, map[string]interface{}{
		"bookingID": booking.ID,
		"rating":    2,
	})
	if second.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for second review of the same booking, got %d", second.Code)
	}
}

func TestCreateReviewGuards(t *testing.T) {
	app, _ := setupTest(t)
	_, guest, booking := seedCompletedBooking(t)
	stranger := createTestUser(t, "stranger@example.com", "guest")

	// Unknown booking
	notFound := doJSON(app, http.MethodPost, "/api/reviews/", signTestToken(guest.ID, "guest"), map[string]interface{}{
		"bookingID": 99999,
		"rating":    4,
	})
	if notFound.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", notFound.Code)
	}

	// Someone else's booking
	foreign := doJSON(app, http.MethodPost, "/api/reviews/", signTestToken(stranger.ID, "guest"), map[string]interface{}{
		"bookingID": booking.ID,
		"rating":    4,
	})
	if foreign.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", foreign.Code)
	}

	// Booking not completed yet
	pending := models.Booking{PropertyID: booking.PropertyID, GuestID: guest.ID, Status: "confirmed"}
	storage.DB.Create(&pending)
	early := doJSON(app, http.MethodPost, "/api/reviews/", signTestToken(guest.ID, "guest"), map[string]interface{}{
		"bookingID": pending.ID,
		"rating":    4,
	})
	if early.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unfinished booking, got %d", early.Code)
	}

	// Sub-rating out of range
	outOfRange := doJSON(app, http.MethodPost, "/api/reviews/", signTestToken(guest.ID, "guest"), map[string]interface{}{
		"bookingID":   booking.ID,
		"rating":      4,
		"cleanliness": 6,
	})
	if outOfRange.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for rating out of range, got %d", outOfRange.Code)
	}
}

func TestGetPropertyReviewsAggregates(t *testing.T) {
	app, _ := setupTest(t)
	host := createTestUser(t, "host@example.com", "host")
	guest := createTestUser(t, "guest@example.com", "guest")
	other := createTestUser(t, "other@example.com", "guest")
	property := createTestProperty(t, host.ID, 2, 150)

	b1 := models.Booking{PropertyID: property.ID, GuestID: guest.ID, Status: "completed"}
	b2 := models.Booking{PropertyID: property.ID, GuestID: other.ID, Status: "completed"}
	storage.DB.Create(&b1)
	storage.DB.Create(&b2)
	storage.DB.Create(&models.Review{
		PropertyID: property.ID, GuestID: guest.ID, BookingID: b1.ID,
		Rating: 5, Cleanliness: 5, Accuracy: 5, Communication: 5, Location: 5, Value: 5,
	})
	storage.DB.Create(&models.Review{
		PropertyID: property.ID, GuestID: other.ID, BookingID: b2.ID,
		Rating: 2, Cleanliness: 2, Accuracy: 2, Communication: 2, Location: 2, Value: 2,
	})

	resp := doJSON(app, http.MethodGet, urlf("/api/properties/%d/reviews", property.ID), "", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	body := decodeBody(t, resp)
	if body["totalReviews"].(float64) != 2 {
		t.Fatalf("expected 2 reviews, got %v", body["totalReviews"])
	}
	if body["averageRating"].(float64) != 3.5 {
		t.Fatalf("expected average 3.5, got %v", body["averageRating"])
	}
}

func TestUpdateAndDeleteReviewOwnership(t *testing.T) {
	app, _ := setupTest(t)
	_, guest, booking := seedCompletedBooking(t)
	stranger := createTestUser(t, "stranger@example.com", "guest")
	admin := createTestUser(t, "admin@example.com", "admin")

	review := models.Review{
		PropertyID: booking.PropertyID, GuestID: guest.ID, BookingID: booking.ID,
		Rating: 3, Cleanliness: 3, Accuracy: 3, Communication: 3, Location: 3, Value: 3,
	}
	storage.DB.Create(&review)
	url := urlf("/api/reviews/%d", review.ID)

	denied := doJSON(app, http.MethodPut, url, signTestToken(stranger.ID, "guest"), map[string]interface{}{"rating": 1})
	if denied.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-author, got %d", denied.Code)
	}

	updated := doJSON(app, http.MethodPut, url, signTestToken(guest.ID, "guest"), map[string]interface{}{"rating": 4})
	if updated.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", updated.Code, updated.Body.String())
	}

	var reloaded models.Review
	storage.DB.First(&reloaded, review.ID)
	if reloaded.Rating != 4 {
		t.Fatalf("expected rating 4, got %d", reloaded.Rating)
	}
	if reloaded.Comment != "" && reloaded.Cleanliness != 3 {
		t.Fatalf("partial update must keep other fields")
	}

	deleted := doJSON(app, http.MethodDelete, url, signTestToken(admin.ID, "admin"), nil)
	if deleted.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin delete, got %d", deleted.Code)
	}

	var count int64
	storage.DB.Model(&models.Review{}).Where("id = ?", review.ID).Count(&count)
	if count != 0 {
		t.Fatalf("review must be hard deleted")
	}
}
