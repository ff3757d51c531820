package routes

import (
	"math"
	"time"

	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"
	"golang.org/x/exp/slices"

	"github.com/victoroki/Korstrada/models"
	"github.com/victoroki/Korstrada/storage"
	"github.com/victoroki/Korstrada/utils"
)

// nightlyRate is the flat per-night charge applied to every booking. The
// per-property rate card is managed separately and does not feed the total.
const nightlyRate = 100.0

var bookingStatuses = []string{"pending", "confirmed", "cancelled", "completed"}

func CreateBooking(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)

	var input CreateBookingInput
	err := ctx.ReadJSON(&input)
	if err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	var property models.Property
	found, propErr := fetchPropertyByID(&property, input.PropertyID)
	if propErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	if !found {
		utils.CreateNotFound(ctx, "Property")
		return
	}

	if !input.CheckInDate.Before(input.CheckOutDate) {
		utils.CreateError(iris.StatusBadRequest, "Check-out date must be after check-in date", ctx)
		return
	}

	if input.NumberOfGuests > property.MaxGuests {
		utils.CreateError(iris.StatusBadRequest, "Number of guests exceeds property capacity", ctx)
		return
	}

	// Conflict check and insert are separate statements; two racing
	// requests for the same dates can both pass the check.
	var conflicting int64
	conflictQuery := storage.DB.Model(&models.Booking{}).
		Where("property_id = ?", property.ID).
		Where("status <> ?", "cancelled").
		Where("check_in_date < ? AND check_out_date > ?", input.CheckOutDate, input.CheckInDate).
		Count(&conflicting)
	if conflictQuery.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	if conflicting > 0 {
		utils.CreateError(iris.StatusBadRequest, "Property is not available for the selected dates", ctx)
		return
	}

	nights := int(math.Ceil(input.CheckOutDate.Sub(input.CheckInDate).Hours() / 24))

	booking := models.Booking{
		PropertyID:      property.ID,
		GuestID:         userID,
		CheckInDate:     input.CheckInDate,
		CheckOutDate:    input.CheckOutDate,
		NumberOfGuests:  input.NumberOfGuests,
		TotalPrice:      float64(nights) * nightlyRate,
		SpecialRequests: input.SpecialRequests,
		Status:          "pending",
		PaymentStatus:   "pending",
	}

	createResult := storage.DB.Create(&booking)
	if createResult.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(iris.Map{"success": true, "booking": booking})
}

// GetBookings lists the caller's own bookings, newest first.
func GetBookings(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)
	page, limit, offset := paginationParams(ctx)

	query := storage.DB.Model(&models.Booking{}).Where("guest_id = ?", userID)
	if status := ctx.URLParam("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if countErr := query.Count(&total).Error; countErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	var bookings []models.Booking
	findResult := query.Preload("Property").
		Order("created_at DESC").Offset(offset).Limit(limit).
		Find(&bookings)
	if findResult.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{
		"success":    true,
		"bookings":   bookings,
		"pagination": iris.Map{"page": page, "limit": limit, "total": total},
	})
}

// GetBooking is visible to the booking's guest, the property's host, and
// admins.
func GetBooking(ctx iris.Context) {
	claims := jwt.Get(ctx).(*utils.AccessToken)
	id := ctx.Params().Get("id")

	var booking models.Booking
	found, err := fetchBooking(&booking, id)
	if err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	if !found {
		utils.CreateNotFound(ctx, "Booking")
		return
	}

	isGuest := booking.GuestID == claims.ID
	isHost := booking.Property != nil && booking.Property.HostID == claims.ID
	if claims.Role != "admin" && !isGuest && !isHost {
		utils.CreateAccessDenied(ctx)
		return
	}

	ctx.JSON(iris.Map{"success": true, "booking": booking})
}

// UpdateBookingStatus lets the property's host (or an admin) move a booking
// through its lifecycle.
func UpdateBookingStatus(ctx iris.Context) {
	claims := jwt.Get(ctx).(*utils.AccessToken)
	id := ctx.Params().Get("id")

	var input UpdateBookingStatusInput
	err := ctx.ReadJSON(&input)
	if err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	if !slices.Contains(bookingStatuses, input.Status) {
		utils.CreateError(iris.StatusBadRequest, "Invalid status", ctx)
		return
	}

	var booking models.Booking
	found, fetchErr := fetchBooking(&booking, id)
	if fetchErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	if !found {
		utils.CreateNotFound(ctx, "Booking")
		return
	}

	isHost := booking.Property != nil && booking.Property.HostID == claims.ID
	if claims.Role != "admin" && !isHost {
		utils.CreateAccessDenied(ctx)
		return
	}

	updateResult := storage.DB.Model(&booking).Update("status", input.Status)
	if updateResult.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"success": true, "booking": booking})
}

// CancelBooking flips the status to cancelled; the record stays. Completed
// stays are past cancelling.
func CancelBooking(ctx iris.Context) {
	claims := jwt.Get(ctx).(*utils.AccessToken)
	id := ctx.Params().Get("id")

	var booking models.Booking
	found, fetchErr := fetchBooking(&booking, id)
	if fetchErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	if !found {
		utils.CreateNotFound(ctx, "Booking")
		return
	}

	if claims.Role != "admin" && booking.GuestID != claims.ID {
		utils.CreateAccessDenied(ctx)
		return
	}

	if booking.Status == "completed" {
		utils.CreateError(iris.StatusBadRequest, "Completed bookings cannot be cancelled", ctx)
		return
	}

	updateResult := storage.DB.Model(&booking).Update("status", "cancelled")
	if updateResult.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"success": true, "booking": booking})
}

func fetchBooking(booking *models.Booking, id string) (found bool, err error) {
	query := storage.DB.Preload("Property").Where("id = ?", id).Limit(1).Find(booking)
	if query.Error != nil {
		return false, query.Error
	}
	return query.RowsAffected > 0, nil
}

func fetchPropertyByID(property *models.Property, id uint) (found bool, err error) {
	query := storage.DB.Where("id = ?", id).Limit(1).Find(property)
	if query.Error != nil {
		return false, query.Error
	}
	return query.RowsAffected > 0, nil
}

type CreateBookingInput struct {
	PropertyID      uint      `json:"propertyID" validate:"required"`
	CheckInDate     time.Time `json:"checkInDate" validate:"required"`
	CheckOutDate    time.Time `json:"checkOutDate" validate:"required"`
	NumberOfGuests  int       `json:"numberOfGuests" validate:"required,min=1"`
	SpecialRequests string    `json:"specialRequests"`
}

type UpdateBookingStatusInput struct {
	Status string `json:"status" validate:"required"`
}
