package routes

import (
	"math"
	"strconv"

	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"

	"github.com/victoroki/Korstrada/models"
	"github.com/victoroki/Korstrada/storage"
	"github.com/victoroki/Korstrada/utils"
)

// CreateReview accepts one review per completed booking, written by the
// booking's guest. Sub-ratings left out of the payload inherit the overall
// rating.
func CreateReview(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)

	var input CreateReviewInput
	err := ctx.ReadJSON(&input)
	if err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	var booking models.Booking
	found, bookingErr := fetchBooking(&booking, uintToString(input.BookingID))
	if bookingErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	if !found {
		utils.CreateNotFound(ctx, "Booking")
		return
	}

	if booking.GuestID != userID {
		utils.CreateAccessDenied(ctx)
		return
	}

	if booking.Status != "completed" {
		utils.CreateError(iris.StatusBadRequest, "Only completed bookings can be reviewed", ctx)
		return
	}

	var existing int64
	countQuery := storage.DB.Model(&models.Review{}).Where("booking_id = ?", booking.ID).Count(&existing)
	if countQuery.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	if existing > 0 {
		utils.CreateError(iris.StatusBadRequest, "Booking has already been reviewed", ctx)
		return
	}

	subRatings := []*int{input.Cleanliness, input.Accuracy, input.Communication, input.Location, input.Value}
	for _, r := range subRatings {
		if r != nil && (*r < 1 || *r > 5) {
			utils.CreateError(iris.StatusBadRequest, "Ratings must be between 1 and 5", ctx)
			return
		}
	}

	review := models.Review{
		PropertyID:    booking.PropertyID,
		GuestID:       userID,
		BookingID:     booking.ID,
		Rating:        input.Rating,
		Cleanliness:   ratingOrDefault(input.Cleanliness, input.Rating),
		Accuracy:      ratingOrDefault(input.Accuracy, input.Rating),
		Communication: ratingOrDefault(input.Communication, input.Rating),
		Location:      ratingOrDefault(input.Location, input.Rating),
		Value:         ratingOrDefault(input.Value, input.Rating),
		Comment:       input.Comment,
	}

	createResult := storage.DB.Create(&review)
	if createResult.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(iris.Map{"success": true, "review": review})
}

// GetPropertyReviews is public: the property's reviews plus aggregate
// ratings.
func GetPropertyReviews(ctx iris.Context) {
	id := ctx.Params().Get("id")

	var property models.Property
	found, err := fetchProperty(&property, id)
	if err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	if !found {
		utils.CreateNotFound(ctx, "Property")
		return
	}

	page, limit, offset := paginationParams(ctx)

	var total int64
	countQuery := storage.DB.Model(&models.Review{}).Where("property_id = ?", property.ID).Count(&total)
	if countQuery.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	var reviews []models.Review
	findResult := storage.DB.Preload("Guest").
		Where("property_id = ?", property.ID).
		Order("created_at DESC").Offset(offset).Limit(limit).
		Find(&reviews)
	if findResult.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	var averages struct {
		Rating        float64
		Cleanliness   float64
		Accuracy      float64
		Communication float64
		Location      float64
		Value         float64
	}
	if total > 0 {
		avgQuery := storage.DB.Model(&models.Review{}).
			Where("property_id = ?", property.ID).
			Select("AVG(rating) as rating, AVG(cleanliness) as cleanliness, AVG(accuracy) as accuracy, AVG(communication) as communication, AVG(location) as location, AVG(value) as value").
			Scan(&averages)
		if avgQuery.Error != nil {
			utils.CreateInternalServerError(ctx)
			return
		}
	}

	ctx.JSON(iris.Map{
		"success":       true,
		"reviews":       reviews,
		"totalReviews":  total,
		"averageRating": roundToOneDecimal(averages.Rating),
		"ratings": iris.Map{
			"cleanliness":   roundToOneDecimal(averages.Cleanliness),
			"accuracy":      roundToOneDecimal(averages.Accuracy),
			"communication": roundToOneDecimal(averages.Communication),
			"location":      roundToOneDecimal(averages.Location),
			"value":         roundToOneDecimal(averages.Value),
		},
		"pagination": iris.Map{"page": page, "limit": limit, "total": total},
	})
}

func UpdateReview(ctx iris.Context) {
	review := loadOwnedReview(ctx)
	if review == nil {
		return
	}

	var input UpdateReviewInput
	err := ctx.ReadJSON(&input)
	if err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	ratings := []*int{input.Rating, input.Cleanliness, input.Accuracy, input.Communication, input.Location, input.Value}
	for _, r := range ratings {
		if r != nil && (*r < 1 || *r > 5) {
			utils.CreateError(iris.StatusBadRequest, "Ratings must be between 1 and 5", ctx)
			return
		}
	}

	updates := map[string]interface{}{}
	if input.Rating != nil {
		updates["rating"] = *input.Rating
	}
	if input.Cleanliness != nil {
		updates["cleanliness"] = *input.Cleanliness
	}
	if input.Accuracy != nil {
		updates["accuracy"] = *input.Accuracy
	}
	if input.Communication != nil {
		updates["communication"] = *input.Communication
	}
	if input.Location != nil {
		updates["location"] = *input.Location
	}
	if input.Value != nil {
		updates["value"] = *input.Value
	}
	if input.Comment != nil {
		updates["comment"] = *input.Comment
	}

	if len(updates) > 0 {
		updateResult := storage.DB.Model(review).Updates(updates)
		if updateResult.Error != nil {
			utils.CreateInternalServerError(ctx)
			return
		}
	}

	ctx.JSON(iris.Map{"success": true, "review": review})
}

func DeleteReview(ctx iris.Context) {
	review := loadOwnedReview(ctx)
	if review == nil {
		return
	}

	deleteResult := storage.DB.Unscoped().Delete(review)
	if deleteResult.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"success": true, "message": "Review deleted"})
}

// loadOwnedReview fetches {id} and enforces author-or-admin.
func loadOwnedReview(ctx iris.Context) *models.Review {
	claims := jwt.Get(ctx).(*utils.AccessToken)
	id := ctx.Params().Get("id")

	var review models.Review
	query := storage.DB.Where("id = ?", id).Limit(1).Find(&review)
	if query.Error != nil {
		utils.CreateInternalServerError(ctx)
		return nil
	}
	if query.RowsAffected == 0 {
		utils.CreateNotFound(ctx, "Review")
		return nil
	}

	if claims.Role != "admin" && review.GuestID != claims.ID {
		utils.CreateAccessDenied(ctx)
		return nil
	}

	return &review
}

func ratingOrDefault(value *int, fallback int) int {
	if value != nil {
		return *value
	}
	return fallback
}

func roundToOneDecimal(value float64) float64 {
	return math.Round(value*10) / 10
}

func uintToString(value uint) string {
	return strconv.FormatUint(uint64(value), 10)
}

type CreateReviewInput struct {
	BookingID     uint   `json:"bookingID" validate:"required"`
	Rating        int    `json:"rating" validate:"required,min=1,max=5"`
	Cleanliness   *int   `json:"cleanliness"`
	Accuracy      *int   `json:"accuracy"`
	Communication *int   `json:"communication"`
	Location      *int   `json:"location"`
	Value         *int   `json:"value"`
	Comment       string `json:"comment"`
}

type UpdateReviewInput struct {
	Rating        *int    `json:"rating"`
	Cleanliness   *int    `json:"cleanliness"`
	Accuracy      *int    `json:"accuracy"`
	Communication *int    `json:"communication"`
	Location      *int    `json:"location"`
	Value         *int    `json:"value"`
	Comment       *string `json:"comment"`
}
