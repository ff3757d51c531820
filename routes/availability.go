package routes

import (
	"time"

	"github.com/kataras/iris/v12"

	"github.com/victoroki/Korstrada/models"
	"github.com/victoroki/Korstrada/storage"
	"github.com/victoroki/Korstrada/utils"
)

func CreateAvailability(ctx iris.Context) {
	property := loadOwnedProperty(ctx)
	if property == nil {
		return
	}

	var input AvailabilityInput
	err := ctx.ReadJSON(&input)
	if err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	if !input.StartDate.Before(input.EndDate) {
		utils.CreateError(iris.StatusBadRequest, "End date must be after start date", ctx)
		return
	}

	isAvailable := true
	if input.IsAvailable != nil {
		isAvailable = *input.IsAvailable
	}

	availability := models.Availability{
		PropertyID:  property.ID,
		StartDate:   input.StartDate,
		EndDate:     input.EndDate,
		IsAvailable: isAvailable,
	}

	createResult := storage.DB.Create(&availability)
	if createResult.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(iris.Map{"success": true, "availability": availability})
}

// GetAvailability lists a property's windows, optionally narrowed to those
// overlapping a startDate/endDate range.
func GetAvailability(ctx iris.Context) {
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

	query := storage.DB.Where("property_id = ?", property.ID)
	if startDate, ok := parseDateParam(ctx.URLParam("startDate")); ok {
		query = query.Where("end_date > ?", startDate)
	}
	if endDate, ok := parseDateParam(ctx.URLParam("endDate")); ok {
		query = query.Where("start_date < ?", endDate)
	}

	var windows []models.Availability
	findResult := query.Order("start_date ASC").Find(&windows)
	if findResult.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"success": true, "availability": windows})
}

func UpdateAvailability(ctx iris.Context) {
	_, availability := loadOwnedAvailability(ctx)
	if availability == nil {
		return
	}

	var input UpdateAvailabilityInput
	err := ctx.ReadJSON(&input)
	if err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	updates := map[string]interface{}{}
	if input.StartDate != nil {
		updates["start_date"] = *input.StartDate
	}
	if input.EndDate != nil {
		updates["end_date"] = *input.EndDate
	}
	if input.IsAvailable != nil {
		updates["is_available"] = *input.IsAvailable
	}

	if len(updates) > 0 {
		updateResult := storage.DB.Model(availability).Updates(updates)
		if updateResult.Error != nil {
			utils.CreateInternalServerError(ctx)
			return
		}
	}

	ctx.JSON(iris.Map{"success": true, "availability": availability})
}

func DeleteAvailability(ctx iris.Context) {
	_, availability := loadOwnedAvailability(ctx)
	if availability == nil {
		return
	}

	deleteResult := storage.DB.Unscoped().Delete(availability)
	if deleteResult.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"success": true, "message": "Availability deleted"})
}

// loadOwnedAvailability resolves {availabilityId} under an owner-checked
// property; the window must belong to that property.
func loadOwnedAvailability(ctx iris.Context) (*models.Property, *models.Availability) {
	property := loadOwnedProperty(ctx)
	if property == nil {
		return nil, nil
	}

	availabilityID := ctx.Params().Get("availabilityId")

	var availability models.Availability
	query := storage.DB.Where("id = ? AND property_id = ?", availabilityID, property.ID).Limit(1).Find(&availability)
	if query.Error != nil {
		utils.CreateInternalServerError(ctx)
		return nil, nil
	}
	if query.RowsAffected == 0 {
		utils.CreateNotFound(ctx, "Availability")
		return nil, nil
	}

	return property, &availability
}

type AvailabilityInput struct {
	StartDate   time.Time `json:"startDate" validate:"required"`
	EndDate     time.Time `json:"endDate" validate:"required"`
	IsAvailable *bool     `json:"isAvailable"`
}

type UpdateAvailabilityInput struct {
	StartDate   *time.Time `json:"startDate"`
	EndDate     *time.Time `json:"endDate"`
	IsAvailable *bool      `json:"isAvailable"`
}
