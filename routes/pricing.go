package routes

import (
	"github.com/kataras/iris/v12"
	"gorm.io/gorm/clause"

	"github.com/victoroki/Korstrada/models"
	"github.com/victoroki/Korstrada/storage"
	"github.com/victoroki/Korstrada/utils"
)

// UpsertPricing creates or replaces the property's rate card. One row per
// property, keyed on the unique property_id index.
func UpsertPricing(ctx iris.Context) {
	property := loadOwnedProperty(ctx)
	if property == nil {
		return
	}

	var input PricingInput
	err := ctx.ReadJSON(&input)
	if err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	currency := input.Currency
	if currency == "" {
		currency = "USD"
	}

	pricing := models.Pricing{
		PropertyID:   property.ID,
		BasePrice:    input.BasePrice,
		WeekendPrice: input.WeekendPrice,
		CleaningFee:  input.CleaningFee,
		Currency:     currency,
	}

	upsertResult := storage.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "property_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"base_price", "weekend_price", "cleaning_fee", "currency", "updated_at"}),
	}).Create(&pricing)
	if upsertResult.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(iris.Map{"success": true, "pricing": pricing})
}

func GetPricing(ctx iris.Context) {
	id := ctx.Params().Get("id")

	var pricing models.Pricing
	query := storage.DB.Where("property_id = ?", id).Limit(1).Find(&pricing)
	if query.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	if query.RowsAffected == 0 {
		utils.CreateNotFound(ctx, "Pricing")
		return
	}

	ctx.JSON(iris.Map{"success": true, "pricing": pricing})
}

func UpdatePricing(ctx iris.Context) {
	property := loadOwnedProperty(ctx)
	if property == nil {
		return
	}

	var input UpdatePricingInput
	err := ctx.ReadJSON(&input)
	if err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	var pricing models.Pricing
	query := storage.DB.Where("property_id = ?", property.ID).Limit(1).Find(&pricing)
	if query.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	if query.RowsAffected == 0 {
		utils.CreateNotFound(ctx, "Pricing")
		return
	}

	updates := map[string]interface{}{}
	if input.BasePrice != nil {
		updates["base_price"] = *input.BasePrice
	}
	if input.WeekendPrice != nil {
		updates["weekend_price"] = *input.WeekendPrice
	}
	if input.CleaningFee != nil {
		updates["cleaning_fee"] = *input.CleaningFee
	}
	if input.Currency != nil {
		updates["currency"] = *input.Currency
	}

	if len(updates) > 0 {
		updateResult := storage.DB.Model(&pricing).Updates(updates)
		if updateResult.Error != nil {
			utils.CreateInternalServerError(ctx)
			return
		}
	}

	ctx.JSON(iris.Map{"success": true, "pricing": pricing})
}

type PricingInput struct {
	BasePrice    float64  `json:"basePrice" validate:"required,min=0"`
	WeekendPrice *float64 `json:"weekendPrice" validate:"omitempty,min=0"`
	CleaningFee  *float64 `json:"cleaningFee" validate:"omitempty,min=0"`
	Currency     string   `json:"currency" validate:"omitempty,len=3"`
}

type UpdatePricingInput struct {
	BasePrice    *float64 `json:"basePrice" validate:"omitempty,min=0"`
	WeekendPrice *float64 `json:"weekendPrice" validate:"omitempty,min=0"`
	CleaningFee  *float64 `json:"cleaningFee" validate:"omitempty,min=0"`
	Currency     *string  `json:"currency" validate:"omitempty,len=3"`
}
