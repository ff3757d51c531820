package routes

import (
	"github.com/kataras/iris/v12"
	"golang.org/x/exp/slices"

	"github.com/victoroki/Korstrada/models"
	"github.com/victoroki/Korstrada/storage"
	"github.com/victoroki/Korstrada/utils"
)

var userRoles = []string{"guest", "host", "admin"}

// GetAdminStats returns the dashboard numbers. Occupancy is bookings over
// properties, uncapped, so more bookings than properties pushes it past 100.
func GetAdminStats(ctx iris.Context) {
	var totalUsers, totalProperties, totalBookings int64

	if err := storage.DB.Model(&models.User{}).Count(&totalUsers).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	if err := storage.DB.Model(&models.Property{}).Count(&totalProperties).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	if err := storage.DB.Model(&models.Booking{}).Count(&totalBookings).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	var totalRevenue float64
	revenueQuery := storage.DB.Model(&models.Booking{}).
		Where("status = ?", "confirmed").
		Select("COALESCE(SUM(total_price), 0)").
		Scan(&totalRevenue)
	if revenueQuery.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	occupancyRate := 0.0
	if totalProperties > 0 {
		occupancyRate = roundToOneDecimal(float64(totalBookings) / float64(totalProperties) * 100)
	}

	var recentBookings []models.Booking
	recentQuery := storage.DB.Preload("Guest").Preload("Property").
		Order("created_at DESC").Limit(10).
		Find(&recentBookings)
	if recentQuery.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{
		"success": true,
		"stats": iris.Map{
			"totalUsers":      totalUsers,
			"totalProperties": totalProperties,
			"totalBookings":   totalBookings,
			"totalRevenue":    totalRevenue,
			"occupancyRate":   occupancyRate,
			"activeUsers":     totalUsers,
			"recentBookings":  recentBookings,
		},
	})
}

func GetAdminUsers(ctx iris.Context) {
	page, limit, offset := paginationParams(ctx)

	query := storage.DB.Model(&models.User{})
	if role := ctx.URLParam("role"); role != "" {
		query = query.Where("role = ?", role)
	}

	var total int64
	if countErr := query.Count(&total).Error; countErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	var users []models.User
	findResult := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&users)
	if findResult.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{
		"success":    true,
		"users":      users,
		"pagination": iris.Map{"page": page, "limit": limit, "total": total},
	})
}

// GetAdminProperties lists every property regardless of status.
func GetAdminProperties(ctx iris.Context) {
	page, limit, offset := paginationParams(ctx)

	var total int64
	if countErr := storage.DB.Model(&models.Property{}).Count(&total).Error; countErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	var properties []models.Property
	findResult := storage.DB.Preload("Host").
		Order("created_at DESC").Offset(offset).Limit(limit).
		Find(&properties)
	if findResult.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{
		"success":    true,
		"properties": properties,
		"pagination": iris.Map{"page": page, "limit": limit, "total": total},
	})
}

func GetAdminBookings(ctx iris.Context) {
	page, limit, offset := paginationParams(ctx)

	var total int64
	if countErr := storage.DB.Model(&models.Booking{}).Count(&total).Error; countErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	var bookings []models.Booking
	findResult := storage.DB.Preload("Guest").Preload("Property").
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

func UpdateUserRole(ctx iris.Context) {
	id := ctx.Params().Get("id")

	var input UpdateUserRoleInput
	err := ctx.ReadJSON(&input)
	if err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	if !slices.Contains(userRoles, input.Role) {
		utils.CreateError(iris.StatusBadRequest, "Invalid role", ctx)
		return
	}

	var user models.User
	query := storage.DB.Where("id = ?", id).Limit(1).Find(&user)
	if query.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	if query.RowsAffected == 0 {
		utils.CreateNotFound(ctx, "User")
		return
	}

	updateResult := storage.DB.Model(&user).Update("role", input.Role)
	if updateResult.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"success": true, "user": user})
}

type UpdateUserRoleInput struct {
	Role string `json:"role" validate:"required"`
}
