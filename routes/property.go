package routes

import (
	"encoding/json"
	"log"
	"mime/multipart"
	"strconv"
	"strings"
	"time"

	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"
	"golang.org/x/exp/slices"
	"gorm.io/datatypes"

	"github.com/victoroki/Korstrada/models"
	"github.com/victoroki/Korstrada/storage"
	"github.com/victoroki/Korstrada/utils"
)

// GetProperties is the public search listing. Only active properties are
// returned; every filter is optional.
func GetProperties(ctx iris.Context) {
	page, limit, offset := paginationParams(ctx)

	query := storage.DB.Model(&models.Property{}).Where("status = ?", "active")

	if city := ctx.URLParam("city"); city != "" {
		query = query.Where("lower(city) LIKE lower(?)", "%"+city+"%")
	}
	if maxGuests := ctx.URLParamIntDefault("maxGuests", 0); maxGuests > 0 {
		query = query.Where("max_guests >= ?", maxGuests)
	}
	if minPrice := ctx.URLParam("minPrice"); minPrice != "" {
		if v, err := strconv.ParseFloat(minPrice, 64); err == nil {
			query = query.Where("base_price >= ?", v)
		}
	}
	if maxPrice := ctx.URLParam("maxPrice"); maxPrice != "" {
		if v, err := strconv.ParseFloat(maxPrice, 64); err == nil {
			query = query.Where("base_price <= ?", v)
		}
	}

	checkIn, checkInOk := parseDateParam(ctx.URLParam("checkIn"))
	checkOut, checkOutOk := parseDateParam(ctx.URLParam("checkOut"))
	if checkInOk && checkOutOk {
		booked := storage.DB.Model(&models.Booking{}).
			Select("property_id").
			Where("status <> ?", "cancelled").
			Where("check_in_date < ? AND check_out_date > ?", checkOut, checkIn)
		query = query.Where("id NOT IN (?)", booked)
	}

	var total int64
	if countErr := query.Count(&total).Error; countErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	var properties []models.Property
	findResult := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&properties)
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

func GetProperty(ctx iris.Context) {
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

	ctx.JSON(iris.Map{"success": true, "property": &property})
}

func CreateProperty(ctx iris.Context) {
	claims := jwt.Get(ctx).(*utils.AccessToken)

	var input PropertyInput
	var files []*multipart.FileHeader

	if isMultipart(ctx) {
		formInput, formFiles, formErr := readPropertyForm(ctx)
		if formErr != nil {
			utils.CreateError(iris.StatusBadRequest, formErr.Error(), ctx)
			return
		}
		input = *formInput
		files = formFiles
	} else {
		if err := ctx.ReadJSON(&input); err != nil {
			utils.HandleValidationErrors(err, ctx)
			return
		}
	}

	if input.Title == "" {
		utils.CreateError(iris.StatusBadRequest, "Title is required", ctx)
		return
	}
	if input.MaxGuests <= 0 {
		utils.CreateError(iris.StatusBadRequest, "maxGuests must be at least 1", ctx)
		return
	}

	hostID := claims.ID
	if claims.Role == "admin" && input.HostID > 0 {
		hostID = input.HostID
	}

	uploadedURLs, uploadErr := uploadImageFiles(files)
	if uploadErr != nil {
		utils.CreateError(iris.StatusBadRequest, uploadErr.Error(), ctx)
		return
	}

	imageURLs := append(append([]string{}, input.Images...), uploadedURLs...)

	status := input.Status
	if status == "" {
		status = "active"
	}

	property := models.Property{
		HostID:       hostID,
		Title:        input.Title,
		Description:  input.Description,
		PropertyType: input.PropertyType,
		Address:      input.Address,
		City:         input.City,
		Country:      input.Country,
		Latitude:     input.Latitude,
		Longitude:    input.Longitude,
		MaxGuests:    input.MaxGuests,
		Bedrooms:     input.Bedrooms,
		Bathrooms:    input.Bathrooms,
		Amenities:    marshalStringList(input.Amenities),
		Images:       marshalStringList(imageURLs),
		BasePrice:    input.BasePrice,
		Status:       status,
	}

	createResult := storage.DB.Create(&property)
	if createResult.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(iris.Map{"success": true, "property": &property})
}

// UpdateProperty writes only the supplied fields. An images list replaces
// the stored one, uploaded files append, and deleteImages entries are pulled
// from both the bucket and the list.
func UpdateProperty(ctx iris.Context) {
	property := loadOwnedProperty(ctx)
	if property == nil {
		return
	}

	var input UpdatePropertyInput
	var files []*multipart.FileHeader

	if isMultipart(ctx) {
		formInput, formFiles, formErr := readUpdatePropertyForm(ctx)
		if formErr != nil {
			utils.CreateError(iris.StatusBadRequest, formErr.Error(), ctx)
			return
		}
		input = *formInput
		files = formFiles
	} else {
		if err := ctx.ReadJSON(&input); err != nil {
			utils.HandleValidationErrors(err, ctx)
			return
		}
	}

	updates := map[string]interface{}{}
	if input.Title != nil {
		updates["title"] = *input.Title
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.PropertyType != nil {
		updates["property_type"] = *input.PropertyType
	}
	if input.Address != nil {
		updates["address"] = *input.Address
	}
	if input.City != nil {
		updates["city"] = *input.City
	}
	if input.Country != nil {
		updates["country"] = *input.Country
	}
	if input.Latitude != nil {
		updates["latitude"] = *input.Latitude
	}
	if input.Longitude != nil {
		updates["longitude"] = *input.Longitude
	}
	if input.MaxGuests != nil {
		updates["max_guests"] = *input.MaxGuests
	}
	if input.Bedrooms != nil {
		updates["bedrooms"] = *input.Bedrooms
	}
	if input.Bathrooms != nil {
		updates["bathrooms"] = *input.Bathrooms
	}
	if input.BasePrice != nil {
		updates["base_price"] = *input.BasePrice
	}
	if input.Status != nil {
		if !slices.Contains(propertyStatuses, *input.Status) {
			utils.CreateError(iris.StatusBadRequest, "Invalid status", ctx)
			return
		}
		updates["status"] = *input.Status
	}
	if input.Amenities != nil {
		updates["amenities"] = marshalStringList(*input.Amenities)
	}

	imageURLs := property.ImageURLs()
	imagesChanged := false

	if input.Images != nil {
		imageURLs = append([]string{}, (*input.Images)...)
		imagesChanged = true
	}

	uploadedURLs, uploadErr := uploadImageFiles(files)
	if uploadErr != nil {
		utils.CreateError(iris.StatusBadRequest, uploadErr.Error(), ctx)
		return
	}
	if len(uploadedURLs) > 0 {
		imageURLs = append(imageURLs, uploadedURLs...)
		imagesChanged = true
	}

	if len(input.DeleteImages) > 0 {
		kept := make([]string, 0, len(imageURLs))
		for _, url := range imageURLs {
			if slices.Contains(input.DeleteImages, url) {
				if removeErr := storage.Bucket.Remove(url); removeErr != nil {
					log.Println("failed to remove image from bucket:", removeErr)
				}
				continue
			}
			kept = append(kept, url)
		}
		imageURLs = kept
		imagesChanged = true
	}

	if imagesChanged {
		updates["images"] = marshalStringList(imageURLs)
	}

	if len(updates) > 0 {
		updateResult := storage.DB.Model(property).Updates(updates)
		if updateResult.Error != nil {
			utils.CreateInternalServerError(ctx)
			return
		}
	}

	ctx.JSON(iris.Map{"success": true, "property": property})
}

// DeleteProperty removes the bucket objects first and the row second; a
// failed bucket delete is logged and skipped rather than aborting.
func DeleteProperty(ctx iris.Context) {
	property := loadOwnedProperty(ctx)
	if property == nil {
		return
	}

	for _, url := range property.ImageURLs() {
		if removeErr := storage.Bucket.Remove(url); removeErr != nil {
			log.Println("failed to remove image from bucket:", removeErr)
		}
	}

	storage.DB.Unscoped().Where("property_id = ?", property.ID).Delete(&models.Booking{})
	storage.DB.Unscoped().Where("property_id = ?", property.ID).Delete(&models.Review{})
	storage.DB.Unscoped().Where("property_id = ?", property.ID).Delete(&models.Pricing{})
	storage.DB.Unscoped().Where("property_id = ?", property.ID).Delete(&models.Availability{})

	deleteResult := storage.DB.Unscoped().Delete(property)
	if deleteResult.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"success": true, "message": "Property deleted"})
}

func GetHostProperties(ctx iris.Context) {
	claims := jwt.Get(ctx).(*utils.AccessToken)

	hostID, paramErr := ctx.Params().GetUint("hostId")
	if paramErr != nil {
		utils.CreateError(iris.StatusBadRequest, "Invalid host id", ctx)
		return
	}

	if claims.Role != "admin" && claims.ID != hostID {
		utils.CreateAccessDenied(ctx)
		return
	}

	var properties []models.Property
	findResult := storage.DB.Where("host_id = ?", hostID).Order("created_at DESC").Find(&properties)
	if findResult.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"success": true, "properties": properties})
}

var propertyStatuses = []string{"active", "pending", "inactive"}

// loadOwnedProperty fetches the {id} property and enforces that the caller
// is its host or an admin. On failure the response is already written.
func loadOwnedProperty(ctx iris.Context) *models.Property {
	id := ctx.Params().Get("id")

	var property models.Property
	found, err := fetchProperty(&property, id)
	if err != nil {
		utils.CreateInternalServerError(ctx)
		return nil
	}
	if !found {
		utils.CreateNotFound(ctx, "Property")
		return nil
	}

	claims := jwt.Get(ctx).(*utils.AccessToken)
	if claims.Role != "admin" && property.HostID != claims.ID {
		utils.CreateAccessDenied(ctx)
		return nil
	}

	return &property
}

func fetchProperty(property *models.Property, id string) (found bool, err error) {
	query := storage.DB.Where("id = ?", id).Limit(1).Find(property)
	if query.Error != nil {
		return false, query.Error
	}
	return query.RowsAffected > 0, nil
}

func paginationParams(ctx iris.Context) (page int, limit int, offset int) {
	page = ctx.URLParamIntDefault("page", 1)
	if page < 1 {
		page = 1
	}
	limit = ctx.URLParamIntDefault("limit", 10)
	if limit < 1 || limit > 50 {
		limit = 10
	}
	return page, limit, (page - 1) * limit
}

func parseDateParam(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, true
	}
	return time.Time{}, false
}

func marshalStringList(values []string) datatypes.JSON {
	if values == nil {
		values = []string{}
	}
	raw, _ := json.Marshal(values)
	return datatypes.JSON(raw)
}

func isMultipart(ctx iris.Context) bool {
	return strings.HasPrefix(ctx.GetHeader("Content-Type"), "multipart/form-data")
}

type PropertyInput struct {
	HostID       uint     `json:"hostID"`
	Title        string   `json:"title" validate:"required,max=256"`
	Description  string   `json:"description"`
	PropertyType string   `json:"propertyType" validate:"omitempty,oneof=apartment house villa cabin other"`
	Address      string   `json:"address"`
	City         string   `json:"city"`
	Country      string   `json:"country"`
	Latitude     float64  `json:"latitude"`
	Longitude    float64  `json:"longitude"`
	MaxGuests    int      `json:"maxGuests" validate:"required,min=1"`
	Bedrooms     int      `json:"bedrooms" validate:"omitempty,min=0"`
	Bathrooms    int      `json:"bathrooms" validate:"omitempty,min=0"`
	Amenities    []string `json:"amenities"`
	Images       []string `json:"images" validate:"omitempty,dive,url"`
	BasePrice    float64  `json:"basePrice" validate:"omitempty,min=0"`
	Status       string   `json:"status" validate:"omitempty,oneof=active pending inactive"`
}

type UpdatePropertyInput struct {
	Title        *string   `json:"title" validate:"omitempty,max=256"`
	Description  *string   `json:"description"`
	PropertyType *string   `json:"propertyType" validate:"omitempty,oneof=apartment house villa cabin other"`
	Address      *string   `json:"address"`
	City         *string   `json:"city"`
	Country      *string   `json:"country"`
	Latitude     *float64  `json:"latitude"`
	Longitude    *float64  `json:"longitude"`
	MaxGuests    *int      `json:"maxGuests" validate:"omitempty,min=1"`
	Bedrooms     *int      `json:"bedrooms" validate:"omitempty,min=0"`
	Bathrooms    *int      `json:"bathrooms" validate:"omitempty,min=0"`
	Amenities    *[]string `json:"amenities"`
	Images       *[]string `json:"images" validate:"omitempty,dive,url"`
	DeleteImages []string  `json:"deleteImages" validate:"omitempty,dive,url"`
	BasePrice    *float64  `json:"basePrice" validate:"omitempty,min=0"`
	Status       *string   `json:"status"`
}
