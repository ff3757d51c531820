package routes

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/kataras/iris/v12"

	"github.com/victoroki/Korstrada/storage"
	"github.com/victoroki/Korstrada/utils"
)

const (
	maxImageFiles    = 10
	maxImageFileSize = 10 << 20
	multipartMemory  = 32 << 20
)

// UploadPropertyImages uploads the multipart `images` files to the bucket
// and appends their public URLs to the property's gallery.
func UploadPropertyImages(ctx iris.Context) {
	property := loadOwnedProperty(ctx)
	if property == nil {
		return
	}

	if !isMultipart(ctx) {
		utils.CreateError(iris.StatusBadRequest, "Expected multipart/form-data", ctx)
		return
	}

	if parseErr := ctx.Request().ParseMultipartForm(multipartMemory); parseErr != nil {
		utils.CreateError(iris.StatusBadRequest, "Invalid multipart form", ctx)
		return
	}

	files := ctx.Request().MultipartForm.File["images"]
	if len(files) == 0 {
		utils.CreateError(iris.StatusBadRequest, "No images provided", ctx)
		return
	}

	uploadedURLs, uploadErr := uploadImageFiles(files)
	if uploadErr != nil {
		utils.CreateError(iris.StatusBadRequest, uploadErr.Error(), ctx)
		return
	}

	imageURLs := append(property.ImageURLs(), uploadedURLs...)
	updateResult := storage.DB.Model(property).Update("images", marshalStringList(imageURLs))
	if updateResult.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(iris.Map{"success": true, "imageUrls": uploadedURLs})
}

// DeletePropertyImage removes one gallery entry by its object key. The
// bucket delete is best effort; the gallery row is updated regardless.
func DeletePropertyImage(ctx iris.Context) {
	property := loadOwnedProperty(ctx)
	if property == nil {
		return
	}

	imageID := ctx.Params().Get("imageId")

	var removedURL string
	kept := make([]string, 0)
	for _, url := range property.ImageURLs() {
		if storage.ObjectPathFromURL(url) == imageID {
			removedURL = url
			continue
		}
		kept = append(kept, url)
	}

	if removedURL == "" {
		utils.CreateNotFound(ctx, "Image")
		return
	}

	if removeErr := storage.Bucket.Remove(removedURL); removeErr != nil {
		log.Println("failed to remove image from bucket:", removeErr)
	}

	updateResult := storage.DB.Model(property).Update("images", marshalStringList(kept))
	if updateResult.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"success": true, "message": "Image deleted"})
}

// uploadImageFiles pushes each multipart file to the bucket under a
// timestamped key and returns the public URLs in input order.
func uploadImageFiles(files []*multipart.FileHeader) ([]string, error) {
	if len(files) > maxImageFiles {
		return nil, fmt.Errorf("too many files: at most %d images per request", maxImageFiles)
	}

	urls := make([]string, 0, len(files))
	for _, header := range files {
		if header.Size > maxImageFileSize {
			return nil, fmt.Errorf("file %s exceeds the 10MB limit", header.Filename)
		}

		contentType := header.Header.Get("Content-Type")
		if !strings.HasPrefix(contentType, "image/") {
			return nil, fmt.Errorf("file %s is not an image", header.Filename)
		}

		file, openErr := header.Open()
		if openErr != nil {
			return nil, openErr
		}
		content, readErr := io.ReadAll(file)
		file.Close()
		if readErr != nil {
			return nil, readErr
		}

		key := fmt.Sprintf("%d-%s%s",
			time.Now().UnixMilli(),
			utils.GenerateShortToken(4),
			strings.ToLower(path.Ext(header.Filename)))

		url, uploadErr := storage.Bucket.Upload(key, contentType, content)
		if uploadErr != nil {
			return nil, uploadErr
		}
		urls = append(urls, url)
	}

	return urls, nil
}

// readPropertyForm maps a multipart create payload onto PropertyInput. Text
// values of the `images` field are pre-uploaded URLs; files ride separately.
func readPropertyForm(ctx iris.Context) (*PropertyInput, []*multipart.FileHeader, error) {
	if parseErr := ctx.Request().ParseMultipartForm(multipartMemory); parseErr != nil {
		return nil, nil, fmt.Errorf("invalid multipart form")
	}

	form := ctx.Request().MultipartForm
	input := PropertyInput{
		Title:        formValue(form, "title"),
		Description:  formValue(form, "description"),
		PropertyType: formValue(form, "propertyType"),
		Address:      formValue(form, "address"),
		City:         formValue(form, "city"),
		Country:      formValue(form, "country"),
		Status:       formValue(form, "status"),
		Amenities:    formStringList(form, "amenities"),
		Images:       formStringList(form, "images"),
	}

	input.Latitude, _ = strconv.ParseFloat(formValue(form, "latitude"), 64)
	input.Longitude, _ = strconv.ParseFloat(formValue(form, "longitude"), 64)
	input.MaxGuests, _ = strconv.Atoi(formValue(form, "maxGuests"))
	input.Bedrooms, _ = strconv.Atoi(formValue(form, "bedrooms"))
	input.Bathrooms, _ = strconv.Atoi(formValue(form, "bathrooms"))
	input.BasePrice, _ = strconv.ParseFloat(formValue(form, "basePrice"), 64)
	if hostID, err := strconv.ParseUint(formValue(form, "hostID"), 10, 32); err == nil {
		input.HostID = uint(hostID)
	}

	return &input, form.File["images"], nil
}

func readUpdatePropertyForm(ctx iris.Context) (*UpdatePropertyInput, []*multipart.FileHeader, error) {
	if parseErr := ctx.Request().ParseMultipartForm(multipartMemory); parseErr != nil {
		return nil, nil, fmt.Errorf("invalid multipart form")
	}

	form := ctx.Request().MultipartForm
	var input UpdatePropertyInput

	setString := func(field string, dst **string) {
		if values, ok := form.Value[field]; ok && len(values) > 0 {
			v := values[0]
			*dst = &v
		}
	}
	setString("title", &input.Title)
	setString("description", &input.Description)
	setString("propertyType", &input.PropertyType)
	setString("address", &input.Address)
	setString("city", &input.City)
	setString("country", &input.Country)
	setString("status", &input.Status)

	if values, ok := form.Value["latitude"]; ok && len(values) > 0 {
		if v, err := strconv.ParseFloat(values[0], 64); err == nil {
			input.Latitude = &v
		}
	}
	if values, ok := form.Value["longitude"]; ok && len(values) > 0 {
		if v, err := strconv.ParseFloat(values[0], 64); err == nil {
			input.Longitude = &v
		}
	}
	if values, ok := form.Value["maxGuests"]; ok && len(values) > 0 {
		if v, err := strconv.Atoi(values[0]); err == nil {
			input.MaxGuests = &v
		}
	}
	if values, ok := form.Value["bedrooms"]; ok && len(values) > 0 {
		if v, err := strconv.Atoi(values[0]); err == nil {
			input.Bedrooms = &v
		}
	}
	if values, ok := form.Value["bathrooms"]; ok && len(values) > 0 {
		if v, err := strconv.Atoi(values[0]); err == nil {
			input.Bathrooms = &v
		}
	}
	if values, ok := form.Value["basePrice"]; ok && len(values) > 0 {
		if v, err := strconv.ParseFloat(values[0], 64); err == nil {
			input.BasePrice = &v
		}
	}
	if _, ok := form.Value["amenities"]; ok {
		amenities := formStringList(form, "amenities")
		input.Amenities = &amenities
	}
	if _, ok := form.Value["images"]; ok {
		images := formStringList(form, "images")
		input.Images = &images
	}
	input.DeleteImages = formStringList(form, "deleteImages")

	return &input, form.File["images"], nil
}

func formValue(form *multipart.Form, field string) string {
	if values, ok := form.Value[field]; ok && len(values) > 0 {
		return values[0]
	}
	return ""
}

// formStringList accepts either repeated form fields or a single field
// holding a JSON array.
func formStringList(form *multipart.Form, field string) []string {
	values, ok := form.Value[field]
	if !ok || len(values) == 0 {
		return nil
	}
	if len(values) == 1 && strings.HasPrefix(strings.TrimSpace(values[0]), "[") {
		var decoded []string
		if err := json.Unmarshal([]byte(values[0]), &decoded); err == nil {
			return decoded
		}
	}
	return values
}
