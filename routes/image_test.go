package routes

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/victoroki/Korstrada/models"
	"github.com/victoroki/Korstrada/storage"
)

func addImagePart(t *testing.T, writer *multipart.Writer, filename string, contentType string) {
	t.Helper()
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="images"; filename="%s"`, filename))
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	if err != nil {
		t.Fatalf("failed to create form part: %v", err)
	}
	part.Write([]byte("fake image bytes"))
}

func doMultipart(app http.Handler, method string, target string, token string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	app.ServeHTTP(resp, req)
	return resp
}

func TestUploadPropertyImages(t *testing.T) {
	app, bucket := setupTest(t)
	host := createTestUser(t, "host@example.com", "host")
	property := createTestProperty(t, host.ID, 4, 120)
	token := signTestToken(host.ID, "host")

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	addImagePart(t, writer, "front.jpg", "image/jpeg")
	addImagePart(t, writer, "back.png", "image/png")
	writer.Close()

	resp := doMultipart(app, http.MethodPost, urlf("/api/properties/%d/images", property.ID),
		token, &body, writer.FormDataContentType())
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}

	urls := decodeBody(t, resp)["imageUrls"].([]interface{})
	if len(urls) != 2 {
		t.Fatalf("expected 2 uploaded urls, got %d", len(urls))
	}
	if len(bucket.uploads) != 2 {
		t.Fatalf("expected 2 bucket uploads, got %d", len(bucket.uploads))
	}
	if !strings.HasSuffix(bucket.uploads[0], ".jpg") || !strings.HasSuffix(bucket.uploads[1], ".png") {
		t.Fatalf("object keys must keep the file extension: %v", bucket.uploads)
	}

	var reloaded models.Property
	storage.DB.First(&reloaded, property.ID)
	if len(reloaded.ImageURLs()) != 2 {
		t.Fatalf("uploaded urls must be appended to the gallery, got %v", reloaded.ImageURLs())
	}
}

func TestUploadPropertyImagesRejectsNonImages(t *testing.T) {
	app, bucket := setupTest(t)
	host := createTestUser(t, "host@example.com", "host")
	property := createTestProperty(t, host.ID, 4, 120)
	token := signTestToken(host.ID, "host")

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	addImagePart(t, writer, "notes.txt", "text/plain")
	writer.Close()

	resp := doMultipart(app, http.MethodPost, urlf("/api/properties/%d/images", property.ID),
		token, &body, writer.FormDataContentType())
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-image upload, got %d", resp.Code)
	}
	if len(bucket.uploads) != 0 {
		t.Fatalf("rejected request must not upload anything")
	}
}

func TestDeletePropertyImageByKey(t *testing.T) {
	app, bucket := setupTest(t)
	host := createTestUser(t, "host@example.com", "host")
	property := createTestProperty(t, host.ID, 4, 120)
	token := signTestToken(host.ID, "host")

	url := "https://bucket.test/storage/v1/object/public/properties/300-cover.jpg"
	storage.DB.Model(&property).Update("images", marshalStringList([]string{url}))

	missing := doJSON(app, http.MethodDelete, urlf("/api/properties/%d/images/999-nope.jpg", property.ID), token, nil)
	if missing.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown key, got %d", missing.Code)
	}

	resp := doJSON(app, http.MethodDelete, urlf("/api/properties/%d/images/300-cover.jpg", property.ID), token, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if bucket.removalCount(url) != 1 {
		t.Fatalf("expected one bucket removal, got %d", bucket.removalCount(url))
	}

	var reloaded models.Property
	storage.DB.First(&reloaded, property.ID)
	if len(reloaded.ImageURLs()) != 0 {
		t.Fatalf("gallery must be empty after delete, got %v", reloaded.ImageURLs())
	}
}

func TestCreatePropertyMultipartMixesUrlsAndFiles(t *testing.T) {
	app, _ := setupTest(t)
	host := createTestUser(t, "host@example.com", "host")
	token := signTestToken(host.ID, "host")

	existing := "https://bucket.test/storage/v1/object/public/properties/1-existing.jpg"

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	writer.WriteField("title", "Canal House")
	writer.WriteField("city", "Amsterdam")
	writer.WriteField("maxGuests", "3")
	writer.WriteField("basePrice", "210")
	writer.WriteField("images", existing)
	addImagePart(t, writer, "new.jpg", "image/jpeg")
	writer.Close()

	resp := doMultipart(app, http.MethodPost, "/api/properties/", token, &body, writer.FormDataContentType())
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}

	property := decodeBody(t, resp)["property"].(map[string]interface{})
	images := property["images"].([]interface{})
	if len(images) != 2 {
		t.Fatalf("expected given url plus uploaded file, got %v", images)
	}
	// Given URLs come first, uploads append after
	if images[0] != existing {
		t.Fatalf("expected pre-uploaded url first, got %v", images[0])
	}
	if property["maxGuests"].(float64) != 3 {
		t.Fatalf("form fields must be parsed, got %v", property["maxGuests"])
	}
}
