package routes

import (
	"strings"

	"github.com/kataras/iris/v12"
	"golang.org/x/crypto/bcrypt"

	"github.com/victoroki/Korstrada/models"
	"github.com/victoroki/Korstrada/storage"
	"github.com/victoroki/Korstrada/utils"
)

func Register(ctx iris.Context) {
	var userInput RegisterUserInput
	err := ctx.ReadJSON(&userInput)
	if err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	var newUser models.User
	userExists, userExistsErr := getAndHandleUserExists(&newUser, userInput.Email)
	if userExistsErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	if userExists {
		utils.CreateError(iris.StatusBadRequest, "Email already registered.", ctx)
		return
	}

	// Self-registration never grants admin
	role := userInput.Role
	if role != "host" {
		role = "guest"
	}

	hashedPassword, hashErr := hashAndSaltPassword(userInput.Password)
	if hashErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	newUser = models.User{
		FirstName:   userInput.FirstName,
		LastName:    userInput.LastName,
		Email:       strings.ToLower(userInput.Email),
		Password:    hashedPassword,
		PhoneNumber: userInput.PhoneNumber,
		Role:        role,
	}

	createResult := storage.DB.Create(&newUser)
	if createResult.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	returnUser(newUser, iris.StatusCreated, ctx)
}

func Login(ctx iris.Context) {
	var userInput LoginUserInput
	err := ctx.ReadJSON(&userInput)
	if err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	var existingUser models.User
	errorMsg := "Invalid email or password."
	userExists, userExistsErr := getAndHandleUserExists(&existingUser, userInput.Email)
	if userExistsErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	if !userExists {
		utils.CreateError(iris.StatusUnauthorized, errorMsg, ctx)
		return
	}

	passwordErr := bcrypt.CompareHashAndPassword([]byte(existingUser.Password), []byte(userInput.Password))
	if passwordErr != nil {
		utils.CreateError(iris.StatusUnauthorized, errorMsg, ctx)
		return
	}

	returnUser(existingUser, iris.StatusOK, ctx)
}

func GetProfile(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)

	var user models.User
	userExists, err := getUserByID(&user, userID)
	if err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	if !userExists {
		utils.CreateNotFound(ctx, "User")
		return
	}

	ctx.JSON(iris.Map{"success": true, "user": user})
}

// UpdateProfile writes only the fields present in the payload; omitted
// fields keep their stored values.
func UpdateProfile(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)

	var input UpdateProfileInput
	err := ctx.ReadJSON(&input)
	if err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	var user models.User
	userExists, userErr := getUserByID(&user, userID)
	if userErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	if !userExists {
		utils.CreateNotFound(ctx, "User")
		return
	}

	updates := map[string]interface{}{}
	if input.FirstName != nil {
		updates["first_name"] = *input.FirstName
	}
	if input.LastName != nil {
		updates["last_name"] = *input.LastName
	}
	if input.PhoneNumber != nil {
		updates["phone_number"] = *input.PhoneNumber
	}
	if input.ProfileImage != nil {
		updates["profile_image"] = *input.ProfileImage
	}

	if len(updates) > 0 {
		updateResult := storage.DB.Model(&user).Updates(updates)
		if updateResult.Error != nil {
			utils.CreateInternalServerError(ctx)
			return
		}
	}

	ctx.JSON(iris.Map{"success": true, "user": user})
}

// LookupUserRole feeds the refresh endpoint so rotated access tokens carry
// the user's current role, not the one from login time.
func LookupUserRole(id uint) string {
	var user models.User
	if exists, err := getUserByID(&user, id); err != nil || !exists {
		return "guest"
	}
	return user.Role
}

func getAndHandleUserExists(user *models.User, email string) (exists bool, err error) {
	userExistsQuery := storage.DB.Where("email = ?", strings.ToLower(email)).Limit(1).Find(&user)
	if userExistsQuery.Error != nil {
		return false, userExistsQuery.Error
	}
	return userExistsQuery.RowsAffected > 0, nil
}

func getUserByID(user *models.User, id uint) (exists bool, err error) {
	userQuery := storage.DB.Where("id = ?", id).Limit(1).Find(&user)
	if userQuery.Error != nil {
		return false, userQuery.Error
	}
	return userQuery.RowsAffected > 0, nil
}

func hashAndSaltPassword(password string) (hashedPassword string, err error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

func returnUser(user models.User, statusCode int, ctx iris.Context) {
	tokenPair, tokenErr := utils.CreateTokenPair(user.ID, user.Role)
	if tokenErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.StatusCode(statusCode)
	ctx.JSON(iris.Map{
		"success":      true,
		"user":         user,
		"accessToken":  string(tokenPair.AccessToken),
		"refreshToken": string(tokenPair.RefreshToken),
	})
}

type RegisterUserInput struct {
	FirstName   string `json:"firstName" validate:"required,max=256"`
	LastName    string `json:"lastName" validate:"required,max=256"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8,max=256"`
	PhoneNumber string `json:"phoneNumber" validate:"omitempty,max=32"`
	Role        string `json:"role" validate:"omitempty,oneof=guest host"`
}

type LoginUserInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UpdateProfileInput struct {
	FirstName    *string `json:"firstName" validate:"omitempty,max=256"`
	LastName     *string `json:"lastName" validate:"omitempty,max=256"`
	PhoneNumber  *string `json:"phoneNumber" validate:"omitempty,max=32"`
	ProfileImage *string `json:"profileImage" validate:"omitempty,url"`
}
