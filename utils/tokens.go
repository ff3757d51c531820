package utils

import (
	"context"
	"crypto/rand"
	"os"
	"strconv"
	"time"

	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"

	"github.com/victoroki/Korstrada/storage"
)

var bgContext = context.Background()

// AccessToken is the claim set carried by every authenticated request. The
// role rides along so route gates do not need a user lookup.
type AccessToken struct {
	ID   uint   `json:"ID"`
	Role string `json:"role"`
}

type RefreshTokenInput struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

func CreateTokenPair(id uint, role string) (*jwt.TokenPair, error) {
	accessTokenSigner := jwt.NewSigner(jwt.HS256, os.Getenv("ACCESS_TOKEN_SECRET"), 24*time.Hour)
	refreshTokenSigner := jwt.NewSigner(jwt.HS256, os.Getenv("REFRESH_TOKEN_SECRET"), 365*24*time.Hour)

	userID := strconv.FormatUint(uint64(id), 10)
	refreshClaims := jwt.Claims{Subject: userID}

	accessToken, err := accessTokenSigner.Sign(AccessToken{ID: id, Role: role})
	if err != nil {
		return nil, err
	}

	refreshToken, err := refreshTokenSigner.Sign(refreshClaims)
	if err != nil {
		return nil, err
	}

	var tokenPair jwt.TokenPair
	tokenPair.AccessToken = accessToken
	tokenPair.RefreshToken = refreshToken

	storage.Redis.Set(bgContext, string(refreshToken), "true", 365*24*time.Hour+5*time.Minute)

	return &tokenPair, nil
}

// RefreshToken rotates a verified refresh token: the old one is consumed
// from redis and a fresh pair is issued.
func RefreshToken(lookupRole func(id uint) string) iris.Handler {
	return func(ctx iris.Context) {
		token := jwt.GetVerifiedToken(ctx)
		tokenStr := string(token.Token)

		validToken, tokenErr := storage.Redis.Get(bgContext, tokenStr).Result()
		if tokenErr != nil {
			CreateNotFound(ctx, "Token")
			return
		}

		if validToken != "true" {
			CreateAccessDenied(ctx)
			return
		}

		storage.Redis.Del(bgContext, tokenStr)
		userID, parseErr := strconv.ParseUint(token.StandardClaims.Subject, 10, 32)
		if parseErr != nil {
			CreateInternalServerError(ctx)
			return
		}

		tokenPair, tokenPairErr := CreateTokenPair(uint(userID), lookupRole(uint(userID)))
		if tokenPairErr != nil {
			CreateInternalServerError(ctx)
			return
		}

		ctx.JSON(iris.Map{
			"success":      true,
			"accessToken":  string(tokenPair.AccessToken),
			"refreshToken": string(tokenPair.RefreshToken),
		})
	}
}

// GenerateShortToken returns a URL-safe random hex string of n*2 characters,
// used to suffix object-storage keys.
func GenerateShortToken(n int) string {
	b := make([]byte, n)
	_, err := rand.Read(b)
	if err != nil {
		return ""
	}
	const hex = "0123456789abcdef"
	out := make([]byte, n*2)
	for i, v := range b {
		out[i*2] = hex[v>>4]
		out[i*2+1] = hex[v&0x0f]
	}
	return string(out)
}
