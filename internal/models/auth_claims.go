package models

import "github.com/golang-jwt/jwt/v5"

type JwtCustomClaims struct {
	OperatorID string `json:"operatorID"`
	Email      string `json:"email"`
	jwt.RegisteredClaims
}
