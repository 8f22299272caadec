package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

const (
	// UserIDHeader はJWT未設定時に利用者を識別するヘッダー
	UserIDHeader = "X-User-ID"

	ownerContextKey = "owner_id"
)

// Identity は予約の所有者IDを解決してコンテキストに格納する
// jwtSecret が設定されていれば HS256 の Bearer トークンの sub を使い、
// 空であれば X-User-ID ヘッダーを信頼する
func Identity(jwtSecret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			var (
				owner string
				err   error
			)
			if jwtSecret == "" {
				owner, err = ownerFromHeader(c)
			} else {
				owner, err = ownerFromToken(c, jwtSecret)
			}
			if err != nil {
				return err
			}
			c.Set(ownerContextKey, owner)
			return next(c)
		}
	}
}

// OwnerID は Identity が格納した所有者IDを返す
func OwnerID(c echo.Context) string {
	owner, _ := c.Get(ownerContextKey).(string)
	return owner
}

// SetOwnerID はコンテキストに所有者IDを設定する
func SetOwnerID(c echo.Context, owner string) {
	c.Set(ownerContextKey, owner)
}

func ownerFromHeader(c echo.Context) (string, error) {
	owner := strings.TrimSpace(c.Request().Header.Get(UserIDHeader))
	if owner == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "利用者IDが必要です")
	}
	return owner, nil
}

func ownerFromToken(c echo.Context, secret string) (string, error) {
	raw, ok := strings.CutPrefix(c.Request().Header.Get(echo.HeaderAuthorization), "Bearer ")
	if !ok || raw == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "認証トークンが必要です")
	}

	claims := jwt.MapClaims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !tok.Valid {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "認証トークンが無効です")
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "認証トークンに利用者IDがありません")
	}
	return sub, nil
}
