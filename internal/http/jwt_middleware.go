package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"nutritrack/internal/service"
)

const authClaimsKey = "auth_claims"

// JWTAuthMiddleware acepta solo tokens finales. Un token temporal de
// verificacion recibe 401 igual que uno invalido.
func JWTAuthMiddleware(jwtSvc *service.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if jwtSvc == nil {
			abortWithError(c, http.StatusInternalServerError, "jwt not configured")
			return
		}

		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if header == "" || !strings.HasPrefix(strings.ToLower(header), "bearer ") {
			abortWithError(c, http.StatusUnauthorized, "Token de acceso requerido")
			return
		}

		token := strings.TrimSpace(header[len("Bearer "):])
		claims, err := jwtSvc.ParseFinal(token)
		if err != nil {
			abortWithError(c, http.StatusUnauthorized, "Token inválido o expirado")
			return
		}

		c.Set(authClaimsKey, claims)
		c.Next()
	}
}

// RequireOwner exige que el parametro de ruta coincida con el usuario del token.
func RequireOwner(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := GetAuthClaims(c)
		if !ok {
			abortWithError(c, http.StatusUnauthorized, "Token de acceso requerido")
			return
		}
		if c.Param(param) != claims.UserID {
			abortWithError(c, http.StatusForbidden, "Acceso denegado")
			return
		}
		c.Next()
	}
}

// GetAuthClaims obtiene claims de JWT desde el contexto.
func GetAuthClaims(c *gin.Context) (service.Claims, bool) {
	val, ok := c.Get(authClaimsKey)
	if !ok {
		return service.Claims{}, false
	}
	claims, ok := val.(service.Claims)
	return claims, ok
}

// subjectFor resuelve el usuario de una request que puede traer userId en
// el cuerpo: vacio usa el del token, distinto es ErrForbidden.
func subjectFor(c *gin.Context, requested string) (string, error) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		return "", service.ErrInvalidToken
	}
	requested = strings.TrimSpace(requested)
	if requested != "" && requested != claims.UserID {
		return "", service.ErrForbidden
	}
	return claims.UserID, nil
}
