package traffic

import (
	"time"

	"github.com/LeoCommon/cellmodem/pkg/log"
	gojwt "github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// ExpiryOffset makes tokens count as expired ahead of time to tolerate clock skew
const ExpiryOffset = 5 * time.Second

// ValidateToken checks the time claims of a bearer token. The signature is the server's business.
func ValidateToken(tokenString string) error {
	if len(tokenString) == 0 {
		return ErrTokenMissing
	}

	parser := gojwt.NewParser()

	token, _, err := parser.ParseUnverified(tokenString, gojwt.MapClaims{})
	if err != nil {
		log.Error("bearer token could not be parsed", zap.Error(err))
		return err
	}

	// nbf is optional
	if notBefore, err := token.Claims.GetNotBefore(); err == nil && notBefore != nil {
		if notBefore.After(time.Now()) {
			return gojwt.ErrTokenNotValidYet
		}
	}

	expiration, err := token.Claims.GetExpirationTime()
	if err != nil {
		return err
	}
	if expiration == nil {
		return gojwt.ErrTokenRequiredClaimMissing
	}

	if expiration.Before(time.Now().Add(ExpiryOffset)) {
		return gojwt.ErrTokenExpired
	}

	return nil
}
