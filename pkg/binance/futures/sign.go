package futures

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// sign computes the lowercase hex HMAC-SHA256 of data keyed by secret, the
// signature scheme Binance requires on authenticated endpoints.
func sign(data, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(data))
	return hex.EncodeToString(h.Sum(nil))
}
