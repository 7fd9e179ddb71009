package shopify

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// VerifyWebhookHMAC проверяет подпись X-Shopify-Hmac-Sha256 тела webhook-а.
// Сравнение константное по времени. Пустой секрет означает, что подпись
// проверить нечем, и доставка отклоняется.
func VerifyWebhookHMAC(body []byte, signature, secret string) bool {
	if secret == "" || signature == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	computed := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(computed), []byte(signature))
}
