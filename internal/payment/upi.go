package payment

import (
	"fmt"
	"net/url"
	"strings"
)

// PayLink builds the UPI deep link a buyer's app opens to pay the merchant.
// The output depends only on its inputs.
func PayLink(merchantUPIID, merchantName, providerOrderID string, amount int64) string {
	name := strings.ReplaceAll(url.QueryEscape(merchantName), "+", "%20")
	return fmt.Sprintf("upi://pay?pa=%s&pn=%s&am=%.2f&tn=PT-%s&cu=INR",
		merchantUPIID,
		name,
		float64(amount)/100,
		providerOrderID,
	)
}
