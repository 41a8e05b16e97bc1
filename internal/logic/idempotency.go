package logic

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

var idempotencyNamespace = uuid.MustParse("6f1c3a52-4d0e-5b8a-9c27-1e0b7d4a2f90")

// IdempotencyKey derives the provider idempotency key of one logical refund attempt.
// A caller supplied key makes retries of the same request map to the same provider call;
// without one the request time scopes the key.
func IdempotencyKey(paymentID, clientKey string, requestedAt time.Time) string {
	name := paymentID + "|key|" + clientKey
	if clientKey == "" {
		name = paymentID + "|ts|" + strconv.FormatInt(requestedAt.UnixNano(), 10)
	}
	return uuid.NewSHA1(idempotencyNamespace, []byte(name)).String()
}
