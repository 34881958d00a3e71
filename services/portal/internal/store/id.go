package store

import (
	"crypto/rand"
	"math/big"
	"strconv"
	"time"
)

const idAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// NewDocumentID returns doc_<unix millis>_<7 random base36 chars>.
func NewDocumentID(now time.Time) string {
	suffix := make([]byte, 7)
	max := big.NewInt(int64(len(idAlphabet)))
	for i := range suffix {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			suffix[i] = '0'
			continue
		}
		suffix[i] = idAlphabet[n.Int64()]
	}
	return "doc_" + strconv.FormatInt(now.UnixMilli(), 10) + "_" + string(suffix)
}
