package util

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

// NewID returns a random UUID string.
func NewID() string {
	return uuid.NewString()
}

// NewMessageID returns a chat message id of the form msg_<unix millis>.
func NewMessageID(now time.Time) string {
	return "msg_" + strconv.FormatInt(now.UnixMilli(), 10)
}
