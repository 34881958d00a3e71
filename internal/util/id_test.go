package util

import (
	"testing"
	"time"
)

func TestNewMessageID(t *testing.T) {
	at := time.UnixMilli(1700000000123)
	if got := NewMessageID(at); got != "msg_1700000000123" {
		t.Fatalf("NewMessageID = %q", got)
	}
}

func TestNewIDUnique(t *testing.T) {
	if NewID() == NewID() {
		t.Fatal("expected distinct ids")
	}
}
