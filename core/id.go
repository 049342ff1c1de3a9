package core

import (
	"crypto/rand"
	"encoding/hex"
	"strconv"
	"sync/atomic"
)

var idFallback atomic.Uint64

func newID() string {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "id-" + strconv.FormatUint(idFallback.Add(1), 10)
	}
	return hex.EncodeToString(buf[:])
}

func newConsoleID() string {
	return "con-" + newID()
}

func newSessionID() string {
	return "ses-" + newID()
}
