package id

import (
	"encoding/hex"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
)

// NewID32 returns exactly 32 lowercase hex characters (no separators/prefixes).
func NewID32() string {
	u := uuid.New()
	return hex.EncodeToString(u[:])
}

// ObjectKey builds the blob key of a document uploaded for a loan:
// loans/<loan>/<32 hex>-<name>. Directory parts of name are dropped.
func ObjectKey(loanID uint64, name string) string {
	base := path.Base(strings.ReplaceAll(strings.TrimSpace(name), `\`, "/"))
	if base == "." || base == "/" {
		base = "document"
	}
	base = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, base)
	return fmt.Sprintf("loans/%d/%s-%s", loanID, NewID32(), base)
}
