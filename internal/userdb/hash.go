package userdb

import (
	"github.com/GehirnInc/crypt/sha512_crypt"
)

// lockedHash is the shadow hash for accounts with no usable password.
const lockedHash = "!"

// hashPassword produces a sha512-crypt ($6$) shadow hash with a random salt.
func hashPassword(password string) (string, error) {
	return sha512_crypt.New().Generate([]byte(password), nil)
}
