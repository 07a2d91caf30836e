// One-off: go run scripts/genhash.go <username> [password]
// Prints an INSERT for a staff account with a bcrypt password hash.
package main

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: genhash <username> [password]")
		os.Exit(2)
	}
	username := os.Args[1]
	password := "admin-pass"
	if len(os.Args) > 2 {
		password = os.Args[2]
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		panic(err)
	}
	fmt.Printf("INSERT INTO tb_users (username, password_hash, is_staff) VALUES ('%s', '%s', TRUE);\n",
		strings.ReplaceAll(username, "'", "''"), h)
}
