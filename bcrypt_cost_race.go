//go:build race

package auth

import "golang.org/x/crypto/bcrypt"

// race builds hash with the cheapest cost, the detector makes bcrypt slow
func passwordHashCost() int {
	return bcrypt.MinCost
}
