//go:build !race

package embedded

func passwordHashCost() int {
	return 14
}
