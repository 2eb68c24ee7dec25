package step

func Next(c int) int {
	return c + 1
}
