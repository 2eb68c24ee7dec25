package counter

import "example.com/counter/step"

func Count(n int) int {
	c := 0
	for i := 0; i < n; i++ {
		c = step.Next(c)
	}
	return c
}
