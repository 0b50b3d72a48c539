package devices

import (
	anime "github.com/rogtools/go-anime"
)

func init() {
	anime.RegisterBoard(
		anime.GU604,
		"GU604V", // Zephyrus M16 2023
	)
}
