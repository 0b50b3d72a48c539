package devices

import (
	anime "github.com/rogtools/go-anime"
)

// GA402 boards use the 2022+ AniMe panel with three panes and no padding.
func init() {
	anime.RegisterBoard(
		anime.GA402,
		"GA402R", // Zephyrus G14 2022
		"GA402X", // Zephyrus G14 2023
	)
}
