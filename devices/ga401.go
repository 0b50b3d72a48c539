package devices

import (
	anime "github.com/rogtools/go-anime"
)

// GA401 boards carry the first AniMe panel from 2020: 55 rows over two panes.
func init() {
	anime.RegisterBoard(
		anime.GA401,
		"GA401I", // Zephyrus G14 2020
		"GA401Q", // Zephyrus G14 2021
	)
}
