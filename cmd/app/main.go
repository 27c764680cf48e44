package main

import (
	"github.com/humanbelnik/reelswap/internal/app"
	"github.com/humanbelnik/reelswap/internal/config"
)

func main() {
	app.Go(config.Load())
}
