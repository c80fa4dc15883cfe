package main

import (
	"github.com/easey-git/easey-app-sub001/internal/app"
	"github.com/easey-git/easey-app-sub001/internal/config"
)

func main() {
	config.MustInit()
	app.MustNewApp().Run()
}
