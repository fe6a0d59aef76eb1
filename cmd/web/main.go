package main

import "addons_backend/internal/app"

func main() {
	app.Run()
}
