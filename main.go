package main

import (
	"os"

	"github.com/gin-gonic/gin"

	"hamrotask/connection"
)

func main() {
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}
	connection.StartServer()
}
