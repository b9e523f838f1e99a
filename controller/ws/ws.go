package ws

import (
	"fmt"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"

	"hamrotask/logging"
	"hamrotask/realtime"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func WSController(router *gin.Engine, hub *realtime.Hub) {
	router.GET("/ws", func(c *gin.Context) {
		Connect(c, hub)
	})
}

// Connect upgrades to a websocket. Browsers cannot set headers on the
// upgrade request, so the access token rides in ?token= and is checked
// here instead of the middleware.
func Connect(c *gin.Context, hub *realtime.Hub) {
	tokenString := c.Query("token")
	if tokenString == "" {
		c.JSON(401, gin.H{"error": "Token is missing"})
		return
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(os.Getenv("JWT_SECRET_KEY")), nil
	})
	if err != nil {
		c.JSON(403, gin.H{"error": "Token is expired or invalid: " + err.Error()})
		return
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		c.JSON(401, gin.H{"error": "Invalid token claims"})
		return
	}
	userID, ok := claims["userId"].(string)
	if !ok {
		c.JSON(401, gin.H{"error": "Invalid userId in token claims"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logging.Logger.Error("Websocket upgrade failed", "error", err)
		return
	}

	realtime.NewClient(hub, conn, userID)
}
