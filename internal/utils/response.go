package utils

import (
	"github.com/gin-gonic/gin"
)

// Every response, success or failure, uses the same envelope:
// {success, message, data|error}.

func OK(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, gin.H{"success": true, "message": message, "data": data})
}

// OKList adds the item count next to the data.
func OKList(c *gin.Context, status int, message string, data interface{}, count int) {
	c.JSON(status, gin.H{"success": true, "message": message, "count": count, "data": data})
}

// OKWithToken is used by register and login.
func OKWithToken(c *gin.Context, status int, message, token string, data interface{}) {
	c.JSON(status, gin.H{"success": true, "message": message, "token": token, "data": data})
}

func Fail(c *gin.Context, status int, message string, err error) {
	body := gin.H{"success": false, "message": message}
	if err != nil {
		body["error"] = err.Error()
	}
	c.JSON(status, body)
}

// Abort is Fail for middleware: it also stops the handler chain.
func Abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "message": message})
}
