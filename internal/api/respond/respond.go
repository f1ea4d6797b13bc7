// Package respond provides the small set of JSON envelope helpers the
// admin handlers use to reply, mirroring the OK/Created/Fail shape the
// teacher's handlers already call against.
package respond

import "github.com/gin-gonic/gin"

type envelope struct {
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

func OK(c *gin.Context, data interface{}) {
	c.JSON(200, envelope{Data: data})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(201, envelope{Data: data})
}

func Fail(c *gin.Context, status int, err error) {
	c.JSON(status, envelope{Error: err.Error()})
}
