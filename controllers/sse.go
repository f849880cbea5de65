package controllers

import (
	"io"

	"github.com/gin-gonic/gin"
)

// streamChannel writes every value from ch as a server-sent event named
// event until ch closes or the client goes away.
func streamChannel[T any](c *gin.Context, event string, ch <-chan T, encode func(T) any) {
	prepareStream(c)
	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case v, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent(event, encode(v))
			return true
		case <-ctx.Done():
			return false
		}
	})
}

func prepareStream(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
}
