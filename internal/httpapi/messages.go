package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type messagePayload struct {
	Text string `form:"text" json:"text" binding:"required"`
}

func (s *server) listMessages(c *gin.Context) {
	c.JSON(http.StatusOK, s.Messages.List())
}

func (s *server) getMessage(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		s.fail(c, err)
		return
	}
	m, err := s.Messages.Get(id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (s *server) createMessage(c *gin.Context) {
	var p messagePayload
	if err := c.ShouldBind(&p); err != nil {
		s.fail(c, bindError(err))
		return
	}
	c.JSON(http.StatusCreated, s.Messages.Create(p.Text))
}

func (s *server) updateMessage(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		s.fail(c, err)
		return
	}
	var p messagePayload
	if err := c.ShouldBind(&p); err != nil {
		s.fail(c, bindError(err))
		return
	}
	m, err := s.Messages.Update(id, p.Text)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (s *server) deleteMessage(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		s.fail(c, err)
		return
	}
	if err := s.Messages.Delete(id); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *server) deleteAllMessages(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"deleted": s.Messages.DeleteAll()})
}
