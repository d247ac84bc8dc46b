package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/marshallshelly/pebble-shop/internal/apperr"
	"github.com/marshallshelly/pebble-shop/internal/models"
	"github.com/marshallshelly/pebble-shop/internal/service"
)

type userPayload struct {
	Username  string `form:"username" json:"username" binding:"required"`
	Email     string `form:"email" json:"email" binding:"required"`
	Birthdate string `form:"birthdate" json:"birthdate" binding:"required"`
	Password  string `form:"password" json:"password" binding:"required"`
}

func (p userPayload) input() service.UserInput {
	return service.UserInput(p)
}

type postPayload struct {
	Title     string     `form:"title" json:"title" binding:"required"`
	Body      string     `form:"body" json:"body" binding:"required"`
	Status    string     `form:"status" json:"status"`
	Image     string     `form:"image" json:"image"`
	Published bool       `form:"published" json:"published"`
	Tags      string     `form:"tags" json:"tags"`
	Publish   *time.Time `form:"publish" json:"publish" time_format:"2006-01-02T15:04:05Z07:00"`
}

func (p postPayload) input() service.PostInput {
	return service.PostInput(p)
}

type productPayload struct {
	Title       string  `form:"title" json:"title" binding:"required"`
	Size        float64 `form:"size" json:"size"`
	Description string  `form:"description" json:"description"`
	Cost        int64   `form:"cost" json:"cost"`
	Photo       string  `form:"photo" json:"photo"`
	UploadedAt  bool    `form:"uploaded_at" json:"uploaded_at"`
}

func (p productPayload) input() service.ProductInput {
	return service.ProductInput(p)
}

type commentPayload struct {
	PostID int64  `form:"post_id" json:"post_id" binding:"required"`
	Name   string `form:"name" json:"name" binding:"required"`
	Email  string `form:"email" json:"email" binding:"required"`
	Body   string `form:"body" json:"body" binding:"required"`
	Active *bool  `form:"active" json:"active"`
}

func (p commentPayload) input() service.CommentInput {
	return service.CommentInput{
		PostID:      p.PostID,
		CommentForm: service.CommentForm{Name: p.Name, Email: p.Email, Body: p.Body},
		Active:      p.Active,
	}
}

// bindError turns a gin binding failure into a validation error.
func bindError(err error) error {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		msgs := make(apperr.ValidationErrors, len(fieldErrs))
		for i, fe := range fieldErrs {
			msgs[i] = fe.Field() + " is required"
			if fe.Tag() != "required" {
				msgs[i] = fe.Field() + " is invalid"
			}
		}
		return msgs
	}
	return apperr.ValidationErrors{"Invalid request body"}
}

// crud wires the five routes of one entity. Each handler runs inside the
// request's database session and commits after a successful mutation.
type crud[T any, P any] struct {
	list    func(svc *service.Service, c *gin.Context) (any, error)
	create  func(svc *service.Service, c *gin.Context, p P) (*T, error)
	get     func(svc *service.Service, c *gin.Context, id int64) (*T, error)
	replace func(svc *service.Service, c *gin.Context, id int64, p P) (*T, error)
	remove  func(svc *service.Service, c *gin.Context, id int64) error
}

func register[T any, P any](s *server, g *gin.RouterGroup, path string, h crud[T, P]) {
	g.GET(path, func(c *gin.Context) {
		svc, _ := s.service(c)
		if svc == nil {
			return
		}
		items, err := h.list(svc, c)
		if err != nil {
			s.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, items)
	})
	g.POST(path, func(c *gin.Context) {
		var p P
		if err := c.ShouldBind(&p); err != nil {
			s.fail(c, bindError(err))
			return
		}
		svc, sess := s.service(c)
		if svc == nil {
			return
		}
		item, err := h.create(svc, c, p)
		if err != nil {
			s.fail(c, err)
			return
		}
		if s.commit(c, sess) {
			c.JSON(http.StatusCreated, item)
		}
	})
	g.GET(path+"/:id", func(c *gin.Context) {
		id, err := paramID(c, "id")
		if err != nil {
			s.fail(c, err)
			return
		}
		svc, _ := s.service(c)
		if svc == nil {
			return
		}
		item, err := h.get(svc, c, id)
		if err != nil {
			s.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, item)
	})
	g.PUT(path+"/:id", func(c *gin.Context) {
		id, err := paramID(c, "id")
		if err != nil {
			s.fail(c, err)
			return
		}
		var p P
		if err := c.ShouldBind(&p); err != nil {
			s.fail(c, bindError(err))
			return
		}
		svc, sess := s.service(c)
		if svc == nil {
			return
		}
		item, err := h.replace(svc, c, id, p)
		if err != nil {
			s.fail(c, err)
			return
		}
		if s.commit(c, sess) {
			c.JSON(http.StatusOK, item)
		}
	})
	g.DELETE(path+"/:id", func(c *gin.Context) {
		id, err := paramID(c, "id")
		if err != nil {
			s.fail(c, err)
			return
		}
		svc, sess := s.service(c)
		if svc == nil {
			return
		}
		if err := h.remove(svc, c, id); err != nil {
			s.fail(c, err)
			return
		}
		if s.commit(c, sess) {
			c.Status(http.StatusNoContent)
		}
	})
}

func (s *server) registerAdmin(g *gin.RouterGroup) {
	g.GET("/", s.adminCounts)

	register(s, g, "/users", crud[models.User, userPayload]{
		list: func(svc *service.Service, c *gin.Context) (any, error) {
			return svc.Users(c.Request.Context())
		},
		create: func(svc *service.Service, c *gin.Context, p userPayload) (*models.User, error) {
			return svc.CreateUser(c.Request.Context(), p.input())
		},
		get: func(svc *service.Service, c *gin.Context, id int64) (*models.User, error) {
			return svc.User(c.Request.Context(), id)
		},
		replace: func(svc *service.Service, c *gin.Context, id int64, p userPayload) (*models.User, error) {
			return svc.ReplaceUser(c.Request.Context(), id, p.input())
		},
		remove: func(svc *service.Service, c *gin.Context, id int64) error {
			return svc.DeleteUser(c.Request.Context(), id)
		},
	})

	register(s, g, "/posts", crud[models.Post, postPayload]{
		list: func(svc *service.Service, c *gin.Context) (any, error) {
			return svc.Posts(c.Request.Context())
		},
		create: func(svc *service.Service, c *gin.Context, p postPayload) (*models.Post, error) {
			return svc.CreatePost(c.Request.Context(), p.input())
		},
		get: func(svc *service.Service, c *gin.Context, id int64) (*models.Post, error) {
			return svc.Post(c.Request.Context(), id)
		},
		replace: func(svc *service.Service, c *gin.Context, id int64, p postPayload) (*models.Post, error) {
			return svc.ReplacePost(c.Request.Context(), id, p.input())
		},
		remove: func(svc *service.Service, c *gin.Context, id int64) error {
			return svc.DeletePost(c.Request.Context(), id)
		},
	})

	register(s, g, "/store", crud[models.Product, productPayload]{
		list: func(svc *service.Service, c *gin.Context) (any, error) {
			return svc.Products(c.Request.Context())
		},
		create: func(svc *service.Service, c *gin.Context, p productPayload) (*models.Product, error) {
			return svc.CreateProduct(c.Request.Context(), p.input())
		},
		get: func(svc *service.Service, c *gin.Context, id int64) (*models.Product, error) {
			return svc.Get(c.Request.Context(), id)
		},
		replace: func(svc *service.Service, c *gin.Context, id int64, p productPayload) (*models.Product, error) {
			return svc.ReplaceProduct(c.Request.Context(), id, p.input())
		},
		remove: func(svc *service.Service, c *gin.Context, id int64) error {
			return svc.DeleteProduct(c.Request.Context(), id)
		},
	})

	register(s, g, "/comments", crud[models.Comment, commentPayload]{
		list: func(svc *service.Service, c *gin.Context) (any, error) {
			filter, err := commentFilter(c)
			if err != nil {
				return nil, err
			}
			return svc.Comments(c.Request.Context(), filter)
		},
		create: func(svc *service.Service, c *gin.Context, p commentPayload) (*models.Comment, error) {
			return svc.CreateComment(c.Request.Context(), p.input())
		},
		get: func(svc *service.Service, c *gin.Context, id int64) (*models.Comment, error) {
			return svc.Comment(c.Request.Context(), id)
		},
		replace: func(svc *service.Service, c *gin.Context, id int64, p commentPayload) (*models.Comment, error) {
			return svc.ReplaceComment(c.Request.Context(), id, p.input())
		},
		remove: func(svc *service.Service, c *gin.Context, id int64) error {
			return svc.DeleteComment(c.Request.Context(), id)
		},
	})

	g.GET("/users/:id/purchases", s.listPurchases)
	g.POST("/users/:id/purchases/:product_id", s.purchase)
	g.DELETE("/users/:id/purchases/:product_id", s.revertPurchase)
}

func commentFilter(c *gin.Context) (service.CommentFilter, error) {
	var f service.CommentFilter
	if raw, ok := c.GetQuery("post_id"); ok {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return f, apperr.ValidationErrors{"post_id must be an integer"}
		}
		f.PostID = &id
	}
	if raw, ok := c.GetQuery("active"); ok {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			return f, apperr.ValidationErrors{"active must be true or false"}
		}
		f.Active = &active
	}
	return f, nil
}

func (s *server) adminCounts(c *gin.Context) {
	svc, _ := s.service(c)
	if svc == nil {
		return
	}
	counts, err := svc.Counts(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, counts)
}

func purchaseIDs(c *gin.Context) (userID, productID int64, err error) {
	if userID, err = paramID(c, "id"); err != nil {
		return 0, 0, err
	}
	if productID, err = paramID(c, "product_id"); err != nil {
		return 0, 0, err
	}
	return userID, productID, nil
}

func (s *server) listPurchases(c *gin.Context) {
	userID, err := paramID(c, "id")
	if err != nil {
		s.fail(c, err)
		return
	}
	svc, _ := s.service(c)
	if svc == nil {
		return
	}
	products, err := svc.Purchases(c.Request.Context(), userID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func (s *server) purchase(c *gin.Context) {
	userID, productID, err := purchaseIDs(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	svc, sess := s.service(c)
	if svc == nil {
		return
	}
	us, err := svc.Purchase(c.Request.Context(), userID, productID)
	if err != nil {
		s.fail(c, err)
		return
	}
	if s.commit(c, sess) {
		c.JSON(http.StatusCreated, us)
	}
}

func (s *server) revertPurchase(c *gin.Context) {
	userID, productID, err := purchaseIDs(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	svc, sess := s.service(c)
	if svc == nil {
		return
	}
	if err := svc.RevertPurchase(c.Request.Context(), userID, productID); err != nil {
		s.fail(c, err)
		return
	}
	if s.commit(c, sess) {
		c.Status(http.StatusNoContent)
	}
}
