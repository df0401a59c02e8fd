// Package api implements the HTTP observation and order-ingress surface
// (spec section 6's optional API), grounded on the teacher's gin-based
// trading handlers.
package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/orbitcex/matchcore/internal/matching/engine"
	"github.com/orbitcex/matchcore/internal/matching/model"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// traceIDHeader carries a per-request trace identifier, generated if the
// caller didn't supply one, mirroring the teacher's TraceIDFromContext
// convention for correlating logs across a request's lifetime.
const traceIDHeader = "X-Trace-Id"

func traceIDMiddleware(c *gin.Context) {
	id := c.GetHeader(traceIDHeader)
	if id == "" {
		id = uuid.New().String()
	}
	c.Header(traceIDHeader, id)
	c.Set("trace_id", id)
	c.Next()
}

// Server exposes the engine over HTTP.
type Server struct {
	eng *engine.Engine
	log *zap.Logger
}

// NewServer constructs a Server around eng and registers a custom
// validator tag used by AddOrderRequest beyond gin's built-in
// required/oneof/gt.
func NewServer(eng *engine.Engine, log *zap.Logger) *Server {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("nonnegativeprice", func(fl validator.FieldLevel) bool {
			return fl.Field().Int() >= 0
		})
	}
	return &Server{eng: eng, log: log}
}

// Router builds the gin engine with every route mounted.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), traceIDMiddleware)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/book", s.getBook)
	r.POST("/orders", s.postOrder)
	r.DELETE("/orders/:id", s.deleteOrder)
	return r
}

func (s *Server) getBook(c *gin.Context) {
	levels := 10
	if q := c.Query("levels"); q != "" {
		if n, err := strconv.Atoi(q); err == nil && n > 0 {
			levels = n
		}
	}
	bids, asks := s.eng.BookSnapshot(levels)
	c.JSON(http.StatusOK, BookSnapshotResponse{Bids: toLevelDTOs(bids), Asks: toLevelDTOs(asks)})
}

func (s *Server) postOrder(c *gin.Context) {
	var req AddOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	side, kind := req.toDomain()

	id := model.ID(req.ID)
	if err := s.eng.AddOrder(id, side, kind, model.Price(req.Price), req.Quantity); err != nil {
		s.log.Warn("add order rejected by backpressure policy", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, AddOrderResponse{OrderID: uint64(id)})
}

func (s *Server) deleteOrder(c *gin.Context) {
	idStr := c.Param("id")
	n, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}
	if err := s.eng.Cancel(model.ID(n)); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}
