package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/eventflow/pkg/common/constants"
	commonerrors "github.com/turtacn/eventflow/pkg/common/errors"
	"github.com/turtacn/eventflow/pkg/common/types"
	"github.com/turtacn/eventflow/pkg/common/types/enum"
	"github.com/turtacn/eventflow/pkg/domain/event/model"
	"github.com/turtacn/eventflow/pkg/domain/ingestion"
)

// eventRequest 是 POST /events 的请求体形状 (spec.md §8)
// eventRequest is the POST /events request body shape.
type eventRequest struct {
	Kind        enum.EventKind         `json:"kind" binding:"required"`
	Fingerprint string                 `json:"fingerprint,omitempty"`
	SubjectID   string                 `json:"subject-id,omitempty"`
	OccurredAt  time.Time              `json:"occurred-at,omitempty"`
	Properties  map[string]interface{} `json:"properties"`
}

// SetupRouter 使用摄取服务配置Gin路由器，暴露spec.md §8列举的外部接口
// SetupRouter configures the Gin router against the ingestion service,
// exposing the external interface enumerated in spec.md §8.
func SetupRouter(engine *gin.Engine, svc ingestion.Service) {
	engine.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service": constants.ServiceName,
			"version": constants.ServiceVersion,
		})
	})

	engine.GET("/health", func(c *gin.Context) {
		result, err := svc.Health(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, types.NewErrorAPIResponse(
				commonerrors.Wrap(err, commonerrors.InternalError, "health check failed"),
			))
			return
		}
		status := http.StatusOK
		if result.Status != "ok" {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, result)
	})

	engine.GET("/metrics/summary", func(c *gin.Context) {
		stats, err := svc.QueueStats(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, types.NewErrorAPIResponse(
				commonerrors.Wrap(err, commonerrors.InternalError, "failed to read queue stats"),
			))
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"queue-length": stats.QueueLength,
			"pending":      stats.Pending,
		})
	})

	engine.POST("/events", func(c *gin.Context) {
		var req eventRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, types.NewErrorAPIResponse(
				commonerrors.Wrap(err, commonerrors.StructuralError, "invalid request body"),
			))
			return
		}

		sub := &model.Submission{
			Kind:        req.Kind,
			Fingerprint: req.Fingerprint,
			SubjectID:   req.SubjectID,
			OccurredAt:  req.OccurredAt,
			Properties:  req.Properties,
		}

		result, err := svc.Submit(c.Request.Context(), sub)
		if err != nil {
			status := http.StatusInternalServerError
			switch commonerrors.GetCode(err) {
			case commonerrors.StructuralError:
				status = http.StatusBadRequest
			case commonerrors.AlreadyExistsError:
				status = http.StatusConflict
			}
			c.JSON(status, types.NewErrorAPIResponse(asAppError(err)))
			return
		}

		c.JSON(http.StatusAccepted, result)
	})

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, types.NewErrorAPIResponse(
			commonerrors.New(commonerrors.NotFoundError, "endpoint not found"),
		))
	})
}

// asAppError 将任意错误规整为 *AppError，非AppError的错误归为UnknownError
// asAppError coerces any error into an *AppError, classifying non-AppError
// errors as UnknownError.
func asAppError(err error) *commonerrors.AppError {
	var appErr *commonerrors.AppError
	if commonerrors.As(err, &appErr) {
		return appErr
	}
	return commonerrors.Wrap(err, commonerrors.UnknownError, err.Error())
}
