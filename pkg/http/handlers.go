package http

import (
	"errors"
	"io"
	"maps"
	"net/http"

	z "github.com/Oudwins/zog"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"liyu1981.xyz/iot-gateway-service/pkg/apierr"
	"liyu1981.xyz/iot-gateway-service/pkg/auth"
	"liyu1981.xyz/iot-gateway-service/pkg/common"
)

const (
	MsgAdded   = "%s added successfully"
	MsgUpdated = "%s updated successfully"
	MsgDeleted = "%s deleted successfully"
)

func respondMsg(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"msg": msg})
}

// respondError writes err in the {"msg": ...} envelope and stops the chain.
func respondError(c *gin.Context, err error) {
	apiErr := apierr.From(err)
	if apiErr.Code >= http.StatusInternalServerError {
		common.GetLoggerWith(common.LoggerNameRestfulServer).Error("Request error",
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
	}
	c.AbortWithStatusJSON(apiErr.Code, gin.H{"msg": apiErr.Message})
}

// respondList answers 404 for an empty result, the rows otherwise.
func respondList[T any](c *gin.Context, rows []T, err error) {
	if err != nil {
		respondError(c, err)
		return
	}
	if len(rows) == 0 {
		respondMsg(c, http.StatusNotFound, apierr.MsgNoItem)
		return
	}
	c.JSON(http.StatusOK, rows)
}

// requestData collects the request fields. They come from a JSON body for
// every method, and for GET also from the query string.
func requestData(c *gin.Context) (map[string]any, error) {
	data := map[string]any{}
	if c.Request.Method == http.MethodGet {
		for key, values := range c.Request.URL.Query() {
			if len(values) > 0 {
				data[key] = values[0]
			}
		}
	}

	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return data, nil
	}
	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil {
		if errors.Is(err, io.EOF) {
			return data, nil
		}
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, apierr.NewPayloadTooLargeError(tooLargeMessage(maxErr.Limit), err)
		}
		return nil, apierr.NewValidationError("Request body must be a JSON object", err)
	}
	maps.Copy(data, body)
	return data, nil
}

// bind parses the request into dest with schema. On failure the response is
// already written and ok is false.
func bind(c *gin.Context, schema *z.StructSchema, dest any) (data map[string]any, ok bool) {
	data, err := requestData(c)
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	if issues := schema.Parse(data, dest); issues != nil {
		respondError(c, apierr.NewValidationError(common.IssuesMessage(issues), nil))
		return nil, false
	}
	return data, true
}

func identity(c *gin.Context) string {
	uid, _ := auth.IdentityFrom(c.Request.Context())
	return uid
}

func (rs *RestfulServer) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (rs *RestfulServer) Index(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"logged_in_as": identity(c)})
}

// Login checks HTTP Basic credentials against the identity provider and
// hands out an access and a refresh token.
func (rs *RestfulServer) Login(c *gin.Context) {
	logger := common.GetLoggerWith(common.LoggerNameRestfulServer)

	username, password, ok := c.Request.BasicAuth()
	if !ok {
		respondError(c, apierr.NewAuthError(auth.MsgUnauthorized, nil))
		return
	}
	if err := rs.Identity.Verify(c.Request.Context(), username, password); err != nil {
		logger.Info("Login refused", zap.String("username", username), zap.Error(err))
		respondError(c, err)
		return
	}

	access, err := rs.Tokens.IssueAccess(username)
	if err != nil {
		respondError(c, err)
		return
	}
	refresh, err := rs.Tokens.IssueRefresh(username)
	if err != nil {
		respondError(c, err)
		return
	}

	logger.Info("Logged in", zap.String("username", username))
	c.JSON(http.StatusOK, gin.H{
		"username":      username,
		"access_token":  access,
		"refresh_token": refresh,
	})
}

func (rs *RestfulServer) Refresh(c *gin.Context) {
	username := identity(c)
	access, err := rs.Tokens.IssueAccess(username)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"username":     username,
		"access_token": access,
	})
}
