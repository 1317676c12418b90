package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/gin-gonic/gin"
)

func fakeAuthUser(userID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("userId", userID)
		c.Next()
	}
}

func newTestEngine(authUserID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(fakeAuthUser(authUserID))
	return r
}

func doRequest(router *gin.Engine, method, url string, body interface{}) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, url, nil)
	if body != nil {
		var raw string
		if s, ok := body.(string); ok {
			raw = s
		} else {
			b, _ := json.Marshal(body)
			raw = string(b)
		}
		req, _ = http.NewRequest(method, url, strings.NewReader(raw))
		req.Header.Set("Content-Type", "application/json")
	}
	return doRequestWith(router, req)
}

func doRequestWith(router *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func responseMessage(w *httptest.ResponseRecorder) string {
	var body struct {
		Message string `json:"message"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return body.Message
}
