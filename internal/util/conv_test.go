package util

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestMustParseUint(t *testing.T) {
	cases := map[string]uint{
		"42":          42,
		"0":           0,
		"":            0,
		"-1":          0,
		"abc":         0,
		"4294967295":  4294967295,
		"4294967296":  0,
		"99999999999": 0,
	}
	for in, want := range cases {
		if got := MustParseUint(in); got != want {
			t.Errorf("MustParseUint(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestParamIDRejectsOutOfRange(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/attempts/:attemptId", func(c *gin.Context) {
		if _, ok := ParamID(c, "attemptId"); !ok {
			return
		}
		c.Status(http.StatusNoContent)
	})

	for path, want := range map[string]int{
		"/attempts/7":           http.StatusNoContent,
		"/attempts/99999999999": http.StatusBadRequest,
		"/attempts/x":           http.StatusBadRequest,
	} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != want {
			t.Errorf("GET %s = %d, want %d", path, w.Code, want)
		}
	}
}
