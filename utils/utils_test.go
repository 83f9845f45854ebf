package utils

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, x%h, color.RGBA{R: 200, A: 255})
	}
	buf := bytes.Buffer{}
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestCreateThumb(t *testing.T) {
	tests := []struct {
		name  string
		w, h  int
		size  uint
		wantW uint16
		wantH uint16
	}{
		{"landscape", 400, 200, 100, 100, 50},
		{"portrait", 150, 300, 100, 50, 100},
		{"already small", 60, 40, 100, 60, 40},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := bytes.Buffer{}
			res, err := CreateThumb(tt.size, bytes.NewReader(testPNG(t, tt.w, tt.h)), &out)
			if err != nil {
				t.Fatal(err)
			}
			if res.NewX != tt.wantW || res.NewY != tt.wantH {
				t.Errorf("thumb is %dx%d, want %dx%d", res.NewX, res.NewY, tt.wantW, tt.wantH)
			}
			if res.OldX != uint16(tt.w) || res.OldY != uint16(tt.h) {
				t.Errorf("original is %dx%d", res.OldX, res.OldY)
			}
			if res.ThumbSize != int64(out.Len()) {
				t.Errorf("ThumbSize %d, wrote %d", res.ThumbSize, out.Len())
			}
			if mimeType, _ := DetectImageType(out.Bytes()); mimeType != "image/jpeg" {
				t.Errorf("thumb is %s", mimeType)
			}
		})
	}
}

func TestCreateThumb_NotAnImage(t *testing.T) {
	if _, err := CreateThumb(100, bytes.NewReader([]byte("hello")), &bytes.Buffer{}); err == nil {
		t.Error("expected a decode error")
	}
}

func TestDetectImageType(t *testing.T) {
	if mimeType, ok := DetectImageType(testPNG(t, 2, 2)); !ok || mimeType != "image/png" {
		t.Errorf("png detected as %s, %v", mimeType, ok)
	}
	if mimeType, ok := DetectImageType([]byte("<html><body>hi</body></html>")); ok {
		t.Errorf("html detected as image %s", mimeType)
	}
}

func TestCacheRouter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tests := []struct {
		router CacheRouter
		want   string
	}{
		{CacheRouter{}, "no-cache"},
		{CacheRouter{CacheTime: 60}, "private, max-age=60"},
		{CacheRouter{CacheTime: 3600, Public: true}, "public, max-age=3600"},
		{CacheRouter{CacheTime: CacheCustom}, ""},
	}
	for _, tt := range tests {
		r := gin.New()
		r.GET("/", tt.router.Handler(), func(c *gin.Context) { c.Status(http.StatusOK) })
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		if got := w.Header().Get("Cache-Control"); got != tt.want {
			t.Errorf("%+v: cache-control %q, want %q", tt.router, got, tt.want)
		}
	}
}

func TestRand16BytesToBase62(t *testing.T) {
	a, b := Rand16BytesToBase62(), Rand16BytesToBase62()
	if a == b || len(a) < 16 {
		t.Errorf("weak random strings %q %q", a, b)
	}
}
