package middleware

import (
	"bufio"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// CompressConfig 壓縮等級
type CompressConfig struct {
	GzipLevel int
	ZstdLevel zstd.EncoderLevel
}

var DefaultCompressConfig = CompressConfig{
	GzipLevel: gzip.DefaultCompression,
	ZstdLevel: zstd.SpeedFastest,
}

// Compression 以預設等級壓縮回應（zstd 優先，其次 gzip）
func Compression(next http.Handler) http.Handler {
	return defaultCompressor.handler(next)
}

var defaultCompressor = NewCompressor(DefaultCompressConfig)

// Compressor 持有壓縮器池；同一組設定共用一個。
type Compressor struct {
	cfg  CompressConfig
	gzip sync.Pool
	zstd sync.Pool
}

func NewCompressor(cfg CompressConfig) *Compressor {
	return &Compressor{cfg: cfg}
}

// Middleware 回傳以此設定壓縮的 middleware
func (c *Compressor) Middleware() func(http.Handler) http.Handler {
	return c.handler
}

func (c *Compressor) handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// HEAD / WebSocket / 已被上游壓縮
		if r.Method == http.MethodHead || isWebSocketUpgrade(r) || w.Header().Get("Content-Encoding") != "" {
			next.ServeHTTP(w, r)
			return
		}

		enc := r.Header.Get("Accept-Encoding")
		var (
			cw      io.WriteCloser
			reset   func(io.Writer)
			release func()
		)
		switch {
		case strings.Contains(enc, "zstd"):
			zw := c.getZstd(w)
			cw, reset, release = zw, zw.Reset, func() { _ = zw.Close(); c.zstd.Put(zw) }
			w.Header().Set("Content-Encoding", "zstd")
		case strings.Contains(enc, "gzip"):
			gw := c.getGzip(w)
			cw, reset, release = gw, gw.Reset, func() { _ = gw.Close(); c.gzip.Put(gw) }
			w.Header().Set("Content-Encoding", "gzip")
		default:
			next.ServeHTTP(w, r)
			return
		}
		w.Header().Add("Vary", "Accept-Encoding")

		rw := &compressResponseWriter{ResponseWriter: w, w: cw}
		defer func() {
			// 204/304 不可寫出壓縮尾端
			if rw.disabled {
				reset(io.Discard)
			}
			release()
		}()
		next.ServeHTTP(rw, r)
	})
}

func (c *Compressor) getZstd(w io.Writer) *zstd.Encoder {
	if v := c.zstd.Get(); v != nil {
		zw := v.(*zstd.Encoder)
		zw.Reset(w)
		return zw
	}
	zw, err := zstd.NewWriter(w,
		zstd.WithEncoderLevel(c.cfg.ZstdLevel),
		zstd.WithEncoderConcurrency(1),
	)
	if err != nil {
		panic(err)
	}
	return zw
}

func (c *Compressor) getGzip(w io.Writer) *gzip.Writer {
	if v := c.gzip.Get(); v != nil {
		gw := v.(*gzip.Writer)
		gw.Reset(w)
		return gw
	}
	gw, err := gzip.NewWriterLevel(w, c.cfg.GzipLevel)
	if err != nil {
		gw = gzip.NewWriter(w)
	}
	return gw
}

func isWebSocketUpgrade(r *http.Request) bool {
	return strings.Contains(strings.ToLower(r.Header.Get("Connection")), "upgrade") ||
		r.Header.Get("Upgrade") != ""
}

// 204 No Content, 304 Not Modified, 1xx Informational
func isNoBodyStatus(code int) bool {
	return (code >= 100 && code < 200) || code == http.StatusNoContent || code == http.StatusNotModified
}

type compressResponseWriter struct {
	http.ResponseWriter
	w        io.Writer // gzip.Writer 或 zstd.Encoder
	disabled bool      // 無 body 的狀態碼取消壓縮
}

func (cw *compressResponseWriter) Write(b []byte) (int, error) {
	if cw.disabled {
		return cw.ResponseWriter.Write(b)
	}
	cw.Header().Del("Content-Length")
	if cw.Header().Get("Content-Type") == "" {
		cw.Header().Set("Content-Type", http.DetectContentType(b))
	}
	return cw.w.Write(b)
}

func (cw *compressResponseWriter) WriteHeader(code int) {
	cw.Header().Del("Content-Length")
	if isNoBodyStatus(code) {
		cw.disabled = true
		cw.Header().Del("Content-Encoding")
		cw.Header().Del("Vary")
	}
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *compressResponseWriter) Flush() {
	if !cw.disabled {
		if f, ok := cw.w.(interface{ Flush() error }); ok {
			_ = f.Flush()
		}
	}
	if f, ok := cw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (cw *compressResponseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := cw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("underlying response writer does not support Hijacker")
	}
	return hj.Hijack()
}
