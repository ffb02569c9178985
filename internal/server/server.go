// Package server 提供文档上传转换的 HTTP 接口
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/allanpk716/docx_homoglyph/internal/domain"
	"github.com/allanpk716/docx_homoglyph/internal/logging"
	"github.com/allanpk716/docx_homoglyph/pkg/docx"
)

// 接口路径与表单字段
const (
	ConvertPath   = "/api/convert"
	HealthPath    = "/healthz"
	DocumentField = "document"
	DocxMIMEType  = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// 返回给客户端的错误信息，不包含解析器的诊断细节
const (
	msgNoFile           = "no file"
	msgInvalidFile      = "invalid file"
	msgProcessingFailed = "processing failed"
)

// Options 服务配置
type Options struct {
	Addr           string
	MaxUploadBytes int64
	OutputSuffix   string
}

// Server 文档转换 HTTP 服务
type Server struct {
	opts      Options
	processor domain.DocumentProcessor
	http      *http.Server
}

// New 创建服务
func New(processor domain.DocumentProcessor, opts Options) *Server {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 25 << 20
	}
	if opts.OutputSuffix == "" {
		opts.OutputSuffix = "-converted"
	}

	s := &Server{
		opts:      opts,
		processor: processor,
	}
	s.http = &http.Server{
		Addr:              opts.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler 带中间件的路由
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST "+ConvertPath, s.handleConvert)
	mux.HandleFunc("GET "+HealthPath, s.handleHealth)
	return logging.HTTPMiddleware(mux)
}

// ListenAndServe 启动服务，ctx 取消后优雅关闭
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("监听 %s 失败: %w", s.opts.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve 在指定的 listener 上提供服务
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	logging.ServerStartup(ln.Addr().String(), "max_upload_bytes", s.opts.MaxUploadBytes)

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.http.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("关闭服务失败: %w", err)
	}
	logging.Info("服务已停止")
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "ok")
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.LoggerFromContext(ctx)

	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)

	file, header, err := r.FormFile(DocumentField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			logger.Warn("上传文件过大", "limit", s.opts.MaxUploadBytes)
			writeError(w, http.StatusRequestEntityTooLarge, msgInvalidFile)
			return
		}
		logger.Info("请求中没有文件", "error", err)
		writeError(w, http.StatusBadRequest, msgNoFile)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		logger.Warn("读取上传文件失败", "error", err)
		writeError(w, http.StatusBadRequest, msgInvalidFile)
		return
	}
	if len(data) == 0 {
		writeError(w, http.StatusBadRequest, msgNoFile)
		return
	}

	out, info, err := s.processor.ProcessBytes(ctx, data)
	if err != nil {
		logging.DocumentFailed(ctx, header.Filename, err)
		if errors.Is(err, docx.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, msgInvalidFile)
			return
		}
		writeError(w, http.StatusInternalServerError, msgProcessingFailed)
		return
	}

	name := OutputFileName(header.Filename, s.opts.OutputSuffix)
	logging.DocumentConverted(ctx, header.Filename, name, info.ChangedRunes, info.Duration)

	w.Header().Set("Content-Type", DocxMIMEType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	w.Header().Set("Content-Length", fmt.Sprint(len(out)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
}

// OutputFileName 根据上传的文件名生成下载文件名，只保留文件名部分
func OutputFileName(uploaded, suffix string) string {
	base := filepath.Base(strings.ReplaceAll(uploaded, `\`, "/"))
	if base == "." || base == "/" || base == "" {
		base = "document.docx"
	}
	ext := filepath.Ext(base)
	if ext == "" {
		ext = ".docx"
	}
	return strings.TrimSuffix(base, filepath.Ext(base)) + suffix + ext
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, msg)
}
