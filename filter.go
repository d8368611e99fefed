package usher

import (
	"io"
	"net/http"
	"path/filepath"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"github.com/rifflock/lfshook"
	"github.com/sirupsen/logrus"
)

// CORSFilter answers preflight requests and stamps the usual CORS
// headers on everything else before the action runs.
type CORSFilter struct {
	AllowOrigin string
}

func (c *CORSFilter) Filter(ar *ActionRequest, next func() error) error {
	origin := c.AllowOrigin
	if origin == "" {
		origin = "*"
	}
	h := ar.W.Header()
	h.Set("Access-Control-Allow-Origin", origin)
	h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")
	h.Set("Access-Control-Expose-Headers", "Content-Length")
	h.Set("Access-Control-Allow-Credentials", "true")
	if ar.R.Method == http.MethodOptions {
		ar.W.WriteHeader(http.StatusNoContent)
		return nil
	}
	return next()
}

// AccessLogFilter writes one structured line per request after the
// response is rendered, so the logged status is the one sent. With a
// Dir it rotates JSON files daily; without one it logs to stderr.
type AccessLogFilter struct {
	log *logrus.Logger
}

func NewAccessLogFilter(dir string) (*AccessLogFilter, error) {
	l := logrus.New()
	l.SetFormatter(&logrus.JSONFormatter{})
	if dir == "" {
		return &AccessLogFilter{log: l}, nil
	}
	writer, err := rotatelogs.New(
		filepath.Join(dir, "access.%Y%m%d.log"),
		rotatelogs.WithMaxAge(7*24*time.Hour),
		rotatelogs.WithRotationTime(24*time.Hour),
	)
	if err != nil {
		return nil, err
	}
	l.SetOutput(io.Discard)
	l.AddHook(lfshook.NewHook(lfshook.WriterMap{
		logrus.InfoLevel:  writer,
		logrus.WarnLevel:  writer,
		logrus.ErrorLevel: writer,
	}, &logrus.JSONFormatter{}))
	return &AccessLogFilter{log: l}, nil
}

func (a *AccessLogFilter) Filter(ar *ActionRequest, next func() error) error {
	start := time.Now()
	err := next()
	status := ar.Status()
	if status == 0 {
		status = http.StatusOK
	}
	entry := a.log.WithFields(logrus.Fields{
		"request_id": ar.ID,
		"method":     ar.R.Method,
		"path":       ar.R.URL.Path,
		"status":     status,
		"took_ms":    time.Since(start).Milliseconds(),
	})
	if status >= http.StatusInternalServerError {
		entry.Error("access")
	} else {
		entry.Info("access")
	}
	return err
}
