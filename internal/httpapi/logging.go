package httpapi

import (
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// zlog is an optional structured logger. If unset, falls back to log.Printf.
var zlog *zerolog.Logger

// SetLogger installs a structured logger used by the HTTP layer.
func SetLogger(l zerolog.Logger) { zlog = &l }

func logStart(r *http.Request, model string) {
	if zlog == nil {
		return
	}
	zlog.Debug().
		Str("request_id", middleware.GetReqID(r.Context())).
		Str("path", r.URL.Path).
		Str("model", model).
		Msg("completion start")
}

func logEnd(r *http.Request, status int, elapsed time.Duration, err error) {
	if zlog == nil {
		if err != nil {
			log.Printf("complete> status=%d err=%v", status, err)
		}
		return
	}
	ev := zlog.Info()
	if err != nil {
		ev = zlog.Error().Err(err)
	}
	ev.
		Str("request_id", middleware.GetReqID(r.Context())).
		Str("path", r.URL.Path).
		Int("status", status).
		Dur("elapsed", elapsed).
		Msg("completion done")
}
