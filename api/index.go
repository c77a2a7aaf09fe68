package handler

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/arnavshah/shift-optimizer/pkg/app"
	"github.com/arnavshah/shift-optimizer/pkg/config"
	"github.com/arnavshah/shift-optimizer/pkg/logger"
)

var r *gin.Engine

func init() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if cfg.GinMode == "" {
		cfg.GinMode = gin.ReleaseMode
	}

	zl, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	a, err := app.New(cfg, zl)
	if err != nil {
		zl.Fatal("could not start", zap.Error(err))
	}
	r = a.Router
}

// Handler is the entry point for Vercel Go Runtime
func Handler(w http.ResponseWriter, req *http.Request) {
	r.ServeHTTP(w, req)
}
