package api

import (
	"context"
	"crypto/tls"
	"encoding/pem"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/daikurogo/ipywidgets/api/controllers"
	"github.com/daikurogo/ipywidgets/api/middlewares"
	"github.com/daikurogo/ipywidgets/tool"
)

// Server represents the HTTP API server exposing the upload controls
type Server struct {
	port     int
	protocol string
	engine   *gin.Engine
	server   *http.Server
	mu       sync.RWMutex
}

// NewServer creates a new API server instance
func NewServer(port int, protocol string) *Server {
	if protocol == "" {
		protocol = "http"
	}
	return &Server{
		port:     port,
		protocol: protocol,
	}
}

// NewRouter builds the gin engine with every route registered.
func NewRouter() *gin.Engine {
	if tool.DefaultLogger.GetLevel() == log.DebugLevel {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Logger())
	engine.Use(gin.Recovery())
	engine.Use(middlewares.AllowAllCORS())

	cfg := tool.GetCurrentConfig()
	uploadLimit := middlewares.RateLimitPerIP(float64(cfg.UploadRatePerSec), max(cfg.UploadRatePerSec, 1))

	v1 := engine.Group("/api/widget/v1")
	{
		v1.GET("/status", controllers.WidgetStatus)
		v1.GET("/create-qr-code", controllers.GenerateQRCode) // QR code PNG (same params as api.qrserver.com)
		v1.GET("/config", middlewares.OnlyAllowLocal, controllers.ConfigGet)
		v1.PATCH("/config", middlewares.OnlyAllowLocal, controllers.ConfigPatch)
	}
	widgets := v1.Group("/widgets")
	{
		widgets.GET("", controllers.WidgetList)
		widgets.POST("", middlewares.OnlyAllowLocal, controllers.WidgetCreate)
		widgets.DELETE("/:id", middlewares.OnlyAllowLocal, controllers.WidgetDelete)
		widgets.GET("/:id/state", controllers.WidgetState)
		widgets.GET("/:id/data/:index", controllers.WidgetData)
		widgets.PATCH("/:id/config", middlewares.OnlyAllowLocal, controllers.WidgetConfigPatch)
		widgets.POST("/:id/click", middlewares.OnlyAllowLocal, controllers.WidgetClick)
		widgets.POST("/:id/upload", uploadLimit, controllers.WidgetUpload) // open to the LAN, see qrcode
		widgets.GET("/:id/view", controllers.WidgetView)
		widgets.GET("/:id/comm-ws", middlewares.OnlyAllowLocal, controllers.WidgetCommWS)
		widgets.GET("/:id/batches", controllers.WidgetBatches)
		widgets.GET("/:id/batches/:counter", controllers.WidgetBatch)
		widgets.GET("/:id/qrcode", controllers.WidgetQRCode)
	}
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return engine
}

// Start starts the HTTP server. It returns nil after Shutdown.
func (s *Server) Start() error {
	engine := NewRouter()

	s.mu.Lock()
	s.engine = engine
	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.port),
		Handler: engine,
	}
	s.mu.Unlock()

	address := fmt.Sprintf("%s://0.0.0.0:%d", s.protocol, s.port)
	tool.DefaultLogger.Infof("Starting API server on %s", address)

	var err error
	if s.protocol == "https" {
		var tlsConfig *tls.Config
		tlsConfig, err = loadTLSConfig()
		if err != nil {
			return err
		}
		s.mu.Lock()
		s.server.TLSConfig = tlsConfig
		s.mu.Unlock()
		tool.DefaultLogger.Infof("TLS certificate configured for HTTPS")
		err = s.server.ListenAndServeTLS("", "")
	} else {
		err = s.server.ListenAndServe()
	}
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.RLock()
	srv := s.server
	s.mu.RUnlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

// loadTLSConfig gets or creates the certificate stored in config.yaml.
func loadTLSConfig() (*tls.Config, error) {
	cfg := *tool.GetCurrentConfig()
	hadCert := cfg.CertPEM != ""
	certBytes, keyBytes, err := tool.GetOrCreateTLSCertFromConfig(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to get TLS certificate: %v", err)
	}
	if !hadCert || cfg.CertPEM != tool.GetCurrentConfig().CertPEM {
		if err := tool.SaveConfig(cfg); err != nil {
			tool.DefaultLogger.Warnf("Failed to persist TLS certificate: %v", err)
		}
	}

	// Convert DER format to PEM format
	certPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "CERTIFICATE",
		Bytes: certBytes,
	})
	keyPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "EC PRIVATE KEY",
		Bytes: keyBytes,
	})

	cert, err := tls.X509KeyPair(certPEM, keyPEM)
	if err != nil {
		return nil, fmt.Errorf("failed to load TLS certificate: %v", err)
	}
	return &tls.Config{
		Certificates: []tls.Certificate{cert},
	}, nil
}
