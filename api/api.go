// Package api exposes label printing over HTTP.
package api

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/nixxel-company-limited/tspl-label-printer/adapter"
	"github.com/nixxel-company-limited/tspl-label-printer/label"
	"github.com/nixxel-company-limited/tspl-label-printer/tspl"
	"github.com/nixxel-company-limited/tspl-label-printer/validate"
)

// OpenFunc opens a fresh adapter for one print job.
type OpenFunc func(ctx context.Context) (adapter.Adapter, error)

// Options wires the API to the printer.
type Options struct {
	Open OpenFunc
	// Agent lists Bluetooth devices for GET /devices. Nil disables the route.
	Agent adapter.Agent
	// Configuration is the base that a document's setup block overrides.
	Configuration tspl.Configuration
	Logger        *log.Logger
}

// API is the HTTP front end.
type API struct {
	opts   Options
	router *gin.Engine
	server *http.Server
	logger *log.Logger
}

// New builds the router. Address is only used by Start.
func New(address string, opts Options) *API {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(os.Stdout, "[API] ", log.LstdFlags|log.Lmsgprefix)
	}

	router := gin.New()
	router.Use(gin.LoggerWithWriter(logger.Writer()), gin.Recovery())

	a := &API{
		opts:   opts,
		router: router,
		server: &http.Server{Addr: address, Handler: router},
		logger: logger,
	}
	a.setupRoutes()
	return a
}

func (a *API) setupRoutes() {
	a.router.GET("/health", a.healthCheck)
	a.router.GET("/devices", a.listDevices)
	a.router.POST("/print", a.print)
}

// Handler returns the router, for tests and embedding.
func (a *API) Handler() http.Handler {
	return a.router
}

// Start serves until Stop is called.
func (a *API) Start() error {
	a.logger.Printf("API listening on %s", a.server.Addr)
	return a.server.ListenAndServe()
}

// Stop shuts the server down gracefully.
func (a *API) Stop(ctx context.Context) error {
	return a.server.Shutdown(ctx)
}

func (a *API) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (a *API) listDevices(c *gin.Context) {
	if a.opts.Agent == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"success": false, "error": "device discovery is not configured"})
		return
	}
	devices, err := a.opts.Agent.ListDevices(c.Request.Context())
	if err != nil {
		a.logger.Printf("Error listing devices: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "devices": devices})
}

func (a *API) print(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}
	doc, err := label.Parse(body)
	if err == nil {
		err = doc.Validate()
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	device, err := a.opts.Open(c.Request.Context())
	if err != nil {
		a.logger.Printf("Error opening printer: %v", err)
		c.JSON(statusFor(err), gin.H{"success": false, "error": err.Error()})
		return
	}

	err = adapter.Use(device, a.logger, func(d adapter.Adapter) error {
		p, err := tspl.NewWithConfiguration(d, doc.Apply(a.opts.Configuration))
		if err != nil {
			return err
		}
		return doc.Render(p)
	})
	if err != nil {
		a.logger.Printf("Error printing label: %v", err)
		c.JSON(statusFor(err), gin.H{"success": false, "error": err.Error()})
		return
	}

	message := "printed"
	if bt, ok := device.(*adapter.BluetoothAdapter); ok && bt.LastMessage() != "" {
		message = bt.LastMessage()
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": message})
}

// statusFor maps caller mistakes to 400 and everything else to 502.
func statusFor(err error) int {
	var verr *validate.Error
	switch {
	case errors.As(err, &verr),
		errors.Is(err, adapter.ErrInvalidPrinterName),
		errors.Is(err, adapter.ErrDeviceNotFound):
		return http.StatusBadRequest
	}
	return http.StatusBadGateway
}
