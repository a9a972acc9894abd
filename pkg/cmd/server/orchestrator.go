package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo"
	"github.com/labstack/echo/middleware"
	nats "github.com/nats-io/nats.go"
	"github.com/sachinsudani/whatsapp-multi-tenant-sub001/config"
	"github.com/sachinsudani/whatsapp-multi-tenant-sub001/pkg/api"
	"github.com/sachinsudani/whatsapp-multi-tenant-sub001/pkg/credentials"
	"github.com/sachinsudani/whatsapp-multi-tenant-sub001/pkg/orchestrator"
	"github.com/sachinsudani/whatsapp-multi-tenant-sub001/pkg/storage"
	"github.com/sachinsudani/whatsapp-multi-tenant-sub001/pkg/storage/memory"
	"github.com/sachinsudani/whatsapp-multi-tenant-sub001/pkg/storage/postgres"
	"github.com/sachinsudani/whatsapp-multi-tenant-sub001/pkg/transport"
	"github.com/sirupsen/logrus"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type orchestratorServer struct {
	c *config.Config

	quitCh chan bool
	doneCh chan bool

	nc    *nats.Conn
	errCh chan error
}

func init() {
	formatter := &logrus.TextFormatter{
		FullTimestamp: true,
	}
	logrus.SetFormatter(formatter)

	// Output to stdout instead of the default stderr
	log.SetOutput(os.Stdout)

	log.SetLevel(log.InfoLevel)
}

func newOrchestratorServer(c *config.Config) (*orchestratorServer, error) {
	s := &orchestratorServer{
		c:      c,
		quitCh: make(chan bool),
		doneCh: make(chan bool),

		errCh: make(chan error, 1),
	}

	nc, err := nats.Connect(c.NATSServerURL,
		nats.DrainTimeout(10*time.Second),
		nats.ErrorHandler(func(_ *nats.Conn, _ *nats.Subscription, err error) {
			log.Error("nats error handler: ", err)
			s.errCh <- err
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			log.Info("nats connection closed")
		}),
		nats.DisconnectHandler(func(_ *nats.Conn) {
			syscall.Kill(syscall.Getpid(), syscall.SIGINT)
		}))
	if err != nil {
		return nil, err
	}

	s.nc = nc

	return s, nil
}

func (s *orchestratorServer) newStore() (storage.Interface, error) {
	if s.c.DatabaseURL == "" {
		log.Warn("DATABASE_URL is not set, falling back to the in-memory store")
		return memory.NewStore(), nil
	}

	db, err := sqlx.Open("postgres", s.c.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}

	return postgres.NewStore(db), nil
}

func (s *orchestratorServer) Serve() {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(logger())

	store, err := s.newStore()
	if err != nil {
		log.Error("failed to connect to storage: ", err)
		os.Exit(1)
	}

	creds, err := credentials.NewFileStore(s.c.SessionsDir)
	if err != nil {
		log.Error("failed to prepare sessions directory: ", err)
		os.Exit(1)
	}

	// Create the orchestrator controller
	ctrl := orchestrator.NewController(store, creds, transport.DefaultDialer(),
		orchestrator.NewRegistry(), s.nc, orchestrator.DefaultOptions())

	// Register API endpoints
	handler := api.NewHandler(ctrl, s.nc)
	handler.RegisterRoutes(e)

	go func() {
		log.WithFields(log.Fields{
			"host": s.c.BindHost,
			"port": s.c.BindPort,
		}).Info("Starting orchestrator server")

		addr := fmt.Sprintf("%s:%d", s.c.BindHost, s.c.BindPort)
		if err := e.Start(addr); err != nil {
			log.Info("Shutting down orchestrator server")
		}
	}()

	// Wait until receiving the quit signal
	<-s.quitCh
	log.Info("Shutdown signal received")

	// Create a 10 second timeout context
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown the echo web server
	if err := e.Shutdown(ctx); err != nil {
		e.Logger.Error(err)
	}

	// We've done!
	s.doneCh <- true
}

func (s *orchestratorServer) Shutdown() {
	if s.nc != nil {
		s.nc.Drain()
	}

	// Send the quit signal to the server.Serve() routine
	s.quitCh <- true

	// Wait up to 10 seconds
	select {
	case <-s.doneCh:
		log.Info("Shutdown server successful")
	case <-time.After(10 * time.Second):
		log.Error("Shutdown server failed")
	}
}

// Logger returns a middleware that logs HTTP requests.
func logger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			res := c.Response()
			start := time.Now()

			var err error
			if err = next(c); err != nil {
				c.Error(err)
			}
			stop := time.Now()

			id := req.Header.Get(echo.HeaderXRequestID)
			if id == "" {
				id = res.Header().Get(echo.HeaderXRequestID)
			}
			reqSizeStr := req.Header.Get(echo.HeaderContentLength)
			if reqSizeStr == "" {
				reqSizeStr = "0"
			}
			reqSize, err := strconv.ParseInt(reqSizeStr, 10, 0)
			if err != nil {
				reqSize = -1
			}
			errMsg := ""
			if err != nil {
				errMsg = err.Error()
			}

			log.WithFields(log.Fields{
				"timestamp":     stop.Format(time.RFC3339),
				"id":            id,
				"remote_ip":     c.RealIP(),
				"host":          req.Host,
				"method":        req.Method,
				"uri":           req.RequestURI,
				"protocol":      req.Proto,
				"user_agent":    req.UserAgent(),
				"status":        res.Status,
				"status_text":   http.StatusText(res.Status),
				"referer":       req.Referer(),
				"error":         errMsg,
				"bytes_in":      reqSize,
				"bytes_out":     res.Size,
				"latency":       stop.Sub(start).Nanoseconds(),
				"latency_human": stop.Sub(start).String(),
			}).Infof("%s %s %s %d %s", req.Method, req.RequestURI, req.Proto,
				res.Status, strconv.FormatInt(res.Size, 10))

			return err
		}
	}
}

func RunServeOrchestrator(c *config.Config) func(cmd *cobra.Command, args []string) {
	return func(cmd *cobra.Command, args []string) {
		s, err := newOrchestratorServer(c)
		if err != nil {
			log.Error("failed to create new server instance: ", err)
			os.Exit(1)
		}

		go s.Serve()

		// Wait for interrupt signal to gracefully shutdown the server
		quitCh := make(chan os.Signal, 1)
		signal.Notify(quitCh, os.Interrupt)
		<-quitCh

		// Shutdown the server
		s.Shutdown()
	}
}
